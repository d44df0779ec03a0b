package users

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoIncrementAnalysesExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE users SET total_analyses").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	bumped, err := repo.IncrementAnalyses(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IncrementAnalyses: %v", err)
	}
	if !bumped {
		t.Fatal("expected counter bump for existing row")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoIncrementAnalysesUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE users SET total_analyses").
		WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	bumped, err := repo.IncrementAnalyses(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("IncrementAnalyses: %v", err)
	}
	if bumped {
		t.Fatal("expected no bump for missing row")
	}
}

func TestMemoryRepoGetByUserIDNotFound(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.GetByUserID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
