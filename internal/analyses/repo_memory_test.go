package analyses

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryRepoRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	want := AnalysisResult{
		UserID:       "user-1",
		FileName:     "report.pdf",
		Query:        "summarise",
		AnalysisType: "summary",
		Result:       "all clear",
		Status:       StatusCompleted,
		ProcessingMs: 1234.5,
		CreatedAt:    time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}

	id, err := repo.Create(context.Background(), want)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected assigned id")
	}

	rows, err := repo.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	got := rows[0]
	got.ID = 0
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestMemoryRepoListCapsAtHundred(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		_, err := repo.Create(context.Background(), AnalysisResult{
			UserID:       "user-1",
			FileName:     fmt.Sprintf("report-%d.pdf", i),
			AnalysisType: "summary",
			Status:       StatusCompleted,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	rows, err := repo.ListByUser(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != MaxHistoryLimit {
		t.Fatalf("expected %d rows, got %d", MaxHistoryLimit, len(rows))
	}
	if rows[0].FileName != "report-149.pdf" {
		t.Fatalf("expected newest first, got %q", rows[0].FileName)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.After(rows[i-1].CreatedAt) {
			t.Fatalf("rows out of order at index %d", i)
		}
	}
}

func TestMemoryRepoAggregateEmptyStore(t *testing.T) {
	repo := NewMemoryRepo()
	stats, err := repo.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected total 0, got %d", stats.Total)
	}
	if stats.SuccessRate != 0 {
		t.Fatalf("expected success rate 0, got %f", stats.SuccessRate)
	}
}

func TestMemoryRepoAggregateCounts(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	seed := []AnalysisResult{
		{UserID: "a", AnalysisType: "summary", Status: StatusCompleted, CreatedAt: now},
		{UserID: "a", AnalysisType: "nutrition", Status: StatusCompleted, CreatedAt: now},
		{UserID: "b", AnalysisType: "summary", Status: StatusFailed, CreatedAt: now},
		{UserID: "c", AnalysisType: "exercise", Status: StatusCompleted, CreatedAt: now},
	}
	for _, row := range seed {
		if _, err := repo.Create(context.Background(), row); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	stats, err := repo.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	if stats.ByStatus[StatusCompleted] != 3 || stats.ByStatus[StatusFailed] != 1 {
		t.Fatalf("unexpected status counts: %v", stats.ByStatus)
	}
	if stats.ByType["summary"] != 2 {
		t.Fatalf("unexpected type counts: %v", stats.ByType)
	}
	if stats.SuccessRate != 0.75 {
		t.Fatalf("expected success rate 0.75, got %f", stats.SuccessRate)
	}
}
