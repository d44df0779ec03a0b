package users

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a user row.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (user_id, email, total_analyses, created_at)
VALUES ($1, $2, $3, now())`
	_, err := r.DB.ExecContext(ctx, query, user.UserID, user.Email, user.TotalAnalyses)
	return err
}

// GetByUserID returns a user by their external id.
func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, user_id, email, total_analyses, created_at
FROM users
WHERE user_id = $1
LIMIT 1`
	var u User
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.UserID, &email, &u.TotalAnalyses, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Email = email.String
	return u, nil
}

// IncrementAnalyses bumps the counter for an existing row only.
func (r *PGRepo) IncrementAnalyses(ctx context.Context, userID string) (bool, error) {
	const query = `
UPDATE users SET total_analyses = total_analyses + 1 WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
