package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repo defines persistence operations for users.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByUserID(ctx context.Context, userID string) (User, error)
	// IncrementAnalyses bumps the counter only when a row already exists for
	// the given user id. It reports whether a row was touched.
	IncrementAnalyses(ctx context.Context, userID string) (bool, error)
}
