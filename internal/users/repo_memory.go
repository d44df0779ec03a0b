package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores users in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[string]User
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, byUser: make(map[string]User)}
}

// Create inserts a user.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.byUser[user.UserID] = user
	return nil
}

// GetByUserID returns a user by external id.
func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byUser[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// IncrementAnalyses bumps the counter for an existing row only.
func (r *MemoryRepo) IncrementAnalyses(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUser[userID]
	if !ok {
		return false, nil
	}
	u.TotalAnalyses++
	r.byUser[userID] = u
	return true, nil
}
