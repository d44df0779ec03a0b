package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores analysis results in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   []AnalysisResult
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1}
}

// Create appends one attempt row.
func (r *MemoryRepo) Create(ctx context.Context, result AnalysisResult) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	result.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, result)
	return result.ID, nil
}

// ListByUser returns attempts for a user, newest first, capped at MaxHistoryLimit.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	r.mu.RLock()
	matched := make([]AnalysisResult, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			matched = append(matched, row)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Aggregate computes counts and success rate over all rows.
func (r *MemoryRepo) Aggregate(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	stats := Stats{
		ByStatus: map[string]int{},
		ByType:   map[string]int{},
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		stats.Total++
		stats.ByStatus[row.Status]++
		stats.ByType[row.AnalysisType]++
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.ByStatus[StatusCompleted]) / float64(stats.Total)
	}
	return stats, nil
}
