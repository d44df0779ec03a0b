package analyses

import "context"

// MaxHistoryLimit caps list responses to bound payload size.
const MaxHistoryLimit = 100

// Repo defines persistence operations for analysis results.
type Repo interface {
	Create(ctx context.Context, result AnalysisResult) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]AnalysisResult, error)
	Aggregate(ctx context.Context) (Stats, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
