package analyses

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts one attempt row and returns its assigned id.
func (r *PGRepo) Create(ctx context.Context, result AnalysisResult) (int64, error) {
	const query = `
INSERT INTO analysis_results (user_id, file_name, query, analysis_type, result, status, processing_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		result.UserID,
		result.FileName,
		result.Query,
		result.AnalysisType,
		result.Result,
		result.Status,
		result.ProcessingMs,
		result.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByUser returns attempts for one user, newest first, capped at MaxHistoryLimit.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]AnalysisResult, error) {
	const query = `
SELECT id, user_id, file_name, query, analysis_type, result, status, processing_ms, created_at
FROM analysis_results
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []AnalysisResult{}
	for rows.Next() {
		var a AnalysisResult
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileName, &a.Query, &a.AnalysisType, &a.Result, &a.Status, &a.ProcessingMs, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Aggregate computes ledger-wide counts and the success rate.
func (r *PGRepo) Aggregate(ctx context.Context) (Stats, error) {
	stats := Stats{
		ByStatus: map[string]int{},
		ByType:   map[string]int{},
	}

	statusRows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM analysis_results GROUP BY status`)
	if err != nil {
		return Stats{}, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var count int
		if err := statusRows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := statusRows.Err(); err != nil {
		return Stats{}, err
	}

	typeRows, err := r.DB.QueryContext(ctx, `SELECT analysis_type, COUNT(*) FROM analysis_results GROUP BY analysis_type`)
	if err != nil {
		return Stats{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var typ string
		var count int
		if err := typeRows.Scan(&typ, &count); err != nil {
			return Stats{}, err
		}
		stats.ByType[typ] = count
	}
	if err := typeRows.Err(); err != nil {
		return Stats{}, err
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.ByStatus[StatusCompleted]) / float64(stats.Total)
	}
	return stats, nil
}
