package analyses

import "time"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisResult is the durable, append-only record of one analysis attempt.
// Rows are written exactly once, on both success and failure, and never
// updated or deleted afterwards.
type AnalysisResult struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	FileName     string    `json:"file_name"`
	Query        string    `json:"query"`
	AnalysisType string    `json:"analysis_type"`
	Result       string    `json:"result,omitempty"`
	Status       string    `json:"status"`
	ProcessingMs float64   `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats aggregates the result ledger for the analytics endpoint.
type Stats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByType      map[string]int `json:"by_type"`
	SuccessRate float64        `json:"success_rate"`
}
