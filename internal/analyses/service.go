package analyses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodreport-backend/internal/agents"
	"bloodreport-backend/internal/extract"
	"bloodreport-backend/internal/llm"
	"bloodreport-backend/internal/shared/metrics"
	"bloodreport-backend/internal/shared/telemetry"
	"bloodreport-backend/internal/users"
)

// ProcessRequest is one fully-validated unit of analysis work. The file is
// already on disk; validation happened at the HTTP boundary.
type ProcessRequest struct {
	FilePath     string
	FileName     string
	Query        string
	AnalysisType agents.Type
	UserID       string
	RequestID    string
}

// Outcome reports one finished attempt. Err carries the original analysis
// error on the failure path; the row is persisted either way.
type Outcome struct {
	AnalysisID   int64
	Result       string
	Status       string
	ProcessingMs float64
	Err          error
}

// Service runs the analysis pipeline and owns the durable result ledger.
type Service struct {
	Repo  Repo
	Users users.Repo
	LLM   llm.Client
}

// Process extracts the report, generates the narrative analysis, and records
// the attempt. Exactly one AnalysisResult row is written per call, on both
// success and failure.
func (s *Service) Process(ctx context.Context, req ProcessRequest) Outcome {
	started := time.Now().UTC()

	text, err := s.runGuarded(ctx, req)
	elapsed := float64(time.Since(started).Microseconds()) / 1000.0

	outcome := Outcome{
		Result:       text,
		Status:       StatusCompleted,
		ProcessingMs: elapsed,
	}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Result = fmt.Sprintf("Error: %v", err)
		outcome.Err = err
	}

	outcome.AnalysisID = s.record(ctx, req, outcome)

	if outcome.Status == StatusCompleted {
		metrics.IncAnalysisCompleted()
	} else {
		metrics.IncAnalysisFailed()
	}
	metrics.ObserveAnalysisDurationMs(elapsed)
	telemetry.Info("analysis.finished", map[string]any{
		"request_id":    req.RequestID,
		"user_id":       req.UserID,
		"analysis_id":   outcome.AnalysisID,
		"analysis_type": string(req.AnalysisType),
		"status":        outcome.Status,
		"duration_ms":   elapsed,
	})

	return outcome
}

// runGuarded converts panics from the pipeline into ordinary errors so the
// attempt row is still written and the worker goroutine survives.
func (s *Service) runGuarded(ctx context.Context, req ProcessRequest) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.run(ctx, req)
}

func (s *Service) run(ctx context.Context, req ProcessRequest) (string, error) {
	if s.LLM == nil {
		return "", fmt.Errorf("missing llm client")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Extraction is soft-fail: a bad file becomes descriptive text the
	// profile analyses instead of a pipeline abort.
	reportText := extract.ReadReport(req.FilePath)

	profile := agents.ProfileFor(req.AnalysisType)
	client := newRetryingLLM(s.LLM, req.RequestID)
	out, err := client.Generate(ctx, llm.GenerateInput{
		SystemPrompt: profile.SystemPrompt(),
		UserPrompt:   profile.UserPrompt(reportText, req.Query),
	})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return out, nil
}

// record persists the attempt row. A storage failure is surfaced to operators
// via logs but never masks the analysis outcome.
func (s *Service) record(ctx context.Context, req ProcessRequest, outcome Outcome) int64 {
	storedUser := req.UserID
	if strings.TrimSpace(storedUser) == "" {
		storedUser = uuid.NewString()
	}

	row := AnalysisResult{
		UserID:       storedUser,
		FileName:     req.FileName,
		Query:        req.Query,
		AnalysisType: string(req.AnalysisType),
		Result:       outcome.Result,
		Status:       outcome.Status,
		ProcessingMs: outcome.ProcessingMs,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.Repo.Create(context.WithoutCancel(ctx), row)
	if err != nil {
		telemetry.Error("analysis.record_failed", map[string]any{
			"request_id":    req.RequestID,
			"user_id":       storedUser,
			"analysis_type": string(req.AnalysisType),
			"status":        outcome.Status,
			"error":         err.Error(),
		})
		return 0
	}

	// Counter bump is opportunistic: only callers with an existing user row
	// see their total move.
	if s.Users != nil && strings.TrimSpace(req.UserID) != "" {
		if _, err := s.Users.IncrementAnalyses(context.WithoutCancel(ctx), req.UserID); err != nil {
			telemetry.Warn("analysis.user_counter_failed", map[string]any{
				"user_id": req.UserID,
				"error":   err.Error(),
			})
		}
	}

	return id
}

// History returns a user's past attempts, newest first, capped at MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]AnalysisResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

// Analytics aggregates the full ledger.
func (s *Service) Analytics(ctx context.Context) (Stats, error) {
	return s.Repo.Aggregate(ctx)
}
