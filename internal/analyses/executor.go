package analyses

import (
	"context"

	"bloodreport-backend/internal/agents"
	"bloodreport-backend/internal/tasks"
)

// TaskExecutor adapts the analysis pipeline to the task runner. The analysis
// type re-parses here because queue requests carry plain strings.
type TaskExecutor struct {
	Service *Service
}

func (e *TaskExecutor) Execute(ctx context.Context, req tasks.Request) (tasks.Result, error) {
	analysisType, err := agents.ParseType(req.AnalysisType)
	if err != nil {
		return tasks.Result{}, err
	}

	outcome := e.Service.Process(ctx, ProcessRequest{
		FilePath:     req.FilePath,
		FileName:     req.FileName,
		Query:        req.Query,
		AnalysisType: analysisType,
		UserID:       req.UserID,
		RequestID:    req.RequestID,
	})
	// The id is returned on both paths so a failed task snapshot still points
	// at the stored failure row.
	if outcome.Err != nil {
		return tasks.Result{AnalysisID: outcome.AnalysisID}, outcome.Err
	}
	return tasks.Result{AnalysisID: outcome.AnalysisID, Text: outcome.Result}, nil
}
