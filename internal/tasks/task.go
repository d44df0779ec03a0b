package tasks

import (
	"errors"
	"time"
)

// State is the lifecycle state of one background analysis task.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	// StateUnknown answers status lookups for ids the store no longer holds
	// (expired or never issued). It is distinct from pending.
	StateUnknown State = "unknown"
)

// ErrQueueFull is returned when the task backlog is saturated.
var ErrQueueFull = errors.New("task queue is full")

// ErrRunnerClosed is returned when enqueueing after shutdown began.
var ErrRunnerClosed = errors.New("task runner is closed")

// Request is one fully-prepared unit of analysis work. The file is already on
// disk and inputs are validated; the queue performs no validation of its own.
type Request struct {
	FilePath     string
	FileName     string
	Query        string
	AnalysisType string
	UserID       string
	RequestID    string
}

// Result is the terminal payload produced by the executor.
type Result struct {
	AnalysisID int64
	Text       string
}

// Snapshot is a point-in-time view of a task, safe to hand to callers.
// Terminal snapshots never change once taken.
type Snapshot struct {
	TaskID     string    `json:"task_id"`
	State      State     `json:"state"`
	Progress   string    `json:"progress_detail,omitempty"`
	Result     string    `json:"result,omitempty"`
	AnalysisID int64     `json:"analysis_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Terminal reports whether the snapshot's state is final.
func (s Snapshot) Terminal() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}
