package tasks

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodreport-backend/internal/shared/metrics"
	"bloodreport-backend/internal/shared/telemetry"
)

const progressAnalyzing = "Analyzing blood report..."

// Executor runs a single analysis request to completion. Implementations
// must return the persisted analysis id even when the run itself failed, so
// the task snapshot can point at the stored failure row.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Config sizes the runner. Zero values fall back to conservative defaults.
type Config struct {
	Workers       int
	QueueSize     int
	Retention     time.Duration
	SweepInterval time.Duration
}

// Runner owns a bounded queue and a pool of workers draining it. Task state
// is observable through the embedded StatusStore for the life of the runner
// process only.
type Runner struct {
	exec  Executor
	store *StatusStore
	queue chan queued

	mu     sync.Mutex
	closed bool

	sweepInterval time.Duration
	wg            sync.WaitGroup
	stopSweep     chan struct{}
}

type queued struct {
	taskID string
	req    Request
}

// NewRunner builds a Runner around the given executor.
func NewRunner(exec Executor, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Runner{
		exec:          exec,
		store:         NewStatusStore(cfg.Retention, nil),
		queue:         make(chan queued, cfg.QueueSize),
		sweepInterval: cfg.SweepInterval,
		stopSweep:     make(chan struct{}),
	}
}

// Start launches the worker pool and the retention sweeper.
func (r *Runner) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.wg.Add(1)
	go r.sweeper()
	telemetry.Info("tasks.runner_started", map[string]any{
		"workers":    workers,
		"queue_size": cap(r.queue),
	})
}

// Enqueue issues a task id, registers it as pending and hands the request to
// the queue. The pending record is written before the channel send so a poll
// racing the enqueue never observes unknown. A full queue rolls the record
// back and reports ErrQueueFull.
func (r *Runner) Enqueue(req Request) (string, error) {
	taskID := uuid.NewString()
	r.store.PutPending(taskID)

	// The send happens under the mutex so Stop cannot close the channel
	// between the closed check and the send.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.store.Delete(taskID)
		return "", ErrRunnerClosed
	}
	select {
	case r.queue <- queued{taskID: taskID, req: req}:
		r.mu.Unlock()
		metrics.IncTaskEnqueued()
		telemetry.Info("task.status", map[string]any{
			"task_id":       taskID,
			"state":         StatePending,
			"analysis_type": req.AnalysisType,
			"request_id":    req.RequestID,
		})
		return taskID, nil
	default:
		r.mu.Unlock()
		r.store.Delete(taskID)
		return "", ErrQueueFull
	}
}

// Status reports the current snapshot for a task id.
func (r *Runner) Status(taskID string) Snapshot {
	return r.store.Get(taskID)
}

// Backlog reports how many requests are queued but not yet picked up.
func (r *Runner) Backlog() int {
	return len(r.queue)
}

// Stop closes the queue, waits for in-flight work to drain and halts the
// sweeper. Further Enqueue calls report ErrRunnerClosed.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	close(r.stopSweep)
	r.wg.Wait()
	telemetry.Info("tasks.runner_stopped", nil)
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for q := range r.queue {
		r.process(ctx, q)
	}
}

func (r *Runner) process(ctx context.Context, q queued) {
	r.store.SetInProgress(q.taskID, progressAnalyzing)
	telemetry.Info("task.status", map[string]any{
		"task_id": q.taskID,
		"state":   StateInProgress,
	})

	res, err := r.execute(ctx, q)

	if q.req.FilePath != "" {
		if rmErr := os.Remove(q.req.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			telemetry.Warn("task.cleanup_failed", map[string]any{
				"task_id": q.taskID,
				"path":    q.req.FilePath,
				"error":   rmErr.Error(),
			})
		}
	}

	if err != nil {
		r.store.SetFailed(q.taskID, res.AnalysisID, err.Error())
		telemetry.Error("task.status", map[string]any{
			"task_id":     q.taskID,
			"state":       StateFailed,
			"analysis_id": res.AnalysisID,
			"error":       err.Error(),
		})
		return
	}
	r.store.SetSucceeded(q.taskID, res.AnalysisID, res.Text)
	telemetry.Info("task.status", map[string]any{
		"task_id":     q.taskID,
		"state":       StateSucceeded,
		"analysis_id": res.AnalysisID,
	})
}

// execute shields the worker goroutine from executor panics. A panic becomes
// a terminal failure instead of crashing the process and stranding the task
// in in_progress.
func (r *Runner) execute(ctx context.Context, q queued) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.exec.Execute(ctx, q.req)
}

func (r *Runner) sweeper() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.store.Sweep(); n > 0 {
				telemetry.Info("tasks.swept", map[string]any{"removed": n})
			}
		case <-r.stopSweep:
			return
		}
	}
}
