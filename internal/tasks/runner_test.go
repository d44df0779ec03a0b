package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubExecutor struct {
	mu      sync.Mutex
	calls   []Request
	block   chan struct{}
	result  Result
	err     error
	started chan struct{}
}

func (s *stubExecutor) Execute(_ context.Context, req Request) (Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func waitForState(t *testing.T, r *Runner, taskID string, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := r.Status(taskID)
		if snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached state %q, last = %q", taskID, want, r.Status(taskID).State)
	return Snapshot{}
}

func TestRunnerSuccessPath(t *testing.T) {
	exec := &stubExecutor{result: Result{AnalysisID: 11, Text: "verdict: thrilling"}}
	r := NewRunner(exec, Config{Workers: 1, QueueSize: 4, Retention: time.Hour})
	r.Start(context.Background(), 1)
	defer r.Stop()

	id, err := r.Enqueue(Request{FileName: "report.pdf", AnalysisType: "summary"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if snap := r.Status(id); snap.State == StateUnknown {
		t.Fatalf("status immediately after enqueue must never be unknown")
	}

	snap := waitForState(t, r, id, StateSucceeded)
	if snap.AnalysisID != 11 {
		t.Fatalf("analysis id = %d, want 11", snap.AnalysisID)
	}
	if snap.Result != "verdict: thrilling" {
		t.Fatalf("result = %q", snap.Result)
	}
	if exec.callCount() != 1 {
		t.Fatalf("executor ran %d times, want 1", exec.callCount())
	}
}

func TestRunnerFailureKeepsAnalysisID(t *testing.T) {
	exec := &stubExecutor{
		result: Result{AnalysisID: 23},
		err:    errors.New("model unavailable"),
	}
	r := NewRunner(exec, Config{Workers: 1, QueueSize: 4, Retention: time.Hour})
	r.Start(context.Background(), 1)
	defer r.Stop()

	id, err := r.Enqueue(Request{FileName: "report.pdf"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	snap := waitForState(t, r, id, StateFailed)
	if snap.AnalysisID != 23 {
		t.Fatalf("failed snapshot must reference the stored row, got id %d", snap.AnalysisID)
	}
	if snap.Error != "model unavailable" {
		t.Fatalf("error = %q", snap.Error)
	}
}

func TestRunnerQueueFull(t *testing.T) {
	exec := &stubExecutor{block: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewRunner(exec, Config{Workers: 1, QueueSize: 1, Retention: time.Hour})
	r.Start(context.Background(), 1)

	first, err := r.Enqueue(Request{FileName: "a.pdf"})
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	<-exec.started

	// Worker is blocked on the first task; this one occupies the queue slot.
	if _, err := r.Enqueue(Request{FileName: "b.pdf"}); err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}

	id, err := r.Enqueue(Request{FileName: "c.pdf"})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if id != "" {
		t.Fatalf("rejected enqueue returned id %q", id)
	}

	close(exec.block)
	waitForState(t, r, first, StateSucceeded)
	r.Stop()
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(context.Context, Request) (Result, error) {
	panic("malformed pdf: runtime panic from extraction library")
}

type flakyExecutor struct {
	panicFirst bool
	mu         sync.Mutex
}

func (f *flakyExecutor) Execute(context.Context, Request) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicFirst {
		f.panicFirst = false
		panic("first task blows up")
	}
	return Result{AnalysisID: 5, Text: "fine"}, nil
}

func TestRunnerSurvivesPanickingExecutor(t *testing.T) {
	r := NewRunner(panickingExecutor{}, Config{Workers: 1, QueueSize: 4, Retention: time.Hour})
	r.Start(context.Background(), 1)
	defer r.Stop()

	id, err := r.Enqueue(Request{FileName: "bad.pdf"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	snap := waitForState(t, r, id, StateFailed)
	if !strings.Contains(snap.Error, "panic") {
		t.Fatalf("error = %q, want panic message", snap.Error)
	}
}

func TestRunnerKeepsWorkingAfterPanic(t *testing.T) {
	r := NewRunner(&flakyExecutor{panicFirst: true}, Config{Workers: 1, QueueSize: 4, Retention: time.Hour})
	r.Start(context.Background(), 1)
	defer r.Stop()

	first, err := r.Enqueue(Request{FileName: "bad.pdf"})
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	waitForState(t, r, first, StateFailed)

	// The same worker goroutine must still be alive to drain this one.
	second, err := r.Enqueue(Request{FileName: "good.pdf"})
	if err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}
	snap := waitForState(t, r, second, StateSucceeded)
	if snap.AnalysisID != 5 {
		t.Fatalf("analysis id = %d, want 5", snap.AnalysisID)
	}
}

func TestRunnerRejectsAfterStop(t *testing.T) {
	exec := &stubExecutor{}
	r := NewRunner(exec, Config{Workers: 1, QueueSize: 1, Retention: time.Hour})
	r.Start(context.Background(), 1)
	r.Stop()

	if _, err := r.Enqueue(Request{FileName: "late.pdf"}); !errors.Is(err, ErrRunnerClosed) {
		t.Fatalf("err = %v, want ErrRunnerClosed", err)
	}
}

func TestRunnerBacklog(t *testing.T) {
	exec := &stubExecutor{block: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewRunner(exec, Config{Workers: 1, QueueSize: 4, Retention: time.Hour})
	r.Start(context.Background(), 1)

	if _, err := r.Enqueue(Request{FileName: "a.pdf"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	<-exec.started
	if _, err := r.Enqueue(Request{FileName: "b.pdf"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := r.Backlog(); got != 1 {
		t.Fatalf("backlog = %d, want 1", got)
	}

	close(exec.block)
	r.Stop()
}
