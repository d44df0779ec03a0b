package tasks

import (
	"sync"
	"time"
)

// StatusStore tracks task lifecycle state in memory, keyed by task id.
// Terminal entries are retained for a bounded period and then evicted; a
// lookup after eviction answers StateUnknown rather than pending.
type StatusStore struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	retention time.Duration
	now       func() time.Time
}

type entry struct {
	snapshot   Snapshot
	terminalAt time.Time
}

// NewStatusStore constructs a StatusStore evicting terminal entries after
// the given retention period.
func NewStatusStore(retention time.Duration, now func() time.Time) *StatusStore {
	if now == nil {
		now = time.Now
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &StatusStore{
		entries:   make(map[string]*entry),
		retention: retention,
		now:       now,
	}
}

// PutPending registers a freshly-issued task id, so a poll immediately after
// enqueue never sees unknown.
func (s *StatusStore) PutPending(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[taskID] = &entry{snapshot: Snapshot{
		TaskID:    taskID,
		State:     StatePending,
		UpdatedAt: s.now().UTC(),
	}}
}

// Delete removes an entry outright. Used to roll back a pending record when
// the queue rejects the submit.
func (s *StatusStore) Delete(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, taskID)
}

// SetInProgress moves a task to in_progress with a progress annotation.
func (s *StatusStore) SetInProgress(taskID, progress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[taskID]
	if !ok || e.snapshot.Terminal() {
		return
	}
	e.snapshot.State = StateInProgress
	e.snapshot.Progress = progress
	e.snapshot.UpdatedAt = s.now().UTC()
}

// SetSucceeded records the terminal success snapshot. No mutation happens
// after a terminal state is reached.
func (s *StatusStore) SetSucceeded(taskID string, analysisID int64, result string) {
	s.setTerminal(taskID, func(snap *Snapshot) {
		snap.State = StateSucceeded
		snap.Result = result
		snap.AnalysisID = analysisID
	})
}

// SetFailed records the terminal failure snapshot, mirroring the persisted
// failure row rather than keeping an independent copy of the error.
func (s *StatusStore) SetFailed(taskID string, analysisID int64, errMsg string) {
	s.setTerminal(taskID, func(snap *Snapshot) {
		snap.State = StateFailed
		snap.Error = errMsg
		snap.AnalysisID = analysisID
	})
}

func (s *StatusStore) setTerminal(taskID string, apply func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[taskID]
	if !ok || e.snapshot.Terminal() {
		return
	}
	apply(&e.snapshot)
	e.snapshot.Progress = ""
	e.snapshot.UpdatedAt = s.now().UTC()
	e.terminalAt = s.now().UTC()
}

// Get returns the current snapshot for a task id. Unknown ids yield a
// well-formed unknown snapshot, never an error.
func (s *StatusStore) Get(taskID string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[taskID]
	if !ok {
		return Snapshot{TaskID: taskID, State: StateUnknown, UpdatedAt: s.now().UTC()}
	}
	return e.snapshot
}

// Len reports the number of tracked entries.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep evicts terminal entries older than the retention period and returns
// how many were removed.
func (s *StatusStore) Sweep() int {
	cutoff := s.now().Add(-s.retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.terminalAt.IsZero() && e.terminalAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
