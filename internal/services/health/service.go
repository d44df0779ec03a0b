package health

import (
	"context"
	"database/sql"
	"time"
)

// Backlogger reports how much queued work is waiting. Satisfied by the task
// runner.
type Backlogger interface {
	Backlog() int
}

// Service reports liveness of the result store and the task queue backend.
type Service struct {
	db    *sql.DB
	queue Backlogger
}

// NewService constructs a health service. db may be nil when running against
// the in-memory store.
func NewService(db *sql.DB, queue Backlogger) *Service {
	return &Service{db: db, queue: queue}
}

// Status pings the database and samples the queue backlog.
func (s *Service) Status(ctx context.Context) map[string]any {
	out := map[string]any{"ok": true}

	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			out["ok"] = false
			out["database"] = "unreachable"
		} else {
			out["database"] = "ok"
		}
	} else {
		out["database"] = "memory"
	}

	if s.queue != nil {
		out["queue_backlog"] = s.queue.Backlog()
	}

	return out
}
