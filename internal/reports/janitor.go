package reports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bloodreport-backend/internal/shared/telemetry"
)

// Janitor removes stale upload files the workers never got to delete, for
// example after a crash mid-task.
type Janitor struct {
	Dir      string
	MaxAge   time.Duration
	Interval time.Duration
}

// Run sweeps on a ticker until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.SweepOnce()
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce deletes upload files older than MaxAge and returns how many were
// removed.
func (j *Janitor) SweepOnce() int {
	maxAge := j.MaxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			telemetry.Warn("reports.janitor_read_failed", map[string]any{
				"dir":   j.Dir,
				"error": err.Error(),
			})
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), uploadPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.Dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				telemetry.Warn("reports.janitor_remove_failed", map[string]any{
					"path":  path,
					"error": err.Error(),
				})
			}
			continue
		}
		removed++
	}
	if removed > 0 {
		telemetry.Info("reports.janitor_swept", map[string]any{
			"dir":     j.Dir,
			"removed": removed,
		})
	}
	return removed
}
