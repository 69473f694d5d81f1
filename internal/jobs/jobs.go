// Package jobs runs periodic maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SessionCleaner removes expired sessions and reports how many were removed.
type SessionCleaner interface {
	Cleanup() (int64, error)
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the session cleanup job under spec, a standard
// five-field cron expression or a descriptor such as "@hourly".
func NewScheduler(spec string, sessions SessionCleaner) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { CleanupSessions(sessions) }); err != nil {
		return nil, fmt.Errorf("scheduling session cleanup %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("background jobs still running at shutdown")
	}
}

// CleanupSessions runs one cleanup pass and logs the outcome.
func CleanupSessions(sessions SessionCleaner) {
	n, err := sessions.Cleanup()
	if err != nil {
		slog.Error("cleaning up sessions", "err", err)
		return
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}
}
