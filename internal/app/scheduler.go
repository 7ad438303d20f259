/**
 * @description
 * Cron scheduling for the expiry sweep.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the expiry sweep on its schedule.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  *Sweeper
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(sweeper *Sweeper, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the sweep, runs it once immediately so a restart never
// waits a full interval to reconcile, and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.sweeper.RemoveExpiredMembers); err != nil {
		s.logger.Error("failed to schedule expiry sweep", "error", err)
	} else {
		s.logger.Info("scheduled expiry sweep", "schedule", s.schedule)
	}

	go s.sweeper.RemoveExpiredMembers()
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
