// Package scheduler wraps gocron to drive the background task loops
// (sender, getter, runner, cleaner) on fixed intervals. Each loop is
// registered as a singleton-mode gocron job: if a previous tick is still
// running when the next one fires, the new execution is skipped rather than
// overlapping.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Loop is anything the scheduler can drive on an interval. Sender, Getter,
// Runner, and Cleaner all satisfy it.
type Loop interface {
	Run(ctx context.Context) error
}

// Scheduler wraps gocron.Scheduler and coordinates registration of the task
// loops. The zero value is not usable — create instances with New.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *zap.Logger
}

// New creates a new Scheduler. Call Start to begin processing.
func New(logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: s, logger: logger.Named("scheduler")}, nil
}

// Register schedules loop to run every interval, tagged with name for later
// identification in logs. Jobs run in singleton mode: an overrunning tick
// causes the next one to be skipped, not queued.
func (s *Scheduler) Register(name string, loop Loop, interval time.Duration) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := loop.Run(ctx); err != nil {
				s.logger.Error("task loop failed", zap.String("loop", name), zap.Error(err))
			}
		}),
		gocron.WithTags(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduler: registering %s: %w", name, err)
	}
	s.logger.Info("loop registered", zap.String("loop", name), zap.Duration("interval", interval))
	return nil
}

// Start begins running every registered loop on its schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop gracefully shuts down the scheduler, waiting for any currently
// running ticks to complete before returning.
func (s *Scheduler) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}
