// Package tasks implements the background task loops that drive Job and
// Payload state transitions: Sender, Getter and Cleaner on the server role,
// Runner and PayloadCleaner on the client role. Each loop is a struct with a
// Run(ctx) method, invoked on a schedule by internal/scheduler. Sender,
// Getter and Runner spawn per-item work as independent goroutines and await
// them before returning; the two cleaners reap directories one at a time.
package tasks

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
	"github.com/jobmesh/jobmesh/internal/transport"
)

// Sender loads every Queued Job and, for each, uploads its directory to the
// configured service endpoint, transitioning it to Submitted or Failed.
type Sender struct {
	Jobs     repositories.JobRepository
	Config   config.Config
	Endpoint transport.Endpoint
	Logger   *zap.Logger
}

// Run loads all Queued jobs and processes them concurrently, one task per
// job, awaiting all of them before returning.
func (s *Sender) Run(ctx context.Context) error {
	log := s.Logger.Named("sender")
	jobs, err := s.Jobs.ListByStatus(ctx, status.Queued)
	if err != nil {
		log.Error("listing queued jobs", zap.Error(err))
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	log.Info("dispatching jobs", zap.Int("count", len(jobs)))

	done := make(chan struct{}, len(jobs))
	for _, job := range jobs {
		job := job
		go func() {
			defer func() { done <- struct{}{} }()
			s.sendOne(ctx, job, log)
		}()
	}
	for range jobs {
		<-done
	}
	return nil
}

func (s *Sender) sendOne(ctx context.Context, job db.Job, log *zap.Logger) {
	if err := s.Jobs.UpdateStatus(ctx, job.ID, status.Processing); err != nil {
		log.Error("transition to processing failed", zap.Uint64("job_id", job.ID), zap.Error(err))
		return
	}

	remoteID, err := transport.Send(ctx, s.Endpoint, s.Config, job.Service, job.Loc)
	if err != nil {
		log.Warn("upload failed",
			zap.Uint64("job_id", job.ID),
			zap.String("service", job.Service),
			zap.String("loc", job.Loc),
			zap.Error(err),
		)
		if uerr := s.Jobs.UpdateStatus(ctx, job.ID, status.Failed); uerr != nil {
			log.Error("transition to failed failed", zap.Uint64("job_id", job.ID), zap.Error(uerr))
		}
		metrics.JobsProcessed.WithLabelValues(status.Failed.String()).Inc()
		return
	}

	if uerr := s.Jobs.UpdateStatusAndDest(ctx, job.ID, status.Submitted, remoteID); uerr != nil {
		log.Error("transition to submitted failed", zap.Uint64("job_id", job.ID), zap.Error(uerr))
	}
	metrics.JobsProcessed.WithLabelValues(status.Submitted.String()).Inc()
}
