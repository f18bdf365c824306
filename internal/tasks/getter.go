package tasks

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
	"github.com/jobmesh/jobmesh/internal/transport"
)

// getterConcurrency bounds the number of downloads in flight at once, per
// the concurrency model's explicit bound on this loop.
const getterConcurrency = 10

// Getter loads every Submitted Job and polls its remote download_url,
// applying the result status map to move the job toward a terminal state
// (or leaving it Submitted for a 202 retry).
type Getter struct {
	Jobs     repositories.JobRepository
	Config   config.Config
	Endpoint transport.Endpoint
	Logger   *zap.Logger
}

// Run loads all Submitted jobs and processes them with a bound of
// getterConcurrency in-flight downloads.
func (g *Getter) Run(ctx context.Context) error {
	log := g.Logger.Named("getter")
	jobs, err := g.Jobs.ListByStatus(ctx, status.Submitted)
	if err != nil {
		log.Error("listing submitted jobs", zap.Error(err))
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	log.Info("polling jobs", zap.Int("count", len(jobs)))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(getterConcurrency)
	for _, job := range jobs {
		job := job
		group.Go(func() error {
			g.getOne(gctx, job, log)
			return nil
		})
	}
	// Errors are handled per-item inside getOne and every goroutine returns
	// nil, so group.Wait only waits for the downloads and returns nil.
	return group.Wait()
}

func (g *Getter) getOne(ctx context.Context, job db.Job, log *zap.Logger) {
	err := transport.Retrieve(ctx, g.Endpoint, g.Config, job.Service, job.Loc, job.DestID)

	next, shouldUpdate := mapDownloadOutcome(err)
	if !shouldUpdate {
		return
	}
	if uerr := g.Jobs.UpdateStatus(ctx, job.ID, next); uerr != nil {
		log.Error("status update failed",
			zap.Uint64("job_id", job.ID),
			zap.String("next_status", next.String()),
			zap.Error(uerr),
		)
		return
	}
	metrics.JobsProcessed.WithLabelValues(next.String()).Inc()
}

// mapDownloadOutcome applies the §4.4 result table to a transport.Retrieve
// outcome. shouldUpdate is false only for the 202 "stay Submitted, retry
// next tick" case.
func mapDownloadOutcome(err error) (next status.Status, shouldUpdate bool) {
	if err == nil {
		return status.Completed, true
	}
	derr, ok := err.(*transport.DownloadError)
	if !ok {
		return status.Unknown, true
	}
	switch derr.Kind {
	case transport.DownloadJobNotReady:
		return status.Submitted, false
	case transport.DownloadJobNotFound:
		return status.Unknown, true
	case transport.DownloadJobCleaned:
		return status.Cleaned, true
	case transport.DownloadJobFailed:
		return status.Failed, true
	case transport.DownloadJobInvalid:
		return status.Invalid, true
	default:
		return status.Unknown, true
	}
}
