package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
)

// Cleaner enumerates config.data_path and, for every subdirectory whose
// mtime is older than max_age, looks up the owning Job by loc and
// transitions it to Cleaned before removing the directory. Orphan
// directories (no matching row) are left in place — the DB is authoritative,
// not the filesystem.
type Cleaner struct {
	Jobs     repositories.JobRepository
	DataPath string
	MaxAge   time.Duration
	Logger   *zap.Logger
}

// Run scans DataPath once and reaps every subdirectory older than MaxAge,
// measured against wall-clock at loop entry.
func (c *Cleaner) Run(ctx context.Context) error {
	log := c.Logger.Named("cleaner")
	now := time.Now()

	entries, err := os.ReadDir(c.DataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		log.Error("reading data path", zap.String("data_path", c.DataPath), zap.Error(err))
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warn("stat failed", zap.String("entry", entry.Name()), zap.Error(err))
			continue
		}
		if now.Sub(info.ModTime()) < c.MaxAge {
			continue
		}

		abs, err := filepath.Abs(filepath.Join(c.DataPath, entry.Name()))
		if err != nil {
			log.Warn("abs path failed", zap.String("entry", entry.Name()), zap.Error(err))
			continue
		}
		c.reap(ctx, abs, log)
	}
	return nil
}

func (c *Cleaner) reap(ctx context.Context, loc string, log *zap.Logger) {
	job, err := c.Jobs.GetByLoc(ctx, loc)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info("orphan directory, skipping", zap.String("loc", loc))
			return
		}
		log.Error("lookup by loc failed", zap.String("loc", loc), zap.Error(err))
		return
	}

	if err := c.Jobs.UpdateStatus(ctx, job.ID, status.Cleaned); err != nil {
		log.Error("transition to cleaned failed", zap.Uint64("job_id", job.ID), zap.Error(err))
		return
	}
	metrics.JobsProcessed.WithLabelValues(status.Cleaned.String()).Inc()
	if err := os.RemoveAll(loc); err != nil {
		log.Error("directory removal failed", zap.String("loc", loc), zap.Error(err))
	}
}
