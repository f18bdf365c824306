package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/status"
)

// JobRepository is the persistence interface for Job rows. The production
// implementation is gormJobRepository; tests may supply an in-memory fake.
type JobRepository interface {
	Create(ctx context.Context, job *db.Job) error
	GetByID(ctx context.Context, id uint64) (*db.Job, error)
	Update(ctx context.Context, job *db.Job) error
	UpdateStatus(ctx context.Context, id uint64, s status.Status) error
	UpdateStatusAndDest(ctx context.Context, id uint64, s status.Status, destID int64) error
	ListByStatus(ctx context.Context, s status.Status) ([]db.Job, error)
	GetByLoc(ctx context.Context, loc string) (*db.Job, error)
}

type gormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository returns a JobRepository backed by the provided *gorm.DB.
func NewJobRepository(database *gorm.DB) JobRepository {
	return &gormJobRepository{db: database}
}

// Create inserts a new job record, assigning its primary key.
func (r *gormJobRepository) Create(ctx context.Context, job *db.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("jobs: create: %w", err)
	}
	return nil
}

// GetByID retrieves a job by its primary key. Returns ErrNotFound if no
// record exists.
func (r *gormJobRepository) GetByID(ctx context.Context, id uint64) (*db.Job, error) {
	var job db.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("jobs: get by id: %w", err)
	}
	return &job, nil
}

// GetByLoc retrieves the job whose loc matches exactly — used by the
// cleaner to find the owning row for a directory by string equality.
func (r *gormJobRepository) GetByLoc(ctx context.Context, loc string) (*db.Job, error) {
	var job db.Job
	if err := r.db.WithContext(ctx).First(&job, "loc = ?", loc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("jobs: get by loc: %w", err)
	}
	return &job, nil
}

// Update persists all fields of an existing job record.
func (r *gormJobRepository) Update(ctx context.Context, job *db.Job) error {
	result := r.db.WithContext(ctx).Save(job)
	if result.Error != nil {
		return fmt.Errorf("jobs: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates only the status column of a job.
func (r *gormJobRepository) UpdateStatus(ctx context.Context, id uint64, s status.Status) error {
	result := r.db.WithContext(ctx).Model(&db.Job{}).Where("id = ?", id).Update("status", s.String())
	if result.Error != nil {
		return fmt.Errorf("jobs: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusAndDest updates the status and dest_id columns together — used
// by the sender loop when an upload succeeds and the remote id becomes
// known in the same transition.
func (r *gormJobRepository) UpdateStatusAndDest(ctx context.Context, id uint64, s status.Status, destID int64) error {
	result := r.db.WithContext(ctx).Model(&db.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":  s.String(),
		"dest_id": destID,
	})
	if result.Error != nil {
		return fmt.Errorf("jobs: update status and dest: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus loads every job row currently in the given status. This
// backs the ephemeral in-memory "Queue" batches the task loops operate on.
func (r *gormJobRepository) ListByStatus(ctx context.Context, s status.Status) ([]db.Job, error) {
	var jobs []db.Job
	if err := r.db.WithContext(ctx).Where("status = ?", s.String()).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("jobs: list by status: %w", err)
	}
	return jobs, nil
}
