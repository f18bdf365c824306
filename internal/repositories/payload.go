package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/status"
)

// PayloadRepository is the persistence interface for Payload rows.
type PayloadRepository interface {
	Create(ctx context.Context, payload *db.Payload) error
	GetByID(ctx context.Context, id uint64) (*db.Payload, error)
	UpdateLocAndStatus(ctx context.Context, id uint64, loc string, s status.Status) error
	UpdateStatus(ctx context.Context, id uint64, s status.Status) error
	ListByStatus(ctx context.Context, s status.Status) ([]db.Payload, error)
	GetByLoc(ctx context.Context, loc string) (*db.Payload, error)
}

type gormPayloadRepository struct {
	db *gorm.DB
}

// NewPayloadRepository returns a PayloadRepository backed by the provided
// *gorm.DB.
func NewPayloadRepository(database *gorm.DB) PayloadRepository {
	return &gormPayloadRepository{db: database}
}

// Create inserts a new payload record with the status it carries (the
// submit handler passes Pending), assigning its primary key. Loc is not set
// here — once the id is known and prepare() has written the files, the
// handler persists it with UpdateLocAndStatus (see §4.8 and §9).
func (r *gormPayloadRepository) Create(ctx context.Context, payload *db.Payload) error {
	if err := r.db.WithContext(ctx).Create(payload).Error; err != nil {
		return fmt.Errorf("payloads: create: %w", err)
	}
	return nil
}

// GetByID retrieves a payload by its primary key. Returns ErrNotFound if no
// record exists.
func (r *gormPayloadRepository) GetByID(ctx context.Context, id uint64) (*db.Payload, error) {
	var payload db.Payload
	if err := r.db.WithContext(ctx).First(&payload, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payloads: get by id: %w", err)
	}
	return &payload, nil
}

// GetByLoc retrieves the payload whose loc matches exactly.
func (r *gormPayloadRepository) GetByLoc(ctx context.Context, loc string) (*db.Payload, error) {
	var payload db.Payload
	if err := r.db.WithContext(ctx).First(&payload, "loc = ?", loc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payloads: get by loc: %w", err)
	}
	return &payload, nil
}

// UpdateLocAndStatus persists loc and status together — the single update
// that completes prepare() and moves a payload to Prepared.
func (r *gormPayloadRepository) UpdateLocAndStatus(ctx context.Context, id uint64, loc string, s status.Status) error {
	result := r.db.WithContext(ctx).Model(&db.Payload{}).Where("id = ?", id).Updates(map[string]interface{}{
		"loc":    loc,
		"status": s.String(),
	})
	if result.Error != nil {
		return fmt.Errorf("payloads: update loc and status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates only the status column of a payload.
func (r *gormPayloadRepository) UpdateStatus(ctx context.Context, id uint64, s status.Status) error {
	result := r.db.WithContext(ctx).Model(&db.Payload{}).Where("id = ?", id).Update("status", s.String())
	if result.Error != nil {
		return fmt.Errorf("payloads: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus loads every payload row currently in the given status. This
// backs the ephemeral in-memory "PayloadQueue" batches the runner operates
// on.
func (r *gormPayloadRepository) ListByStatus(ctx context.Context, s status.Status) ([]db.Payload, error) {
	var payloads []db.Payload
	if err := r.db.WithContext(ctx).Where("status = ?", s.String()).Find(&payloads).Error; err != nil {
		return nil, fmt.Errorf("payloads: list by status: %w", err)
	}
	return payloads, nil
}
