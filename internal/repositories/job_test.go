package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/status"
)

func TestJobRepositoryCRUD(t *testing.T) {
	gormDB := mustOpenGormDB(t)
	repo := NewJobRepository(gormDB)
	ctx := context.Background()

	job := &db.Job{UserID: 1, Service: "gpu", Status: status.Queued.String(), Loc: "/data/1"}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Service != "gpu" {
		t.Errorf("service = %q, want gpu", got.Service)
	}

	if err := repo.UpdateStatus(ctx, job.ID, status.Processing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if got.Status != status.Processing.String() {
		t.Errorf("status = %q, want processing", got.Status)
	}

	if err := repo.UpdateStatusAndDest(ctx, job.ID, status.Submitted, 42); err != nil {
		t.Fatalf("UpdateStatusAndDest: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if got.Status != status.Submitted.String() || got.DestID != 42 {
		t.Errorf("got = %+v, want submitted/42", got)
	}

	byLoc, err := repo.GetByLoc(ctx, "/data/1")
	if err != nil {
		t.Fatalf("GetByLoc: %v", err)
	}
	if byLoc.ID != job.ID {
		t.Errorf("GetByLoc returned wrong job")
	}

	list, err := repo.ListByStatus(ctx, status.Submitted)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListByStatus returned %d, want 1", len(list))
	}
}

func TestJobRepositoryGetByIDNotFound(t *testing.T) {
	gormDB := mustOpenGormDB(t)
	repo := NewJobRepository(gormDB)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
