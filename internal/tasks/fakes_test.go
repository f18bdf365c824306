package tasks

import (
	"context"
	"sync"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
)

type fakeJobRepository struct {
	mu   sync.Mutex
	jobs map[uint64]db.Job
}

func newFakeJobRepository(jobs ...db.Job) *fakeJobRepository {
	f := &fakeJobRepository{jobs: map[uint64]db.Job{}}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobRepository) Create(_ context.Context, job *db.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepository) GetByID(_ context.Context, id uint64) (*db.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &j, nil
}

func (f *fakeJobRepository) GetByLoc(_ context.Context, loc string) (*db.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.Loc == loc {
			j := j
			return &j, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeJobRepository) Update(_ context.Context, job *db.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepository) UpdateStatus(_ context.Context, id uint64, s status.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	j.Status = s.String()
	f.jobs[id] = j
	return nil
}

func (f *fakeJobRepository) UpdateStatusAndDest(_ context.Context, id uint64, s status.Status, destID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	j.Status = s.String()
	j.DestID = destID
	f.jobs[id] = j
	return nil
}

func (f *fakeJobRepository) ListByStatus(_ context.Context, s status.Status) ([]db.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Job
	for _, j := range f.jobs {
		if j.Status == s.String() {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobRepository) get(id uint64) db.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

type fakePayloadRepository struct {
	mu       sync.Mutex
	payloads map[uint64]db.Payload
}

func newFakePayloadRepository(payloads ...db.Payload) *fakePayloadRepository {
	f := &fakePayloadRepository{payloads: map[uint64]db.Payload{}}
	for _, p := range payloads {
		f.payloads[p.ID] = p
	}
	return f
}

func (f *fakePayloadRepository) Create(_ context.Context, payload *db.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[payload.ID] = *payload
	return nil
}

func (f *fakePayloadRepository) GetByID(_ context.Context, id uint64) (*db.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payloads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakePayloadRepository) GetByLoc(_ context.Context, loc string) (*db.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payloads {
		if p.Loc != nil && *p.Loc == loc {
			p := p
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakePayloadRepository) UpdateLocAndStatus(_ context.Context, id uint64, loc string, s status.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payloads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Loc = &loc
	p.Status = s.String()
	f.payloads[id] = p
	return nil
}

func (f *fakePayloadRepository) UpdateStatus(_ context.Context, id uint64, s status.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payloads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = s.String()
	f.payloads[id] = p
	return nil
}

func (f *fakePayloadRepository) ListByStatus(_ context.Context, s status.Status) ([]db.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Payload
	for _, p := range f.payloads {
		if p.Status == s.String() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayloadRepository) get(id uint64) db.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[id]
}

var (
	_ repositories.JobRepository     = (*fakeJobRepository)(nil)
	_ repositories.PayloadRepository = (*fakePayloadRepository)(nil)
)
