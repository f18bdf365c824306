package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/transport"
	"github.com/jobmesh/jobmesh/internal/transport/transporttest"
)

func TestGetterStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "completed"},
		{"not-ready", &transport.DownloadError{Kind: transport.DownloadJobNotReady}, "submitted"},
		{"not-found", &transport.DownloadError{Kind: transport.DownloadJobNotFound}, "unknown"},
		{"cleaned", &transport.DownloadError{Kind: transport.DownloadJobCleaned}, "cleaned"},
		{"failed", &transport.DownloadError{Kind: transport.DownloadJobFailed}, "failed"},
		{"invalid", &transport.DownloadError{Kind: transport.DownloadJobInvalid}, "invalid"},
	}

	for i, tc := range cases {
		id := uint64(i + 1)
		jobs := newFakeJobRepository(db.Job{ID: id, Service: "gpu", Status: "submitted", Loc: "/data/x", DestID: 5})
		fake := transporttest.New()
		fake.Downloads["http://download.example/gpu"] = transporttest.DownloadResult{Err: tc.err}

		g := &Getter{Jobs: jobs, Config: testConfig("gpu"), Endpoint: fake, Logger: zap.NewNop()}
		if err := g.Run(context.Background()); err != nil {
			t.Fatalf("%s: Run: %v", tc.name, err)
		}
		got := jobs.get(id)
		if got.Status != tc.want {
			t.Errorf("%s: status = %q, want %q", tc.name, got.Status, tc.want)
		}
	}
}

// blockingEndpoint is a transport.Endpoint double that records the peak
// number of concurrent in-flight Download calls, holding each call open
// briefly so overlapping calls actually overlap.
type blockingEndpoint struct {
	inFlight int64
	peak     int64
}

func (e *blockingEndpoint) Upload(_ context.Context, _ string, _ string) (int64, error) {
	return 1, nil
}

func (e *blockingEndpoint) Download(_ context.Context, _ string, _ string, _ int64) error {
	n := atomic.AddInt64(&e.inFlight, 1)
	for {
		peak := atomic.LoadInt64(&e.peak)
		if n <= peak || atomic.CompareAndSwapInt64(&e.peak, peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt64(&e.inFlight, -1)
	return nil
}

var _ transport.Endpoint = (*blockingEndpoint)(nil)

// TestGetterBoundsInFlightDownloads covers spec scenario S6: with many more
// Submitted jobs than getterConcurrency, the number of simultaneously
// in-flight downloads measured during Run must never exceed the bound.
func TestGetterBoundsInFlightDownloads(t *testing.T) {
	const jobCount = 30
	if jobCount <= getterConcurrency {
		t.Fatalf("test requires jobCount > getterConcurrency")
	}

	jobList := make([]db.Job, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		jobList = append(jobList, db.Job{ID: uint64(i + 1), Service: "gpu", Status: "submitted", Loc: "/data/x", DestID: 5})
	}
	jobs := newFakeJobRepository(jobList...)
	endpoint := &blockingEndpoint{}

	g := &Getter{Jobs: jobs, Config: testConfig("gpu"), Endpoint: endpoint, Logger: zap.NewNop()}
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if peak := atomic.LoadInt64(&endpoint.peak); peak > getterConcurrency {
		t.Errorf("peak in-flight downloads = %d, want <= %d", peak, getterConcurrency)
	}
}
