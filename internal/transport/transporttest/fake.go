// Package transporttest provides an in-memory transport.Endpoint double for
// exercising the sender/getter loops without a real HTTP server.
package transporttest

import (
	"context"
	"sync"

	"github.com/jobmesh/jobmesh/internal/transport"
)

// DownloadResult is a canned response for one Download call, keyed by URL in
// Fake.Downloads.
type DownloadResult struct {
	Err error
}

// Fake is a test double for transport.Endpoint. Configure UploadResults and
// Downloads before use; calls are recorded for assertions.
type Fake struct {
	mu sync.Mutex

	// UploadResults maps upload_url -> (remoteID, err) to return.
	UploadResults map[string]struct {
		RemoteID int64
		Err      error
	}
	// Downloads maps download_url -> DownloadResult to return.
	Downloads map[string]DownloadResult

	UploadCalls   []UploadCall
	DownloadCalls []DownloadCall
}

type UploadCall struct {
	Loc string
	URL string
}

type DownloadCall struct {
	Loc    string
	URL    string
	DestID int64
}

var _ transport.Endpoint = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		UploadResults: map[string]struct {
			RemoteID int64
			Err      error
		}{},
		Downloads: map[string]DownloadResult{},
	}
}

func (f *Fake) Upload(_ context.Context, loc string, url string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UploadCalls = append(f.UploadCalls, UploadCall{Loc: loc, URL: url})
	r, ok := f.UploadResults[url]
	if !ok {
		return 1, nil
	}
	return r.RemoteID, r.Err
}

func (f *Fake) Download(_ context.Context, loc string, url string, destID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DownloadCalls = append(f.DownloadCalls, DownloadCall{Loc: loc, URL: url, DestID: destID})
	r, ok := f.Downloads[url]
	if !ok {
		return nil
	}
	return r.Err
}
