// Package transport implements the orchestrator/endpoint abstraction that
// couples a Job's directory to a remote compute client over HTTP: uploading
// the job's files as a multipart POST, and polling for the resulting
// archive with a GET.
//
// Endpoint is deliberately a narrow, two-method capability so it can be
// swapped for a test double — see transporttest — without pulling in any
// HTTP machinery. Production code should depend on the Endpoint interface,
// never on *HTTPEndpoint directly.
package transport

import "context"

// Endpoint is the transport capability injected into the sender and getter
// loops. The production implementation is *HTTPEndpoint; tests inject
// transporttest.Fake.
type Endpoint interface {
	// Upload walks loc recursively and POSTs its regular files as a
	// multipart body to url, returning the remote id from the JSON
	// response on success.
	Upload(ctx context.Context, loc string, url string) (remoteID int64, err error)
	// Download GETs {url}/{destID} and, on a 200 response, streams the
	// body into <loc>/output.zip.
	Download(ctx context.Context, loc string, url string, destID int64) error
}
