package transport

import (
	"context"

	"github.com/jobmesh/jobmesh/internal/config"
)

// Send resolves service's upload_url from cfg and delegates to endpoint.Upload.
// It returns *NoURLConfigured if the service has no upload_url entry.
func Send(ctx context.Context, endpoint Endpoint, cfg config.Config, service string, loc string) (int64, error) {
	svc, ok := cfg.Services[service]
	if !ok || svc.UploadURL == "" {
		return 0, &NoURLConfigured{Service: service, Which: "upload_url"}
	}
	return endpoint.Upload(ctx, loc, svc.UploadURL)
}

// Retrieve resolves service's download_url from cfg and delegates to
// endpoint.Download. It returns *NoURLConfigured if the service has no
// download_url entry.
func Retrieve(ctx context.Context, endpoint Endpoint, cfg config.Config, service string, loc string, destID int64) error {
	svc, ok := cfg.Services[service]
	if !ok || svc.DownloadURL == "" {
		return &NoURLConfigured{Service: service, Which: "download_url"}
	}
	return endpoint.Download(ctx, loc, svc.DownloadURL, destID)
}
