package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jobmesh/jobmesh/internal/fsutil"
)

// HTTPEndpoint is the production Endpoint implementation: multipart POST for
// upload, chunked GET for download.
type HTTPEndpoint struct {
	Client *http.Client
}

// NewHTTPEndpoint returns an HTTPEndpoint using client, or http.DefaultClient
// if client is nil.
func NewHTTPEndpoint(client *http.Client) *HTTPEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEndpoint{Client: client}
}

// Upload walks loc, streams its files as a multipart/form-data body to url
// (never buffering a whole file in memory), and parses the JSON response for
// an integer id field.
func (e *HTTPEndpoint) Upload(ctx context.Context, loc string, url string) (int64, error) {
	files, err := fsutil.WalkFiles(loc)
	if err != nil {
		return 0, &UploadError{Kind: UploadFileRead, Path: loc, Err: err}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := streamParts(mw, files)
		closeErr := mw.Close()
		if err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return 0, &UploadError{Kind: UploadRequestFailed, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.Client.Do(req)
	if err != nil {
		return 0, &UploadError{Kind: UploadRequestFailed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &UploadError{Kind: UploadRequestFailed, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &UploadError{Kind: UploadUnexpectedStatus, Status: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &UploadError{Kind: UploadDeserializationFailed, Err: err}
	}
	return parsed.ID, nil
}

// streamParts writes one multipart part per file, with an explicit
// Content-Length header matching the filesystem size, using the file's
// root-relative path as the form field name.
func streamParts(mw *multipart.Writer, files []fsutil.RelFile) error {
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Rel, filepath.Base(f.Rel)))
		header.Set("Content-Length", strconv.FormatInt(f.Size, 10))

		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}

		fh, err := os.Open(f.Path)
		if err != nil {
			return &UploadError{Kind: UploadFileRead, Path: f.Path, Err: err}
		}
		_, copyErr := io.Copy(part, fh)
		fh.Close()
		if copyErr != nil {
			return &UploadError{Kind: UploadFileRead, Path: f.Path, Err: copyErr}
		}
	}
	return nil
}

// Download GETs {url}/{destID} and maps the response status per the
// orchestrator contract: 200 streams the body to <loc>/output.zip, every
// other documented status becomes the matching DownloadError kind.
func (e *HTTPEndpoint) Download(ctx context.Context, loc string, url string, destID int64) error {
	fullURL := fmt.Sprintf("%s/%d", url, destID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &DownloadError{Kind: DownloadRequestFailed, Err: err}
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return &DownloadError{Kind: DownloadRequestFailed, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return writeOutput(resp.Body, loc)
	case http.StatusAccepted:
		return &DownloadError{Kind: DownloadJobNotReady, Status: resp.StatusCode}
	case http.StatusNoContent:
		return &DownloadError{Kind: DownloadJobCleaned, Status: resp.StatusCode}
	case http.StatusBadRequest:
		return &DownloadError{Kind: DownloadJobInvalid, Status: resp.StatusCode}
	case http.StatusNotFound:
		return &DownloadError{Kind: DownloadJobNotFound, Status: resp.StatusCode}
	case http.StatusGone, http.StatusInternalServerError:
		return &DownloadError{Kind: DownloadJobFailed, Status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(resp.Body)
		return &DownloadError{Kind: DownloadUnexpectedStatus, Status: resp.StatusCode, Body: string(body)}
	}
}

func writeOutput(body io.Reader, loc string) error {
	target := filepath.Join(loc, "output.zip")
	f, err := os.Create(target)
	if err != nil {
		return &DownloadError{Kind: DownloadFileCreate, Path: target, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return &DownloadError{Kind: DownloadFileWrite, Path: target, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &DownloadError{Kind: DownloadFileWrite, Path: target, Err: err}
	}
	return nil
}
