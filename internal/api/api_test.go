package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
)

func mustOpenPayloadRepo(t *testing.T) repositories.PayloadRepository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.sqlite")
	gormDB, err := db.New(db.Config{DSN: dsn, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	return repositories.NewPayloadRepository(gormDB)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for filename, content := range fields {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestSubmitHandlerPreparesPayload(t *testing.T) {
	repo := mustOpenPayloadRepo(t)
	dataPath := t.TempDir()
	h := &SubmitHandler{Payloads: repo, DataPath: dataPath, Logger: zap.NewNop()}

	body, contentType := multipartBody(t, map[string]string{"input.txt": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	payload, err := repo.GetByID(req.Context(), 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if payload.Status != status.Prepared.String() {
		t.Errorf("status = %q, want prepared", payload.Status)
	}
	if payload.Loc == nil {
		t.Fatal("expected loc to be set")
	}
	contents, err := os.ReadFile(filepath.Join(*payload.Loc, "input.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(contents) != "hello" {
		t.Errorf("contents = %q, want %q", contents, "hello")
	}
}

// TestSubmitHandlerSanitizesPathTraversal covers scenario S2: a filename
// attempting to escape data_path via "../" segments must be confined to the
// payload's own directory.
func TestSubmitHandlerSanitizesPathTraversal(t *testing.T) {
	repo := mustOpenPayloadRepo(t)
	dataPath := t.TempDir()
	h := &SubmitHandler{Payloads: repo, DataPath: dataPath, Logger: zap.NewNop()}

	body, contentType := multipartBody(t, map[string]string{"../../etc/passwd": "x"})
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	want := filepath.Join(dataPath, "1", "passwd")
	contents, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected sanitized file at %s: %v", want, err)
	}
	if string(contents) != "x" {
		t.Errorf("contents = %q, want %q", contents, "x")
	}

	if _, err := os.Stat(filepath.Join(dataPath, "etc")); !os.IsNotExist(err) {
		t.Error("expected no directory created above the payload's own dir")
	}
}

func TestSubmitHandlerRejectsNonMultipart(t *testing.T) {
	repo := mustOpenPayloadRepo(t)
	h := &SubmitHandler{Payloads: repo, DataPath: t.TempDir(), Logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewBufferString("not multipart"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func newChiRequest(method, target, idParam string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", idParam)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func TestRetrieveHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status status.Status
		want   int
	}{
		{"pending still processing", status.Pending, http.StatusAccepted},
		{"prepared still processing", status.Prepared, http.StatusAccepted},
		{"completed streams archive", status.Completed, http.StatusOK},
		{"invalid", status.Invalid, http.StatusBadRequest},
		{"failed", status.Failed, http.StatusInternalServerError},
		{"cleaned", status.Cleaned, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := mustOpenPayloadRepo(t)
			h := &RetrieveHandler{Payloads: repo, Logger: zap.NewNop()}

			payload := &db.Payload{Status: status.Pending.String()}
			if err := repo.Create(context.Background(), payload); err != nil {
				t.Fatalf("Create: %v", err)
			}

			loc := t.TempDir()
			if err := os.WriteFile(filepath.Join(loc, "out.txt"), []byte("ok"), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if err := repo.UpdateLocAndStatus(context.Background(), payload.ID, loc, tc.status); err != nil {
				t.Fatalf("UpdateLocAndStatus: %v", err)
			}

			req := newChiRequest(http.MethodGet, "/retrieve/1", "1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.status == status.Completed && rec.Header().Get("Content-Type") != "application/zip" {
				t.Errorf("content-type = %q, want application/zip", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRetrieveHandlerNotFound(t *testing.T) {
	repo := mustOpenPayloadRepo(t)
	h := &RetrieveHandler{Payloads: repo, Logger: zap.NewNop()}

	req := newChiRequest(http.MethodGet, "/retrieve/999", "999")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLoadHandlerReturnsJSONNumber(t *testing.T) {
	h := &LoadHandler{Logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/load", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	var percent float64
	if err := json.Unmarshal(body, &percent); err != nil {
		t.Errorf("body %q is not a JSON number: %v", body, err)
	}
}
