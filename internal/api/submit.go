package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/fsutil"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
)

// SubmitHandler implements POST /submit: multipart intake that materializes
// every uploaded file into a new Payload's directory, per §4.8.
type SubmitHandler struct {
	Payloads repositories.PayloadRepository
	DataPath string
	Logger   *zap.Logger
}

func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Logger.Named("submit")

	mr, err := r.MultipartReader()
	if err != nil {
		ErrBadRequest(w, "expected multipart/form-data body")
		return
	}

	var inputs []db.InputFile
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			ErrBadRequest(w, "malformed multipart body")
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}
		name := fsutil.Sanitize(part.FileName())
		bytes, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			ErrBadRequest(w, "failed reading part "+name)
			return
		}
		inputs = append(inputs, db.InputFile{Name: name, Bytes: bytes})
	}

	payload := &db.Payload{Status: status.Pending.String()}
	if err := h.Payloads.Create(r.Context(), payload); err != nil {
		log.Error("create payload failed", zap.Error(err))
		ErrInternal(w)
		return
	}

	loc := filepath.Join(h.DataPath, strconv.FormatUint(payload.ID, 10))
	if err := prepare(loc, inputs); err != nil {
		log.Error("prepare failed", zap.Uint64("payload_id", payload.ID), zap.String("loc", loc), zap.Error(err))
		ErrInternal(w)
		return
	}

	if err := h.Payloads.UpdateLocAndStatus(r.Context(), payload.ID, loc, status.Prepared); err != nil {
		log.Error("update loc and status failed", zap.Uint64("payload_id", payload.ID), zap.Error(err))
		ErrInternal(w)
		return
	}

	JSON(w, http.StatusOK, envelope{
		"id":     payload.ID,
		"status": status.Prepared.String(),
		"loc":    loc,
	})
}

// prepare creates loc and writes every queued input file into it before the
// Payload row is updated with loc and moved to Prepared.
func prepare(loc string, inputs []db.InputFile) error {
	if err := os.MkdirAll(loc, 0755); err != nil {
		return err
	}
	for _, f := range inputs {
		if err := os.WriteFile(filepath.Join(loc, f.Name), f.Bytes, 0644); err != nil {
			return err
		}
	}
	return nil
}
