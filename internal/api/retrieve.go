package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/archive"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/status"
)

// RetrieveHandler implements GET /retrieve/{id}: returns the Payload's
// current state, archiving its directory on demand when Completed.
type RetrieveHandler struct {
	Payloads repositories.PayloadRepository
	Logger   *zap.Logger
}

func (h *RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Logger.Named("retrieve")

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ErrNotFound(w)
		return
	}

	payload, err := h.Payloads.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			ErrNotFound(w)
			return
		}
		log.Error("lookup failed", zap.Uint64("payload_id", id), zap.Error(err))
		ErrInternal(w)
		return
	}

	switch status.Parse(payload.Status) {
	case status.Completed:
		if payload.Loc == nil {
			log.Error("completed payload has no loc", zap.Uint64("payload_id", id))
			ErrInternal(w)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.WriteHeader(http.StatusOK)
		if err := archive.WriteDir(w, *payload.Loc); err != nil {
			log.Error("archiving failed", zap.Uint64("payload_id", id), zap.Error(err))
		}
	case status.Invalid:
		w.WriteHeader(http.StatusBadRequest)
	case status.Failed:
		w.WriteHeader(http.StatusInternalServerError)
	case status.Cleaned:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}
