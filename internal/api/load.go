package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/hostload"
)

// LoadHandler implements GET /load: returns a JSON float of instantaneous
// global CPU usage. Not part of the core design; documented in §6 for
// completeness.
type LoadHandler struct {
	Logger *zap.Logger
}

func (h *LoadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	percent, err := hostload.Percent(r.Context())
	if err != nil {
		h.Logger.Named("load").Error("cpu sample failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	JSON(w, http.StatusOK, percent)
}
