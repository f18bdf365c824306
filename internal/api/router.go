package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/repositories"
)

// RouterConfig holds the dependencies needed to build the client-role HTTP
// router.
type RouterConfig struct {
	Payloads repositories.PayloadRepository
	DataPath string
	Logger   *zap.Logger
}

// NewRouter builds the chi router exposing the client-role HTTP surface:
// submit, retrieve, load, and a prometheus /metrics endpoint.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	submit := &SubmitHandler{Payloads: cfg.Payloads, DataPath: cfg.DataPath, Logger: cfg.Logger}
	retrieve := &RetrieveHandler{Payloads: cfg.Payloads, Logger: cfg.Logger}
	load := &LoadHandler{Logger: cfg.Logger}

	r.Post("/submit", submit.ServeHTTP)
	r.Get("/retrieve/{id}", retrieve.ServeHTTP)
	r.Get("/load", load.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
