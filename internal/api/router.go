// Package api exposes the enrichment service as an HTTP custom-skill webhook.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
)

// BatchProcessor runs one webhook batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse
}

// RouterConfig holds HTTP layer settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// FunctionKey enables key auth on /api routes when non-empty.
	FunctionKey string
	Version     string
}

// NewRouter creates the webhook router with all routes configured.
func NewRouter(logger *observability.Logger, cfg RouterConfig, batch BatchProcessor) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 230 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Trace)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	h := NewHandler(logger, batch, cfg.MaxBodyBytes, cfg.Version)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(FunctionKey(cfg.FunctionKey))
		r.Post("/analyze", h.Analyze)
	})

	return r
}
