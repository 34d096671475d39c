package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
)

const defaultMaxBodyBytes = 4 << 20

// Handler serves the webhook routes.
type Handler struct {
	logger       *observability.Logger
	batch        BatchProcessor
	maxBodyBytes int64
	version      string
}

// NewHandler creates a new webhook handler.
func NewHandler(logger *observability.Logger, batch BatchProcessor, maxBodyBytes int64, version string) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:       logger,
		batch:        batch,
		maxBodyBytes: maxBodyBytes,
		version:      version,
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "figure-extractor",
		"version": h.version,
	})
}

// Analyze handles POST /api/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return
		}
		log.Warn().Err(err).Msg("read request body")
		invalidBody(w)
		return
	}

	req, ok := decodeBatch(body)
	if !ok {
		log.Warn().Int("bytes", len(body)).Msg("invalid request body")
		invalidBody(w)
		return
	}

	log.Info().Int("records", len(req.Values)).Msg("analyze batch received")
	resp := h.batch.ProcessBatch(ctx, req)
	writeJSON(w, http.StatusOK, resp)
}

// decodeBatch accepts a JSON object with a values array.
func decodeBatch(body []byte) (domain.BatchRequest, bool) {
	var req domain.BatchRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, false
	}
	if req.Values == nil {
		return req, false
	}
	return req, true
}

func invalidBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte("Invalid body"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
