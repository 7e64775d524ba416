// Package api provides the HTTP handlers for the query service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"insightd/internal/orchestrator"
)

// QueryHandler is the orchestration surface the HTTP layer depends on.
type QueryHandler interface {
	Handle(ctx context.Context, query, propertyID string) (orchestrator.Response, error)
}

// SnapshotAge reports the age of the cached SEO snapshot. A negative age
// means no snapshot has been loaded yet.
type SnapshotAge interface {
	Age() time.Duration
}

// Handler serves the query and health endpoints.
type Handler struct {
	queries QueryHandler
	ages    SnapshotAge
	version string
	logger  *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(queries QueryHandler, ages SnapshotAge, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		queries: queries,
		ages:    ages,
		version: version,
		logger:  logger.With("component", "api"),
	}
}

// Routes mounts the handler's endpoints on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/query", h.handleQuery)
	r.Get("/health", h.handleHealth)
}

type queryRequest struct {
	Query      string `json:"query"`
	PropertyID string `json:"propertyId"`
}

type queryResponse struct {
	Answer string `json:"answer"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body: expected JSON with a query field",
		})
		return
	}

	resp, err := h.queries.Handle(r.Context(), req.Query, req.PropertyID)
	if err != nil {
		code := httpStatusFromDomainError(err)
		h.logger.Warn("query rejected", "status", code, "error", err)
		writeJSON(w, code, errorResponse{Code: code, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: resp.Answer, Data: resp.Data})
}

type healthResponse struct {
	Status             string   `json:"status"`
	Version            string   `json:"version"`
	SnapshotAgeSeconds *float64 `json:"snapshot_age_seconds"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Version: h.version}
	if h.ages != nil {
		if age := h.ages.Age(); age >= 0 {
			secs := age.Seconds()
			resp.SnapshotAgeSeconds = &secs
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
