// Package httpapi exposes the collection view over JSON HTTP.
//
// Routes:
//
//	GET  /health            "OK"
//	GET  /metrics           Prometheus exposition
//	GET  /api/view          current view
//	POST /api/page          {"first":N,"rows":R} -> view
//	POST /api/selection     {"page_ids":[...],"ids":[...]} -> view
//	POST /api/bulk-select   {"count":N} -> bulk outcome
//	GET  /api/selection     {"ids":[...],"count":N}
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/metrics"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Controller is the part of *controller.Controller the API drives.
type Controller interface {
	View(ctx context.Context) (controller.View, error)
	OnPageChange(ctx context.Context, first, rowsPerPage int) error
	OnSelectionChange(ctx context.Context, pageIDs, visibleSelected []artwork.ID) (selection.Diff, error)
	SelectCount(ctx context.Context, n int) (pagination.Outcome, error)
	Selection(ctx context.Context) (selection.Set, error)
}

// PageRequest is the body of POST /api/page.
type PageRequest struct {
	First int `json:"first"`
	Rows  int `json:"rows"`
}

// SelectionRequest is the body of POST /api/selection.
type SelectionRequest struct {
	// PageIDs are the record ids of the view the client rendered
	PageIDs []artwork.ID `json:"page_ids"`

	// IDs are the ids on that page the client shows as selected
	IDs []artwork.ID `json:"ids"`
}

// BulkRequest is the body of POST /api/bulk-select.
type BulkRequest struct {
	Count int `json:"count"`
}

// SelectionResponse is the body of GET /api/selection.
type SelectionResponse struct {
	IDs   []artwork.ID `json:"ids"`
	Count int          `json:"count"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the API for one controller.
type Server struct {
	ctrl   Controller
	logger zerolog.Logger
}

// New creates a new API server.
func New(ctrl Controller, logger zerolog.Logger) *Server {
	return &Server{
		ctrl:   ctrl,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/page", s.handlePage)
	mux.HandleFunc("GET /api/selection", s.handleGetSelection)
	mux.HandleFunc("POST /api/selection", s.handleSelection)
	mux.HandleFunc("POST /api/bulk-select", s.handleBulk)
	return s.logRequests(mux)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeView(w, r, http.StatusOK)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.ctrl.OnPageChange(r.Context(), req.First, req.Rows); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeView(w, r, http.StatusOK)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.PageIDs == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body: page_ids is required"))
		return
	}

	if _, err := s.ctrl.OnSelectionChange(r.Context(), req.PageIDs, req.IDs); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeView(w, r, http.StatusOK)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !s.decode(w, r, &req) {
		return
	}

	outcome, err := s.ctrl.SelectCount(r.Context(), req.Count)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	set, err := s.ctrl.Selection(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, SelectionResponse{IDs: set.Sorted(), Count: set.Len()})
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int) {
	view, err := s.ctrl.View(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, view)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pagination.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// Reload failures come from the upstream collection API.
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn().Err(err).Int("status_code", status).Msg("API request failed")
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", rec.status).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}
