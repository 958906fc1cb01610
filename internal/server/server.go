// Package server exposes the service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/randalmurphal/miniflow/internal/service"
	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"github.com/randalmurphal/miniflow/pkg/miniflow/graphspec"
	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server handles the HTTP API.
type Server struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for svc. A nil gatherer leaves
// /metrics unrouted.
func NewHandler(svc *service.Service, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post("/graph/create", s.CreateGraph)
	r.Post("/graph/run", s.RunGraph)
	r.Get("/graph/state/{run_id}", s.GetState)
	r.Get("/nodes", s.ListNodes)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type createResponse struct {
	GraphID string `json:"graph_id"`
}

type runRequest struct {
	GraphID      string         `json:"graph_id"`
	InitialState miniflow.State `json:"initial_state"`
	AsyncRun     bool           `json:"async_run"`
}

type runResponse struct {
	RunID      string         `json:"run_id"`
	FinalState miniflow.State `json:"final_state"`
	Log        []string       `json:"log"`
	Halt       string         `json:"halt,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type stateResponse struct {
	RunID   string          `json:"run_id"`
	GraphID string          `json:"graph_id,omitempty"`
	Status  runstore.Status `json:"status"`
	State   miniflow.State  `json:"state"`
	Log     []string        `json:"log"`
	Halt    string          `json:"halt,omitempty"`
	Error   string          `json:"error,omitempty"`
	Step    int             `json:"step"`
}

type nodesResponse struct {
	Nodes   []string `json:"nodes"`
	Presets []string `json:"presets"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateGraph handles POST /graph/create.
func (s *Server) CreateGraph(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	spec, err := graphspec.ParseJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.svc.CreateGraph(spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createResponse{GraphID: id})
}

// RunGraph handles POST /graph/run.
func (s *Server) RunGraph(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.GraphID == "" {
		writeError(w, http.StatusBadRequest, errors.New("graph_id is required"))
		return
	}

	out, err := s.svc.Run(r.Context(), req.GraphID, req.InitialState, req.AsyncRun)
	if err != nil && out.RunID == "" {
		s.fail(w, r, err)
		return
	}

	resp := runResponse{
		RunID:      out.RunID,
		FinalState: out.State,
		Log:        out.Log,
		Halt:       out.Halt,
	}
	if resp.FinalState == nil {
		resp.FinalState = miniflow.State{}
	}
	if resp.Log == nil {
		resp.Log = []string{}
	}
	if err != nil {
		s.logger.Error("graph run failed", "run_id", out.RunID, "graph_id", req.GraphID, "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetState handles GET /graph/state/{run_id}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.State(r.Context(), chi.URLParam(r, "run_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		RunID:   rec.RunID,
		GraphID: rec.GraphID,
		Status:  rec.Status,
		State:   rec.State,
		Log:     rec.Log,
		Halt:    rec.Halt,
		Error:   rec.Error,
		Step:    rec.Step,
	})
}

// ListNodes handles GET /nodes.
func (s *Server) ListNodes(w http.ResponseWriter, _ *http.Request) {
	keys, presets := s.svc.Nodes()
	writeJSON(w, http.StatusOK, nodesResponse{Nodes: keys, Presets: presets})
}

// fail writes err with the status it maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	var unknownKey *catalog.UnknownKeyError
	switch {
	case errors.As(err, &unknownKey),
		errors.Is(err, graphspec.ErrInvalidSpec),
		errors.Is(err, graphspec.ErrIncomplete),
		errors.Is(err, catalog.ErrUnknownPreset),
		errors.Is(err, miniflow.ErrNoNodes),
		errors.Is(err, miniflow.ErrDuplicateNode),
		errors.Is(err, miniflow.ErrInvalidNodeName):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrGraphNotFound),
		errors.Is(err, runstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManyGraphs),
		errors.Is(err, service.ErrBusy),
		errors.Is(err, service.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
