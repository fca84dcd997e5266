package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hmahadik/traq/internal/domain/capture"
)

// Ingest methods.
const (
	MethodObserve      = "observe"
	MethodObserveBatch = "observe_batch"
	MethodLock         = "lock"
)

// Ingester buffers collector observations for the runner.
type Ingester interface {
	Enqueue(obs ...capture.Observation) error
	Len() int
}

// Server wires HTTP handlers.
type Server struct {
	ingester Ingester
	logger   *slog.Logger
}

// IngestResult acknowledges accepted observations.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Queued   int `json:"queued"`
}

type batchParams struct {
	Observations []capture.Observation `json:"observations"`
}

// NewServer creates an HTTP server router with middleware.
// /health is served without authentication.
func NewServer(ingester Ingester, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)

	srv := &Server{ingester: ingester, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/ingest", srv.handleIngest)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "queued": s.ingester.Len()})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	reqs, batch, err := ParseBatch(r.Body)
	if err != nil {
		WriteError(w, nil, ErrParseCode, "invalid request", nil)
		return
	}

	responses := make([]Response, 0, len(reqs))
	for _, req := range reqs {
		responses = append(responses, s.dispatch(r, req))
	}

	if !batch {
		writeJSON(w, http.StatusOK, responses[0])
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) dispatch(r *http.Request, req Request) Response {
	if err := validate(req); err != nil {
		return NewError(req.ID, ErrInvalidReq, "invalid request", nil)
	}

	var obs []capture.Observation
	switch req.Method {
	case MethodObserve:
		var o capture.Observation
		if err := json.Unmarshal(req.Params, &o); err != nil {
			return NewError(req.ID, ErrInvalidParams, "invalid observation", err.Error())
		}
		obs = []capture.Observation{o}
	case MethodObserveBatch:
		var p batchParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return NewError(req.ID, ErrInvalidParams, "invalid observations", err.Error())
		}
		if len(p.Observations) == 0 {
			return NewError(req.ID, ErrInvalidParams, "observations is required", nil)
		}
		obs = p.Observations
	case MethodLock:
		var sig capture.LockSignal
		if err := json.Unmarshal(req.Params, &sig); err != nil {
			return NewError(req.ID, ErrInvalidParams, "invalid lock signal", err.Error())
		}
		obs = []capture.Observation{{Lock: &sig}}
	default:
		return NewError(req.ID, ErrMethodNotFound, "method not found", req.Method)
	}

	requestID, _ := RequestIDFromContext(r.Context())
	collector, _ := CollectorFromContext(r.Context())

	if err := s.ingester.Enqueue(obs...); err != nil {
		s.logger.Warn("ingest rejected",
			"method", req.Method, "count", len(obs), "collector", collector, "request_id", requestID, "error", err)
		switch {
		case errors.Is(err, capture.ErrQueueFull):
			return NewError(req.ID, ErrQueueFullCode, "queue full", map[string]bool{"retry": true})
		case errors.Is(err, capture.ErrInvalidObservation):
			return NewError(req.ID, ErrInvalidParams, err.Error(), nil)
		}
		return NewError(req.ID, ErrInternal, err.Error(), nil)
	}

	s.logger.Debug("ingest accepted",
		"method", req.Method, "count", len(obs), "collector", collector, "request_id", requestID)
	return NewResult(req.ID, IngestResult{Accepted: len(obs), Queued: s.ingester.Len()})
}
