// Package http hosts an engine behind a JSON API. Runs execute
// synchronously inside their request: the response reports how the run
// ended, and a client that goes away cancels the context, which pauses
// the run resumably like any other cooperative interruption.
//
// The package ships its own OpenAPI contract. Requests to declared
// paths are validated against it before a handler sees them.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

// Server wires the engine to the HTTP surface, with a broadcaster for
// the event stream and prometheus collectors for /metrics. Runs
// started over HTTP report into both.
type Server struct {
	engine     *espalier.Engine
	logger     *slog.Logger
	events     *observability.Broadcaster
	metrics    *observability.Metrics
	promreg    *prometheus.Registry
	runHooks   *domain.LifecycleHooks
	apiVersion string
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request and stream logger. Logging is off by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler builds the routed handler for the engine. It fails when
// the embedded API contract does not parse, so a broken build cannot
// serve.
func NewHandler(engine *espalier.Engine, opts ...Option) (http.Handler, error) {
	doc, router, err := loadSpec()
	if err != nil {
		return nil, err
	}

	s := &Server{
		engine:  engine,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		events:  observability.NewBroadcaster(),
		promreg: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = observability.NewMetrics(s.promreg)
	s.runHooks = s.events.Hooks().Merge(s.metrics.Hooks())
	if doc.Info != nil {
		s.apiVersion = doc.Info.Version
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(enableCORS)
	r.Use(validateRequests(router))

	r.Get("/openapi.yaml", s.rawSpec)
	r.Get("/swagger", s.swaggerUI)
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.promreg, promhttp.HandlerOpts{}))

	r.Get("/flows", s.listFlows)
	r.Get("/flows/{name}/graph", s.flowGraph)
	r.Get("/flows/{name}/validation", s.validateFlow)

	r.Post("/runs", s.startRun)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.inspectRun)
	r.Delete("/runs/{id}", s.removeRun)
	r.Get("/runs/{id}/graph", s.runGraph)
	r.Post("/runs/{id}/resume", s.resumeRun)

	r.Get("/events", s.streamEvents)

	return r, nil
}

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Flow string         `json:"flow"`
	Env  map[string]any `json:"env,omitempty"`
}

// RunResponse reports how a hosted run ended.
type RunResponse struct {
	RunID   string `json:"run_id,omitempty"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "espalier-http",
		"version":     strings.TrimSpace(espalier.Version),
		"api_version": s.apiVersion,
	})
}

func (s *Server) listFlows(w http.ResponseWriter, _ *http.Request) {
	flows, err := s.engine.ListFlows()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if flows == nil {
		flows = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"flows": flows})
}

func (s *Server) flowGraph(w http.ResponseWriter, r *http.Request) {
	flow, err := s.engine.LoadFlow(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(flow, nil))
}

func (s *Server) validateFlow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	summary, err := s.engine.Validate(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	flow, err := s.engine.LoadFlow(req.Flow)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	for key, value := range req.Env {
		flow.Env.Set(key, value)
	}

	ctx := domain.WithObserver(r.Context(), s.runHooks)
	res, err := s.engine.Execute(ctx, flow)
	s.writeRunResult(w, res, err)
}

func (s *Server) resumeRun(w http.ResponseWriter, r *http.Request) {
	ctx := domain.WithObserver(r.Context(), s.runHooks)
	res, err := s.engine.Resume(ctx, chi.URLParam(r, "id"))
	s.writeRunResult(w, res, err)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.engine.ListRuns(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": runs})
}

func (s *Server) inspectRun(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no run store configured"))
		return
	}
	snap, err := store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, runStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) removeRun(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no run store configured"))
		return
	}
	if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runGraph renders the flow's diagram with the stored run's position
// overlaid: visited actions tinted, the paused action highlighted.
func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no run store configured"))
		return
	}
	snap, err := store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, runStatus(err), err)
		return
	}
	flow, err := s.engine.LoadFlow(snap.Flow)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err := snap.ApplyTo(flow); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(flow, graph.SnapshotOverlay(flow)))
}

// streamEvents serves lifecycle events over SSE. A run_id query
// restricts the stream to one run; without it every run on this server
// is streamed, which is how clients observe a run whose ID they will
// only learn from the POST /runs response.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	runID := r.URL.Query().Get("run_id")
	events, cancel := s.events.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event stream client disconnected", "run_id", runID)
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("event stream: marshal failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) rawSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(specData)
}

func (s *Server) swaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerHTML))
}

// writeRunResult maps an engine call to the wire: engine errors by
// kind, then the outcome as data. A failed flow is a successful HTTP
// request reporting a failure.
func (s *Server) writeRunResult(w http.ResponseWriter, res ports.RunResult, err error) {
	if err != nil {
		var missing *domain.EnvContractError
		var badType *domain.EnvTypeError
		switch {
		case errors.As(err, &missing) || errors.As(err, &badType):
			s.writeError(w, http.StatusUnprocessableEntity, err)
		case errors.Is(err, domain.ErrRunNotFound):
			s.writeError(w, http.StatusNotFound, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	body := RunResponse{RunID: res.RunID, Outcome: string(res.Outcome.Code)}
	if res.Outcome.Err != nil {
		body.Error = res.Outcome.Err.Error()
	}
	s.writeJSON(w, http.StatusOK, body)
}

func runStatus(err error) int {
	if errors.Is(err, domain.ErrRunNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Espalier API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
