package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/techninja/techninja"
	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/internal/presentation/graph"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
	"github.com/techninja/techninja/pkg/runner"
)

// Server exposes a Navigator as a JSON API.
type Server struct {
	nav      ports.Navigator
	streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	// cmdMu spans a whole command so the broadcast diff and the response
	// belong to the same request.
	cmdMu sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer mounts /metrics serving the given registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WizardResponse is the body returned by every command and by GET /view.
type WizardResponse struct {
	View       domain.View           `json:"view"`
	State      domain.TraversalState `json:"state"`
	Terminal   bool                  `json:"terminal"`
	GraphError string                `json:"graphError,omitempty"`
}

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// AdvanceRequest selects the next step by id or by option index.
type AdvanceRequest struct {
	Next   string `json:"next,omitempty"`
	Option *int   `json:"option,omitempty"`
}

// NewServer creates a Server for nav.
func NewServer(nav ports.Navigator, opts ...Option) *Server {
	s := &Server{
		nav:    nav,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for nav.
func NewHandler(nav ports.Navigator, opts ...Option) http.Handler {
	return NewServer(nav, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/machines", s.ListMachines)
	r.Post("/machines/{machineId}/select", s.command(func(ctx context.Context, r *http.Request) error {
		id := chi.URLParam(r, "machineId")
		if err := runner.CheckID("machine", id); err != nil {
			return &badRequest{err}
		}
		return s.nav.SelectMachine(ctx, id)
	}))
	r.Post("/symptoms/{symptomId}/start", s.command(func(ctx context.Context, r *http.Request) error {
		id := chi.URLParam(r, "symptomId")
		if err := runner.CheckID("symptom", id); err != nil {
			return &badRequest{err}
		}
		return s.nav.StartSymptom(ctx, id)
	}))
	r.Post("/advance", s.command(s.advance))
	r.Post("/back", s.command(func(ctx context.Context, _ *http.Request) error {
		return s.nav.Retreat(ctx)
	}))
	r.Post("/restart", s.command(func(ctx context.Context, _ *http.Request) error {
		return s.nav.RestartSymptom(ctx)
	}))
	r.Post("/exit", s.command(func(ctx context.Context, _ *http.Request) error {
		return s.nav.ExitToSymptomList(ctx)
	}))
	r.Get("/view", s.GetView)
	r.Get("/graph", s.GetGraph)
	r.Delete("/session", s.ClearSession)
	r.Get("/events", s.SubscribeEvents)

	return r
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

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":          "techninja-http",
		"version":      techninja.Version,
		"build":        techninja.Build,
		"data_version": techninja.DataVersion,
		"api_version":  apiVersion,
	})
}

// ListMachines handles the GET /machines request.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Machines   []domain.Machine `json:"machines"`
		IndexError string           `json:"indexError,omitempty"`
	}{Machines: s.nav.Machines()}
	if err := s.nav.IndexError(); err != nil {
		resp.IndexError = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetView handles the GET /view request.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

// GetGraph handles the GET /graph request. ?format=mermaid returns a flowchart
// with the current path highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g := s.nav.Graph()
	if g == nil {
		s.writeError(w, domain.ErrNoGraph)
		return
	}

	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.GenerateMermaid(g, graph.OverlayFromState(s.nav.State()))))
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

// ClearSession handles the DELETE /session request.
func (s *Server) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.ClearSession(r.Context()); err != nil {
		s.logger.Error("clear session failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) advance(ctx context.Context, r *http.Request) error {
	var body AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &badRequest{fmt.Errorf("invalid request body: %w", err)}
	}

	if body.Option != nil {
		if err := s.nav.Choose(ctx, *body.Option); err != nil {
			return &badRequest{err}
		}
		return nil
	}

	if body.Next == "" {
		return &badRequest{errors.New("either next or option is required")}
	}
	if err := runner.CheckID("next", body.Next); err != nil {
		return &badRequest{err}
	}
	return s.nav.Advance(ctx, body.Next)
}

// command wraps a wizard command: it runs fn, broadcasts the state diff and
// answers with the resulting view.
func (s *Server) command(fn func(context.Context, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.cmdMu.Lock()
		defer s.cmdMu.Unlock()

		before := s.nav.State()
		err := fn(r.Context(), r)
		after := s.nav.State()

		if diff := domain.Diff(&before, &after); diff != nil && s.streams.Subscribers() > 0 {
			if payload, mErr := json.Marshal(diff); mErr == nil {
				s.streams.Broadcast(string(payload))
			}
		}

		if err != nil {
			s.logger.Warn("command rejected", "path", r.URL.Path, "err", err)
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.snapshot())
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) snapshot() WizardResponse {
	resp := WizardResponse{
		View:     s.nav.View(),
		State:    s.nav.State(),
		Terminal: s.nav.IsTerminal(),
	}
	if err := s.nav.GraphError(); err != nil {
		resp.GraphError = err.Error()
	}
	return resp
}

type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		status  = http.StatusInternalServerError
		kind    = "internal"
		loadErr *domain.LoadError
		bad     *badRequest
	)
	switch {
	case errors.Is(err, domain.ErrUnknownMachine):
		status, kind = http.StatusNotFound, "unknown_machine"
	case errors.As(err, &loadErr):
		status, kind = http.StatusBadGateway, "load_failed"
	case errors.Is(err, domain.ErrLookupMiss):
		status, kind = http.StatusConflict, "lookup_miss"
	case errors.Is(err, domain.ErrNoGraph):
		status, kind = http.StatusConflict, "no_graph"
	case errors.As(err, &bad):
		status, kind = http.StatusBadRequest, "bad_request"
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
