package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/presentation/graph"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Inspector is the part of *wizvis.Inspector the HTTP view layer drives.
type Inspector interface {
	Open(ctx context.Context, path string, opts ...wizvis.OpenOption) error
	Reload(ctx context.Context) error
	FireEvent(ctx context.Context, name string) error
	IsExpressionTrue(ctx context.Context, expr string) bool
	AssignDataValue(ctx context.Context, path, value string) error
	Definition() *domain.Definition
	State(id string) (domain.State, bool)
	ActiveStates() []domain.ActiveState
	Values() map[string]any
	Get(path string) (any, bool)
	Snapshot(ctx context.Context) (wizvis.Snapshot, error)
	Recent(ctx context.Context) ([]string, error)
	Watch(ctx context.Context) <-chan domain.Notification
}

var _ Inspector = (*wizvis.Inspector)(nil)

//go:embed openapi.yaml
var specYAML []byte

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
})

// Spec returns the parsed OpenAPI document describing this API.
func Spec() (*openapi3.T, error) {
	return loadSpec()
}

// Server serves the inspector over HTTP.
type Server struct {
	Inspector Inspector
	spec      *openapi3.T
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer mounts GET /metrics for g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the inspector.
func NewHandler(insp Inspector, opts ...Option) http.Handler {
	s := &Server{Inspector: insp}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	spec, err := Spec()
	if err != nil {
		s.logger.Error("request bodies will not be validated", "err", err)
	}
	s.spec = spec

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/snapshot", s.GetSnapshot)
	r.Get("/states", s.GetStates)
	r.Get("/states/{id}", s.GetState)
	r.Get("/tree", s.GetTree)
	r.Get("/active", s.GetActive)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/events/{name}", s.FireEvent)
	r.Post("/eval", s.Evaluate)
	r.Get("/data", s.GetData)
	r.Get("/data/*", s.GetDataValue)
	r.Put("/data/*", s.AssignData)
	r.Post("/open", s.Open)
	r.Post("/reload", s.Reload)
	r.Get("/recent", s.GetRecent)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FireResponse reports the active states after an event.
type FireResponse struct {
	Event   string   `json:"event"`
	Active  []string `json:"active"`
	Entered []string `json:"entered,omitempty"`
	Exited  []string `json:"exited,omitempty"`
}

// EvalRequest is the body of POST /eval.
type EvalRequest struct {
	Expr string `json:"expr"`
}

// EvalResponse is the reply of POST /eval.
type EvalResponse struct {
	Expr   string `json:"expr"`
	Result bool   `json:"result"`
}

// AssignRequest is the body of PUT /data/{path}. Value is raw user input,
// turned into a literal the same way the interactive editor does.
type AssignRequest struct {
	Value string `json:"value"`
}

// DataResponse is the reply of GET /data.
type DataResponse struct {
	Binding string            `json:"binding,omitempty"`
	Values  map[string]any    `json:"values"`
	Items   []domain.DataItem `json:"items"`
}

// OpenRequest is the body of POST /open. Data overrides the declared baseline.
type OpenRequest struct {
	Path string `json:"path"`
	Data string `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps the domain error taxonomy to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		modelErr  *domain.ModelError
		assignErr *domain.AssignmentError
	)
	switch {
	case errors.Is(err, domain.ErrNotLoaded):
		status = http.StatusPreconditionFailed
	case errors.As(err, &modelErr):
		status = http.StatusConflict
	case errors.As(err, &assignErr):
		status = http.StatusUnprocessableEntity
	case domain.IsLoadError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// decode validates the body against the operation registered for pattern
// in the OpenAPI document, then decodes it into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, pattern string, v any) bool {
	if err := s.validateBody(r, pattern); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) validateBody(r *http.Request, pattern string) error {
	if s.spec == nil {
		return nil
	}
	item := s.spec.Paths.Value(pattern)
	if item == nil {
		return nil
	}
	op := item.GetOperation(r.Method)
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	input := &openapi3filter.RequestValidationInput{
		Request: r,
		Options: &openapi3filter.Options{},
	}
	// ValidateRequestBody puts the body back on r once read.
	return openapi3filter.ValidateRequestBody(r.Context(), input, op.RequestBody.Value)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"app":     "wizvis-http",
		"version": wizvis.Version,
		"loaded":  false,
	}
	if s.spec != nil && s.spec.Info != nil {
		info["api_version"] = s.spec.Info.Version
	}
	if def := s.Inspector.Definition(); def != nil {
		info["loaded"] = true
		info["name"] = def.Name
		info["source"] = def.Source
	}
	s.writeJSON(w, http.StatusOK, info)
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(specYAML); err != nil {
		s.logger.Error("failed to write openapi document", "err", err)
	}
}

// GetSnapshot handles GET /snapshot.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetStates handles GET /states.
func (s *Server) GetStates(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.States)
}

// GetState handles GET /states/{id}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Inspector.Definition() == nil {
		s.writeError(w, domain.ErrNotLoaded)
		return
	}
	st, ok := s.Inspector.State(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown state %q", id)})
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// GetTree handles GET /tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Tree)
}

// GetActive handles GET /active.
func (s *Server) GetActive(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Active)
}

// GetGraph handles GET /graph with the active states highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	def := s.Inspector.Definition()
	if def == nil {
		s.writeError(w, domain.ErrNotLoaded)
		return
	}
	overlay := &graph.Overlay{Active: domain.IDs(s.Inspector.ActiveStates())}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(def, overlay))
}

// FireEvent handles POST /events/{name}.
func (s *Server) FireEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	before := domain.IDs(s.Inspector.ActiveStates())
	if err := s.Inspector.FireEvent(r.Context(), name); err != nil {
		s.logger.Debug("event rejected", "event", name, "err", err)
		s.writeError(w, err)
		return
	}
	after := domain.IDs(s.Inspector.ActiveStates())
	diff := domain.Diff(before, after)
	s.writeJSON(w, http.StatusOK, FireResponse{
		Event:   name,
		Active:  after,
		Entered: diff.Entered,
		Exited:  diff.Exited,
	})
}

// Evaluate handles POST /eval.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvalRequest
	if !s.decode(w, r, "/eval", &body) {
		return
	}
	s.writeJSON(w, http.StatusOK, EvalResponse{
		Expr:   body.Expr,
		Result: s.Inspector.IsExpressionTrue(r.Context(), body.Expr),
	})
}

// GetData handles GET /data.
func (s *Server) GetData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Inspector.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DataResponse{
		Binding: snap.Binding,
		Values:  s.Inspector.Values(),
		Items:   snap.Data,
	})
}

// dataPath turns /data/owner/name (or /data/owner.name) into owner.name.
func dataPath(r *http.Request) string {
	return strings.ReplaceAll(strings.Trim(chi.URLParam(r, "*"), "/"), "/", ".")
}

// GetDataValue handles GET /data/{path}.
func (s *Server) GetDataValue(w http.ResponseWriter, r *http.Request) {
	path := dataPath(r)
	if s.Inspector.Definition() == nil {
		s.writeError(w, domain.ErrNotLoaded)
		return
	}
	v, ok := s.Inspector.Get(path)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no data at %q", path)})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": v})
}

// AssignData handles PUT /data/{path}.
func (s *Server) AssignData(w http.ResponseWriter, r *http.Request) {
	path := dataPath(r)
	var body AssignRequest
	if !s.decode(w, r, "/data/{path}", &body) {
		return
	}
	if err := s.Inspector.AssignDataValue(r.Context(), path, body.Value); err != nil {
		s.writeError(w, err)
		return
	}
	v, _ := s.Inspector.Get(path)
	s.writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": v})
}

// Open handles POST /open.
func (s *Server) Open(w http.ResponseWriter, r *http.Request) {
	var body OpenRequest
	if !s.decode(w, r, "/open", &body) {
		return
	}
	var opts []wizvis.OpenOption
	if body.Data != "" {
		opts = append(opts, wizvis.WithDataPath(body.Data))
	}
	if err := s.Inspector.Open(r.Context(), body.Path, opts...); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetSnapshot(w, r)
}

// Reload handles POST /reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if err := s.Inspector.Reload(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetSnapshot(w, r)
}

// GetRecent handles GET /recent.
func (s *Server) GetRecent(w http.ResponseWriter, r *http.Request) {
	paths, err := s.Inspector.Recent(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	s.writeJSON(w, http.StatusOK, paths)
}

// SubscribeEvents handles GET /events (SSE). The optional kinds query
// parameter (comma separated: loaded, active, refresh) filters notifications.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	kinds := map[domain.NotificationKind]bool{}
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			kinds[domain.NotificationKind(strings.TrimSpace(k))] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.Inspector.Watch(r.Context())
	s.logger.Info("SSE client connected", "remote", r.RemoteAddr)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "remote", r.RemoteAddr)
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			if len(kinds) > 0 && !kinds[n.Kind] {
				continue
			}
			payload, err := json.Marshal(n)
			if err != nil {
				s.logger.Error("SSE encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, payload)
			flusher.Flush()
		}
	}
}

// NewServer wraps the handler in an http.Server with conservative timeouts.
// WriteTimeout is left unset so SSE streams stay open.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
