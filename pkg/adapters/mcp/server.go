package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/presentation/graph"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Inspector is the part of *wizvis.Inspector exposed to MCP clients.
type Inspector interface {
	Open(ctx context.Context, path string, opts ...wizvis.OpenOption) error
	FireEvent(ctx context.Context, name string) error
	IsExpressionTrue(ctx context.Context, expr string) bool
	AssignDataValue(ctx context.Context, path, value string) error
	Definition() *domain.Definition
	ActiveStates() []domain.ActiveState
	Get(path string) (any, bool)
	Snapshot(ctx context.Context) (wizvis.Snapshot, error)
}

var _ Inspector = (*wizvis.Inspector)(nil)

// FireArgs are the arguments of fire_event.
type FireArgs struct {
	Event string `json:"event"`
}

// FireResult reports the active states after an event.
type FireResult struct {
	Event   string   `json:"event" jsonschema_description:"The event that was fired"`
	Active  []string `json:"active" jsonschema_description:"Active state ids after the event"`
	Entered []string `json:"entered,omitempty" jsonschema_description:"States that became active"`
	Exited  []string `json:"exited,omitempty" jsonschema_description:"States that stopped being active"`
}

// EvalArgs are the arguments of evaluate.
type EvalArgs struct {
	Expr string `json:"expr"`
}

// EvalResult is the outcome of a guard evaluation.
type EvalResult struct {
	Expr   string `json:"expr"`
	Result bool   `json:"result" jsonschema_description:"True only when the expression evaluates to boolean true"`
}

// AssignArgs are the arguments of assign_data.
type AssignArgs struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// AssignResult echoes the stored value.
type AssignResult struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ActiveResult lists the active states with transition enablement.
type ActiveResult struct {
	Active []domain.ActiveStateView `json:"active"`
}

// OpenArgs are the arguments of open_definition.
type OpenArgs struct {
	Path string `json:"path"`
	Data string `json:"data,omitempty"`
}

// Server wraps the Inspector and exposes it as an MCP Server.
type Server struct {
	insp      Inspector
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(insp Inspector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		insp:      insp,
		logger:    logger,
		mcpServer: server.NewMCPServer("wizvis-mcp", wizvis.Version, server.WithResourceCapabilities(false, false)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("fire_event",
		mcp.WithDescription("Send an event to the loaded state machine and report the resulting active states."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithOutputSchema[FireResult](),
	), mcp.NewStructuredToolHandler(s.handleFireEvent))

	s.mcpServer.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate a guard expression against the current data model."),
		mcp.WithString("expr", mcp.Required(), mcp.Description("Guard expression")),
		mcp.WithOutputSchema[EvalResult](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	s.mcpServer.AddTool(mcp.NewTool("assign_data",
		mcp.WithDescription("Assign a value to a dotted data model path. true/false become booleans, anything else a string."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted path below the data model binding")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Raw value")),
		mcp.WithOutputSchema[AssignResult](),
	), mcp.NewStructuredToolHandler(s.handleAssignData))

	s.mcpServer.AddTool(mcp.NewTool("active_states",
		mcp.WithDescription("List the active states and whether each of their transitions is enabled."),
		mcp.WithOutputSchema[ActiveResult](),
	), mcp.NewStructuredToolHandler(s.handleActiveStates))

	s.mcpServer.AddTool(mcp.NewTool("open_definition",
		mcp.WithDescription("Load a state machine definition (SCXML or YAML) from disk."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Definition file path")),
		mcp.WithString("data", mcp.Description("JSON baseline overriding the definition's data src")),
		mcp.WithOutputSchema[wizvis.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get a Mermaid diagram of the chart with the active states highlighted."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.mermaid()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

func (s *Server) handleFireEvent(ctx context.Context, _ mcp.CallToolRequest, args FireArgs) (FireResult, error) {
	if args.Event == "" {
		return FireResult{}, errors.New("event is required")
	}
	before := domain.IDs(s.insp.ActiveStates())
	if err := s.insp.FireEvent(ctx, args.Event); err != nil {
		s.logger.Debug("MCP fire_event rejected", "event", args.Event, "err", err)
		return FireResult{}, err
	}
	after := domain.IDs(s.insp.ActiveStates())
	diff := domain.Diff(before, after)
	return FireResult{Event: args.Event, Active: after, Entered: diff.Entered, Exited: diff.Exited}, nil
}

func (s *Server) handleEvaluate(ctx context.Context, _ mcp.CallToolRequest, args EvalArgs) (EvalResult, error) {
	return EvalResult{Expr: args.Expr, Result: s.insp.IsExpressionTrue(ctx, args.Expr)}, nil
}

func (s *Server) handleAssignData(ctx context.Context, _ mcp.CallToolRequest, args AssignArgs) (AssignResult, error) {
	if err := s.insp.AssignDataValue(ctx, args.Path, args.Value); err != nil {
		return AssignResult{}, err
	}
	v, _ := s.insp.Get(args.Path)
	return AssignResult{Path: args.Path, Value: v}, nil
}

func (s *Server) handleActiveStates(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (ActiveResult, error) {
	snap, err := s.insp.Snapshot(ctx)
	if err != nil {
		return ActiveResult{}, err
	}
	return ActiveResult{Active: snap.Active}, nil
}

func (s *Server) handleOpen(ctx context.Context, _ mcp.CallToolRequest, args OpenArgs) (wizvis.Snapshot, error) {
	var opts []wizvis.OpenOption
	if args.Data != "" {
		opts = append(opts, wizvis.WithDataPath(args.Data))
	}
	if err := s.insp.Open(ctx, args.Path, opts...); err != nil {
		return wizvis.Snapshot{}, err
	}
	return s.insp.Snapshot(ctx)
}

func (s *Server) mermaid() (string, error) {
	def := s.insp.Definition()
	if def == nil {
		return "", domain.ErrNotLoaded
	}
	return graph.GenerateMermaid(def, &graph.Overlay{Active: domain.IDs(s.insp.ActiveStates())}), nil
}

func (s *Server) registerResources() {
	s.addJSONResource("wizvis://tree", "State hierarchy", func(snap wizvis.Snapshot) any { return snap.Tree })
	s.addJSONResource("wizvis://states", "All state ids", func(snap wizvis.Snapshot) any { return snap.States })
	s.addJSONResource("wizvis://snapshot", "Inspector snapshot", func(snap wizvis.Snapshot) any { return snap })

	s.mcpServer.AddResource(mcp.NewResource("wizvis://graph", "Mermaid diagram",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.mermaid()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: "wizvis://graph", MIMEType: "text/plain", Text: text},
		}, nil
	})
}

func (s *Server) addJSONResource(uri, name string, pick func(wizvis.Snapshot) any) {
	s.mcpServer.AddResource(mcp.NewResource(uri, name,
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.readJSON(ctx, uri, pick)
	})
}

func (s *Server) readJSON(ctx context.Context, uri string, pick func(wizvis.Snapshot) any) ([]mcp.ResourceContents, error) {
	snap, err := s.insp.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(pick(snap))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(b)},
	}, nil
}
