package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/techninja/techninja"
	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/internal/presentation/graph"
	"github.com/techninja/techninja/internal/presentation/tui"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
	"github.com/techninja/techninja/pkg/runner"
)

// WizardResponse is the structured result of every navigation tool.
type WizardResponse struct {
	View       domain.View           `json:"view" jsonschema_description:"Read-only projection of the current step"`
	State      domain.TraversalState `json:"state" jsonschema_description:"Machine, symptom, step and path taken"`
	Terminal   bool                  `json:"terminal" jsonschema_description:"True when the current step is a diagnosis"`
	Markdown   string                `json:"markdown" jsonschema_description:"Human-readable rendering of the view"`
	GraphError string                `json:"graphError,omitempty" jsonschema_description:"Why the machine graph could not be loaded"`
}

// MachineList is the result of list_machines.
type MachineList struct {
	Machines   []domain.Machine `json:"machines"`
	IndexError string           `json:"indexError,omitempty"`
}

// Server exposes a Navigator as an MCP tool server.
type Server struct {
	nav       ports.Navigator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. MCP over stdio owns stdout, so logs must go elsewhere.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(nav ports.Navigator, opts ...Option) *Server {
	s := &Server{
		nav:    nav,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("techninja-mcp", techninja.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_machines",
		mcp.WithDescription("List the machines the wizard can troubleshoot."),
		mcp.WithOutputSchema[MachineList](),
	), mcp.NewStructuredToolHandler(s.handleListMachines))

	s.mcpServer.AddTool(mcp.NewTool("select_machine",
		mcp.WithDescription("Select a machine and load its troubleshooting graph. Lists its symptoms."),
		mcp.WithString("machine_id", mcp.Required(), mcp.Description("Machine id from list_machines")),
		mcp.WithOutputSchema[WizardResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectMachine))

	s.mcpServer.AddTool(mcp.NewTool("start_symptom",
		mcp.WithDescription("Start troubleshooting a symptom of the selected machine."),
		mcp.WithString("symptom_id", mcp.Required(), mcp.Description("Symptom id from the view")),
		mcp.WithOutputSchema[WizardResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartSymptom))

	s.mcpServer.AddTool(mcp.NewTool("choose",
		mcp.WithDescription("Answer the current question by picking one of its options."),
		mcp.WithNumber("option", mcp.Required(), mcp.Description("0-based index into view.options")),
		mcp.WithOutputSchema[WizardResponse](),
	), mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Move to a step by id."),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Target step id")),
		mcp.WithOutputSchema[WizardResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.addSimple("back", "Go back one step.", s.nav.Retreat)
	s.addSimple("restart_symptom", "Return to the first step of the current symptom.", s.nav.RestartSymptom)
	s.addSimple("exit_symptom", "Leave the current symptom and show the symptom list.", s.nav.ExitToSymptomList)
	s.addSimple("view", "Show the current step without changing anything.", func(context.Context) error { return nil })
	s.addSimple("clear_session", "Forget the saved session. The current position is kept.", s.nav.ClearSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the graph of the selected machine."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGetGraph)
}

func (s *Server) addSimple(name, description string, fn func(context.Context) error) {
	s.mcpServer.AddTool(mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithOutputSchema[WizardResponse](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (WizardResponse, error) {
		return s.respond(fn(ctx))
	}))
}

func (s *Server) handleListMachines(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MachineList, error) {
	list := MachineList{Machines: s.nav.Machines()}
	if err := s.nav.IndexError(); err != nil {
		list.IndexError = err.Error()
	}
	return list, nil
}

func (s *Server) handleSelectMachine(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WizardResponse, error) {
	id, err := stringArg(args, "machine_id")
	if err != nil {
		return WizardResponse{}, err
	}
	return s.respond(s.nav.SelectMachine(ctx, id))
}

func (s *Server) handleStartSymptom(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WizardResponse, error) {
	id, err := stringArg(args, "symptom_id")
	if err != nil {
		return WizardResponse{}, err
	}
	return s.respond(s.nav.StartSymptom(ctx, id))
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WizardResponse, error) {
	raw, ok := args["option"].(float64)
	if !ok {
		return WizardResponse{}, fmt.Errorf("option must be a number")
	}
	return s.respond(s.nav.Choose(ctx, int(raw)))
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WizardResponse, error) {
	id, err := stringArg(args, "step_id")
	if err != nil {
		return WizardResponse{}, err
	}
	return s.respond(s.nav.Advance(ctx, id))
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.nav.Graph()
	if g == nil {
		return mcp.NewToolResultError(domain.ErrNoGraph.Error()), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(g, graph.OverlayFromState(s.nav.State()))), nil
	}
	jsonBytes, err := json.Marshal(g)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// respond turns a command outcome into a tool result. A failed command is
// reported as an error; the state it left behind is unchanged.
func (s *Server) respond(err error) (WizardResponse, error) {
	if err != nil {
		s.logger.Warn("MCP command rejected", "err", err)
		return WizardResponse{}, err
	}

	view := s.nav.View()
	resp := WizardResponse{
		View:     view,
		State:    s.nav.State(),
		Terminal: s.nav.IsTerminal(),
	}
	machine := domain.Machine{ID: resp.State.MachineID, Name: resp.State.MachineID}
	for _, m := range s.nav.Machines() {
		if m.ID == resp.State.MachineID {
			machine = m
		}
	}
	if gErr := s.nav.GraphError(); gErr != nil {
		resp.GraphError = gErr.Error()
		resp.Markdown = tui.LoadFailure(machine, gErr)
	} else {
		resp.Markdown = tui.View(view, machine)
	}
	return resp, nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, _ := args[name].(string)
	if err := runner.CheckID(name, v); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("techninja://graph", "Selected Machine Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g := s.nav.Graph()
		if g == nil {
			return nil, domain.ErrNoGraph
		}
		jsonBytes, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "techninja://graph",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("techninja://machines", "Machine Catalogue",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.nav.Machines())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "techninja://machines",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
