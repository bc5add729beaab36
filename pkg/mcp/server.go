package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/validation"
)

// ViewServerDeps holds the dependencies for creating a ViewServer.
type ViewServerDeps struct {
	Validator   validation.Validator
	Expressions *expressions.Registry
	Logger      *slog.Logger
	BinDir      string
	Version     string
}

// ViewServer wraps an MCP server with the workflow viewing tools.
type ViewServer struct {
	validator   validation.Validator
	expressions *expressions.Registry
	converter   *flow.Converter
	logger      *slog.Logger
	binDir      string
	mcpServer   *server.MCPServer
}

// NewViewServer creates a new ViewServer with all 4 tools registered.
func NewViewServer(deps ViewServerDeps) *ViewServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &ViewServer{
		validator:   deps.Validator,
		expressions: deps.Expressions,
		converter:   flow.NewConverter(logger),
		logger:      logger,
		binDir:      deps.BinDir,
	}

	mcpSrv := server.NewMCPServer(
		"n8nview",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("n8nview reads exported n8n workflow JSON. Pass the file content as the workflow string. Use n8nview.convert for the node-link graph, n8nview.diagram to draw it, n8nview.summarize for per-node cards and n8nview.select to find nodes with an expr, cel or jq predicate."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *ViewServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *ViewServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 4 registered MCP tools as ServerTool entries.
func (s *ViewServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: convertTool(), Handler: s.handleConvert},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: summarizeTool(), Handler: s.handleSummarize},
		{Tool: selectTool(), Handler: s.handleSelect},
	}
}

// --- Tool definitions ---

func workflowArg() mcp.ToolOption {
	return mcp.WithString("workflow", mcp.Required(),
		mcp.Description("Exported n8n workflow, as the raw JSON text of the file"))
}

func convertTool() mcp.Tool {
	return mcp.NewTool("n8nview.convert",
		mcp.WithDescription("Convert an n8n workflow into display nodes and edges"),
		workflowArg(),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("n8nview.diagram",
		mcp.WithDescription("Draw an n8n workflow. Returns Mermaid, ASCII art, Graphviz DOT, SVG, or a PNG image"),
		workflowArg(),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("mermaid", "ascii", "dot", "svg", "png"),
			mcp.Description("Output format"),
		),
		mcp.WithString("expression", mcp.Description("Optional predicate; matching nodes are highlighted")),
		mcp.WithString("engine", mcp.Enum("expr", "cel", "jq"), mcp.Description("Predicate language (default: expr)")),
	)
}

func summarizeTool() mcp.Tool {
	return mcp.NewTool("n8nview.summarize",
		mcp.WithDescription("Render the summary card of each node of an n8n workflow"),
		workflowArg(),
		mcp.WithString("node_id", mcp.Description("Only summarize this node")),
	)
}

func selectTool() mcp.Tool {
	return mcp.NewTool("n8nview.select",
		mcp.WithDescription("List the ids of the nodes matching a predicate"),
		workflowArg(),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Predicate evaluated once per node")),
		mcp.WithString("engine", mcp.Enum("expr", "cel", "jq"), mcp.Description("Predicate language (default: expr)")),
	)
}
