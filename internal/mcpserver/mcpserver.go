// Package mcpserver exposes crewboard as Model Context Protocol tools, so an
// assistant can lay out, plan and browse crew diagrams.
//
// Tools:
//
//	layout_diagram   level and position a diagram (canvas layout JSON)
//	execution_plan   derive the task order of a diagram
//	list_diagrams    list the saved diagram library
//	get_diagram      fetch a saved diagram by filename
//
// The server speaks MCP over stdio; anything it logs goes to the logger,
// never to stdout.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/crewboard/pkg/buildinfo"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/plan"
	"github.com/matzehuels/crewboard/pkg/store"
)

// Name is the server name announced during initialization.
const Name = "crewboard"

// Server wraps the diagram library and pipeline as an MCP server.
type Server struct {
	store     store.Store
	runner    *pipeline.Runner
	defaults  pipeline.Options
	logger    *log.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLayoutDefaults sets the pipeline options tool calls start from.
func WithLayoutDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// New creates a Server and registers its tools.
func New(st store.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		store:  st,
		runner: runner,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer(Name, buildinfo.Version, server.WithToolCapabilities(false))
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("layout_diagram",
		mcp.WithDescription("Level a crew diagram into tiers and compute canvas positions for every node. Returns the layout as JSON."),
		mcp.WithString("diagram", mcp.Required(), mcp.Description("The diagram as a JSON document with nodes and links")),
		mcp.WithNumber("width", mcp.Description("Canvas width in pixels (default 1280)")),
	), s.handleLayout)

	s.mcpServer.AddTool(mcp.NewTool("execution_plan",
		mcp.WithDescription("Derive the order in which the crew's tasks would run. Fails for cyclic diagrams."),
		mcp.WithString("diagram", mcp.Required(), mcp.Description("The diagram as a JSON document with nodes and links")),
	), s.handlePlan)

	s.mcpServer.AddTool(mcp.NewTool("list_diagrams",
		mcp.WithDescription("List the saved diagrams with their node and link counts."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("get_diagram",
		mcp.WithDescription("Fetch a saved diagram by filename."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Filename as returned by list_diagrams; the .json extension is optional")),
	), s.handleGet)
}

func (s *Server) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := diagramArg(req)
	if res != nil {
		return res, nil
	}
	opts := s.defaults
	opts.Formats = nil
	if w := req.GetFloat("width", 0); w > 0 {
		opts.CanvasWidth = w
	}

	l, err := s.runner.Layout(ctx, d, opts)
	if err != nil {
		return s.toolError("layout failed", err), nil
	}
	return jsonResult(l)
}

func (s *Server) handlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := diagramArg(req)
	if res != nil {
		return res, nil
	}
	p, err := plan.Build(d)
	if err != nil {
		return s.toolError("cannot plan diagram", err), nil
	}
	return jsonResult(p)
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return s.toolError("list failed", err), nil
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return jsonResult(entries)
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.store.Get(ctx, filename)
	if err != nil {
		return s.toolError("get failed", err), nil
	}
	return jsonResult(d)
}

// diagramArg decodes the diagram argument. A non-nil result reports a bad
// argument back to the caller.
func diagramArg(req mcp.CallToolRequest) (*diagram.Diagram, *mcp.CallToolResult) {
	raw, err := req.RequireString("diagram")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	d, err := diagram.Read(strings.NewReader(raw), diagram.FormatJSON)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid diagram: %s", errors.UserMessage(err)))
	}
	d.Normalize()
	return d, nil
}

func (s *Server) toolError(msg string, err error) *mcp.CallToolResult {
	s.logger.Warn(msg, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", msg, errors.UserMessage(err)))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
