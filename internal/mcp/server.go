// Package mcp exposes the summary library as Model Context Protocol tools so
// an assistant can run the pipeline and browse stored summaries.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/booksum/internal/build"
	"github.com/roasbeef/booksum/internal/library"
)

// ServerName is reported to MCP clients.
const ServerName = "booksum"

// Server wraps the MCP server around a library service.
type Server struct {
	server *mcp.Server
	lib    *library.Service
	log    *slog.Logger
}

// NewServer creates an MCP server with every tool registered.
func NewServer(lib *library.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: build.Version(),
		}, nil),
		lib: lib,
		log: log.With("component", "mcp"),
	}
	s.registerTools()

	return s
}

// Run serves on transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.InfoContext(ctx, "Serving MCP tools")

	return s.server.Run(ctx, transport)
}

// Connect starts a session on transport without blocking. Used by tests.
func (s *Server) Connect(ctx context.Context,
	transport mcp.Transport) (*mcp.ServerSession, error) {

	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "summarize_job",
		Description: "Wait for an extraction job to finish and " +
			"generate the summary of the record it belongs to",
	}, s.handleSummarizeJob)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "list_summaries",
		Description: "List stored summaries with optional search " +
			"and paging",
	}, s.handleListSummaries)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_summary",
		Description: "Read one stored summary in full",
	}, s.handleGetSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recent_summaries",
		Description: "List the most recently viewed summaries",
	}, s.handleRecentSummaries)
}
