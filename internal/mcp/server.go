// Package mcp implements the Model Context Protocol server for agrolake using
// the mcp-go library.
//
// The server exposes the agricultural data lake to AI assistants: the Apidog
// gateway endpoints, property and farmer records, Gemini consultation, HG
// Brasil weather, the documentation knowledge base, and external URL fetching.
// Communication happens over stdin/stdout using JSON-RPC 2.0 as specified by
// the MCP standard, so all logging must stay on stderr.
package mcp

import (
	"fmt"

	"agrolake/internal/agro"
	"agrolake/internal/apidog"
	"agrolake/internal/docs"
	"agrolake/internal/gemini"
	"agrolake/internal/logging"
	"agrolake/internal/urlfetch"
	"agrolake/internal/weather"

	"github.com/mark3labs/mcp-go/server"
)

const serverVersion = "1.0.0"

// Deps carries the service clients the tool handlers delegate to. Docs may be
// nil when no docs directory is configured; the documentation tools are then
// not registered, matching how the server degrades without optional pieces.
type Deps struct {
	Gateway *apidog.Client
	Agro    *agro.Service
	Gemini  *gemini.Client
	Weather *weather.Client
	Docs    *docs.Manager
	Fetcher *urlfetch.Fetcher
	Logger  *logging.AppLogger
}

// Server is the agrolake MCP server instance.
type Server struct {
	deps      Deps
	mcpServer *server.MCPServer
}

// NewServer builds the MCP server and registers every tool, resource and
// prompt against the provided dependencies.
func NewServer(deps Deps) (*Server, error) {
	if deps.Gateway == nil || deps.Agro == nil {
		return nil, fmt.Errorf("gateway and agro service are required")
	}

	s := &Server{
		deps: deps,
		mcpServer: server.NewMCPServer(
			"agrolake",
			serverVersion,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(true, false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	s.deps.Logger.Info("MCP server starting on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
