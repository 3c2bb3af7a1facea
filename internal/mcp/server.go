// Package mcp exposes the answering engine to AI agents over the Model
// Context Protocol on stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/qualbot/qualbot/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes question-answering tools.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server around the engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcp = server.NewMCPServer(
		"qualbot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askQuestionTool, s.handleAskQuestion)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(listCategoriesTool, s.handleListCategories)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
