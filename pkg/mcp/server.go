// Package mcp exposes registry queries as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server answers tool calls from whatever snapshot the holder publishes at
// the time of the call, so reloads are picked up without a restart.
type Server struct {
	mcpServer *server.MCPServer
	holder    *externs.Holder
	callLog   *mcplog.Logger // nil disables the JSONL log
	logger    *slog.Logger
}

// NewServer creates a server reading from holder. callLog may be nil.
func NewServer(holder *externs.Holder, callLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{holder: holder, callLog: callLog, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.metricsMiddleware()),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("ambient", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: lookupSymbolTool(), Handler: s.handleLookupSymbol},
		server.ServerTool{Tool: membersOfTool(), Handler: s.handleMembersOf},
		server.ServerTool{Tool: listNamesTool(), Handler: s.handleListNames},
		server.ServerTool{Tool: getDiagnosticsTool(), Handler: s.handleGetDiagnostics},
		server.ServerTool{Tool: registryInfoTool(), Handler: s.handleRegistryInfo},
	)
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcpServer)
}
