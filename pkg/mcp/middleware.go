package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/ambient/pkg/mcplog"
	"github.com/gnana997/ambient/pkg/metrics"
)

// metricsMiddleware counts tool calls by tool and outcome.
func (s *Server) metricsMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := next(ctx, req)
			outcome := metrics.OutcomeOK
			if err != nil || (result != nil && result.IsError) {
				outcome = metrics.OutcomeError
			}
			metrics.ToolCallsTotal.WithLabelValues(req.Params.Name, outcome).Inc()
			return result, err
		}
	}
}

// loggingMiddleware writes one JSONL entry per tool call to the call log.
// Only installed when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			entry := mcplog.Entry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    time.Since(start).Milliseconds(),
				ResponseBytes: mcplog.ResponseBytes(result),
				IsError:       result != nil && result.IsError,
			}
			if reg := s.holder.Registry(); reg != nil {
				entry.RegistryID = reg.ID()
			}
			if err != nil {
				msg := err.Error()
				entry.Error = &msg
			}
			if werr := s.callLog.Write(entry); werr != nil {
				s.logger.Debug("failed to write tool call log", "error", werr)
			}
			return result, err
		}
	}
}
