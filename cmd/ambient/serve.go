package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/mcp"
	"github.com/gnana997/ambient/pkg/mcplog"
	"github.com/gnana997/ambient/pkg/metrics"
)

type serveFlags struct {
	noWatch      bool
	mcpLog       string
	metricsAddr  string
	otlpEndpoint string
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve registry queries as MCP tools over stdio",
		Long: "Load the configured externs and answer MCP tool calls on stdin/stdout.\n" +
			"The registry is rebuilt whenever a loaded file changes unless --no-watch is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if fs.Changed("mcp-log") {
				a.cfg.MCPLog = f.mcpLog
			}
			if fs.Changed("metrics-addr") {
				a.cfg.MetricsAddr = f.metricsAddr
			}
			if fs.Changed("otlp-endpoint") {
				a.cfg.OTLPEndpoint = f.otlpEndpoint
			}
			return a.serve(cmd.Context(), !f.noWatch)
		},
	}
	cmd.Flags().BoolVar(&f.noWatch, "no-watch", false, "Load once and never reload")
	cmd.Flags().StringVar(&f.mcpLog, "mcp-log", "", "Append a JSONL record of every tool call to this file")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address, e.g. :9464")
	cmd.Flags().StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "Export load traces to this OTLP/gRPC collector")
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := metrics.SetupTracing(ctx, metrics.TracingConfig{
		Endpoint:    a.cfg.OTLPEndpoint,
		Insecure:    true,
		ServiceName: "ambient",
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}()

	patterns := a.cfg.Externs
	ids, err := a.inputs(patterns)
	if err != nil {
		return err
	}
	loader, closeLoader, err := a.newLoader()
	if err != nil {
		return err
	}
	defer closeLoader()

	holder := externs.NewHolder()
	opts := externs.DefaultWatchOptions()
	opts.Roots = roots(patterns)
	opts.Resolve = func() ([]string, error) { return a.inputs(patterns) }
	opts.OnReload = func(snap *externs.Snapshot, err error) {
		if snap != nil {
			logDiagnostics(a, snap.Diagnostics)
		}
	}
	w, err := externs.NewWatcher(loader, holder, ids, opts, a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	// The first load has to succeed; later failures keep the last good
	// registry.
	if _, err := w.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	if watch {
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	if a.cfg.MetricsAddr != "" {
		ms := metrics.NewServer(a.cfg.MetricsAddr, holderHealth(holder), a.logger)
		if err := ms.Start(ctx); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ms.Stop(stopCtx)
		}()
	}

	callLog, err := mcplog.Open(a.cfg.MCPLog)
	if err != nil {
		return err
	}
	defer callLog.Close()

	return mcp.NewServer(holder, callLog, a.logger).ServeStdio()
}

// holderHealth reports the snapshot currently published by h.
func holderHealth(h *externs.Holder) metrics.HealthFunc {
	return func(context.Context) metrics.HealthStatus {
		snap := h.Current()
		if snap == nil || snap.Registry == nil {
			return metrics.HealthStatus{Status: "loading"}
		}
		return metrics.HealthStatus{
			Status:     "up",
			RegistryID: snap.Registry.ID(),
			Entries:    snap.Registry.Len(),
			LoadedAt:   snap.LoadedAt.UTC().Format(time.RFC3339),
		}
	}
}

// logDiagnostics logs a reload's errors and warnings. stdout belongs to the
// MCP transport, so nothing is printed there.
func logDiagnostics(a *app, diags diag.List) {
	for _, d := range diags.AtLeast(diag.SeverityWarning) {
		a.logger.Warn("externs diagnostic",
			"severity", d.Severity.String(),
			"kind", string(d.Kind),
			"file", d.File,
			"line", d.Line,
			"message", d.Message)
	}
}
