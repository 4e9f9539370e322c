// Package metrics defines the Prometheus collectors and the tracer used by
// the externs pipeline, and serves them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ambient_load_phase_seconds",
		Help:    "Time spent in each phase of an externs load.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambient_loads_total",
		Help: "Total number of externs loads by outcome.",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambient_diagnostics_total",
		Help: "Total number of diagnostics reported, by kind and severity.",
	}, []string{"kind", "severity"})

	RegistryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ambient_registry_entries",
		Help: "Number of entries in the most recently built registry.",
	})

	FilesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambient_files_loaded_total",
		Help: "Total number of declaration files read and split.",
	})

	ParseCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambient_parse_cache_hits_total",
		Help: "Total number of declaration files served from the parse cache.",
	})

	ParseCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambient_parse_cache_misses_total",
		Help: "Total number of declaration files that had to be parsed.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambient_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambient_watcher_reloads_total",
		Help: "Total number of reloads triggered by the watcher, by outcome.",
	}, []string{"outcome"})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambient_mcp_tool_calls_total",
		Help: "Total number of MCP tool calls, by tool and outcome.",
	}, []string{"tool", "outcome"})
)

// Load outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeFatal = "fatal"
)
