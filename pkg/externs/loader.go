// Package externs runs the full ingestion pipeline: it reads declaration
// files, parses their annotations, resolves names, validates and checks
// for conflicts, and freezes the result into a registry.
package externs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/jsdoc"
	"github.com/gnana997/ambient/pkg/metrics"
	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/parser"
	"github.com/gnana997/ambient/pkg/parser/queries"
	"github.com/gnana997/ambient/pkg/registry"
	"github.com/gnana997/ambient/pkg/resolver"
	"github.com/gnana997/ambient/pkg/source"
	"github.com/gnana997/ambient/pkg/util"
	"github.com/gnana997/ambient/pkg/validator"
)

// Load phases, as reported in LoadStats and the load duration histogram.
const (
	PhaseParse    = "parse"
	PhaseValidate = "validate"
	PhaseCollect  = "collect"
	PhaseLink     = "link"
	PhaseInsert   = "insert"
)

// Options configures a Loader.
type Options struct {
	// Strict makes the first incompatible redeclaration abort the load.
	Strict bool

	// HostTypes are type names the environment provides. nil means
	// model.DefaultHostTypes.
	HostTypes []string

	// Workers is the number of files parsed in parallel. <= 0 picks a
	// CPU-based default.
	Workers int

	// CacheSize bounds the parse cache. <= 0 uses
	// source.DefaultParseCacheSize.
	CacheSize int

	// Reader fetches file contents. nil reads from disk through a memory
	// mapped source cache.
	Reader source.Reader

	Logger *slog.Logger
}

// LoadStats describes the most recent load.
type LoadStats struct {
	Files       int
	Blocks      int
	Symbols     int
	Accepted    int
	Entries     int
	Diagnostics int
	CacheHits   int
	CacheMisses int
	Phases      map[string]time.Duration
	Duration    time.Duration
}

// parsed is what a worker produces for one file. Values are shared through
// the parse cache and must not be mutated after they are stored.
type parsed struct {
	File    *source.DeclarationFile
	Symbols []*model.Symbol
	Strays  []source.Block
	Diags   diag.List
}

// Loader turns declaration files into registries. One Loader may run many
// loads; its parse cache is shared between them. Load calls are
// serialised.
type Loader struct {
	opts      Options
	logger    *slog.Logger
	parsers   *parser.ParserManager
	queries   *queries.QueryManager
	splitter  *source.Splitter
	validator *validator.Validator
	cache     *source.ParseCache[*parsed]
	sources   *util.SourceCache
	reader    source.Reader

	mu sync.Mutex // serialises loads

	statsMu sync.Mutex
	stats   LoadStats
}

// NewLoader creates a loader with its own parser pools and parse cache.
// Close releases them.
func NewLoader(opts Options) (*Loader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pm := parser.NewParserManager(logger, parser.WithPoolSize(opts.Workers))
	qm := queries.NewQueryManager(pm, logger)

	cache, err := source.NewParseCache[*parsed](opts.CacheSize, logger)
	if err != nil {
		pm.Close()
		return nil, err
	}

	l := &Loader{
		opts:      opts,
		logger:    logger,
		parsers:   pm,
		queries:   qm,
		splitter:  source.NewSplitter(pm, qm, logger),
		validator: validator.New(logger),
		cache:     cache,
		reader:    opts.Reader,
	}
	if l.reader == nil {
		l.sources = util.NewSourceCache(util.SourceCacheConfig{Logger: logger})
		l.reader = source.NewFileReader(l.sources)
	}
	return l, nil
}

// Close releases the parsers, compiled queries and mapped sources.
func (l *Loader) Close() error {
	var errs []error
	errs = append(errs, l.queries.Close())
	errs = append(errs, l.parsers.Close())
	if l.sources != nil {
		errs = append(errs, l.sources.Close())
	}
	return errors.Join(errs...)
}

// Stats returns the statistics of the last completed load.
func (l *Loader) Stats() LoadStats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// Load is a one-shot convenience: it builds a Loader from opts, loads ids
// and closes the loader.
func Load(ctx context.Context, ids []string, opts Options) (*registry.Registry, diag.List, error) {
	l, err := NewLoader(opts)
	if err != nil {
		return nil, nil, err
	}
	defer l.Close()
	return l.Load(ctx, ids)
}

// Load builds a registry from ids with the loader's reader.
func (l *Loader) Load(ctx context.Context, ids []string) (*registry.Registry, diag.List, error) {
	return l.LoadFrom(ctx, l.reader, ids)
}

// LoadFrom builds a registry from ids read through r.
//
// ids are processed in order; when two files declare the same name the one
// earlier in ids wins. Diagnostics are returned in file order. The error
// is non-nil only for fatal conditions: an unreadable source, a strict mode
// conflict or cancellation. The registry is nil whenever the error is.
func (l *Loader) LoadFrom(ctx context.Context, r source.Reader, ids []string) (*registry.Registry, diag.List, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, span := metrics.Tracer.Start(ctx, "externs.Load",
		trace.WithAttributes(
			attribute.Int("externs.files", len(ids)),
			attribute.Bool("externs.strict", l.opts.Strict),
		))
	defer span.End()

	start := time.Now()
	run := &loadRun{
		loader: l,
		stats:  LoadStats{Files: len(ids), Phases: make(map[string]time.Duration)},
	}

	reg, err := run.execute(ctx, r, ids)
	run.stats.Duration = time.Since(start)
	run.stats.Diagnostics = len(run.diags)
	for _, d := range run.diags {
		metrics.DiagnosticsTotal.WithLabelValues(string(d.Kind), d.Severity.String()).Inc()
	}
	l.statsMu.Lock()
	l.stats = run.stats
	l.statsMu.Unlock()

	if err != nil {
		outcome := metrics.OutcomeError
		var de *diag.Error
		if errors.As(err, &de) {
			outcome = metrics.OutcomeFatal
		}
		metrics.LoadsTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Error("externs load failed", "files", len(ids), "error", err)
		return nil, run.diags, err
	}

	metrics.LoadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.RegistryEntries.Set(float64(reg.Len()))
	span.SetAttributes(
		attribute.Int("externs.entries", reg.Len()),
		attribute.Int("externs.diagnostics", len(run.diags)),
	)
	l.logger.Info("externs loaded",
		"files", len(ids),
		"entries", reg.Len(),
		"errors", run.diags.Count(diag.SeverityError),
		"warnings", run.diags.Count(diag.SeverityWarning),
		"duration", run.stats.Duration)
	return reg, run.diags, nil
}

// loadRun holds the state of a single load.
type loadRun struct {
	loader *Loader
	stats  LoadStats
	diags  diag.List
}

// phase times fn and records it under name.
func (run *loadRun) phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := metrics.Tracer.Start(ctx, "externs."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	run.stats.Phases[name] = elapsed
	metrics.LoadDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (run *loadRun) execute(ctx context.Context, r source.Reader, ids []string) (*registry.Registry, error) {
	l := run.loader

	var files []*parsed
	err := run.phase(ctx, PhaseParse, func(ctx context.Context) error {
		var err error
		files, err = run.parseAll(ctx, r, ids)
		return err
	})
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			run.diags.Add(de.Diagnostic())
		}
		return nil, err
	}

	// Merge in load order. From here on everything runs on this goroutine.
	var accepted []*model.Symbol
	run.phase(ctx, PhaseValidate, func(context.Context) error {
		for _, p := range files {
			run.stats.Blocks += len(p.File.Blocks)
			run.stats.Symbols += len(p.Symbols)
			run.diags = append(run.diags, p.Diags...)

			res := l.validator.ValidateFile(p.File, p.Symbols, p.Strays)
			run.diags = append(run.diags, res.Diagnostics()...)
			accepted = append(accepted, res.Accepted...)
		}
		return nil
	})

	tree := resolver.NewTree(l.opts.HostTypes, l.logger)
	run.phase(ctx, PhaseCollect, func(context.Context) error {
		tree.Collect(accepted)
		return nil
	})

	var linked []*model.Symbol
	run.phase(ctx, PhaseLink, func(context.Context) error {
		kept := accepted[:0:0]
		for _, sym := range accepted {
			if v := l.validator.CheckExtensionTarget(sym, tree); v != nil {
				run.diags.Add(diag.Diagnostic{
					Severity: v.Severity,
					Kind:     v.Rule,
					File:     sym.Location.File,
					Line:     v.Line,
					Message:  v.Message,
				})
				continue
			}
			kept = append(kept, sym)
		}
		var linkDiags diag.List
		linked, linkDiags = tree.Link(kept)
		run.diags = append(run.diags, linkDiags...)
		return nil
	})
	run.stats.Accepted = len(linked)

	var reg *registry.Registry
	err = run.phase(ctx, PhaseInsert, func(ctx context.Context) error {
		b := registry.NewBuilder(registry.BuilderOptions{
			Strict:    l.opts.Strict,
			HostTypes: l.opts.HostTypes,
			Logger:    l.logger,
		})
		var insertErr error
		for _, sym := range linked {
			if insertErr = b.Insert(sym); insertErr != nil {
				break
			}
		}
		run.diags = append(run.diags, b.Diagnostics()...)
		if insertErr != nil {
			return insertErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		reg = b.Freeze()
		return nil
	})
	if err != nil {
		return nil, err
	}
	run.stats.Entries = reg.Len()
	return reg, nil
}

// parseAll reads, splits and annotation-parses every file on the worker
// pool. Results are returned in ids order. The first failure cancels the
// remaining work.
func (run *loadRun) parseAll(ctx context.Context, r source.Reader, ids []string) ([]*parsed, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	l := run.loader

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var hits, misses int
	var countMu sync.Mutex
	process := func(ctx context.Context, job source.FileJob) (*parsed, error) {
		p, cached, err := l.parseFile(ctx, r, job.Path)
		if err == nil {
			countMu.Lock()
			if cached {
				hits++
			} else {
				misses++
			}
			countMu.Unlock()
		}
		return p, err
	}

	pool := source.NewWorkerPool(ctx, l.opts.Workers, process, l.logger)
	pool.Start()

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		defer pool.FinishSubmitting()
		for i, id := range ids {
			if err := pool.Submit(source.FileJob{Path: id, Index: i}); err != nil {
				return
			}
		}
	}()

	slots := make([]*parsed, len(ids))
	var firstErr error
	for received := 0; received < len(ids) && firstErr == nil; received++ {
		select {
		case res := <-pool.Results():
			slots[res.Index] = res.Result
		case fe := <-pool.Errors():
			firstErr = fe.Err
		case <-ctx.Done():
			firstErr = ctx.Err()
		}
	}

	cancel()
	<-submitted
	pool.Stop()

	run.stats.CacheHits = hits
	run.stats.CacheMisses = misses
	if firstErr != nil {
		return nil, firstErr
	}
	return slots, nil
}

// parseFile produces the parse result for one file. The bool reports a
// parse cache hit.
func (l *Loader) parseFile(ctx context.Context, r source.Reader, id string) (*parsed, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	content, err := r.ReadSource(id)
	if err != nil {
		return nil, false, diag.Fatal(diag.SourceUnavailable, id, err)
	}
	metrics.FilesLoaded.Inc()

	hash := source.HashContent(content)
	if p, ok := l.cache.Get(id, hash); ok {
		metrics.ParseCacheHits.Inc()
		return p, true, nil
	}
	metrics.ParseCacheMisses.Inc()

	file, err := l.splitter.Split(id, content)
	if err != nil {
		return nil, false, diag.Fatal(diag.SourceUnavailable, id, fmt.Errorf("cannot parse: %w", err))
	}

	p := &parsed{File: file}
	for _, b := range file.Blocks {
		if b.Stmt.Kind == source.StmtOther {
			p.Strays = append(p.Strays, b)
			continue
		}
		sym, err := jsdoc.Parse(id, b)
		if err != nil {
			line := b.DocLine
			if line == 0 {
				line = b.Stmt.Line
			}
			p.Diags.Report(diag.MalformedAnnotation, id, line, "%s: %v", declName(b.Stmt), err)
			continue
		}
		p.Symbols = append(p.Symbols, sym)
	}
	l.cache.Put(id, hash, p)
	return p, false, nil
}

func declName(stmt source.Statement) string {
	if len(stmt.Path) == 0 {
		return stmt.Kind.String() + " statement"
	}
	return strings.Join(stmt.Path, ".")
}
