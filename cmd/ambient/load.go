package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/ambient/bundled"
	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/registry"
	"github.com/gnana997/ambient/pkg/source"
	"github.com/gnana997/ambient/pkg/util"
)

// patterns returns args when given, otherwise the configured externs.
func (a *app) patterns(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Externs
}

// inputs expands patterns into the identifiers to load, bundled externs
// first so project files can build on them.
func (a *app) inputs(patterns []string) ([]string, error) {
	files, err := source.Expand(patterns, a.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	var ids []string
	if a.cfg.Bundled {
		ids = append(ids, bundled.IDs()...)
	}
	ids = append(ids, files...)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no externs to load: pass files with --externs or list them in %s", a.configPath)
	}
	return ids, nil
}

// roots returns the directories behind patterns, for recursive watching.
func roots(patterns []string) []string {
	var dirs []string
	for _, p := range patterns {
		base := p
		if strings.ContainsAny(p, "*?[{") {
			base, _ = doublestar.SplitPattern(filepath.ToSlash(p))
			base = filepath.FromSlash(base)
		}
		if info, err := os.Stat(base); err == nil && info.IsDir() {
			dirs = append(dirs, base)
		}
	}
	return dirs
}

// newLoader creates a loader reading disk files through a memory mapped
// cache and bundled files from the binary. The returned func releases both.
func (a *app) newLoader() (*externs.Loader, func() error, error) {
	sources := util.NewSourceCache(util.SourceCacheConfig{Logger: a.logger})
	reader := bundled.Mount(source.NewMuxReader(source.NewFileReader(sources)))

	var hostTypes []string
	if len(a.cfg.HostTypes) > 0 {
		hostTypes = a.cfg.HostTypes
	}
	loader, err := externs.NewLoader(externs.Options{
		Strict:    a.cfg.Strict,
		HostTypes: hostTypes,
		Workers:   a.cfg.Workers,
		Reader:    reader,
		Logger:    a.logger,
	})
	if err != nil {
		sources.Close()
		return nil, nil, err
	}
	return loader, func() error { return errors.Join(loader.Close(), sources.Close()) }, nil
}

// loadResult is one finished load.
type loadResult struct {
	Registry    *registry.Registry
	Diagnostics diag.List
	Files       []string
	Stats       externs.LoadStats
}

// load runs a single load of patterns. A fatal error is returned together
// with the diagnostics gathered before it.
func (a *app) load(ctx context.Context, patterns []string) (*loadResult, error) {
	ids, err := a.inputs(patterns)
	if err != nil {
		return nil, err
	}
	loader, closeLoader, err := a.newLoader()
	if err != nil {
		return nil, err
	}
	defer closeLoader()

	reg, diags, err := loader.Load(ctx, ids)
	res := &loadResult{Registry: reg, Diagnostics: diags, Files: ids, Stats: loader.Stats()}
	return res, err
}

// query loads the configured externs for a read-only command. Only
// error-severity diagnostics are shown, on stderr.
func (a *app) query(ctx context.Context, errOut io.Writer) (*registry.QueryService, error) {
	res, err := a.load(ctx, a.cfg.Externs)
	if res != nil {
		printDiagnostics(errOut, res.Diagnostics.AtLeast(diag.SeverityError))
	}
	if err != nil {
		return nil, reported(err)
	}
	return registry.NewQueryService(res.Registry, res.Diagnostics), nil
}

// reported replaces a fatal diagnostic error, which has already been
// printed with the other diagnostics, by errDiagnostics.
func reported(err error) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return errDiagnostics
	}
	return err
}
