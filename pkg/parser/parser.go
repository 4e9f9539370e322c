// Package parser wraps tree-sitter grammars for the declaration languages
// and pools parsers so files can be parsed from many goroutines.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/ambient/pkg/util"
)

// ParserManager owns one parser pool per language.
//
// Pools are created on first use. Callers own the returned trees and must
// Close them. The manager itself must be closed to free the parsers.
//
// Example:
//
//	pm := NewParserManager(logger)
//	defer pm.Close()
//
//	tree, err := pm.Parse([]byte("var console;"), LanguageJavaScript)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	pools    map[Language]*parserPool
	mu       sync.RWMutex
	poolSize int
	logger   *slog.Logger

	parses atomic.Int64
}

// Option configures a ParserManager.
type Option func(*ParserManager)

// WithPoolSize caps the parsers per language. Values <= 0 keep the
// CPU-based default.
func WithPoolSize(n int) Option {
	return func(pm *ParserManager) {
		pm.poolSize = util.GetOptimalPoolSizeWithOverride(n)
	}
}

// NewParserManager creates a manager. The pool size defaults to
// util.GetOptimalPoolSize so it matches the loader's worker count.
func NewParserManager(logger *slog.Logger, opts ...Option) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	pm := &ParserManager{
		pools:    make(map[Language]*parserPool),
		poolSize: util.GetOptimalPoolSize(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Parse parses source with the grammar for lang. Trees containing syntax
// errors are still returned; the ERROR nodes are left for the caller.
func (pm *ParserManager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}
	pm.parses.Add(1)

	pool, err := pm.pool(lang)
	if err != nil {
		return nil, err
	}
	parser, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", lang)
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "language", lang.String())
	}
	return tree, nil
}

// ParseFile parses source with the grammar matching filePath's extension.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang)
}

// Grammar returns the tree-sitter language for lang. Query compilation
// uses it.
func (pm *ParserManager) Grammar(lang Language) (*ts.Language, error) {
	switch lang {
	case LanguageJavaScript:
		return ts.NewLanguage(ts_javascript.Language()), nil
	case LanguageTypeScript:
		return ts.NewLanguage(ts_typescript.LanguageTypescript()), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

func (pm *ParserManager) pool(lang Language) (*parserPool, error) {
	pm.mu.RLock()
	p, ok := pm.pools[lang]
	pm.mu.RUnlock()
	if ok {
		return p, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p, ok = pm.pools[lang]; ok {
		return p, nil
	}
	grammar, err := pm.Grammar(lang)
	if err != nil {
		return nil, err
	}
	p = newParserPool(lang, grammar, pm.poolSize, pm.logger)
	pm.pools[lang] = p
	pm.logger.Debug("created parser pool", "language", lang.String(), "max_size", pm.poolSize)
	return p, nil
}

// Close frees every pooled parser. The manager is unusable afterwards.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	closed := 0
	for _, p := range pm.pools {
		closed += p.close()
	}
	pm.pools = make(map[Language]*parserPool)
	pm.logger.Debug("closed parser manager", "parsers_closed", closed, "parses", pm.parses.Load())
	return nil
}

// ParserStats reports parser usage.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int64
}

// GetStats returns usage counters across all pools.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	created := 0
	for _, p := range pm.pools {
		created += p.createdCount()
	}
	return ParserStats{ParsersCreated: created, ParsesCalled: pm.parses.Load()}
}
