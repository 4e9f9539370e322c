// Package queries compiles, caches and runs the tree-sitter queries that
// locate declarations in externs files.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/ambient/pkg/parser"
)

// QueryType selects a family of queries.
type QueryType int

const (
	// QueryTypeDeclarations finds top-level declarations.
	QueryTypeDeclarations QueryType = iota
)

func (qt QueryType) String() string {
	switch qt {
	case QueryTypeDeclarations:
		return "declarations"
	default:
		return "unknown"
	}
}

type queryKey struct {
	lang  parser.Language
	qtype QueryType
}

// QueryManager compiles queries on first use and caches them per language.
// It is safe for concurrent use; compiled queries are shared read-only.
type QueryManager struct {
	parserManager *parser.ParserManager
	cache         map[queryKey]*ts.Query
	mu            sync.RWMutex
	logger        *slog.Logger
}

// NewQueryManager creates a query manager compiling against pm's grammars.
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{
		parserManager: pm,
		cache:         make(map[queryKey]*ts.Query),
		logger:        logger,
	}
}

// GetQuery returns the compiled query for lang and qtype.
func (qm *QueryManager) GetQuery(lang parser.Language, qtype QueryType) (*ts.Query, error) {
	key := queryKey{lang: lang, qtype: qtype}

	qm.mu.RLock()
	q, ok := qm.cache[key]
	qm.mu.RUnlock()
	if ok {
		return q, nil
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if q, ok = qm.cache[key]; ok {
		return q, nil
	}

	src, err := querySource(lang, qtype)
	if err != nil {
		return nil, err
	}
	grammar, err := qm.parserManager.Grammar(lang)
	if err != nil {
		return nil, err
	}
	q, qerr := ts.NewQuery(grammar, src)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}
	qm.cache[key] = q
	qm.logger.Debug("compiled query", "language", lang.String(), "type", qtype.String())
	return q, nil
}

func querySource(lang parser.Language, qtype QueryType) (string, error) {
	if qtype != QueryTypeDeclarations {
		return "", fmt.Errorf("unknown query type: %d", qtype)
	}
	switch lang {
	case parser.LanguageJavaScript:
		return JSDeclarations, nil
	case parser.LanguageTypeScript:
		return TSDeclarations, nil
	default:
		return "", fmt.Errorf("no %s query for language %s", qtype, lang)
	}
}

// ExecuteQuery runs query over tree and returns every match in document
// order.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	it := cursor.Matches(query, tree.RootNode(), source)

	var matches []QueryMatch
	for m := it.Next(); m != nil; m = it.Next() {
		captures := make([]QueryCapture, 0, len(m.Captures))
		for _, c := range m.Captures {
			var name string
			if int(c.Index) < len(names) {
				name = names[c.Index]
			}
			category, field := parseCaptureName(name)
			node := c.Node
			captures = append(captures, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Location: nodeLocation(&node),
			})
		}
		matches = append(matches, QueryMatch{
			PatternIndex: uint32(m.PatternIndex),
			Captures:     captures,
		})
	}
	return matches, nil
}

// Close frees every compiled query.
func (qm *QueryManager) Close() error {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	for key, q := range qm.cache {
		q.Close()
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch is one pattern match.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Category returns the category shared by the match's captures, e.g.
// "var" or "assign".
func (m QueryMatch) Category() string {
	if len(m.Captures) == 0 {
		return ""
	}
	return m.Captures[0].Category
}

// Capture returns the capture with the given field, e.g. "name".
func (m QueryMatch) Capture(field string) (QueryCapture, bool) {
	for _, c := range m.Captures {
		if c.Field == field {
			return c, true
		}
	}
	return QueryCapture{}, false
}

// QueryCapture is a captured node.
type QueryCapture struct {
	// Name is the full capture name, e.g. "var.name".
	Name string
	// Category is the part before the dot.
	Category string
	// Field is the part after the dot.
	Field string

	Node     *ts.Node
	Text     string
	Location Location
}

// Location is a 1-based line/column span plus byte offsets.
type Location struct {
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

func parseCaptureName(name string) (category, field string) {
	category, field, _ = strings.Cut(name, ".")
	return category, field
}

func nodeLocation(node *ts.Node) Location {
	start := node.StartPosition()
	end := node.EndPosition()
	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}
