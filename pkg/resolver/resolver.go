// Package resolver places annotated symbols into the global namespace and
// binds the type names they mention.
//
// Resolution runs in two phases so declarations may refer to types declared
// later in the same load. Collect records every symbol under its qualified
// name. Link then resolves each type reference against the collected names.
package resolver

import (
	"log/slog"
	"strings"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/model"
)

// Extension records a `Target.prototype.Member` declaration.
type Extension struct {
	Target string
	Member string
	Symbol *model.Symbol
}

// Tree is the namespace built by Collect.
type Tree struct {
	root       *Namespace[[]*model.Symbol]
	types      map[string]bool
	templates  map[string][]string
	hostTypes  map[string]bool
	extensions []Extension
	logger     *slog.Logger
}

// NewTree creates an empty tree. hostTypes are type names provided by the
// environment; nil means model.DefaultHostTypes.
func NewTree(hostTypes []string, logger *slog.Logger) *Tree {
	if hostTypes == nil {
		hostTypes = model.DefaultHostTypes
	}
	if logger == nil {
		logger = slog.Default()
	}
	hosts := make(map[string]bool, len(hostTypes))
	for _, h := range hostTypes {
		hosts[h] = true
	}
	return &Tree{
		root:      NewNamespace[[]*model.Symbol](),
		types:     make(map[string]bool),
		templates: make(map[string][]string),
		hostTypes: hosts,
		logger:    logger,
	}
}

// Collect is phase 1. It files each symbol under its qualified name in the
// given order, records prototype extensions and remembers which names
// declare types. A name declares a type when its first candidate does.
func (t *Tree) Collect(symbols []*model.Symbol) {
	for _, sym := range symbols {
		fqn := sym.QualifiedName()
		node := t.root.Ensure(SplitName(fqn))
		cands, _ := node.Value()
		node.Set(append(cands, sym))

		// Only the first candidate reaches the registry, so only it can
		// make the name a type.
		if len(cands) == 0 && sym.Kind.DeclaresType() {
			t.types[fqn] = true
			if len(sym.Templates) > 0 {
				t.templates[fqn] = sym.Templates
			}
		}
		if sym.AttachTo != nil && sym.AttachTo.Prototype {
			t.extensions = append(t.extensions, Extension{
				Target: sym.AttachTo.Owner(),
				Member: sym.Name,
				Symbol: sym,
			})
		}
	}
	t.logger.Debug("collected symbols",
		"symbols", len(symbols),
		"types", len(t.types),
		"extensions", len(t.extensions))
}

// IsType reports whether name resolves as a type: a declared constructor,
// interface or typedef, a native object type, or a host type.
func (t *Tree) IsType(name string) bool {
	return t.types[name] || model.IsNative(name) || t.hostTypes[name]
}

// HasNamespace reports whether any symbol was collected at or below path.
func (t *Tree) HasNamespace(path []string) bool {
	_, ok := t.root.Find(path)
	return ok
}

// Candidates returns the symbols collected under fqn in load order.
func (t *Tree) Candidates(fqn string) []*model.Symbol {
	node, ok := t.root.Find(SplitName(fqn))
	if !ok {
		return nil
	}
	cands, _ := node.Value()
	return cands
}

// Extensions returns every prototype extension in load order.
func (t *Tree) Extensions() []Extension { return t.extensions }

// Walk visits every name holding at least one candidate in namespace
// order. It stops when fn returns false.
func (t *Tree) Walk(fn func(fqn string, candidates []*model.Symbol) bool) {
	t.root.Walk(func(path []string, node *Namespace[[]*model.Symbol]) bool {
		cands, ok := node.Value()
		if !ok {
			return true
		}
		return fn(strings.Join(path, "."), cands)
	})
}

// Link is phase 2. It returns a linked copy of each symbol in which every
// type reference that does not resolve has been replaced by the unknown
// type. Each unresolved name is reported once per symbol.
func (t *Tree) Link(symbols []*model.Symbol) ([]*model.Symbol, diag.List) {
	var diags diag.List
	out := make([]*model.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		linked, missing := t.link(sym)
		for _, name := range missing {
			diags.Report(diag.UnknownTypeReference, sym.Location.File, sym.Location.Line,
				"%s refers to undeclared type %s; treating it as unknown", sym.QualifiedName(), name)
		}
		out = append(out, linked)
	}
	return out, diags
}

func (t *Tree) link(sym *model.Symbol) (*model.Symbol, []string) {
	c := sym.Clone()

	scope := make(map[string]bool)
	for _, name := range sym.Templates {
		scope[name] = true
	}
	if sym.AttachTo != nil {
		for _, name := range t.templates[sym.AttachTo.Owner()] {
			scope[name] = true
		}
	}

	var missing []string
	seen := make(map[string]bool)
	resolve := func(ref model.Type) model.Type {
		if scope[ref.Name] || t.IsType(ref.Name) {
			return ref
		}
		if !seen[ref.Name] {
			seen[ref.Name] = true
			missing = append(missing, ref.Name)
		}
		return model.Unknown()
	}

	c.DeclaredType = c.DeclaredType.MapRefs(resolve)
	for i := range c.Params {
		c.Params[i].Type = c.Params[i].Type.MapRefs(resolve)
	}
	for i := range c.Extends {
		c.Extends[i] = c.Extends[i].MapRefs(resolve)
	}
	return c, missing
}
