package registry

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/resolver"
)

// ErrFrozen is returned by Insert after Freeze.
var ErrFrozen = errors.New("registry builder is frozen")

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Strict makes the first incompatible redeclaration fatal.
	Strict bool

	// HostTypes are environment-provided type names; nil means
	// model.DefaultHostTypes.
	HostTypes []string

	Logger *slog.Logger
}

// Builder is the single writer of a registry. It runs the conflict check
// on every insert and is not safe for concurrent use.
type Builder struct {
	opts      BuilderOptions
	entries   map[string]*Entry
	ns        *resolver.Namespace[*Entry]
	members   map[string][]string
	types     map[string]bool
	conflicts []Conflict
	diags     diag.List
	frozen    bool
	logger    *slog.Logger
}

// NewBuilder creates an empty builder.
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.HostTypes == nil {
		opts.HostTypes = model.DefaultHostTypes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		opts:    opts,
		entries: make(map[string]*Entry),
		ns:      resolver.NewNamespace[*Entry](),
		members: make(map[string][]string),
		types:   make(map[string]bool),
		logger:  logger,
	}
}

// Insert adds sym under its qualified name.
//
// The first declaration of a name wins. A later one with the same shape is
// noted as a duplicate. A later one with a different shape is reported as
// an incompatible redeclaration; in strict mode Insert then returns that
// conflict as a *diag.Error.
func (b *Builder) Insert(sym *model.Symbol) error {
	if b.frozen {
		return ErrFrozen
	}
	name := sym.QualifiedName()

	if kept, ok := b.entries[name]; ok {
		reason := Difference(kept.Symbol, sym)
		if reason == "" {
			b.diags.Add(duplicateDiagnostic(name, kept.Symbol, sym))
			return nil
		}
		c := Conflict{Name: name, Kept: kept.Symbol, Other: sym, Reason: reason}
		b.conflicts = append(b.conflicts, c)
		b.diags.Add(c.Diagnostic())
		b.logger.Debug("incompatible redeclaration", "name", name, "reason", reason)
		if b.opts.Strict {
			return c.Error()
		}
		return nil
	}

	e := &Entry{Name: name, Type: sym.DeclaredType, Symbol: sym, Provenance: sym.Location}
	b.entries[name] = e
	b.ns.Ensure(resolver.SplitName(name)).Set(e)

	if sym.Kind.DeclaresType() {
		b.types[name] = true
	}
	if sym.AttachTo != nil && sym.AttachTo.Prototype {
		owner := sym.AttachTo.Owner()
		b.members[owner] = append(b.members[owner], sym.Name)
	}
	return nil
}

// Diagnostics returns what the inserts reported so far.
func (b *Builder) Diagnostics() diag.List { return b.diags }

// Conflicts returns every incompatible redeclaration seen so far.
func (b *Builder) Conflicts() []Conflict { return b.conflicts }

// Freeze finishes the build. The builder rejects inserts afterwards.
func (b *Builder) Freeze() *Registry {
	b.frozen = true
	for owner, names := range b.members {
		slices.Sort(names)
		b.members[owner] = slices.Compact(names)
	}
	r := &Registry{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		entries:   b.entries,
		ns:        b.ns,
		members:   b.members,
		types:     b.types,
		hostTypes: slices.Clone(b.opts.HostTypes),
	}
	b.logger.Debug("froze registry", "id", r.id, "entries", len(r.entries))
	return r
}
