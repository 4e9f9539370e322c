// Package registry holds the ambient type registry: the immutable table of
// every declaration an externs load produced.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/resolver"
)

// ErrNotFound is returned for names the registry does not hold.
var ErrNotFound = errors.New("not found")

// Entry is one registered declaration.
type Entry struct {
	// Name is the fully qualified name, e.g. "Console.prototype.assert".
	Name string

	// Type is the declared value type, or the return type of a callable.
	Type model.Type

	// Symbol is the linked declaration the entry was created from.
	Symbol *model.Symbol

	Provenance model.Location
}

// Kind returns the kind of the originating declaration.
func (e Entry) Kind() model.SymbolKind { return e.Symbol.Kind }

// Registry is a frozen view of one load. Every method is safe for
// concurrent use; nothing mutates a Registry after Builder.Freeze.
type Registry struct {
	id        string
	createdAt time.Time
	entries   map[string]*Entry
	ns        *resolver.Namespace[*Entry]
	members   map[string][]string
	types     map[string]bool
	hostTypes []string
}

// ID identifies this registry instance. Every load gets a new one.
func (r *Registry) ID() string { return r.id }

// CreatedAt is when the registry was frozen.
func (r *Registry) CreatedAt() time.Time { return r.createdAt }

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Lookup returns the entry for a fully qualified name.
func (r *Registry) Lookup(fqn string) (Entry, error) {
	e, ok := r.entries[fqn]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, fqn)
	}
	return *e, nil
}

// MembersOf returns the sorted names of the prototype members declared for
// typeName. A known type without members yields an empty list; a name that
// is neither a type nor extended yields ErrNotFound.
func (r *Registry) MembersOf(typeName string) ([]string, error) {
	if m, ok := r.members[typeName]; ok {
		return slices.Clone(m), nil
	}
	if r.IsKnownType(typeName) {
		return []string{}, nil
	}
	return nil, fmt.Errorf("%w: type %s", ErrNotFound, typeName)
}

// AllDeclaredNames yields every registered name in namespace order: depth
// first, parents before children, siblings sorted by segment. The sequence
// is computed lazily and may be iterated any number of times.
func (r *Registry) AllDeclaredNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.ns.Walk(func(path []string, node *resolver.Namespace[*Entry]) bool {
			if _, ok := node.Value(); !ok {
				return true
			}
			return yield(strings.Join(path, "."))
		})
	}
}

// Entries yields every entry in the order of AllDeclaredNames.
func (r *Registry) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		r.ns.Walk(func(_ []string, node *resolver.Namespace[*Entry]) bool {
			e, ok := node.Value()
			if !ok {
				return true
			}
			return yield(*e)
		})
	}
}

// IsKnownType reports whether name is usable as a type: declared by a
// constructor, interface or typedef entry, native, or a host type.
func (r *Registry) IsKnownType(name string) bool {
	return r.types[name] || model.IsNative(name) || slices.Contains(r.hostTypes, name)
}

// HostTypes returns the host type names the registry was built with.
func (r *Registry) HostTypes() []string { return slices.Clone(r.hostTypes) }
