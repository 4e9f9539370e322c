package model

import (
	"fmt"
	"strings"
)

// SymbolKind classifies an annotated declaration.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolFunction
	SymbolMethod
	SymbolProperty
	SymbolConstructor
	SymbolInterface
	SymbolTypedef
	SymbolNamespace
)

var symbolKindNames = [...]string{
	SymbolVariable:    "variable",
	SymbolFunction:    "function",
	SymbolMethod:      "method",
	SymbolProperty:    "property",
	SymbolConstructor: "constructor",
	SymbolInterface:   "interface",
	SymbolTypedef:     "typedef",
	SymbolNamespace:   "namespace",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k SymbolKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Callable reports whether symbols of this kind carry parameters and a
// return type.
func (k SymbolKind) Callable() bool {
	switch k {
	case SymbolFunction, SymbolMethod, SymbolConstructor, SymbolInterface:
		return true
	}
	return false
}

// DeclaresType reports whether the symbol's name is usable as a type.
func (k SymbolKind) DeclaresType() bool {
	switch k {
	case SymbolConstructor, SymbolInterface, SymbolTypedef:
		return true
	}
	return false
}

// BodyKind describes the value a declaration is initialised with.
type BodyKind int

const (
	// BodyNone is a declaration without initializer: `var x;`, `a.b;`.
	BodyNone BodyKind = iota
	// BodyNamespace is an empty object literal: `var ns = {};`.
	BodyNamespace
	// BodyEmptyFunction is a function whose body has no statements.
	BodyEmptyFunction
	// BodyLiteral is a constant literal value.
	BodyLiteral
	// BodyImplementation is anything executable.
	BodyImplementation
)

func (b BodyKind) String() string {
	switch b {
	case BodyNone:
		return "none"
	case BodyNamespace:
		return "namespace"
	case BodyEmptyFunction:
		return "empty-function"
	case BodyLiteral:
		return "literal"
	case BodyImplementation:
		return "implementation"
	default:
		return "invalid"
	}
}

// Param is one declared parameter of a callable symbol.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Variadic bool
}

// TypeString renders the parameter type with its optional or variadic
// marker, as it would appear inside an @param tag.
func (p Param) TypeString() string {
	switch {
	case p.Variadic:
		return "..." + p.Type.String()
	case p.Optional:
		return p.Type.String() + "="
	default:
		return p.Type.String()
	}
}

func (p Param) String() string {
	return p.Name + ": " + p.TypeString()
}

// Attachment names the object a declaration is assigned onto.
type Attachment struct {
	// Path is the dotted owner, e.g. ["goog", "dom"] or ["Console"].
	Path []string

	// Prototype is set for `Owner.prototype.member` declarations.
	Prototype bool
}

// Owner returns the dotted owner path.
func (a *Attachment) Owner() string {
	return strings.Join(a.Path, ".")
}

// Location is a position inside a declaration file.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Symbol is a declaration together with the types its annotations assert.
type Symbol struct {
	Name string
	Kind SymbolKind

	// DeclaredType is the value type, or the return type for callables.
	DeclaredType Type

	Params   []Param
	AttachTo *Attachment
	Location Location

	Body       BodyKind
	BodyDetail string

	Extends    []Type
	Templates  []string
	See        []string
	Deprecated string
}

// QualifiedName returns the fully qualified name, e.g.
// "Console.prototype.assert".
func (s *Symbol) QualifiedName() string {
	if s.AttachTo == nil {
		return s.Name
	}
	var sb strings.Builder
	sb.WriteString(s.AttachTo.Owner())
	if s.AttachTo.Prototype {
		sb.WriteString(".prototype")
	}
	sb.WriteByte('.')
	sb.WriteString(s.Name)
	return sb.String()
}

// Signature renders the symbol's shape for diagnostics.
func (s *Symbol) Signature() string {
	if !s.Kind.Callable() {
		return s.Kind.String() + " " + s.DeclaredType.String()
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.TypeString()
	}
	return fmt.Sprintf("%s function(%s): %s", s.Kind, strings.Join(parts, ", "), s.DeclaredType)
}

// Clone returns a deep copy of the slices s owns.
func (s *Symbol) Clone() *Symbol {
	c := *s
	if s.Params != nil {
		c.Params = append([]Param(nil), s.Params...)
	}
	if s.AttachTo != nil {
		a := *s.AttachTo
		a.Path = append([]string(nil), s.AttachTo.Path...)
		c.AttachTo = &a
	}
	c.Extends = cloneTypes(s.Extends)
	c.Templates = append([]string(nil), s.Templates...)
	c.See = append([]string(nil), s.See...)
	return &c
}
