// Package model holds the values that flow through the externs pipeline:
// type descriptors, parameters and annotated symbols.
package model

import (
	"slices"
	"strings"
)

// TypeKind discriminates the variants of Type.
type TypeKind int

const (
	KindUnknown TypeKind = iota
	KindVoid
	KindPrimitive
	KindReference
	KindUnion
)

// String returns the lowercase name of the kind.
func (k TypeKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindReference:
		return "reference"
	case KindUnion:
		return "union"
	default:
		return "invalid"
	}
}

// Type describes a declared type. The zero value is the unknown type.
//
// Values built through the constructors below are normalised, so two types
// describing the same set of values compare equal with Equal.
type Type struct {
	Kind TypeKind

	// Name is the primitive name or the referenced type name.
	Name string

	// Nullable marks a reference that admits null.
	Nullable bool

	// Args holds type arguments of a reference, e.g. Array<string>.
	Args []Type

	// Alts holds the members of a union in canonical order.
	Alts []Type
}

// Unknown returns the type that admits any value.
func Unknown() Type { return Type{Kind: KindUnknown} }

// Void returns the type of a function that returns nothing.
func Void() Type { return Type{Kind: KindVoid} }

// Primitive returns the primitive type with the given name.
func Primitive(name string) Type { return Type{Kind: KindPrimitive, Name: name} }

// Ref returns a non-nullable reference to a named type.
func Ref(name string, args ...Type) Type {
	return Type{Kind: KindReference, Name: name, Args: cloneTypes(args)}
}

// NullableRef returns a reference to a named type that also admits null.
func NullableRef(name string, args ...Type) Type {
	return Type{Kind: KindReference, Name: name, Nullable: true, Args: cloneTypes(args)}
}

// Union returns the normalised union of alts. Nested unions are
// flattened, duplicates dropped and members sorted. A union containing the
// unknown type is unknown. Nullability is held in one place: when every
// member is a reference, null is folded into all of them; otherwise the
// references are non-nullable and null is a separate member.
func Union(alts ...Type) Type {
	var flat []Type
	for _, a := range alts {
		if a.Kind == KindUnion {
			flat = append(flat, a.Alts...)
			continue
		}
		flat = append(flat, a)
	}

	hasNull := false
	allRefs := true
	members := make([]Type, 0, len(flat))
	for _, a := range flat {
		switch {
		case a.Kind == KindUnknown:
			return Unknown()
		case a.IsNull():
			hasNull = true
			continue
		case a.Kind == KindReference:
			if a.Nullable {
				hasNull = true
			}
		default:
			allRefs = false
		}
		members = append(members, a)
	}

	foldNull := hasNull && allRefs && len(members) > 0
	for i := range members {
		if members[i].Kind == KindReference {
			members[i].Args = cloneTypes(members[i].Args)
			members[i].Nullable = foldNull
		}
	}
	if hasNull && !foldNull {
		members = append(members, Primitive("null"))
	}

	seen := make(map[string]bool, len(members))
	out := members[:0]
	for _, m := range members {
		key := m.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}

	switch len(out) {
	case 0:
		return Unknown()
	case 1:
		return out[0]
	}
	slices.SortFunc(out, func(a, b Type) int { return strings.Compare(a.String(), b.String()) })
	return Type{Kind: KindUnion, Alts: out}
}

// IsUnknown reports whether t admits any value.
func (t Type) IsUnknown() bool { return t.Kind == KindUnknown }

// IsNull reports whether t is the null primitive.
func (t Type) IsNull() bool { return t.Kind == KindPrimitive && t.Name == "null" }

// AsNullable returns t widened to also admit null.
func (t Type) AsNullable() Type {
	switch t.Kind {
	case KindUnknown:
		return t
	case KindReference:
		t.Args = cloneTypes(t.Args)
		t.Nullable = true
		return t
	default:
		return Union(t, Primitive("null"))
	}
}

// AsNonNull returns t with null removed.
func (t Type) AsNonNull() Type {
	switch t.Kind {
	case KindReference:
		t.Args = cloneTypes(t.Args)
		t.Nullable = false
		return t
	case KindUnion:
		alts := make([]Type, 0, len(t.Alts))
		for _, a := range t.Alts {
			if a.IsNull() {
				continue
			}
			alts = append(alts, a.AsNonNull())
		}
		return Union(alts...)
	default:
		return t
	}
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Name != o.Name || t.Nullable != o.Nullable {
		return false
	}
	return slices.EqualFunc(t.Args, o.Args, Type.Equal) &&
		slices.EqualFunc(t.Alts, o.Alts, Type.Equal)
}

// String renders t in annotation syntax so that parsing the result yields
// an equal type.
func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.Kind {
	case KindUnknown:
		sb.WriteByte('*')
	case KindVoid:
		sb.WriteString("void")
	case KindPrimitive:
		sb.WriteString(t.Name)
	case KindReference:
		if t.Nullable {
			sb.WriteByte('?')
		}
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteByte(',')
				}
				a.write(sb)
			}
			sb.WriteByte('>')
		}
	case KindUnion:
		sb.WriteByte('(')
		for i, a := range t.Alts {
			if i > 0 {
				sb.WriteByte('|')
			}
			a.write(sb)
		}
		sb.WriteByte(')')
	}
}

// References returns the names of every reference inside t, outermost
// first, without duplicates.
func (t Type) References() []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Type)
	walk = func(x Type) {
		if x.Kind == KindReference && !seen[x.Name] {
			seen[x.Name] = true
			names = append(names, x.Name)
		}
		for _, a := range x.Args {
			walk(a)
		}
		for _, a := range x.Alts {
			walk(a)
		}
	}
	walk(t)
	return names
}

// MapRefs rebuilds t with every reference replaced by fn(ref). Type
// arguments are mapped before their enclosing reference. Unions are
// renormalised, so a member mapped to unknown makes the union unknown.
func (t Type) MapRefs(fn func(Type) Type) Type {
	switch t.Kind {
	case KindReference:
		ref := t
		if len(t.Args) > 0 {
			ref.Args = make([]Type, len(t.Args))
			for i, a := range t.Args {
				ref.Args[i] = a.MapRefs(fn)
			}
		}
		return fn(ref)
	case KindUnion:
		alts := make([]Type, len(t.Alts))
		for i, a := range t.Alts {
			alts[i] = a.MapRefs(fn)
		}
		return Union(alts...)
	default:
		return t
	}
}

func cloneTypes(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	return slices.Clone(ts)
}
