package registry

import (
	"fmt"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/model"
)

// Difference describes the first way b's shape differs from a's, or returns
// "" when the two are interchangeable. Shape is the kind, the declared
// type, and for each parameter its type, optionality and variadic flag.
// Parameter names, documentation and provenance do not count.
func Difference(a, b *model.Symbol) string {
	if a.Kind != b.Kind {
		return fmt.Sprintf("kind %s vs %s", a.Kind, b.Kind)
	}
	if !a.DeclaredType.Equal(b.DeclaredType) {
		what := "type"
		if a.Kind.Callable() {
			what = "return type"
		}
		return fmt.Sprintf("%s %s vs %s", what, a.DeclaredType, b.DeclaredType)
	}
	if len(a.Params) != len(b.Params) {
		return fmt.Sprintf("arity %d vs %d", len(a.Params), len(b.Params))
	}
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if !pa.Type.Equal(pb.Type) || pa.Optional != pb.Optional || pa.Variadic != pb.Variadic {
			return fmt.Sprintf("parameter %d %s vs %s", i+1, pa.TypeString(), pb.TypeString())
		}
	}
	return ""
}

// Equivalent reports whether a and b declare the same shape.
func Equivalent(a, b *model.Symbol) bool {
	return Difference(a, b) == ""
}

// Conflict is a redeclaration whose shape differs from the kept entry.
type Conflict struct {
	Name   string
	Kept   *model.Symbol
	Other  *model.Symbol
	Reason string
}

// Diagnostic reports the conflict at the rejected declaration, naming both
// provenances.
func (c Conflict) Diagnostic() diag.Diagnostic {
	return diag.New(diag.IncompatibleRedeclaration, c.Other.Location.File, c.Other.Location.Line,
		"%s at %s is incompatible with the declaration at %s: %s",
		c.Name, c.Other.Location, c.Kept.Location, c.Reason)
}

// Error turns the conflict into a fatal load error.
func (c Conflict) Error() *diag.Error {
	return diag.Fatalf(diag.IncompatibleRedeclaration, c.Other.Location.File,
		"%s redeclared incompatibly (first declared at %s): %s", c.Name, c.Kept.Location, c.Reason)
}

func duplicateDiagnostic(name string, kept, dup *model.Symbol) diag.Diagnostic {
	return diag.New(diag.DuplicateDeclaration, dup.Location.File, dup.Location.Line,
		"%s is also declared at %s with the same shape; keeping the first", name, kept.Location)
}
