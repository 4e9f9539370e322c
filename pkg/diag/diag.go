// Package diag defines the diagnostics produced while loading externs and
// the error type used when a load cannot continue.
package diag

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity converts a severity name. The bool is false for unknown
// names.
func ParseSeverity(name string) (Severity, bool) {
	switch name {
	case "info":
		return SeverityInfo, true
	case "warning", "warn":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	}
	return 0, false
}

// Kind names the rule that produced a diagnostic.
type Kind string

const (
	SourceUnavailable         Kind = "SourceUnavailable"
	MalformedAnnotation       Kind = "MalformedAnnotation"
	UnexpectedImplementation  Kind = "UnexpectedImplementation"
	UnknownTypeReference      Kind = "UnknownTypeReference"
	UnknownExtensionTarget    Kind = "UnknownExtensionTarget"
	IncompatibleRedeclaration Kind = "IncompatibleRedeclaration"
	DuplicateDeclaration      Kind = "DuplicateDeclaration"
	MissingExternsMarker      Kind = "MissingExternsMarker"
)

// Kinds lists every diagnostic kind.
var Kinds = []Kind{
	SourceUnavailable,
	MalformedAnnotation,
	UnexpectedImplementation,
	UnknownTypeReference,
	UnknownExtensionTarget,
	IncompatibleRedeclaration,
	DuplicateDeclaration,
	MissingExternsMarker,
}

// DefaultSeverity is the severity a kind is reported with unless the
// reporting component decides otherwise.
func (k Kind) DefaultSeverity() Severity {
	switch k {
	case UnknownTypeReference:
		return SeverityWarning
	case DuplicateDeclaration, MissingExternsMarker:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// Diagnostic is one finding attributed to a file position.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s: %s", d.File, d.Line, d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %s", d.File, d.Severity, d.Kind, d.Message)
}

// New builds a diagnostic with the kind's default severity.
func New(kind Kind, file string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: kind.DefaultSeverity(),
		Kind:     kind,
		File:     file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends d.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Report appends a diagnostic with the kind's default severity.
func (l *List) Report(kind Kind, file string, line int, format string, args ...any) {
	l.Add(New(kind, file, line, format, args...))
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	return slices.ContainsFunc(l, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Count returns the number of diagnostics with severity sev.
func (l List) Count(sev Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Filter returns the diagnostics for which keep returns true.
func (l List) Filter(keep func(Diagnostic) bool) List {
	var out List
	for _, d := range l {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// OfKind returns the diagnostics of the given kind.
func (l List) OfKind(kind Kind) List {
	return l.Filter(func(d Diagnostic) bool { return d.Kind == kind })
}

// AtLeast returns the diagnostics whose severity is sev or higher.
func (l List) AtLeast(sev Severity) List {
	return l.Filter(func(d Diagnostic) bool { return d.Severity >= sev })
}

// MarshalJSON encodes an empty list as [] rather than null.
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Diagnostic(l))
}
