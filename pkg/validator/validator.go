// Package validator enforces the declaration-only contract of externs
// files: nothing in them may execute, and their declarations must be
// structurally sound.
package validator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/jsdoc"
	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/source"
)

// Validator gates symbols before they reach the registry.
type Validator struct {
	logger *slog.Logger
}

// New creates a validator.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Violation is one broken rule.
type Violation struct {
	Rule       diag.Kind
	Severity   diag.Severity
	Message    string
	Line       int
	Column     int
	Suggestion string
}

// ValidationResult is the outcome of validating one file.
type ValidationResult struct {
	FilePath   string
	Valid      bool
	Violations []Violation

	// Accepted holds the symbols that passed, in input order.
	Accepted []*model.Symbol
}

// Diagnostics converts the violations into diagnostics for the file.
func (r *ValidationResult) Diagnostics() diag.List {
	var out diag.List
	for _, v := range r.Violations {
		msg := v.Message
		if v.Suggestion != "" {
			msg += " (" + v.Suggestion + ")"
		}
		out.Add(diag.Diagnostic{Severity: v.Severity, Kind: v.Rule, File: r.FilePath, Line: v.Line, Message: msg})
	}
	return out
}

// Summary renders a one-line count of the violations.
func (r *ValidationResult) Summary() string {
	if len(r.Violations) == 0 {
		return "no issues found"
	}
	counts := make(map[diag.Severity]int)
	for _, v := range r.Violations {
		counts[v.Severity]++
	}
	var parts []string
	for _, sev := range []diag.Severity{diag.SeverityError, diag.SeverityWarning, diag.SeverityInfo} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s(s)", n, sev))
		}
	}
	return strings.Join(parts, ", ")
}

// ValidateFile checks the symbols parsed from file together with the
// statements of file that declare nothing.
//
// A symbol whose statement executes anything is rejected. Stray statements
// are errors in files marked @externs. Unmarked files only get warnings for
// them, plus a single note about the missing marker.
func (v *Validator) ValidateFile(file *source.DeclarationFile, symbols []*model.Symbol, strays []source.Block) *ValidationResult {
	res := &ValidationResult{FilePath: file.Path, Valid: true}

	if len(strays) > 0 {
		sev := diag.SeverityError
		if !file.Externs {
			sev = diag.SeverityWarning
			res.Violations = append(res.Violations, Violation{
				Rule:       diag.MissingExternsMarker,
				Severity:   diag.MissingExternsMarker.DefaultSeverity(),
				Message:    "file contains statements that are not declarations and has no @externs marker",
				Line:       strays[0].Stmt.Line,
				Suggestion: "add /** @externs */ if the file only declares the environment",
			})
		}
		for _, b := range strays {
			res.Violations = append(res.Violations, Violation{
				Rule:     diag.UnexpectedImplementation,
				Severity: sev,
				Message:  fmt.Sprintf("%s is not a declaration: %s", b.Stmt.BodyDetail, b.Stmt.Text),
				Line:     b.Stmt.Line,
				Column:   b.Stmt.Column,
			})
		}
	}

	for _, sym := range symbols {
		if viol := v.CheckSymbol(sym); viol != nil {
			res.Violations = append(res.Violations, *viol)
			continue
		}
		res.Accepted = append(res.Accepted, sym)
	}

	for _, viol := range res.Violations {
		if viol.Severity == diag.SeverityError {
			res.Valid = false
			break
		}
	}
	if len(res.Violations) > 0 {
		v.logger.Debug("validated declaration file",
			"path", file.Path,
			"accepted", len(res.Accepted),
			"violations", len(res.Violations))
	}
	return res
}

// CheckSymbol returns the first rule sym breaks, or nil.
func (v *Validator) CheckSymbol(sym *model.Symbol) *Violation {
	if sym.Body == model.BodyImplementation {
		detail := sym.BodyDetail
		if detail == "" {
			detail = "initializer"
		}
		return &Violation{
			Rule:       diag.UnexpectedImplementation,
			Severity:   diag.SeverityError,
			Message:    fmt.Sprintf("%s has an executable %s", sym.QualifiedName(), strings.ReplaceAll(detail, "_", " ")),
			Line:       sym.Location.Line,
			Column:     sym.Location.Column,
			Suggestion: suggestion(sym),
		}
	}
	if err := jsdoc.CheckVariadicLast(sym.Params); err != nil {
		return &Violation{
			Rule:     diag.MalformedAnnotation,
			Severity: diag.SeverityError,
			Message:  fmt.Sprintf("%s: %v", sym.QualifiedName(), err),
			Line:     sym.Location.Line,
			Column:   sym.Location.Column,
		}
	}
	return nil
}

func suggestion(sym *model.Symbol) string {
	if sym.Kind.Callable() {
		return "declare the function with an empty body"
	}
	return "drop the initializer"
}

// Scope answers the questions the extension check asks of the resolved
// namespace.
type Scope interface {
	// IsType reports whether name can be used as a type.
	IsType(name string) bool
}

// CheckExtensionTarget verifies that a prototype member is attached to a
// known type. Non-prototype symbols always pass.
func (v *Validator) CheckExtensionTarget(sym *model.Symbol, scope Scope) *Violation {
	if sym.AttachTo == nil || !sym.AttachTo.Prototype {
		return nil
	}
	target := sym.AttachTo.Owner()
	if scope.IsType(target) {
		return nil
	}
	return &Violation{
		Rule:       diag.UnknownExtensionTarget,
		Severity:   diag.SeverityError,
		Message:    fmt.Sprintf("%s extends unknown type %s", sym.QualifiedName(), target),
		Line:       sym.Location.Line,
		Column:     sym.Location.Column,
		Suggestion: fmt.Sprintf("declare %s with @constructor or @interface", target),
	}
}
