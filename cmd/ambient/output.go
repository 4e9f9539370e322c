package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/registry"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)
)

func severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SeverityError:
		return errorStyle
	case diag.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// printDiagnostics writes one line per diagnostic:
//
//	file:line: severity: Kind: message
func printDiagnostics(w io.Writer, diags diag.List) {
	for _, d := range diags {
		loc := d.File
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.File, d.Line)
		}
		fmt.Fprintf(w, "%s: %s: %s: %s\n", loc, severityStyle(d.Severity).Render(d.Severity.String()), d.Kind, d.Message)
	}
}

// printSummary writes the closing line of check.
func printSummary(w io.Writer, res *loadResult) {
	errs := res.Diagnostics.Count(diag.SeverityError)
	warns := res.Diagnostics.Count(diag.SeverityWarning)

	entries := 0
	if res.Registry != nil {
		entries = res.Registry.Len()
	}
	line := fmt.Sprintf("%d entries from %d files, %d errors, %d warnings", entries, len(res.Files), errs, warns)
	switch {
	case errs > 0:
		fmt.Fprintln(w, errorStyle.Render(line))
	case warns > 0:
		fmt.Fprintln(w, warningStyle.Render(line))
	default:
		fmt.Fprintln(w, successStyle.Render(line))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEntry writes a human-readable description of e.
func printEntry(w io.Writer, e registry.Entry) {
	sym := e.Symbol
	fmt.Fprintf(w, "%s  %s\n", nameStyle.Render(e.Name), sym.Signature())
	fmt.Fprintf(w, "  declared at %s:%d\n", e.Provenance.File, e.Provenance.Line)
	if len(sym.Templates) > 0 {
		fmt.Fprintf(w, "  templates: %s\n", strings.Join(sym.Templates, ", "))
	}
	if len(sym.Extends) > 0 {
		ext := make([]string, len(sym.Extends))
		for i, t := range sym.Extends {
			ext[i] = t.String()
		}
		fmt.Fprintf(w, "  extends: %s\n", strings.Join(ext, ", "))
	}
	if sym.Deprecated != "" {
		fmt.Fprintf(w, "  %s %s\n", warningStyle.Render("deprecated:"), sym.Deprecated)
	}
	for _, s := range sym.See {
		fmt.Fprintf(w, "  see: %s\n", s)
	}
}

// entryJSON is the --json form of an entry.
type entryJSON struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Type       string `json:"type"`
	Signature  string `json:"signature"`
	Deprecated string `json:"deprecated,omitempty"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

func newEntryJSON(e registry.Entry) entryJSON {
	return entryJSON{
		Name:       e.Name,
		Kind:       e.Kind().String(),
		Type:       e.Type.String(),
		Signature:  e.Symbol.Signature(),
		Deprecated: e.Symbol.Deprecated,
		File:       e.Provenance.File,
		Line:       e.Provenance.Line,
	}
}
