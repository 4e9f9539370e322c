// Package synth writes a registry back out as a declaration-only externs
// file. Loading the output again yields the same names with the same
// shapes.
package synth

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/registry"
)

// Options tunes the output.
type Options struct {
	// Overview is written as the @fileoverview text.
	Overview string

	// Provenance adds an @see tag naming the file and line each entry was
	// loaded from.
	Provenance bool
}

// Write emits every entry of reg in namespace order.
func Write(w io.Writer, reg *registry.Registry) error {
	return WriteWithOptions(w, reg, Options{})
}

// WriteWithOptions is Write with explicit options.
func WriteWithOptions(w io.Writer, reg *registry.Registry, opts Options) error {
	bw := bufio.NewWriter(w)
	overview := opts.Overview
	if overview == "" {
		overview = "Synthesized externs."
	}
	fmt.Fprintf(bw, "/**\n * @fileoverview %s\n * @externs\n */\n", overview)

	for e := range reg.Entries() {
		bw.WriteByte('\n')
		writeEntry(bw, e, opts)
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e registry.Entry, opts Options) {
	sym := e.Symbol
	var tags []string

	switch sym.Kind {
	case model.SymbolConstructor:
		tags = append(tags, "@constructor")
	case model.SymbolInterface:
		tags = append(tags, "@interface")
	case model.SymbolTypedef:
		tags = append(tags, fmt.Sprintf("@typedef {%s}", sym.DeclaredType))
	case model.SymbolNamespace:
		tags = append(tags, "@const")
	}
	for _, t := range sym.Templates {
		tags = append(tags, "@template "+t)
	}
	for _, ext := range sym.Extends {
		tags = append(tags, fmt.Sprintf("@extends {%s}", ext))
	}

	if sym.Kind.Callable() {
		for _, p := range sym.Params {
			tags = append(tags, fmt.Sprintf("@param {%s} %s", p.TypeString(), p.Name))
		}
		if returnsValue(sym) {
			tags = append(tags, fmt.Sprintf("@return {%s}", sym.DeclaredType))
		}
	} else if sym.Kind == model.SymbolVariable || sym.Kind == model.SymbolProperty {
		tags = append(tags, fmt.Sprintf("@type {%s}", sym.DeclaredType))
	}

	if sym.Deprecated != "" {
		tags = append(tags, "@deprecated "+sym.Deprecated)
	}
	for _, s := range sym.See {
		tags = append(tags, "@see "+s)
	}
	if opts.Provenance && e.Provenance.File != "" {
		tags = append(tags, "@see "+e.Provenance.String())
	}

	writeDoc(w, tags)
	w.WriteString(statement(e.Name, sym))
	w.WriteByte('\n')
}

// returnsValue reports whether a callable needs an @return tag. The type
// of a constructor or interface is implied by its name.
func returnsValue(sym *model.Symbol) bool {
	if sym.Kind == model.SymbolConstructor || sym.Kind == model.SymbolInterface {
		return false
	}
	return !sym.DeclaredType.IsUnknown()
}

func writeDoc(w *bufio.Writer, tags []string) {
	switch len(tags) {
	case 0:
		return
	case 1:
		fmt.Fprintf(w, "/** %s */\n", tags[0])
		return
	}
	w.WriteString("/**\n")
	for _, t := range tags {
		w.WriteString(" * ")
		w.WriteString(t)
		w.WriteByte('\n')
	}
	w.WriteString(" */\n")
}

// statement renders the declaration itself. Top-level names use var or
// function; attached names use an assignment or a bare property stub.
func statement(name string, sym *model.Symbol) string {
	attached := sym.AttachTo != nil
	switch {
	case sym.Kind.Callable():
		params := make([]string, len(sym.Params))
		for i, p := range sym.Params {
			params[i] = p.Name
		}
		list := strings.Join(params, ", ")
		if attached {
			return fmt.Sprintf("%s = function(%s) {};", name, list)
		}
		return fmt.Sprintf("function %s(%s) {}", name, list)
	case sym.Kind == model.SymbolNamespace:
		if attached {
			return name + " = {};"
		}
		return "var " + name + " = {};"
	default:
		if attached {
			return name + ";"
		}
		return "var " + name + ";"
	}
}
