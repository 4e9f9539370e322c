package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/registry"
)

const defaultListLimit = 200

// errNotLoaded is reported while no registry has been published.
var errNotLoaded = errors.New("no registry loaded yet")

type paramView struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
	Variadic bool   `json:"variadic,omitempty"`
}

type entryView struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Type       string      `json:"type"`
	Signature  string      `json:"signature"`
	Params     []paramView `json:"params,omitempty"`
	Owner      string      `json:"owner,omitempty"`
	Prototype  bool        `json:"prototype,omitempty"`
	Extends    []string    `json:"extends,omitempty"`
	Templates  []string    `json:"templates,omitempty"`
	Deprecated string      `json:"deprecated,omitempty"`
	See        []string    `json:"see,omitempty"`
	File       string      `json:"file"`
	Line       int         `json:"line"`
}

func newEntryView(e registry.Entry) entryView {
	sym := e.Symbol
	v := entryView{
		Name:       e.Name,
		Kind:       sym.Kind.String(),
		Type:       e.Type.String(),
		Signature:  sym.Signature(),
		Templates:  sym.Templates,
		Deprecated: sym.Deprecated,
		See:        sym.See,
		File:       e.Provenance.File,
		Line:       e.Provenance.Line,
	}
	for _, p := range sym.Params {
		v.Params = append(v.Params, paramView{Name: p.Name, Type: p.Type.String(), Optional: p.Optional, Variadic: p.Variadic})
	}
	if sym.AttachTo != nil {
		v.Owner = sym.AttachTo.Owner()
		v.Prototype = sym.AttachTo.Prototype
	}
	for _, ext := range sym.Extends {
		v.Extends = append(v.Extends, ext.String())
	}
	return v
}

// query returns a query service over the current snapshot.
func (s *Server) query() (*registry.QueryService, *externs.Snapshot, error) {
	snap := s.holder.Current()
	if snap == nil || snap.Registry == nil {
		return nil, nil, errNotLoaded
	}
	return registry.NewQueryService(snap.Registry, snap.Diagnostics), snap, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (s *Server) handleLookupSymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _, err := s.query()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := splitNames(raw)
	if len(names) == 0 {
		return mcp.NewToolResultError("name must not be empty"), nil
	}

	found := q.GetEntries(names)
	if len(found) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("not declared: %s", strings.Join(names, ", "))), nil
	}
	views := make([]entryView, len(found))
	for i, e := range found {
		views[i] = newEntryView(e)
	}
	return jsonResult(views)
}

type memberView struct {
	Name      string `json:"name"`
	Kind      string `json:"kind,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func (s *Server) handleMembersOf(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _, err := s.query()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeName, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	members, err := q.Registry.MembersOf(typeName)
	if errors.Is(err, registry.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not a known type", typeName)), nil
	}
	if err != nil {
		return nil, err
	}

	if !req.GetBool("details", false) {
		return jsonResult(map[string]any{"type": typeName, "members": members})
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		v := memberView{Name: m}
		if e, err := q.Registry.Lookup(typeName + ".prototype." + m); err == nil {
			v.Kind = e.Kind().String()
			v.Signature = e.Symbol.Signature()
		}
		views = append(views, v)
	}
	return jsonResult(map[string]any{"type": typeName, "members": views})
}

func (s *Server) handleListNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _, err := s.query()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	names, truncated := q.ListNames(registry.NameFilter{
		Prefix:  req.GetString("prefix", ""),
		Keyword: req.GetString("keyword", ""),
		Kind:    req.GetString("kind", ""),
		Limit:   limit,
	})
	return jsonResult(map[string]any{"names": names, "truncated": truncated})
}

func (s *Server) handleGetDiagnostics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _, err := s.query()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sev := diag.SeverityInfo
	if name := req.GetString("severity", ""); name != "" {
		var ok bool
		if sev, ok = diag.ParseSeverity(name); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown severity %q", name)), nil
		}
	}
	return jsonResult(q.FilterDiagnostics(sev, diag.Kind(req.GetString("kind", ""))))
}

type infoView struct {
	ID          string         `json:"id"`
	LoadedAt    string         `json:"loaded_at"`
	Entries     int            `json:"entries"`
	Files       []string       `json:"files"`
	Types       []string       `json:"types"`
	HostTypes   []string       `json:"host_types"`
	Kinds       map[string]int `json:"kinds"`
	Diagnostics map[string]int `json:"diagnostics"`
}

func (s *Server) handleRegistryInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, snap, err := s.query()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reg := snap.Registry
	v := infoView{
		ID:        reg.ID(),
		LoadedAt:  snap.LoadedAt.UTC().Format(time.RFC3339),
		Entries:   reg.Len(),
		Files:     snap.Files,
		Types:     q.ListTypes(),
		HostTypes: reg.HostTypes(),
		Kinds:     make(map[string]int),
		Diagnostics: map[string]int{
			diag.SeverityError.String():   snap.Diagnostics.Count(diag.SeverityError),
			diag.SeverityWarning.String(): snap.Diagnostics.Count(diag.SeverityWarning),
			diag.SeverityInfo.String():    snap.Diagnostics.Count(diag.SeverityInfo),
		},
	}
	if v.Files == nil {
		v.Files = []string{}
	}
	for e := range reg.Entries() {
		v.Kinds[e.Kind().String()]++
	}
	return jsonResult(v)
}
