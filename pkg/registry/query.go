package registry

import (
	"strings"

	"github.com/gnana997/ambient/pkg/diag"
)

// QueryService answers the lookups made by tools and the CLI over one
// registry and the diagnostics of the load that produced it.
type QueryService struct {
	Registry    *Registry
	Diagnostics diag.List
}

// NewQueryService wraps a frozen registry.
func NewQueryService(reg *Registry, diags diag.List) *QueryService {
	return &QueryService{Registry: reg, Diagnostics: diags}
}

// NameFilter selects names for ListNames. Zero values match everything.
type NameFilter struct {
	// Prefix matches the start of the qualified name.
	Prefix string
	// Keyword matches anywhere in the name, ignoring case.
	Keyword string
	// Kind is a symbol kind name such as "method".
	Kind string
	// Limit caps the result. <= 0 means no cap.
	Limit int
}

// ListNames returns matching names in namespace order. The bool reports
// whether Limit cut the result short.
func (q *QueryService) ListNames(f NameFilter) ([]string, bool) {
	keyword := strings.ToLower(f.Keyword)
	result := make([]string, 0)
	for e := range q.Registry.Entries() {
		if f.Prefix != "" && !strings.HasPrefix(e.Name, f.Prefix) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(e.Name), keyword) {
			continue
		}
		if f.Kind != "" && e.Kind().String() != f.Kind {
			continue
		}
		if f.Limit > 0 && len(result) == f.Limit {
			return result, true
		}
		result = append(result, e.Name)
	}
	return result, false
}

// GetEntry looks name up. "Type#member" is accepted as shorthand for
// "Type.prototype.member".
func (q *QueryService) GetEntry(name string) (Entry, bool) {
	if e, err := q.Registry.Lookup(name); err == nil {
		return e, true
	}
	if owner, member, ok := strings.Cut(name, "#"); ok {
		if e, err := q.Registry.Lookup(owner + ".prototype." + member); err == nil {
			return e, true
		}
	}
	return Entry{}, false
}

// GetEntries returns the entries for names in order. Unknown names are
// skipped and duplicates removed.
func (q *QueryService) GetEntries(names []string) []Entry {
	seen := make(map[string]bool, len(names))
	result := make([]Entry, 0, len(names))
	for _, name := range names {
		e, ok := q.GetEntry(name)
		if !ok || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		result = append(result, e)
	}
	return result
}

// ListTypes returns the names usable as types that the registry itself
// declares, in namespace order.
func (q *QueryService) ListTypes() []string {
	result := make([]string, 0)
	for e := range q.Registry.Entries() {
		if e.Kind().DeclaresType() {
			result = append(result, e.Name)
		}
	}
	return result
}

// FilterDiagnostics returns the diagnostics at or above minSeverity,
// restricted to kind unless kind is empty.
func (q *QueryService) FilterDiagnostics(minSeverity diag.Severity, kind diag.Kind) diag.List {
	out := q.Diagnostics.AtLeast(minSeverity)
	if kind != "" {
		out = out.OfKind(kind)
	}
	return out
}
