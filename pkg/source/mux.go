package source

import (
	"fmt"
	"strings"
)

// MuxReader routes identifiers of the form "scheme:name" to the reader
// registered for scheme. Everything else goes to the fallback reader.
type MuxReader struct {
	fallback Reader
	schemes  map[string]Reader
}

// NewMuxReader creates a mux. fallback may be nil, in which case
// identifiers without a registered scheme cannot be read.
func NewMuxReader(fallback Reader) *MuxReader {
	return &MuxReader{fallback: fallback, schemes: make(map[string]Reader)}
}

// Handle registers r for scheme and returns m.
func (m *MuxReader) Handle(scheme string, r Reader) *MuxReader {
	m.schemes[scheme] = r
	return m
}

// SplitScheme splits "scheme:name". Single letter schemes are Windows
// drive letters and are not treated as schemes.
func SplitScheme(id string) (scheme, name string, ok bool) {
	scheme, name, ok = strings.Cut(id, ":")
	if !ok || len(scheme) < 2 {
		return "", id, false
	}
	return scheme, name, true
}

func (m *MuxReader) ReadSource(id string) ([]byte, error) {
	if scheme, name, ok := SplitScheme(id); ok {
		if r, ok := m.schemes[scheme]; ok {
			return r.ReadSource(name)
		}
	}
	if m.fallback == nil {
		return nil, fmt.Errorf("no reader for %s", id)
	}
	return m.fallback.ReadSource(id)
}
