package externs

import (
	"sync/atomic"
	"time"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/registry"
)

// Snapshot is a registry together with the diagnostics of the load that
// built it.
type Snapshot struct {
	Registry    *registry.Registry
	Diagnostics diag.List
	Files       []string
	LoadedAt    time.Time
}

// Holder publishes the current snapshot to readers. Readers never block
// and always see a complete snapshot.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the published snapshot, or nil before the first Swap.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Registry returns the published registry, or nil.
func (h *Holder) Registry() *registry.Registry {
	if s := h.current.Load(); s != nil {
		return s.Registry
	}
	return nil
}

// Swap publishes s and returns the snapshot it replaced.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}
