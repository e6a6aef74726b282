package route

import (
	"slices"
	"sync"

	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Registry lists the engines known to the host in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

type registration struct {
	provider index.Provider
	priority int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends p. Registering the same provider again updates its
// priority and keeps its position.
func (r *Registry) Register(p index.Provider, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].provider == p {
			r.entries[i].priority = priority
			return
		}
	}
	r.entries = append(r.entries, registration{provider: p, priority: priority})
}

// Providers returns the registered providers in order, leaving out exclude.
func (r *Registry) Providers(exclude ...index.Provider) []index.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]index.Provider, 0, len(r.entries))
	for _, e := range r.entries {
		if slices.Contains(exclude, e.provider) {
			continue
		}
		out = append(out, e.provider)
	}
	return out
}

// HighestPriority returns the provider with the highest priority, leaving
// out exclude. Ties go to the earliest registration.
func (r *Registry) HighestPriority(exclude ...index.Provider) (index.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *registration
	for i := range r.entries {
		e := &r.entries[i]
		if slices.Contains(exclude, e.provider) {
			continue
		}
		if best == nil || e.priority > best.priority {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	return best.provider, true
}
