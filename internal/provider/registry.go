package provider

import "sync"

// Registry holds adapters in priority order. The first registered adapter is
// tried first everywhere a fallback chain is walked.
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry creates a registry with the given adapters in priority order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register appends an adapter at the lowest priority. Registering a name
// twice replaces the earlier adapter in place.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[a.Name()]; exists {
		for i, existing := range r.adapters {
			if existing.Name() == a.Name() {
				r.adapters[i] = a
			}
		}
	} else {
		r.adapters = append(r.adapters, a)
	}
	r.byName[a.Name()] = a
}

// Get retrieves an adapter by name
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	return a, ok
}

// All returns the adapters in priority order.
func (r *Registry) All() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Adapter, len(r.adapters))
	copy(result, r.adapters)
	return result
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
