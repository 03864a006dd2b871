package typemeta

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps class names to descriptors. Registration happens once
// at startup; lookups are safe from any goroutine afterwards.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*Descriptor{}}
}

// Register builds a descriptor for prototype and stores it under name.
func (r *Registry) Register(name string, prototype any) (*Descriptor, error) {
	return r.register(name, prototype, false)
}

// RegisterSynced registers a type that is simulation state. Synced
// types are visible to lookups but refuse program compilation.
func (r *Registry) RegisterSynced(name string, prototype any) (*Descriptor, error) {
	return r.register(name, prototype, true)
}

// MustRegister is Register for static type lists; it panics on error.
func (r *Registry) MustRegister(name string, prototype any) *Descriptor {
	d, err := r.Register(name, prototype)
	if err != nil {
		panic(err)
	}
	return d
}

func (r *Registry) register(name string, prototype any, synced bool) (*Descriptor, error) {
	d, err := newDescriptor(name, prototype, synced)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[name]; dup {
		return nil, fmt.Errorf("typemeta: class %q already registered", name)
	}
	r.types[name] = d
	return d, nil
}

// Lookup returns the descriptor registered under name, or nil.
func (r *Registry) Lookup(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// Names returns all registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
