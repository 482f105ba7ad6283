// Package registry manages collection registration and visibility.
// It ensures collections don't claim conflicting names and answers which
// collections a given caller can see.
package registry

import (
	"fmt"
	"sync"

	"github.com/artpar/socketgate/core/schema"
)

// Registry manages registered collections.
type Registry struct {
	mu sync.RWMutex

	// collections by name
	collections map[string]schema.Collection

	// tables claimed by collections
	tables map[string]string
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		collections: make(map[string]schema.Collection),
		tables:      make(map[string]string),
	}
}

// Register registers a collection.
// Returns an error if the name or table is already claimed.
func (r *Registry) Register(col schema.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[col.Name]; exists {
		return fmt.Errorf("collection %q already registered", col.Name)
	}

	if existing, exists := r.tables[col.Table()]; exists {
		return fmt.Errorf("table %q already claimed by collection %q", col.Table(), existing)
	}

	r.collections[col.Name] = col
	r.tables[col.Table()] = col.Name

	return nil
}

// Get returns a collection by name.
func (r *Registry) Get(name string) (schema.Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.collections[name]
	return col, ok
}

// All returns all registered collections.
func (r *Registry) All() map[string]schema.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]schema.Collection, len(r.collections))
	for name, col := range r.collections {
		result[name] = col
	}
	return result
}

// Collections returns the snapshot of collections visible to the caller.
// A collection the caller cannot see is simply absent from the snapshot;
// callers cannot distinguish "does not exist" from "not accessible".
func (r *Registry) Collections(acct schema.Accountability) map[string]schema.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]schema.Collection)
	for name, col := range r.collections {
		if col.VisibleTo(acct) {
			result[name] = col
		}
	}
	return result
}
