package entity

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownEntity is returned when a mutating operation targets an entity
// that has not been registered.
var ErrUnknownEntity = errors.New("unknown entity")

// ErrDuplicateEntity is returned when an entity ID is registered twice.
var ErrDuplicateEntity = errors.New("entity already registered")

// Repository maps entity IDs to the entities that own combat state.
// Implementations must be safe for concurrent use.
type Repository interface {
	Register(e *Entity) error
	Deregister(id string) (*Entity, error)
	Get(id string) (*Entity, bool)
	IDs() []string
}

// Registry is the in-memory Repository.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register adds e.
//
// Precondition: e must not be nil.
// Postcondition: Get(e.ID) returns e, or ErrDuplicateEntity is returned.
func (r *Registry) Register(e *Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[e.ID]; exists {
		return fmt.Errorf("registering %q: %w", e.ID, ErrDuplicateEntity)
	}
	r.entities[e.ID] = e
	return nil
}

// Deregister removes and returns the entity with id.
//
// Postcondition: Get(id) reports false; ErrUnknownEntity if id was not registered.
func (r *Registry) Deregister(id string) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok {
		return nil, fmt.Errorf("deregistering %q: %w", id, ErrUnknownEntity)
	}
	delete(r.entities, id)
	return e, nil
}

// Get returns the entity with id.
func (r *Registry) Get(id string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// IDs returns every registered ID in ascending order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entities))
	for id := range r.entities {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
