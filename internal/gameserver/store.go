package gameserver

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
)

// StateStore persists entity state between deregistration and the next
// registration of the same ID.
//
// Load must return an error wrapping entity.ErrStateNotFound when nothing is
// stored for id.
type StateStore interface {
	Save(ctx context.Context, s entity.State) error
	Load(ctx context.Context, id string) (entity.State, error)
}

// MemoryStore is an in-process StateStore.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]entity.State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]entity.State)}
}

// Save stores a copy of s under s.ID.
func (m *MemoryStore) Save(_ context.Context, s entity.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.ID] = clone(s)
	return nil
}

// Load returns a copy of the state stored for id.
func (m *MemoryStore) Load(_ context.Context, id string) (entity.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return entity.State{}, fmt.Errorf("loading %q: %w", id, entity.ErrStateNotFound)
	}
	return clone(s), nil
}

func clone(s entity.State) entity.State {
	s.Equipped = maps.Clone(s.Equipped)
	s.Statuses = slices.Clone(s.Statuses)
	return s
}
