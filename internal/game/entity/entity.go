// Package entity models the players and mobs that own attributes, equipment
// and a status ledger, and the repository that tracks them.
package entity

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Kind distinguishes players from mobs.
type Kind int

const (
	KindPlayer Kind = iota
	KindMob
)

// String returns the kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMob:
		return "mob"
	default:
		return "unknown"
	}
}

// NewID returns a fresh random entity ID.
func NewID() string {
	return uuid.NewString()
}

// Entity is a combat participant. It exclusively owns its base attributes,
// the item IDs in its equipment slots, the aggregated attribute table and its
// status ledger.
type Entity struct {
	ID   string
	Kind Kind
	Name string

	mu            sync.RWMutex
	base          attribute.Table
	equipped      map[attribute.Slot]string
	contributions []attribute.Slotted
	aggregated    attribute.Table

	ledger *status.Ledger
}

// New creates an entity with no equipment.
//
// Precondition: id must be non-empty.
// Postcondition: Attributes() equals base clamped to floors; the ledger is empty.
func New(id string, kind Kind, name string, base attribute.Table) *Entity {
	return &Entity{
		ID:         id,
		Kind:       kind,
		Name:       name,
		base:       base,
		equipped:   make(map[attribute.Slot]string),
		aggregated: attribute.Aggregate(base, nil),
		ledger:     status.NewLedger(id),
	}
}

// Ledger returns the entity's status ledger.
func (e *Entity) Ledger() *status.Ledger { return e.ledger }

// Base returns the entity's base attribute table.
func (e *Entity) Base() attribute.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.base
}

// Attributes returns the equipment-aggregated attribute table.
func (e *Entity) Attributes() attribute.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.aggregated
}

// Equipped returns a copy of the slot → item ID mapping.
func (e *Entity) Equipped() map[attribute.Slot]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[attribute.Slot]string, len(e.equipped))
	for s, id := range e.equipped {
		out[s] = id
	}
	return out
}

// SetEquipment records the item IDs per slot and recomputes the aggregated
// table from base and the resolved contributions.
//
// Precondition: contributions were resolved from items.
// Postcondition: Attributes() == attribute.Aggregate(Base(), contributions).
func (e *Entity) SetEquipment(items map[attribute.Slot]string, contributions []attribute.Slotted) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.equipped = make(map[attribute.Slot]string, len(items))
	for s, id := range items {
		e.equipped[s] = id
	}
	e.contributions = append([]attribute.Slotted(nil), contributions...)
	e.aggregated = attribute.Aggregate(e.base, e.contributions)
}

// SetBase replaces the base table and recomputes the aggregate against the
// current equipment contributions.
func (e *Entity) SetBase(base attribute.Table) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = base
	e.aggregated = attribute.Aggregate(base, e.contributions)
}

// EquippedSlots returns the occupied slots in sorted order.
func (e *Entity) EquippedSlots() []attribute.Slot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]attribute.Slot, 0, len(e.equipped))
	for s := range e.equipped {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
