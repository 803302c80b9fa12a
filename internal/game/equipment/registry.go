package equipment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// ErrUnknownItem is returned when a slot refers to an item ID that is not registered.
var ErrUnknownItem = errors.New("unknown item")

// ErrSlotMismatch is returned when an item is equipped in a slot it does not fit.
var ErrSlotMismatch = errors.New("item does not fit slot")

// Registry holds validated item definitions indexed by ID.
// It is immutable after loading and safe for concurrent reads.
type Registry struct {
	items map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*ItemDef)}
}

// NewRegistryFromDir loads every item in dir into a new Registry.
func NewRegistryFromDir(dir string) (*Registry, error) {
	defs, err := LoadItems(dir)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d.
//
// Precondition: d must have passed Validate.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) Register(d *ItemDef) error {
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("equipment: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// Item returns the definition for id and whether it was found.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// Len returns the number of registered items.
func (r *Registry) Len() int { return len(r.items) }

// Resolve turns slot contents into attribute contributions, ordered by slot.
// Empty item IDs mean the slot is empty.
//
// Postcondition: returns ErrUnknownItem or ErrSlotMismatch for the first bad
// slot in slot order; nothing is returned partially.
func (r *Registry) Resolve(slots map[attribute.Slot]string) ([]attribute.Slotted, error) {
	keys := sortedSlots(slots)
	out := make([]attribute.Slotted, 0, len(keys))
	for _, slot := range keys {
		d, err := r.lookup(slot, slots[slot])
		if err != nil {
			return nil, err
		}
		if d == nil {
			continue
		}
		out = append(out, attribute.Slotted{Slot: slot, Table: d.Table()})
	}
	return out, nil
}

// OnHit returns the on-hit statuses of every item in slots, sourced from
// wielder, ordered by slot. Unknown or misplaced items are skipped.
func (r *Registry) OnHit(slots map[attribute.Slot]string, wielder string) []status.Instance {
	var out []status.Instance
	for _, slot := range sortedSlots(slots) {
		d, err := r.lookup(slot, slots[slot])
		if err != nil || d == nil {
			continue
		}
		out = append(out, d.OnHitStatuses(wielder)...)
	}
	return out
}

func (r *Registry) lookup(slot attribute.Slot, id string) (*ItemDef, error) {
	if id == "" {
		return nil, nil
	}
	d, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("slot %q: %w: %q", slot, ErrUnknownItem, id)
	}
	if d.Slot != slot {
		return nil, fmt.Errorf("slot %q: %w: %q fits %q", slot, ErrSlotMismatch, id, d.Slot)
	}
	return d, nil
}

func sortedSlots(slots map[attribute.Slot]string) []attribute.Slot {
	keys := make([]attribute.Slot, 0, len(slots))
	for s := range slots {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
