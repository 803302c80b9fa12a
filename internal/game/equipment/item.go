// Package equipment loads item definitions and resolves equipped items into
// the attribute contributions the aggregator sums.
package equipment

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Equipment slots an item may occupy.
const (
	SlotHead     attribute.Slot = "head"
	SlotChest    attribute.Slot = "chest"
	SlotLegs     attribute.Slot = "legs"
	SlotFeet     attribute.Slot = "feet"
	SlotHand     attribute.Slot = "hand"
	SlotOffHand  attribute.Slot = "off_hand"
	SlotNecklace attribute.Slot = "necklace"
	SlotRing     attribute.Slot = "ring"
)

var validSlots = map[attribute.Slot]struct{}{
	SlotHead: {}, SlotChest: {}, SlotLegs: {}, SlotFeet: {},
	SlotHand: {}, SlotOffHand: {}, SlotNecklace: {}, SlotRing: {},
}

// ValidSlot reports whether s names an equipment slot.
func ValidSlot(s attribute.Slot) bool {
	_, ok := validSlots[s]
	return ok
}

// OnHitDef is a status an item applies to whoever it hits.
type OnHitDef struct {
	Type      string  `yaml:"type"`
	Stacks    uint32  `yaml:"stacks"`
	Magnitude float64 `yaml:"magnitude"`
	Ticks     uint32  `yaml:"ticks"`
}

// ItemDef is an item definition loaded from YAML.
type ItemDef struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Slot        attribute.Slot     `yaml:"slot"`
	Attributes  map[string]float64 `yaml:"attributes"`
	OnHit       []OnHitDef         `yaml:"on_hit"`

	table attribute.Table
	onHit []status.Instance
}

// Table returns the parsed attribute contribution of the item.
//
// Precondition: Validate returned nil.
func (d *ItemDef) Table() attribute.Table { return d.table }

// OnHitStatuses returns the statuses the item applies on hit, sourced from
// wielder. The returned slice is a copy.
//
// Precondition: Validate returned nil.
func (d *ItemDef) OnHitStatuses(wielder string) []status.Instance {
	out := make([]status.Instance, len(d.onHit))
	for i, inst := range d.onHit {
		inst.Source = wielder
		out[i] = inst
	}
	return out
}

// Validate checks the definition and compiles its attribute table and on-hit
// statuses. Unknown attribute keys wrap attribute.ErrInvalidAttribute.
//
// Postcondition: Returns nil iff the def is well-formed.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !ValidSlot(d.Slot) {
		errs = append(errs, fmt.Errorf("slot %q is not a valid equipment slot", d.Slot))
	}
	table, err := attribute.ParseTable(d.Attributes)
	if err != nil {
		errs = append(errs, err)
	}
	var onHit []status.Instance
	for i, h := range d.OnHit {
		t, err := status.ParseType(h.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("on_hit[%d]: %w", i, err))
			continue
		}
		inst := status.Instance{Type: t, Stacks: h.Stacks, Magnitude: h.Magnitude, RemainingTicks: h.Ticks}
		if err := inst.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("on_hit[%d]: %w", i, err))
			continue
		}
		onHit = append(onHit, inst)
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q: %w", d.ID, errors.Join(errs...))
	}
	d.table = table
	d.onHit = onHit
	return nil
}

// LoadItems reads every .yaml file in dir, one item per file, in lexicographic
// order. Unknown YAML fields are rejected.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil slice on success; all returned defs pass Validate.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	items := []*ItemDef{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		d, err := ParseItem(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: %q: %w", path, err)
		}
		items = append(items, d)
	}
	return items, nil
}

// ParseItem decodes and validates a single YAML item definition.
func ParseItem(data []byte) (*ItemDef, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d ItemDef
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("cannot parse item: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
