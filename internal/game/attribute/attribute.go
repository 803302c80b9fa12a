// Package attribute defines the closed set of combat attributes carried by
// entities and the additive aggregation of equipment contributions onto a base.
package attribute

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidAttribute is returned when a table references an unrecognised kind.
var ErrInvalidAttribute = errors.New("invalid attribute")

// Kind identifies one combat attribute.
type Kind uint8

const (
	CriticalChance Kind = iota
	CriticalDamage
	FeintSkill
	AccuracySkill
	MaxHealth
	CounterChance
	DodgeChance
	Armor
	ArmorToughness
	ItemDamage
	ItemCooldown
	Tenacity

	// KindCount is the number of defined kinds. It is not itself a kind.
	KindCount
)

// Unit is the semantic unit of an attribute value.
type Unit uint8

const (
	// UnitPercent values are percentage points (10 means 10%).
	UnitPercent Unit = iota
	// UnitMultiplier values scale another quantity (1.25 means x1.25).
	UnitMultiplier
	// UnitFlat values are absolute amounts.
	UnitFlat
)

// String returns the unit label.
func (u Unit) String() string {
	switch u {
	case UnitPercent:
		return "percent"
	case UnitMultiplier:
		return "multiplier"
	case UnitFlat:
		return "flat"
	default:
		return "unknown"
	}
}

type kindInfo struct {
	key   string
	base  float64
	floor float64
	unit  Unit
}

var kinds = [KindCount]kindInfo{
	CriticalChance: {key: "critical_chance", base: 0, floor: 0, unit: UnitPercent},
	CriticalDamage: {key: "critical_damage", base: 1.25, floor: 1, unit: UnitMultiplier},
	FeintSkill:     {key: "feint_skill", base: 0, floor: 0, unit: UnitFlat},
	AccuracySkill:  {key: "accuracy_skill", base: 0, floor: 0, unit: UnitFlat},
	MaxHealth:      {key: "max_health", base: 20, floor: 1, unit: UnitFlat},
	CounterChance:  {key: "counter_chance", base: 0, floor: 0, unit: UnitPercent},
	DodgeChance:    {key: "dodge_chance", base: 0, floor: 0, unit: UnitPercent},
	Armor:          {key: "armor", base: 0, floor: 0, unit: UnitFlat},
	ArmorToughness: {key: "armor_toughness", base: 0, floor: 0, unit: UnitFlat},
	ItemDamage:     {key: "item_damage", base: 1, floor: 0, unit: UnitFlat},
	ItemCooldown:   {key: "item_cooldown", base: 0, floor: 0, unit: UnitFlat},
	Tenacity:       {key: "tenacity", base: 0, floor: 0, unit: UnitPercent},
}

var kindsByKey = func() map[string]Kind {
	m := make(map[string]Kind, KindCount)
	for k := Kind(0); k < KindCount; k++ {
		m[kinds[k].key] = k
	}
	return m
}()

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, KindCount)
	for k := Kind(0); k < KindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a defined kind.
func (k Kind) Valid() bool { return k < KindCount }

// String returns the snake_case key of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kinds[k].key
}

// Base returns the value an entity has for k with no equipment.
//
// Precondition: k.Valid().
func (k Kind) Base() float64 { return kinds[k].base }

// Floor returns the lowest value k may take after aggregation.
//
// Precondition: k.Valid().
func (k Kind) Floor() float64 { return kinds[k].floor }

// Unit returns the semantic unit of k.
//
// Precondition: k.Valid().
func (k Kind) Unit() Unit { return kinds[k].unit }

// ParseKind resolves a snake_case key into a Kind.
//
// Postcondition: Returns an error wrapping ErrInvalidAttribute if key is unknown.
func ParseKind(key string) (Kind, error) {
	k, ok := kindsByKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAttribute, key)
	}
	return k, nil
}

// Table is a fixed vector of attribute values indexed by Kind.
// The zero Table is a contribution table where every kind contributes nothing.
type Table [KindCount]float64

// BaseTable returns a Table holding the base value of every kind.
func BaseTable() Table {
	var t Table
	for k := Kind(0); k < KindCount; k++ {
		t[k] = kinds[k].base
	}
	return t
}

// Get returns the value stored for k.
func (t Table) Get(k Kind) float64 { return t[k] }

// Set stores v for k.
func (t *Table) Set(k Kind, v float64) { t[k] = v }

// Add adds delta to the value stored for k.
func (t *Table) Add(k Kind, delta float64) { t[k] += delta }

// Plus returns the elementwise sum of t and o.
func (t Table) Plus(o Table) Table {
	for k := range t {
		t[k] += o[k]
	}
	return t
}

// Clamp returns t with every kind raised to at least its floor.
//
// Postcondition: result.Get(k) >= k.Floor() for every k.
func (t Table) Clamp() Table {
	for k := Kind(0); k < KindCount; k++ {
		if t[k] < kinds[k].floor {
			t[k] = kinds[k].floor
		}
	}
	return t
}

// Map returns the non-zero entries of t keyed by kind key.
func (t Table) Map() map[string]float64 {
	out := make(map[string]float64)
	for k := Kind(0); k < KindCount; k++ {
		if t[k] != 0 {
			out[kinds[k].key] = t[k]
		}
	}
	return out
}

// ParseTable converts a key/value mapping into a contribution Table.
// Absent keys contribute zero.
//
// Postcondition: Returns an error wrapping ErrInvalidAttribute naming every
// unknown key, in sorted order.
func ParseTable(values map[string]float64) (Table, error) {
	var t Table
	var unknown []string
	for key, v := range values {
		k, err := ParseKind(key)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		t[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Table{}, fmt.Errorf("%w: %s", ErrInvalidAttribute, strings.Join(unknown, ", "))
	}
	return t, nil
}

// ParseBase converts a key/value mapping into a base Table. Absent keys take
// the kind's base value.
func ParseBase(values map[string]float64) (Table, error) {
	overrides, err := ParseTable(values)
	if err != nil {
		return Table{}, err
	}
	t := BaseTable()
	for key := range values {
		k, _ := ParseKind(key)
		t[k] = overrides[k]
	}
	return t, nil
}
