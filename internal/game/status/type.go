// Package status implements status effects: the closed set of status types,
// applied instances, and the per-entity ledger that enforces stacking and decay.
package status

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a status type name cannot be resolved.
var ErrUnknownType = errors.New("unknown status type")

// Type identifies a status effect. The set is closed; every policy switch over
// Type must list each constant.
type Type uint8

const (
	Bleed Type = iota
	Chill
	Electrocute
	Soak
	Batter
	Brittle
	Vulnerable

	// TypeCount is the number of defined types. It is not itself a type.
	TypeCount
)

// Classification separates statuses that deal periodic damage from those that
// modify other computations.
type Classification uint8

const (
	ClassDamage Classification = iota
	ClassNonDamage
)

// String returns the classification label.
func (c Classification) String() string {
	switch c {
	case ClassDamage:
		return "damage"
	case ClassNonDamage:
		return "non_damage"
	default:
		return "unknown"
	}
}

// Decay describes what happens when an instance's duration window runs out.
type Decay uint8

const (
	// DecayExpire removes the whole instance when its window runs out.
	DecayExpire Decay = iota
	// DecayStack removes one stack when the window runs out and restarts the
	// window for the remaining stacks.
	DecayStack
)

// Types returns every defined type in declaration order.
func Types() []Type {
	out := make([]Type, 0, TypeCount)
	for t := Type(0); t < TypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a defined type.
func (t Type) Valid() bool { return t < TypeCount }

// String returns the snake_case name of t.
func (t Type) String() string {
	switch t {
	case Bleed:
		return "bleed"
	case Chill:
		return "chill"
	case Electrocute:
		return "electrocute"
	case Soak:
		return "soak"
	case Batter:
		return "batter"
	case Brittle:
		return "brittle"
	case Vulnerable:
		return "vulnerable"
	default:
		return fmt.Sprintf("status(%d)", uint8(t))
	}
}

// Cumulative reports whether repeated applications of t accumulate stacks.
// Non-cumulative types follow the highest-instance policy.
func (t Type) Cumulative() bool {
	switch t {
	case Bleed, Chill, Electrocute, Soak, Batter:
		return true
	case Brittle, Vulnerable:
		return false
	default:
		return false
	}
}

// Classification returns whether t deals periodic damage.
func (t Type) Classification() Classification {
	switch t {
	case Bleed, Electrocute:
		return ClassDamage
	case Chill, Soak, Batter, Brittle, Vulnerable:
		return ClassNonDamage
	default:
		return ClassNonDamage
	}
}

// Decay returns the expiry policy of t.
func (t Type) Decay() Decay {
	switch t {
	case Chill, Soak, Batter:
		return DecayStack
	case Bleed, Electrocute, Brittle, Vulnerable:
		return DecayExpire
	default:
		return DecayExpire
	}
}

// ParseType resolves a status name.
//
// Postcondition: Returns an error wrapping ErrUnknownType if name is not defined.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Types() {
		if t.String() == n {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}
