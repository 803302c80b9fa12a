// Package combat resolves a single attack between two entities into an
// outcome and a final damage amount.
package combat

import (
	"strings"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

const (
	// ArmorReductionPerPoint is the fraction of damage one point of Armor removes.
	ArmorReductionPerPoint = 0.04
	// MaxArmorReduction caps the proportional reduction from Armor.
	MaxArmorReduction = 0.8
)

// Flag marks a notable event of a hit resolution.
type Flag uint8

const (
	FlagDodged Flag = 1 << iota
	FlagCountered
	FlagBlocked
	FlagCritical
)

// String returns the set flags joined by "|", or "hit" when none are set.
func (f Flag) String() string {
	var parts []string
	if f&FlagDodged != 0 {
		parts = append(parts, "dodged")
	}
	if f&FlagCountered != 0 {
		parts = append(parts, "countered")
	}
	if f&FlagBlocked != 0 {
		parts = append(parts, "blocked")
	}
	if f&FlagCritical != 0 {
		parts = append(parts, "critical")
	}
	if len(parts) == 0 {
		return "hit"
	}
	return strings.Join(parts, "|")
}

// Step identifies a resolution step that modified the outcome.
type Step string

const (
	StepDodge      Step = "dodge"
	StepCounter    Step = "counter"
	StepBlock      Step = "block"
	StepCritical   Step = "critical"
	StepBrittle    Step = "brittle"
	StepVulnerable Step = "vulnerable"
	StepArmor      Step = "armor"
	StepToughness  Step = "toughness"
)

// Modifier records one step that applied and the value it applied with.
type Modifier struct {
	Step  Step
	Value float64
}

// Combatant is one side of an attack: its effective attributes and a snapshot
// of its status ledger taken for this resolution.
type Combatant struct {
	ID         string
	Attributes attribute.Table
	Status     status.Snapshot
	// Blocking is reported by the host when the combatant is actively blocking.
	Blocking bool
}

// Attack is the input to a resolution.
type Attack struct {
	Attacker Combatant
	Defender Combatant
	// BaseDamage is the damage before any step; zero uses the attacker's ItemDamage.
	BaseDamage float64
}

// HitOutcome is the result of resolving an Attack.
type HitOutcome struct {
	AttackerID string
	DefenderID string
	// Damage is the final damage dealt to the defender. Always >= 0.
	Damage float64
	Flags  Flag
	// Counter is the defender's counter-hit when FlagCountered is set.
	Counter *HitOutcome
	// Applied lists the steps that modified the outcome, in resolution order.
	Applied []Modifier
	// Rolls lists every chance roll, in resolution order.
	Rolls []dice.Roll
}

// Has reports whether f is set on the outcome.
func (o HitOutcome) Has(f Flag) bool { return o.Flags&f != 0 }

// Landed reports whether the attack reached the damage steps.
func (o HitOutcome) Landed() bool {
	return !o.Has(FlagDodged) && !o.Has(FlagCountered) && !o.Has(FlagBlocked)
}
