package combat

import (
	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Resolver turns an Attack into a HitOutcome. Apart from the draws it takes
// from its Source, resolution depends only on its input.
type Resolver struct {
	src    dice.Source
	logger *zap.Logger
}

// NewResolver creates a Resolver drawing chance rolls from src.
//
// Precondition: src and logger must be non-nil.
func NewResolver(src dice.Source, logger *zap.Logger) *Resolver {
	return &Resolver{src: src, logger: logger}
}

// Resolve runs the fixed resolution order:
//
//  1. dodge: defender DodgeChance minus attacker AccuracySkill; success ends
//     resolution with zero damage.
//  2. counter: defender CounterChance minus attacker FeintSkill; success negates
//     the hit and resolves the defender's counter-hit with roles swapped and
//     countering disabled.
//  3. block: a blocking defender negates the hit.
//  4. critical: attacker CriticalChance; success multiplies by CriticalDamage.
//  5. defender Brittle lowers Armor for this hit; Vulnerable scales final damage.
//  6. mitigation: Armor reduces proportionally, then ArmorToughness subtracts.
//
// Every chance roll reached takes exactly one draw.
//
// Postcondition: result.Damage >= 0.
func (r *Resolver) Resolve(a Attack) HitOutcome {
	out := r.resolve(a, true)
	r.logger.Debug("attack resolved",
		zap.String("attacker", out.AttackerID),
		zap.String("defender", out.DefenderID),
		zap.Stringer("flags", out.Flags),
		zap.Float64("damage", out.Damage),
	)
	return out
}

func (r *Resolver) resolve(a Attack, counterable bool) HitOutcome {
	atk := a.Attacker.Attributes
	def := a.Defender.Attributes
	out := HitOutcome{AttackerID: a.Attacker.ID, DefenderID: a.Defender.ID}

	dodge := dice.Percent(r.src, nonNegative(def.Get(attribute.DodgeChance)-atk.Get(attribute.AccuracySkill)))
	out.Rolls = append(out.Rolls, dodge)
	if dodge.Success() {
		out.Flags |= FlagDodged
		out.Applied = append(out.Applied, Modifier{Step: StepDodge, Value: dodge.Chance})
		return out
	}

	if counterable {
		counter := dice.Percent(r.src, nonNegative(def.Get(attribute.CounterChance)-atk.Get(attribute.FeintSkill)))
		out.Rolls = append(out.Rolls, counter)
		if counter.Success() {
			out.Flags |= FlagCountered
			out.Applied = append(out.Applied, Modifier{Step: StepCounter, Value: counter.Chance})
			back := r.resolve(Attack{Attacker: a.Defender, Defender: a.Attacker}, false)
			out.Counter = &back
			return out
		}
	}

	if a.Defender.Blocking {
		out.Flags |= FlagBlocked
		out.Applied = append(out.Applied, Modifier{Step: StepBlock})
		return out
	}

	damage := a.BaseDamage
	if damage <= 0 {
		damage = atk.Get(attribute.ItemDamage)
	}

	crit := dice.Percent(r.src, atk.Get(attribute.CriticalChance))
	out.Rolls = append(out.Rolls, crit)
	if crit.Success() {
		multiplier := atk.Get(attribute.CriticalDamage)
		damage *= multiplier
		out.Flags |= FlagCritical
		out.Applied = append(out.Applied, Modifier{Step: StepCritical, Value: multiplier})
	}

	armor := def.Get(attribute.Armor)
	if brittle := a.Defender.Status.Magnitude(status.Brittle); brittle > 0 {
		armor = nonNegative(armor - brittle)
		out.Applied = append(out.Applied, Modifier{Step: StepBrittle, Value: brittle})
	}
	vulnerability := 1.0
	if vuln := a.Defender.Status.Magnitude(status.Vulnerable); vuln > 0 {
		vulnerability += vuln / 100
		out.Applied = append(out.Applied, Modifier{Step: StepVulnerable, Value: vulnerability})
	}

	if armor > 0 {
		reduction := armor * ArmorReductionPerPoint
		if reduction > MaxArmorReduction {
			reduction = MaxArmorReduction
		}
		damage *= 1 - reduction
		out.Applied = append(out.Applied, Modifier{Step: StepArmor, Value: reduction})
	}
	if toughness := def.Get(attribute.ArmorToughness); toughness > 0 {
		damage = nonNegative(damage - toughness)
		out.Applied = append(out.Applied, Modifier{Step: StepToughness, Value: toughness})
	}

	out.Damage = nonNegative(damage * vulnerability)
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
