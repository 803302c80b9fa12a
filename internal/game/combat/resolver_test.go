package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/combat"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

func table(values map[attribute.Kind]float64) attribute.Table {
	t := attribute.BaseTable()
	for k, v := range values {
		t.Set(k, v)
	}
	return t
}

func combatant(id string, values map[attribute.Kind]float64) combat.Combatant {
	return combat.Combatant{ID: id, Attributes: table(values), Status: status.Snapshot{}}
}

func newResolver(draws ...float64) (*combat.Resolver, *dice.Sequence) {
	seq := dice.NewSequence(draws...)
	return combat.NewResolver(seq, zap.NewNop()), seq
}

func TestResolve_DodgeReducedByAccuracy(t *testing.T) {
	r, seq := newResolver(0.03)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", map[attribute.Kind]float64{attribute.AccuracySkill: 5}),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.DodgeChance: 10}),
		BaseDamage: 10,
	})
	assert.True(t, out.Has(combat.FlagDodged))
	assert.Equal(t, 0.0, out.Damage)
	assert.Equal(t, []combat.Modifier{{Step: combat.StepDodge, Value: 5}}, out.Applied)
	assert.Equal(t, 1, seq.Calls(), "a dodge ends resolution after one draw")
}

func TestResolve_DodgeMissesAboveReducedChance(t *testing.T) {
	r, _ := newResolver(0.07)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", map[attribute.Kind]float64{attribute.AccuracySkill: 5}),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.DodgeChance: 10}),
		BaseDamage: 10,
	})
	assert.False(t, out.Has(combat.FlagDodged))
	assert.Equal(t, 10.0, out.Damage)
}

func TestResolve_AccuracyAboveDodgeNeverDodges(t *testing.T) {
	r, _ := newResolver(0)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", map[attribute.Kind]float64{attribute.AccuracySkill: 30}),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.DodgeChance: 10}),
		BaseDamage: 10,
	})
	assert.False(t, out.Has(combat.FlagDodged))
}

func TestResolve_CriticalMultiplies(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", map[attribute.Kind]float64{attribute.CriticalChance: 100, attribute.CriticalDamage: 1.25}),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.Armor: 0}),
		BaseDamage: 10,
	})
	assert.True(t, out.Has(combat.FlagCritical))
	assert.Equal(t, 12.5, out.Damage)
	assert.Equal(t, "critical", out.Flags.String())
}

func TestResolve_BaseDamageDefaultsToItemDamage(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker: combatant("a", map[attribute.Kind]float64{attribute.ItemDamage: 7}),
		Defender: combatant("d", nil),
	})
	assert.Equal(t, 7.0, out.Damage)
}

func TestResolve_CounterSwapsRolesWithoutRecursion(t *testing.T) {
	r, seq := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", nil),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.CounterChance: 100, attribute.ItemDamage: 4}),
		BaseDamage: 10,
	})
	require.True(t, out.Has(combat.FlagCountered))
	assert.Equal(t, 0.0, out.Damage, "a countered hit deals no damage")
	require.NotNil(t, out.Counter)
	assert.Equal(t, "d", out.Counter.AttackerID)
	assert.Equal(t, "a", out.Counter.DefenderID)
	assert.Equal(t, 4.0, out.Counter.Damage)
	assert.Nil(t, out.Counter.Counter)
	assert.Len(t, out.Counter.Rolls, 2, "counter-hit rolls dodge and critical only")
	assert.Equal(t, 4, seq.Calls())
}

func TestResolve_FeintReducesCounter(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", map[attribute.Kind]float64{attribute.FeintSkill: 60}),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.CounterChance: 100}),
		BaseDamage: 10,
	})
	assert.False(t, out.Has(combat.FlagCountered), "40%% counter chance must miss a 0.5 draw")
	assert.Equal(t, 10.0, out.Damage)
}

func TestResolve_BlockingNegates(t *testing.T) {
	r, seq := newResolver(0.5)
	d := combatant("d", nil)
	d.Blocking = true
	out := r.Resolve(combat.Attack{Attacker: combatant("a", nil), Defender: d, BaseDamage: 10})
	assert.True(t, out.Has(combat.FlagBlocked))
	assert.False(t, out.Landed())
	assert.Equal(t, 0.0, out.Damage)
	assert.Equal(t, 2, seq.Calls())
}

func TestResolve_ArmorAndToughness(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", nil),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.Armor: 10, attribute.ArmorToughness: 2}),
		BaseDamage: 10,
	})
	assert.InDelta(t, 4.0, out.Damage, 1e-9)
	assert.Equal(t, []combat.Step{combat.StepArmor, combat.StepToughness}, steps(out))
}

func TestResolve_ArmorReductionCapped(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", nil),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.Armor: 30}),
		BaseDamage: 10,
	})
	assert.InDelta(t, 2.0, out.Damage, 1e-9)
}

func TestResolve_ToughnessNeverBelowZero(t *testing.T) {
	r, _ := newResolver(0.5)
	out := r.Resolve(combat.Attack{
		Attacker:   combatant("a", nil),
		Defender:   combatant("d", map[attribute.Kind]float64{attribute.ArmorToughness: 50}),
		BaseDamage: 10,
	})
	assert.Equal(t, 0.0, out.Damage)
	assert.True(t, out.Landed())
}

func TestResolve_BrittleAndVulnerable(t *testing.T) {
	r, _ := newResolver(0.5)
	d := combatant("d", map[attribute.Kind]float64{attribute.Armor: 10, attribute.ArmorToughness: 2})
	d.Status = status.Snapshot{
		status.Brittle:    {Type: status.Brittle, Stacks: 1, Magnitude: 5, RemainingTicks: 3},
		status.Vulnerable: {Type: status.Vulnerable, Stacks: 1, Magnitude: 50, RemainingTicks: 3},
	}
	out := r.Resolve(combat.Attack{Attacker: combatant("a", nil), Defender: d, BaseDamage: 10})
	// Armor 10-5=5 → 20% reduction → 8, minus toughness 2 → 6, × 1.5 → 9.
	assert.InDelta(t, 9.0, out.Damage, 1e-9)
	assert.Equal(t, []combat.Step{combat.StepBrittle, combat.StepVulnerable, combat.StepArmor, combat.StepToughness}, steps(out))
}

func TestResolve_BrittleFloorsArmorAtZero(t *testing.T) {
	r, _ := newResolver(0.5)
	d := combatant("d", map[attribute.Kind]float64{attribute.Armor: 2})
	d.Status = status.Snapshot{status.Brittle: {Type: status.Brittle, Stacks: 1, Magnitude: 5, RemainingTicks: 3}}
	out := r.Resolve(combat.Attack{Attacker: combatant("a", nil), Defender: d, BaseDamage: 10})
	assert.Equal(t, 10.0, out.Damage)
}

func TestResolve_SeededDeterminism(t *testing.T) {
	attack := combat.Attack{
		Attacker: combatant("a", map[attribute.Kind]float64{attribute.CriticalChance: 40, attribute.AccuracySkill: 3}),
		Defender: combatant("d", map[attribute.Kind]float64{
			attribute.DodgeChance: 20, attribute.CounterChance: 15, attribute.Armor: 6,
		}),
		BaseDamage: 9,
	}
	first := combat.NewResolver(dice.NewSeededSource(7), zap.NewNop())
	second := combat.NewResolver(dice.NewSeededSource(7), zap.NewNop())
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.Resolve(attack), second.Resolve(attack))
	}
}

func TestFlag_String(t *testing.T) {
	assert.Equal(t, "hit", combat.Flag(0).String())
	assert.Equal(t, "countered|critical", (combat.FlagCountered | combat.FlagCritical).String())
}

func TestPropertyResolve_DamageNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := func(label string) map[attribute.Kind]float64 {
			m := make(map[attribute.Kind]float64)
			for _, k := range attribute.Kinds() {
				m[k] = rapid.Float64Range(0, 100).Draw(t, label+"_"+k.String())
			}
			return m
		}
		attack := combat.Attack{
			Attacker:   combatant("a", values("atk")),
			Defender:   combatant("d", values("def")),
			BaseDamage: rapid.Float64Range(0, 500).Draw(t, "base"),
		}
		seed := rapid.Uint64().Draw(t, "seed")
		r := combat.NewResolver(dice.NewSeededSource(seed), zap.NewNop())
		out := r.Resolve(attack)
		assert.GreaterOrEqual(t, out.Damage, 0.0)
		if out.Counter != nil {
			assert.GreaterOrEqual(t, out.Counter.Damage, 0.0)
			assert.Nil(t, out.Counter.Counter)
		}
		if !out.Landed() {
			assert.Equal(t, 0.0, out.Damage)
		}
	})
}

func steps(out combat.HitOutcome) []combat.Step {
	var s []combat.Step
	for _, m := range out.Applied {
		s = append(s, m.Step)
	}
	return s
}
