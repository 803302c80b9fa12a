package gameserver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/ability"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/combat"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/damage"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/effect"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/equipment"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
	"github.com/Bam6561/AethelPlugin-sub005/internal/gameserver"
	"github.com/Bam6561/AethelPlugin-sub005/internal/scripting"
)

const (
	itemsDir     = "../../content/items"
	abilitiesDir = "../../content/abilities"
)

type world struct {
	svc   *gameserver.Service
	rec   *damage.Recorder
	store *gameserver.MemoryStore
}

// newWorld builds a service over the bundled content whose resolver replays
// draws. Every draw of 0.5 misses chance rolls below 50%.
func newWorld(t *testing.T, draws ...float64) world {
	t.Helper()
	if len(draws) == 0 {
		draws = []float64{0.5}
	}
	items, err := equipment.NewRegistryFromDir(itemsDir)
	require.NoError(t, err)

	scripts := scripting.NewManager(dice.NewSequence(0.5), zap.NewNop())
	t.Cleanup(scripts.Close)
	_, err = scripts.LoadDir(abilitiesDir, 100_000)
	require.NoError(t, err)
	abilities := ability.NewRegistry()
	require.NoError(t, ability.RegisterScripts(abilities, scripts))

	reg := entity.NewRegistry()
	positions := gameserver.NewPositions()
	rec := &damage.Recorder{}
	engine := effect.NewEngine(reg, rec, positions, zap.NewNop(), effect.Options{Workers: 2, SpreadRadius: 4})
	resolver := combat.NewResolver(dice.NewSequence(draws...), zap.NewNop())
	store := gameserver.NewMemoryStore()

	svc := gameserver.NewService(reg, positions, items, engine, resolver, abilities, rec, store, nil, zap.NewNop())
	return world{svc: svc, rec: rec, store: store}
}

func (w world) register(t *testing.T, id string, kind entity.Kind, values map[attribute.Kind]float64) *entity.Entity {
	t.Helper()
	base := attribute.BaseTable()
	for k, v := range values {
		base.Set(k, v)
	}
	e, err := w.svc.RegisterEntity(context.Background(), id, kind, id, base)
	require.NoError(t, err)
	return e
}

func (w world) equip(t *testing.T, id string, slots map[attribute.Slot]string) {
	t.Helper()
	require.NoError(t, w.svc.EquipmentChanged(context.Background(), id, slots))
}

func TestEquipmentChanged_RecomputesAttributes(t *testing.T) {
	w := newWorld(t)
	p := w.register(t, "p1", entity.KindPlayer, nil)
	w.equip(t, "p1", map[attribute.Slot]string{"head": "iron_helmet", "chest": "iron_chestplate"})
	assert.Equal(t, 8.0, p.Attributes().Get(attribute.Armor))
	assert.Equal(t, 26.0, p.Attributes().Get(attribute.MaxHealth))

	w.equip(t, "p1", map[attribute.Slot]string{"head": "iron_helmet"})
	assert.Equal(t, 2.0, p.Attributes().Get(attribute.Armor))
}

func TestEquipmentChanged_Errors(t *testing.T) {
	w := newWorld(t)
	p := w.register(t, "p1", entity.KindPlayer, nil)
	w.equip(t, "p1", map[attribute.Slot]string{"head": "iron_helmet"})

	err := w.svc.EquipmentChanged(context.Background(), "p1", map[attribute.Slot]string{"head": "crown_of_nothing"})
	assert.ErrorIs(t, err, equipment.ErrUnknownItem)
	err = w.svc.EquipmentChanged(context.Background(), "p1", map[attribute.Slot]string{"feet": "iron_helmet"})
	assert.ErrorIs(t, err, equipment.ErrSlotMismatch)
	assert.Equal(t, 2.0, p.Attributes().Get(attribute.Armor), "a rejected change leaves equipment untouched")

	err = w.svc.EquipmentChanged(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, entity.ErrUnknownEntity)
}

func TestAttack_LandedHitEmitsDamageAndAppliesOnHit(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	m := w.register(t, "m1", entity.KindMob, nil)
	w.equip(t, "p1", map[attribute.Slot]string{"hand": "serrated_sword"})
	w.equip(t, "m1", map[attribute.Slot]string{"head": "iron_helmet"})

	out, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1"})
	require.NoError(t, err)
	require.True(t, out.Landed())
	// ItemDamage 1+6, armor 2 removes 8%.
	assert.InDelta(t, 6.44, out.Damage, 1e-9)

	events := w.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "m1", events[0].Target)
	assert.Equal(t, "p1", events[0].Source)
	assert.Equal(t, damage.CauseAttack, events[0].Cause)
	assert.InDelta(t, 6.44, events[0].Amount, 1e-9)

	bleed, ok := m.Ledger().Snapshot().Instance(status.Bleed)
	require.True(t, ok)
	assert.Equal(t, "p1", bleed.Source)
	assert.Equal(t, uint32(4), bleed.RemainingTicks)
}

func TestAttack_CounterDamagesAttacker(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	m := w.register(t, "m1", entity.KindMob, map[attribute.Kind]float64{attribute.CounterChance: 100})
	w.equip(t, "p1", map[attribute.Slot]string{"hand": "serrated_sword"})

	out, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1"})
	require.NoError(t, err)
	require.True(t, out.Has(combat.FlagCountered))
	require.NotNil(t, out.Counter)

	events := w.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "p1", events[0].Target)
	assert.Equal(t, damage.CauseCounter, events[0].Cause)
	assert.Equal(t, 1.0, events[0].Amount, "the mob strikes back with base item damage")
	assert.False(t, m.Ledger().Has(status.Bleed), "a countered hit applies no on-hit statuses")
}

func TestAttack_CounterAppliesDefenderOnHit(t *testing.T) {
	w := newWorld(t)
	p := w.register(t, "p1", entity.KindPlayer, nil)
	w.register(t, "m1", entity.KindMob, map[attribute.Kind]float64{attribute.CounterChance: 100})
	w.equip(t, "m1", map[attribute.Slot]string{"hand": "frost_wand"})

	_, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), p.Ledger().Stacks(status.Chill))
}

func TestAttack_BlockedHitDoesNothing(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	m := w.register(t, "m1", entity.KindMob, nil)
	w.equip(t, "p1", map[attribute.Slot]string{"hand": "serrated_sword"})

	out, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1", Blocking: true})
	require.NoError(t, err)
	assert.True(t, out.Has(combat.FlagBlocked))
	assert.Empty(t, w.rec.Events())
	assert.Equal(t, 0, m.Ledger().Len())
}

func TestAttack_ChillOnDefenderLowersDodge(t *testing.T) {
	// Dodge 30 with a 0.25 draw dodges; three stacks of Chill 4 drop it to 18.
	w := newWorld(t, 0.25)
	w.register(t, "p1", entity.KindPlayer, nil)
	w.register(t, "m1", entity.KindMob, map[attribute.Kind]float64{attribute.DodgeChance: 30})

	out, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1"})
	require.NoError(t, err)
	assert.True(t, out.Has(combat.FlagDodged))

	_, err = w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Chill, Stacks: 3, Magnitude: 4, RemainingTicks: 5})
	require.NoError(t, err)
	out, err = w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "m1"})
	require.NoError(t, err)
	assert.False(t, out.Has(combat.FlagDodged))
}

func TestAttack_UnknownEntities(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	_, err := w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "ghost", Defender: "p1"})
	assert.ErrorIs(t, err, entity.ErrUnknownEntity)
	_, err = w.svc.Attack(context.Background(), gameserver.AttackRequest{Attacker: "p1", Defender: "ghost"})
	assert.ErrorIs(t, err, entity.ErrUnknownEntity)
}

func TestTick_EmitsStatusDamage(t *testing.T) {
	w := newWorld(t)
	w.register(t, "m1", entity.KindMob, nil)
	_, err := w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Bleed, Stacks: 2, Magnitude: 3, RemainingTicks: 2})
	require.NoError(t, err)

	sum, err := w.svc.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Events, 1)
	assert.Equal(t, 6.0, w.rec.Total("m1"))
}

func TestCleanse_RemovesDebuffs(t *testing.T) {
	w := newWorld(t)
	m := w.register(t, "m1", entity.KindMob, nil)
	_, err := w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Bleed, Stacks: 1, Magnitude: 1, RemainingTicks: 3})
	require.NoError(t, err)
	_, err = w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Brittle, Stacks: 1, Magnitude: 1, RemainingTicks: 3})
	require.NoError(t, err)

	removed, err := w.svc.Cleanse(context.Background(), "m1", status.Bleed.Classification())
	require.NoError(t, err)
	assert.Contains(t, removed, status.Bleed)
	assert.False(t, m.Ledger().Has(status.Bleed))
}

func TestInvokeAbility_ScriptedShatter(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	m := w.register(t, "m1", entity.KindMob, nil)
	_, err := w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Chill, Stacks: 2, Magnitude: 1, RemainingTicks: 5, Source: "p1"})
	require.NoError(t, err)

	require.NoError(t, w.svc.InvokeAbility(context.Background(), "shatter", "p1", "m1"))
	assert.False(t, m.Ledger().Has(status.Chill))
	assert.Equal(t, 6.0, w.rec.Total("m1"))
	assert.Equal(t, 4.0, m.Ledger().Snapshot().Magnitude(status.Brittle))
}

func TestInvokeAbility_Errors(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	assert.ErrorIs(t, w.svc.InvokeAbility(context.Background(), "shatter", "ghost", "p1"), entity.ErrUnknownEntity)
	assert.ErrorIs(t, w.svc.InvokeAbility(context.Background(), "meteor", "p1", "p1"), ability.ErrUnknownAbility)
}

func TestEntityDied_SpreadsToNearbyEntities(t *testing.T) {
	w := newWorld(t)
	for _, id := range []string{"m1", "m2", "m3"} {
		w.register(t, id, entity.KindMob, nil)
	}
	require.NoError(t, w.svc.MoveEntity("m1", gameserver.Vec{}))
	require.NoError(t, w.svc.MoveEntity("m2", gameserver.Vec{X: 3}))
	require.NoError(t, w.svc.MoveEntity("m3", gameserver.Vec{X: 10}))
	_, err := w.svc.ApplyStatus(context.Background(), "m1", status.Instance{Type: status.Electrocute, Stacks: 2, Magnitude: 1, RemainingTicks: 4})
	require.NoError(t, err)

	spreads := w.svc.EntityDied(context.Background(), "m1")
	require.Len(t, spreads, 1)
	assert.Equal(t, "m2", spreads[0].Target)

	m2, _ := w.svc.Entities().Get("m2")
	m3, _ := w.svc.Entities().Get("m3")
	assert.Equal(t, uint32(2), m2.Ledger().Stacks(status.Electrocute))
	assert.False(t, m3.Ledger().Has(status.Electrocute))
}

func TestMoveEntity_UnknownEntity(t *testing.T) {
	w := newWorld(t)
	assert.ErrorIs(t, w.svc.MoveEntity("ghost", gameserver.Vec{}), entity.ErrUnknownEntity)
}

func TestDeregister_PersistsPlayersOnly(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, map[attribute.Kind]float64{attribute.MaxHealth: 30})
	w.register(t, "m1", entity.KindMob, nil)
	w.equip(t, "p1", map[attribute.Slot]string{"head": "iron_helmet"})
	_, err := w.svc.ApplyStatus(ctx, "p1", status.Instance{Type: status.Vulnerable, Stacks: 1, Magnitude: 25, RemainingTicks: 6})
	require.NoError(t, err)

	require.NoError(t, w.svc.DeregisterEntity(ctx, "p1"))
	require.NoError(t, w.svc.DeregisterEntity(ctx, "m1"))
	_, ok := w.svc.Entities().Get("p1")
	assert.False(t, ok)

	_, err = w.store.Load(ctx, "m1")
	assert.ErrorIs(t, err, entity.ErrStateNotFound)

	p := w.register(t, "p1", entity.KindPlayer, nil)
	assert.Equal(t, 32.0, p.Attributes().Get(attribute.MaxHealth), "stored base and equipment win over the new base")
	assert.Equal(t, 2.0, p.Attributes().Get(attribute.Armor))
	assert.Equal(t, 25.0, p.Ledger().Snapshot().Magnitude(status.Vulnerable))

	assert.ErrorIs(t, w.svc.DeregisterEntity(ctx, "ghost"), entity.ErrUnknownEntity)
}

func TestRegisterEntity_Duplicate(t *testing.T) {
	w := newWorld(t)
	w.register(t, "p1", entity.KindPlayer, nil)
	_, err := w.svc.RegisterEntity(context.Background(), "p1", entity.KindPlayer, "p1", attribute.BaseTable())
	assert.ErrorIs(t, err, entity.ErrDuplicateEntity)
}

type failingStore struct{}

func (failingStore) Save(context.Context, entity.State) error { return errors.New("disk on fire") }
func (failingStore) Load(context.Context, string) (entity.State, error) {
	return entity.State{}, errors.New("disk on fire")
}

func TestRegisterEntity_StoreFailureRegistersNothing(t *testing.T) {
	items := equipment.NewRegistry()
	reg := entity.NewRegistry()
	positions := gameserver.NewPositions()
	rec := &damage.Recorder{}
	engine := effect.NewEngine(reg, rec, positions, zap.NewNop(), effect.Options{})
	svc := gameserver.NewService(reg, positions, items, engine,
		combat.NewResolver(dice.NewSequence(0.5), zap.NewNop()), ability.NewRegistry(), rec, failingStore{}, nil, zap.NewNop())

	_, err := svc.RegisterEntity(context.Background(), "p1", entity.KindPlayer, "p1", attribute.BaseTable())
	assert.ErrorContains(t, err, "disk on fire")
	assert.Equal(t, 0, reg.Len())
}
