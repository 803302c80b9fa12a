// Package gameserver is the host-facing facade of the combat core. It owns the
// entity registry and routes equipment changes, attacks, status applications,
// abilities, deaths and ticks to the packages that implement them.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	attr "github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/ability"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/combat"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/damage"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/effect"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/equipment"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// AttackRequest is a host-reported attack between two registered entities.
type AttackRequest struct {
	Attacker string
	Defender string
	// BaseDamage overrides the attacker's ItemDamage when > 0.
	BaseDamage float64
	// Blocking reports that the defender is actively blocking.
	Blocking bool
}

// Service routes host events into the combat core.
type Service struct {
	entities  *entity.Registry
	positions *Positions
	items     *equipment.Registry
	engine    *effect.Engine
	resolver  *combat.Resolver
	abilities *ability.Registry
	sink      damage.Sink
	store     StateStore
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewService wires the facade. store may be nil, in which case entity state
// is not persisted across deregistration. tracer may be nil.
//
// Precondition: every other argument must be non-nil, and engine must have
// been built over entities and sink.
func NewService(
	entities *entity.Registry,
	positions *Positions,
	items *equipment.Registry,
	engine *effect.Engine,
	resolver *combat.Resolver,
	abilities *ability.Registry,
	sink damage.Sink,
	store StateStore,
	tracer trace.Tracer,
	logger *zap.Logger,
) *Service {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("gameserver")
	}
	return &Service{
		entities:  entities,
		positions: positions,
		items:     items,
		engine:    engine,
		resolver:  resolver,
		abilities: abilities,
		sink:      sink,
		store:     store,
		tracer:    tracer,
		logger:    logger,
	}
}

// Entities returns the registry the service owns.
func (s *Service) Entities() entity.Repository { return s.entities }

// RegisterEntity adds an entity to the world. When a store is configured and
// holds state for id, that state wins over base: the stored base attributes,
// equipment and live statuses are restored.
//
// Postcondition: the entity is registered with its equipment resolved, or an
// error is returned and nothing was registered.
func (s *Service) RegisterEntity(ctx context.Context, id string, kind entity.Kind, name string, base attr.Table) (*entity.Entity, error) {
	e := entity.New(id, kind, name, base)
	if s.store != nil {
		st, err := s.store.Load(ctx, id)
		switch {
		case err == nil:
			e = entity.FromState(st)
			if err := s.equip(e, st.Equipped); err != nil {
				return nil, fmt.Errorf("restoring %q: %w", id, err)
			}
		case errors.Is(err, entity.ErrStateNotFound):
		default:
			return nil, fmt.Errorf("restoring %q: %w", id, err)
		}
	}
	if err := s.entities.Register(e); err != nil {
		return nil, err
	}
	s.logger.Debug("entity registered",
		zap.String("entity", id),
		zap.Stringer("kind", kind),
		zap.Int("statuses", e.Ledger().Len()),
	)
	return e, nil
}

// DeregisterEntity removes id from the world. Player state is saved to the
// store first, when one is configured; mob state is discarded.
func (s *Service) DeregisterEntity(ctx context.Context, id string) error {
	e, err := s.entities.Deregister(id)
	if err != nil {
		return err
	}
	s.positions.Remove(id)
	if s.store == nil || e.Kind != entity.KindPlayer {
		return nil
	}
	if err := s.store.Save(ctx, e.Capture()); err != nil {
		return fmt.Errorf("saving %q: %w", id, err)
	}
	return nil
}

// MoveEntity records the host-reported position of id.
func (s *Service) MoveEntity(id string, at Vec) error {
	if _, ok := s.entities.Get(id); !ok {
		return fmt.Errorf("moving %q: %w", id, entity.ErrUnknownEntity)
	}
	s.positions.Move(id, at)
	return nil
}

// EquipmentChanged replaces the equipment of id with slots and recomputes its
// aggregated attributes.
func (s *Service) EquipmentChanged(_ context.Context, id string, slots map[attr.Slot]string) error {
	e, ok := s.entities.Get(id)
	if !ok {
		return fmt.Errorf("equipping %q: %w", id, entity.ErrUnknownEntity)
	}
	if err := s.equip(e, slots); err != nil {
		return fmt.Errorf("equipping %q: %w", id, err)
	}
	return nil
}

func (s *Service) equip(e *entity.Entity, slots map[attr.Slot]string) error {
	contributions, err := s.items.Resolve(slots)
	if err != nil {
		return err
	}
	e.SetEquipment(slots, contributions)
	return nil
}

// Attack resolves one attack and hands its consequences to the world:
// damage to the defender, counter damage to the attacker and, for every hit
// that lands, the on-hit statuses of the striking side's equipment.
//
// Postcondition: on a nil error the outcome's damage events have been emitted.
func (s *Service) Attack(ctx context.Context, req AttackRequest) (combat.HitOutcome, error) {
	atk, ok := s.entities.Get(req.Attacker)
	if !ok {
		return combat.HitOutcome{}, fmt.Errorf("attacker %q: %w", req.Attacker, entity.ErrUnknownEntity)
	}
	def, ok := s.entities.Get(req.Defender)
	if !ok {
		return combat.HitOutcome{}, fmt.Errorf("defender %q: %w", req.Defender, entity.ErrUnknownEntity)
	}

	ctx, span := s.tracer.Start(ctx, "gameserver.Attack", trace.WithAttributes(
		attribute.String("attack.attacker", atk.ID),
		attribute.String("attack.defender", def.ID),
	))
	defer span.End()

	atkAttrs, atkSnap, defAttrs, defSnap := entity.EffectivePair(atk, def)
	onHit := s.items.OnHit(atk.Equipped(), atk.ID)

	out := s.resolver.Resolve(combat.Attack{
		Attacker:   combat.Combatant{ID: atk.ID, Attributes: atkAttrs, Status: atkSnap},
		Defender:   combat.Combatant{ID: def.ID, Attributes: defAttrs, Status: defSnap, Blocking: req.Blocking},
		BaseDamage: req.BaseDamage,
	})
	span.SetAttributes(
		attribute.String("attack.flags", out.Flags.String()),
		attribute.Float64("attack.damage", out.Damage),
	)

	var errs []error
	if out.Landed() {
		s.emit(ctx, def.ID, out.Damage, atk.ID, damage.CauseAttack)
		errs = append(errs, s.applyAll(ctx, def.ID, onHit)...)
	}
	if c := out.Counter; c != nil && c.Landed() {
		s.emit(ctx, atk.ID, c.Damage, def.ID, damage.CauseCounter)
		errs = append(errs, s.applyAll(ctx, atk.ID, s.items.OnHit(def.Equipped(), def.ID))...)
	}
	if err := errors.Join(errs...); err != nil {
		return out, fmt.Errorf("applying on-hit statuses: %w", err)
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, target string, amount float64, source string, cause damage.Cause) {
	if amount <= 0 {
		return
	}
	s.sink.Emit(ctx, damage.NewEvent(target, amount, source, cause))
}

func (s *Service) applyAll(ctx context.Context, target string, insts []status.Instance) []error {
	var errs []error
	for _, inst := range insts {
		if _, err := s.engine.Apply(ctx, target, inst); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ApplyStatus applies inst to target through the status effect engine.
func (s *Service) ApplyStatus(ctx context.Context, target string, inst status.Instance) (status.ApplyResult, error) {
	return s.engine.Apply(ctx, target, inst)
}

// Cleanse removes every status of classification c from target.
func (s *Service) Cleanse(ctx context.Context, target string, c status.Classification) ([]status.Type, error) {
	return s.engine.Cleanse(ctx, target, c)
}

// InvokeAbility runs the named ability from caster against target.
func (s *Service) InvokeAbility(ctx context.Context, name, caster, target string) error {
	if _, ok := s.entities.Get(caster); !ok {
		return fmt.Errorf("caster %q: %w", caster, entity.ErrUnknownEntity)
	}
	return s.abilities.Invoke(ctx, name, ability.Invocation{
		Caster:   caster,
		Target:   target,
		Entities: s.entities,
		Statuses: s.engine,
		Sink:     s.sink,
	})
}

// EntityDied handles the host's death notification for id: a live
// Electrocute spreads to entities within the engine's spread radius.
func (s *Service) EntityDied(ctx context.Context, id string) []effect.Spread {
	return s.engine.EntityDied(ctx, id)
}

// Tick advances every status ledger once.
func (s *Service) Tick(ctx context.Context) (effect.Summary, error) {
	return s.engine.Tick(ctx)
}
