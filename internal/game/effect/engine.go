// Package effect drives status effects over time: periodic ticking of every
// ledger, status application with tenacity, and Electrocute spread on death.
package effect

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	attr "github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/damage"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Locator answers spatial queries the engine cannot answer itself.
type Locator interface {
	// Nearby returns the IDs of entities within radius of id, excluding id.
	Nearby(id string, radius float64) []string
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(id string, radius float64) []string

// Nearby calls f.
func (f LocatorFunc) Nearby(id string, radius float64) []string { return f(id, radius) }

// Options tunes an Engine.
type Options struct {
	// Workers is the number of partitions ticked in parallel. Values < 1 mean 1.
	Workers int
	// SpreadRadius is the Electrocute spread radius passed to the Locator.
	SpreadRadius float64
	// Tracer records spans for ticks and applications. Nil disables tracing.
	Tracer trace.Tracer
}

// Summary describes one completed engine tick.
type Summary struct {
	// Seq is the 1-based number of the tick since the engine was created.
	Seq      uint64
	Entities int
	Events   []damage.Event
	Expired  int
	Decayed  int
}

// Engine advances every registered ledger on each tick and routes status
// damage to the sink.
type Engine struct {
	repo    entity.Repository
	sink    damage.Sink
	locator Locator
	workers int
	radius  float64
	logger  *zap.Logger
	tracer  trace.Tracer

	// tickMu serialises ticks so a ledger is never ticked twice concurrently.
	tickMu sync.Mutex
	seq    uint64
}

// NewEngine creates an Engine.
//
// Precondition: repo, sink and logger must be non-nil. locator may be nil,
// in which case Electrocute never spreads.
func NewEngine(repo entity.Repository, sink damage.Sink, locator Locator, logger *zap.Logger, opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("effect")
	}
	return &Engine{
		repo:    repo,
		sink:    sink,
		locator: locator,
		workers: workers,
		radius:  opts.SpreadRadius,
		logger:  logger,
		tracer:  tracer,
	}
}

// Tick advances every registered ledger by exactly one step.
//
// Entities are split into contiguous partitions of the ID-sorted entity list,
// each ticked by one goroutine. Damage events are emitted only after every
// partition has finished, ordered by target ID and then by status type.
//
// Precondition: ctx must not be cancelled; a cancelled ctx skips the tick.
// Postcondition: on a nil error every ledger registered at call time was ticked once.
func (e *Engine) Tick(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("ticking status effects: %w", err)
	}
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.seq++
	ctx, span := e.tracer.Start(ctx, "effect.Tick")
	defer span.End()

	ids := e.repo.IDs()
	slices.Sort(ids)
	parts := partition(ids, e.workers)
	results := make([]partResult, len(parts))

	var g errgroup.Group
	for i, part := range parts {
		g.Go(func() error {
			results[i] = e.tickPartition(part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("ticking status effects: %w", err)
	}

	sum := Summary{Seq: e.seq}
	for _, r := range results {
		sum.Entities += r.entities
		sum.Expired += r.expired
		sum.Decayed += r.decayed
		sum.Events = append(sum.Events, r.events...)
	}
	for _, ev := range sum.Events {
		e.sink.Emit(ctx, ev)
	}
	span.SetAttributes(
		attribute.Int64("tick.seq", int64(sum.Seq)),
		attribute.Int("tick.entities", sum.Entities),
		attribute.Int("tick.events", len(sum.Events)),
	)
	if len(sum.Events) > 0 || sum.Expired > 0 {
		e.logger.Debug("status tick",
			zap.Uint64("seq", sum.Seq),
			zap.Int("entities", sum.Entities),
			zap.Int("events", len(sum.Events)),
			zap.Int("expired", sum.Expired),
			zap.Int("decayed", sum.Decayed),
		)
	}
	return sum, nil
}

type partResult struct {
	entities int
	expired  int
	decayed  int
	events   []damage.Event
}

func (e *Engine) tickPartition(ids []string) partResult {
	var r partResult
	for _, id := range ids {
		ent, ok := e.repo.Get(id)
		if !ok {
			continue
		}
		r.entities++
		report := ent.Ledger().Tick()
		r.expired += len(report.Expired)
		r.decayed += len(report.Decayed)
		for _, p := range report.Pulses {
			r.events = append(r.events, damage.NewEvent(id, p.Amount, p.Source, damage.StatusCause(p.Type.String())))
		}
	}
	return r
}

// partition splits ids into at most n contiguous, non-empty chunks.
func partition(ids []string, n int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if n > len(ids) {
		n = len(ids)
	}
	size := (len(ids) + n - 1) / n
	parts := make([][]string, 0, n)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		parts = append(parts, ids[start:end])
	}
	return parts
}

// Apply applies inst to the ledger of target.
//
// When inst comes from another entity, the target's effective Tenacity
// shortens the incoming duration (see ShortenDuration). A weaker
// non-cumulative application is discarded and logged at debug level; it is
// not an error.
//
// Precondition: inst must pass status.Instance.Validate.
// Postcondition: returns entity.ErrUnknownEntity if target is not registered.
func (e *Engine) Apply(ctx context.Context, target string, inst status.Instance) (status.ApplyResult, error) {
	_, span := e.tracer.Start(ctx, "effect.Apply", trace.WithAttributes(
		attribute.String("status.type", inst.Type.String()),
		attribute.String("entity.target", target),
	))
	defer span.End()

	ent, ok := e.repo.Get(target)
	if !ok {
		return 0, fmt.Errorf("applying %s to %q: %w", inst.Type, target, entity.ErrUnknownEntity)
	}
	if inst.Source != "" && inst.Source != target {
		eff, _ := ent.EffectiveAttributes()
		if ten := eff.Get(attr.Tenacity); ten > 0 {
			inst.RemainingTicks = ShortenDuration(inst.RemainingTicks, ten)
			if inst.WindowTicks > 0 {
				inst.WindowTicks = ShortenDuration(inst.WindowTicks, ten)
			}
		}
	}
	result, err := ent.Ledger().Apply(inst)
	if err != nil {
		return 0, fmt.Errorf("applying %s to %q: %w", inst.Type, target, err)
	}
	span.SetAttributes(attribute.String("status.result", result.String()))
	if result == status.ApplyDiscarded {
		e.logger.Debug("status application discarded",
			zap.String("target", target),
			zap.Stringer("type", inst.Type),
			zap.Float64("magnitude", inst.Magnitude),
			zap.String("source", inst.Source),
		)
	}
	return result, nil
}

// ShortenDuration scales ticks by (1 - tenacity/100), truncating, with a
// minimum of one tick. Tenacity is clamped to [0, 100].
func ShortenDuration(ticks uint32, tenacity float64) uint32 {
	if ticks == 0 {
		return 0
	}
	tenacity = max(0, min(tenacity, 100))
	scaled := uint32(float64(ticks) * (1 - tenacity/100))
	return max(scaled, 1)
}

// Cleanse removes every status of classification c from target.
//
// Postcondition: returns entity.ErrUnknownEntity if target is not registered.
func (e *Engine) Cleanse(ctx context.Context, target string, c status.Classification) ([]status.Type, error) {
	ent, ok := e.repo.Get(target)
	if !ok {
		return nil, fmt.Errorf("cleansing %q: %w", target, entity.ErrUnknownEntity)
	}
	removed := ent.Ledger().Cleanse(c)
	if len(removed) > 0 {
		e.logger.Debug("statuses cleansed",
			zap.String("target", target),
			zap.Stringer("classification", c),
			zap.Int("removed", len(removed)),
		)
	}
	return removed, nil
}

// Spread is one Electrocute transfer performed by EntityDied.
type Spread struct {
	Target   string
	Instance status.Instance
	Result   status.ApplyResult
}

// EntityDied spreads the Electrocute of the dying entity to every entity the
// Locator reports within the spread radius, then removes it from the dying
// entity. Each neighbour receives the same stacks, magnitude and source with
// a full window. Unknown entities and entities without Electrocute are no-ops.
func (e *Engine) EntityDied(ctx context.Context, id string) []Spread {
	_, span := e.tracer.Start(ctx, "effect.EntityDied", trace.WithAttributes(attribute.String("entity.id", id)))
	defer span.End()

	dying, ok := e.repo.Get(id)
	if !ok || !dying.Ledger().Has(status.Electrocute) {
		return nil
	}
	var spreads []Spread
	if e.locator != nil {
		neighbours := e.locator.Nearby(id, e.radius)
		slices.Sort(neighbours)
		for _, nid := range slices.Compact(neighbours) {
			if nid == id {
				continue
			}
			n, ok := e.repo.Get(nid)
			if !ok {
				continue
			}
			applied, result, ok := status.Transfer(dying.Ledger(), n.Ledger(), status.Electrocute)
			if !ok {
				break
			}
			spreads = append(spreads, Spread{Target: nid, Instance: applied, Result: result})
		}
	}
	dying.Ledger().Expire(status.Electrocute)
	span.SetAttributes(attribute.Int("spread.count", len(spreads)))
	e.logger.Debug("electrocute spread",
		zap.String("entity", id),
		zap.Int("neighbours", len(spreads)),
	)
	return spreads
}
