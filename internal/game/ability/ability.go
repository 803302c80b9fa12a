// Package ability is the bridge between ability modules and status ledgers:
// abilities read and consume stacks and emit burst damage through it.
package ability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/damage"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// ErrUnknownAbility is returned when invoking an ability that is not registered.
var ErrUnknownAbility = errors.New("unknown ability")

// ErrDuplicateAbility is returned when two abilities share a name.
var ErrDuplicateAbility = errors.New("ability already registered")

// ReadStacks returns the stack count of t on l, or 0 when l is nil or holds no t.
func ReadStacks(l *status.Ledger, t status.Type) uint32 {
	if l == nil {
		return 0
	}
	return l.Stacks(t)
}

// ConsumeStacks removes up to amount stacks of t from l and returns the number
// removed. The instance is deleted when its stacks reach zero.
func ConsumeStacks(l *status.Ledger, t status.Type, amount uint32) uint32 {
	if l == nil {
		return 0
	}
	return l.Consume(t, amount)
}

// StatusApplier applies statuses with engine semantics (tenacity, logging).
type StatusApplier interface {
	Apply(ctx context.Context, target string, inst status.Instance) (status.ApplyResult, error)
}

// Invocation is everything an ability may touch while it runs.
type Invocation struct {
	Caster   string
	Target   string
	Entities entity.Repository
	Statuses StatusApplier
	Sink     damage.Sink
}

// ReadStacks returns the stacks of t on entity id; unknown entities read as 0.
func (inv Invocation) ReadStacks(id string, t status.Type) uint32 {
	e, ok := inv.Entities.Get(id)
	if !ok {
		return 0
	}
	return ReadStacks(e.Ledger(), t)
}

// ConsumeStacks consumes up to amount stacks of t on entity id.
//
// Postcondition: returns entity.ErrUnknownEntity if id is not registered.
func (inv Invocation) ConsumeStacks(id string, t status.Type, amount uint32) (uint32, error) {
	e, ok := inv.Entities.Get(id)
	if !ok {
		return 0, fmt.Errorf("consuming %s on %q: %w", t, id, entity.ErrUnknownEntity)
	}
	return ConsumeStacks(e.Ledger(), t, amount), nil
}

// Emit sends burst damage dealt by the caster to target.
func (inv Invocation) Emit(ctx context.Context, target string, amount float64) {
	if amount <= 0 || inv.Sink == nil {
		return
	}
	inv.Sink.Emit(ctx, damage.NewEvent(target, amount, inv.Caster, damage.CauseAbility))
}

// Ability is a named action that interacts with status ledgers.
type Ability interface {
	Name() string
	Invoke(ctx context.Context, inv Invocation) error
}

// Registry maps ability names to abilities.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	abilities map[string]Ability
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{abilities: make(map[string]Ability)}
}

// Register adds a.
//
// Postcondition: returns ErrDuplicateAbility if a.Name() is taken.
func (r *Registry) Register(a Ability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.abilities[a.Name()]; exists {
		return fmt.Errorf("registering %q: %w", a.Name(), ErrDuplicateAbility)
	}
	r.abilities[a.Name()] = a
	return nil
}

// Get returns the ability named name.
func (r *Registry) Get(name string) (Ability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.abilities[name]
	return a, ok
}

// Names returns every registered name in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.abilities))
	for name := range r.abilities {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Invoke runs the ability named name.
func (r *Registry) Invoke(ctx context.Context, name string, inv Invocation) error {
	a, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("invoking %q: %w", name, ErrUnknownAbility)
	}
	if err := a.Invoke(ctx, inv); err != nil {
		return fmt.Errorf("invoking %q: %w", name, err)
	}
	return nil
}
