package status

import (
	"math"
	"sync"
)

// ApplyResult reports how the ledger treated an application.
type ApplyResult uint8

const (
	// ApplyInserted means no live instance existed and the application was stored.
	ApplyInserted ApplyResult = iota
	// ApplyStacked means the application was folded into a cumulative instance.
	ApplyStacked
	// ApplyReplaced means a non-cumulative instance was replaced by a stronger or equal one.
	ApplyReplaced
	// ApplyDiscarded means a weaker non-cumulative application was dropped by policy.
	ApplyDiscarded
)

// String returns the result label.
func (r ApplyResult) String() string {
	switch r {
	case ApplyInserted:
		return "inserted"
	case ApplyStacked:
		return "stacked"
	case ApplyReplaced:
		return "replaced"
	case ApplyDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Ledger holds the live status instances of one entity, at most one per Type.
// All methods are safe for concurrent use; each call is serialised against the
// others on the same ledger.
type Ledger struct {
	owner string

	mu    sync.Mutex
	slots [TypeCount]*Instance
}

// NewLedger returns an empty ledger owned by the entity with ID owner.
func NewLedger(owner string) *Ledger {
	return &Ledger{owner: owner}
}

// Owner returns the ID of the owning entity.
func (l *Ledger) Owner() string { return l.owner }

// Apply merges inst into the ledger.
//
// Cumulative types add stacks, keep the longer remaining duration and window,
// and adopt the magnitude of the latest application. Non-cumulative types are
// replaced only when inst.Magnitude >= the live magnitude; otherwise the
// application is discarded and ApplyDiscarded is returned with a nil error.
//
// Postcondition: on a nil error the ledger holds at most one instance of inst.Type.
func (l *Ledger) Apply(inst Instance) (ApplyResult, error) {
	if err := inst.Validate(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.apply(inst), nil
}

func (l *Ledger) apply(inst Instance) ApplyResult {
	inst = inst.normalize()
	existing := l.slots[inst.Type]
	if existing == nil {
		l.slots[inst.Type] = &inst
		return ApplyInserted
	}
	if !inst.Type.Cumulative() {
		if inst.Magnitude < existing.Magnitude {
			return ApplyDiscarded
		}
		l.slots[inst.Type] = &inst
		return ApplyReplaced
	}
	existing.Stacks = addStacks(existing.Stacks, inst.Stacks)
	existing.Magnitude = inst.Magnitude
	existing.Source = inst.Source
	if inst.RemainingTicks > existing.RemainingTicks {
		existing.RemainingTicks = inst.RemainingTicks
	}
	if inst.WindowTicks > existing.WindowTicks {
		existing.WindowTicks = inst.WindowTicks
	}
	return ApplyStacked
}

// addStacks saturates at math.MaxUint32 so a merge never wraps to zero stacks.
func addStacks(a, b uint32) uint32 {
	if b > math.MaxUint32-a {
		return math.MaxUint32
	}
	return a + b
}

// Consume removes up to amount stacks of t and returns how many were removed.
// The instance is deleted once its stacks reach zero.
//
// Postcondition: returns min(amount, Stacks(t)) as observed at call time.
func (l *Ledger) Consume(t Type, amount uint32) uint32 {
	if !t.Valid() {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.slots[t]
	if inst == nil || amount == 0 {
		return 0
	}
	taken := amount
	if taken > inst.Stacks {
		taken = inst.Stacks
	}
	inst.Stacks -= taken
	if inst.Stacks == 0 {
		l.slots[t] = nil
	}
	return taken
}

// Expire removes the instance of t regardless of its remaining duration.
// Expire is a no-op if t is not present.
func (l *Ledger) Expire(t Type) {
	if !t.Valid() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[t] = nil
}

// Cleanse removes every live instance of classification c and returns the
// removed types in declaration order.
func (l *Ledger) Cleanse(c Classification) []Type {
	l.mu.Lock()
	defer l.mu.Unlock()
	var removed []Type
	for t := Type(0); t < TypeCount; t++ {
		if l.slots[t] != nil && t.Classification() == c {
			l.slots[t] = nil
			removed = append(removed, t)
		}
	}
	return removed
}

// Has reports whether an instance of t is live.
func (l *Ledger) Has(t Type) bool {
	if !t.Valid() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots[t] != nil
}

// Stacks returns the stack count of t, or 0 if t is not live.
func (l *Ledger) Stacks(t Type) uint32 {
	if !t.Valid() {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if inst := l.slots[t]; inst != nil {
		return inst.Stacks
	}
	return 0
}

// Len returns the number of live instances.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, inst := range l.slots {
		if inst != nil {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the live instances at call time.
// Mutating the snapshot does not affect the ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Ledger) snapshot() Snapshot {
	s := make(Snapshot)
	for t, inst := range l.slots {
		if inst != nil {
			s[Type(t)] = *inst
		}
	}
	return s
}

// Restore replaces the ledger contents with instances, skipping any that fail
// validation. It is used when reloading persisted state.
func (l *Ledger) Restore(instances []Instance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots = [TypeCount]*Instance{}
	for _, inst := range instances {
		if inst.Validate() != nil {
			continue
		}
		l.apply(inst)
	}
}

// Snapshot is a read-only copy of a ledger keyed by status type.
type Snapshot map[Type]Instance

// Instance returns the instance of t and whether it is present.
func (s Snapshot) Instance(t Type) (Instance, bool) {
	inst, ok := s[t]
	return inst, ok
}

// Stacks returns the stack count of t, or 0.
func (s Snapshot) Stacks(t Type) uint32 {
	return s[t].Stacks
}

// Magnitude returns the total magnitude (per-stack magnitude × stacks) of t, or 0.
func (s Snapshot) Magnitude(t Type) float64 {
	inst, ok := s[t]
	if !ok {
		return 0
	}
	return inst.Total()
}
