package ability

import (
	"context"
	"fmt"
	"math"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
	"github.com/Bam6561/AethelPlugin-sub005/internal/scripting"
)

// Scripted is an ability implemented by a Lua script loaded into a
// scripting.Manager.
type Scripted struct {
	name    string
	scripts *scripting.Manager
}

// NewScripted returns the ability backed by script name in scripts.
func NewScripted(name string, scripts *scripting.Manager) Scripted {
	return Scripted{name: name, scripts: scripts}
}

// Name returns the script name.
func (s Scripted) Name() string { return s.name }

// Invoke runs the script with engine.* bound to inv.
func (s Scripted) Invoke(ctx context.Context, inv Invocation) error {
	return s.scripts.Invoke(ctx, s.name, callbacks(ctx, inv), inv.Caster, inv.Target)
}

// RegisterScripts registers one Scripted ability per loaded script.
func RegisterScripts(r *Registry, scripts *scripting.Manager) error {
	for _, name := range scripts.Names() {
		if err := r.Register(NewScripted(name, scripts)); err != nil {
			return err
		}
	}
	return nil
}

func callbacks(ctx context.Context, inv Invocation) scripting.Callbacks {
	return scripting.Callbacks{
		ReadStacks: func(uid, name string) int {
			t, err := status.ParseType(name)
			if err != nil {
				return 0
			}
			return int(inv.ReadStacks(uid, t))
		},
		ConsumeStacks: func(uid, name string, amount int) (int, error) {
			t, err := status.ParseType(name)
			if err != nil {
				return 0, err
			}
			if amount <= 0 {
				return 0, nil
			}
			n, err := inv.ConsumeStacks(uid, t, clampUint32(amount))
			return int(n), err
		},
		ApplyStatus: func(req scripting.StatusRequest) (string, error) {
			if inv.Statuses == nil {
				return "", fmt.Errorf("applying %s: no status applier", req.Type)
			}
			t, err := status.ParseType(req.Type)
			if err != nil {
				return "", err
			}
			if req.Stacks < 0 || req.Ticks < 0 {
				return "", fmt.Errorf("applying %s: %w", req.Type, status.ErrInvalidInstance)
			}
			res, err := inv.Statuses.Apply(ctx, req.Target, status.Instance{
				Type:           t,
				Stacks:         clampUint32(req.Stacks),
				Magnitude:      req.Magnitude,
				RemainingTicks: clampUint32(req.Ticks),
				Source:         inv.Caster,
			})
			if err != nil {
				return "", err
			}
			return res.String(), nil
		},
		EmitDamage: func(uid string, amount float64) { inv.Emit(ctx, uid, amount) },
	}
}

// clampUint32 narrows a script integer, saturating at the uint32 bounds.
func clampUint32(n int) uint32 {
	switch {
	case n <= 0:
		return 0
	case uint64(n) > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(n)
}
