package ability

import (
	"context"
	"fmt"
	"math"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Detonate consumes every stack of Type on the target and deals PerStack
// damage for each consumed stack in a single burst.
type Detonate struct {
	ID       string
	Type     status.Type
	PerStack float64
}

// Name returns the ability name, defaulting to "detonate_<type>".
func (d Detonate) Name() string {
	if d.ID != "" {
		return d.ID
	}
	return "detonate_" + d.Type.String()
}

// Invoke performs the detonation. A target without stacks takes no damage.
func (d Detonate) Invoke(ctx context.Context, inv Invocation) error {
	consumed, err := inv.ConsumeStacks(inv.Target, d.Type, math.MaxUint32)
	if err != nil {
		return fmt.Errorf("detonating %s: %w", d.Type, err)
	}
	inv.Emit(ctx, inv.Target, float64(consumed)*d.PerStack)
	return nil
}
