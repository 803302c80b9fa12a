package status

import (
	"errors"
	"fmt"
)

// ErrInvalidInstance is returned when an instance cannot be applied as given.
var ErrInvalidInstance = errors.New("invalid status instance")

// Instance is one applied status effect.
type Instance struct {
	Type Type
	// Stacks is the stack count; always 1 for non-cumulative types.
	Stacks uint32
	// Magnitude is the per-stack strength.
	Magnitude float64
	// RemainingTicks counts down to the end of the current duration window.
	RemainingTicks uint32
	// WindowTicks is the length a window restarts at after a stack decays.
	// Zero means RemainingTicks at application time.
	WindowTicks uint32
	// Source is the ID of the entity that applied the status.
	Source string
}

// Total returns Magnitude × Stacks.
func (i Instance) Total() float64 {
	return i.Magnitude * float64(i.Stacks)
}

// Validate reports whether i can be applied.
//
// Postcondition: Returns nil iff Type is defined, Stacks > 0, RemainingTicks > 0
// and Magnitude >= 0.
func (i Instance) Validate() error {
	var errs []error
	if !i.Type.Valid() {
		errs = append(errs, fmt.Errorf("type %d is not defined", uint8(i.Type)))
	}
	if i.Stacks == 0 {
		errs = append(errs, errors.New("stacks must be > 0"))
	}
	if i.RemainingTicks == 0 {
		errs = append(errs, errors.New("remaining ticks must be > 0"))
	}
	if i.Magnitude < 0 {
		errs = append(errs, errors.New("magnitude must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInstance, errors.Join(errs...))
	}
	return nil
}

// normalize returns i with non-cumulative stacks forced to 1 and the window
// defaulted to the remaining duration.
func (i Instance) normalize() Instance {
	if !i.Type.Cumulative() {
		i.Stacks = 1
	}
	if i.WindowTicks == 0 || i.WindowTicks < i.RemainingTicks {
		i.WindowTicks = i.RemainingTicks
	}
	return i
}
