package status

// Pulse is the periodic damage produced by one damage-classified instance
// during a tick.
type Pulse struct {
	Type   Type
	Amount float64
	Source string
}

// TickReport describes what one Tick did to a ledger.
type TickReport struct {
	// Pulses holds periodic damage in type declaration order.
	Pulses []Pulse
	// Decayed lists types that lost one stack and restarted their window.
	Decayed []Type
	// Expired lists types whose instance was removed.
	Expired []Type
}

// Empty reports whether the tick changed nothing observable.
func (r TickReport) Empty() bool {
	return len(r.Pulses) == 0 && len(r.Decayed) == 0 && len(r.Expired) == 0
}

// Tick advances every live instance by one discrete step.
//
// For each instance, in type declaration order: a damage-classified instance
// first pulses Magnitude × Stacks; then RemainingTicks is decremented. When it
// reaches zero a DecayStack type with more than one stack loses one stack and
// restarts at WindowTicks; every other instance is removed.
//
// Postcondition: an instance with RemainingTicks == k and DecayExpire policy is
// removed by exactly the k-th call.
func (l *Ledger) Tick() TickReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	var report TickReport
	for i, inst := range l.slots {
		if inst == nil {
			continue
		}
		t := Type(i)
		if t.Classification() == ClassDamage {
			if amount := inst.Total(); amount > 0 {
				report.Pulses = append(report.Pulses, Pulse{Type: t, Amount: amount, Source: inst.Source})
			}
		}
		inst.RemainingTicks--
		if inst.RemainingTicks > 0 {
			continue
		}
		if t.Decay() == DecayStack && inst.Stacks > 1 {
			inst.Stacks--
			inst.RemainingTicks = inst.WindowTicks
			report.Decayed = append(report.Decayed, t)
			continue
		}
		l.slots[i] = nil
		report.Expired = append(report.Expired, t)
	}
	return report
}
