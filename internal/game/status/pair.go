package status

// lockPair locks a and b in ascending owner-ID order so that two goroutines
// working on the same pair in opposite roles cannot deadlock. It returns the
// matching unlock function.
func lockPair(a, b *Ledger) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if b.owner < a.owner {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// Transfer copies the live instance of t on from onto to as a fresh
// application: same stacks, magnitude and source, with the duration restarted
// at the instance's window. Both ledgers are held for the duration of the copy.
//
// Postcondition: returns the applied instance and the ledger's verdict, or
// ok == false if from holds no instance of t or from == to.
func Transfer(from, to *Ledger, t Type) (applied Instance, result ApplyResult, ok bool) {
	if from == nil || to == nil || from == to || !t.Valid() {
		return Instance{}, 0, false
	}
	unlock := lockPair(from, to)
	defer unlock()
	src := from.slots[t]
	if src == nil {
		return Instance{}, 0, false
	}
	applied = *src
	applied.RemainingTicks = applied.WindowTicks
	result = to.apply(applied)
	return applied, result, true
}

// SnapshotPair returns snapshots of a and b taken while both ledgers are held,
// so neither can change between the two reads. a and b may be the same ledger.
func SnapshotPair(a, b *Ledger) (Snapshot, Snapshot) {
	unlock := lockPair(a, b)
	defer unlock()
	return a.snapshot(), b.snapshot()
}
