package status_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

func pulseAmounts(r status.TickReport) float64 {
	total := 0.0
	for _, p := range r.Pulses {
		total += p.Amount
	}
	return total
}

func TestTick_BleedEmitsThenExpiresWholeInstance(t *testing.T) {
	l := status.NewLedger("victim")
	_, err := l.Apply(bleed(3, 2, 2))
	require.NoError(t, err)

	var emitted []float64
	for i := 0; i < 3; i++ {
		emitted = append(emitted, pulseAmounts(l.Tick()))
	}
	assert.Equal(t, []float64{6, 6, 0}, emitted)
	assert.False(t, l.Has(status.Bleed))
}

func TestTick_PulseCarriesSource(t *testing.T) {
	l := status.NewLedger("victim")
	_, _ = l.Apply(status.Instance{Type: status.Electrocute, Stacks: 2, Magnitude: 1.5, RemainingTicks: 3, Source: "mage"})
	r := l.Tick()
	require.Len(t, r.Pulses, 1)
	assert.Equal(t, status.Pulse{Type: status.Electrocute, Amount: 3, Source: "mage"}, r.Pulses[0])
}

func TestTick_NonDamageDoesNotPulse(t *testing.T) {
	l := status.NewLedger("victim")
	_, _ = l.Apply(brittle(4, 3))
	_, _ = l.Apply(status.Instance{Type: status.Chill, Stacks: 2, Magnitude: 1, RemainingTicks: 3})
	assert.Empty(t, l.Tick().Pulses)
}

func TestTick_RemainingOneExpiresInOneTick(t *testing.T) {
	l := status.NewLedger("victim")
	_, _ = l.Apply(brittle(4, 1))
	r := l.Tick()
	assert.Equal(t, []status.Type{status.Brittle}, r.Expired)
	assert.Equal(t, 0, l.Len())
}

func TestTick_StackDecayRestartsWindow(t *testing.T) {
	l := status.NewLedger("victim")
	_, err := l.Apply(status.Instance{Type: status.Chill, Stacks: 3, Magnitude: 2, RemainingTicks: 2})
	require.NoError(t, err)

	l.Tick()
	r := l.Tick()
	assert.Equal(t, []status.Type{status.Chill}, r.Decayed)
	inst, ok := l.Snapshot().Instance(status.Chill)
	require.True(t, ok)
	assert.Equal(t, uint32(2), inst.Stacks)
	assert.Equal(t, uint32(2), inst.RemainingTicks)

	// Two more windows remove the remaining stacks.
	for i := 0; i < 4; i++ {
		l.Tick()
	}
	assert.False(t, l.Has(status.Chill))
}

func TestTick_EmptyLedgerIsNoop(t *testing.T) {
	l := status.NewLedger("victim")
	assert.True(t, l.Tick().Empty())
}

func TestPropertyTick_ExpiresExactlyAtK(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typ := rapid.SampledFrom([]status.Type{status.Bleed, status.Electrocute, status.Brittle, status.Vulnerable}).Draw(t, "type")
		k := rapid.Uint32Range(1, 60).Draw(t, "k")
		stacks := rapid.Uint32Range(1, 10).Draw(t, "stacks")
		l := status.NewLedger("victim")
		_, err := l.Apply(status.Instance{Type: typ, Stacks: stacks, Magnitude: 1, RemainingTicks: k})
		require.NoError(t, err)
		for i := uint32(1); i < k; i++ {
			l.Tick()
			require.True(t, l.Has(typ), "instance must survive tick %d of %d", i, k)
		}
		l.Tick()
		assert.False(t, l.Has(typ))
	})
}

func TestPropertyTick_StackDecayLifetime(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		window := rapid.Uint32Range(1, 10).Draw(t, "window")
		stacks := rapid.Uint32Range(1, 6).Draw(t, "stacks")
		l := status.NewLedger("victim")
		_, err := l.Apply(status.Instance{Type: status.Soak, Stacks: stacks, Magnitude: 1, RemainingTicks: window})
		require.NoError(t, err)
		lifetime := window * stacks
		for i := uint32(1); i < lifetime; i++ {
			l.Tick()
		}
		require.True(t, l.Has(status.Soak))
		l.Tick()
		assert.False(t, l.Has(status.Soak))
	})
}

func TestTransfer_CopiesWithFullWindow(t *testing.T) {
	from := status.NewLedger("a")
	to := status.NewLedger("b")
	_, _ = from.Apply(status.Instance{Type: status.Electrocute, Stacks: 4, Magnitude: 2, RemainingTicks: 5, Source: "mage"})
	from.Tick()
	from.Tick()

	applied, res, ok := status.Transfer(from, to, status.Electrocute)
	require.True(t, ok)
	assert.Equal(t, status.ApplyInserted, res)
	assert.Equal(t, uint32(5), applied.RemainingTicks)
	inst, _ := to.Snapshot().Instance(status.Electrocute)
	assert.Equal(t, uint32(4), inst.Stacks)
	assert.Equal(t, "mage", inst.Source)
	assert.True(t, from.Has(status.Electrocute), "transfer must not remove the source instance")
}

func TestTransfer_MissingOrSelf(t *testing.T) {
	a := status.NewLedger("a")
	_, _, ok := status.Transfer(a, status.NewLedger("b"), status.Electrocute)
	assert.False(t, ok)
	_, _ = a.Apply(status.Instance{Type: status.Electrocute, Stacks: 1, Magnitude: 1, RemainingTicks: 2})
	_, _, ok = status.Transfer(a, a, status.Electrocute)
	assert.False(t, ok)
}

func TestTransfer_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	a := status.NewLedger("a")
	b := status.NewLedger("b")
	_, _ = a.Apply(status.Instance{Type: status.Electrocute, Stacks: 1, Magnitude: 1, RemainingTicks: 100})
	_, _ = b.Apply(status.Instance{Type: status.Electrocute, Stacks: 1, Magnitude: 1, RemainingTicks: 100})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			status.Transfer(a, b, status.Electrocute)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			status.Transfer(b, a, status.Electrocute)
		}
	}()
	wg.Wait()
	assert.True(t, a.Has(status.Electrocute))
	assert.True(t, b.Has(status.Electrocute))
}

func TestTransfer_SaturatesTargetStacks(t *testing.T) {
	from := status.NewLedger("a")
	to := status.NewLedger("b")
	_, err := from.Apply(status.Instance{Type: status.Electrocute, Stacks: 2, Magnitude: 1, RemainingTicks: 4})
	require.NoError(t, err)
	_, err = to.Apply(status.Instance{Type: status.Electrocute, Stacks: math.MaxUint32 - 1, Magnitude: 1, RemainingTicks: 4})
	require.NoError(t, err)

	_, res, ok := status.Transfer(from, to, status.Electrocute)
	require.True(t, ok)
	assert.Equal(t, status.ApplyStacked, res)
	assert.Equal(t, uint32(math.MaxUint32), to.Stacks(status.Electrocute))
}

func TestSnapshotPair_ReadsBothLedgers(t *testing.T) {
	a := status.NewLedger("a")
	b := status.NewLedger("b")
	_, err := a.Apply(status.Instance{Type: status.Chill, Stacks: 2, Magnitude: 1, RemainingTicks: 4})
	require.NoError(t, err)
	_, err = b.Apply(status.Instance{Type: status.Brittle, Stacks: 1, Magnitude: 5, RemainingTicks: 4})
	require.NoError(t, err)

	sa, sb := status.SnapshotPair(b, a)
	assert.Equal(t, uint32(1), sa.Stacks(status.Brittle))
	assert.Equal(t, uint32(2), sb.Stacks(status.Chill))

	self1, self2 := status.SnapshotPair(a, a)
	assert.Equal(t, self1, self2)
	self1[status.Chill] = status.Instance{}
	assert.Equal(t, uint32(2), self2.Stacks(status.Chill))
}

func TestSnapshotPair_OppositeOrdersDoNotDeadlock(t *testing.T) {
	a := status.NewLedger("a")
	b := status.NewLedger("b")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			status.SnapshotPair(a, b)
			_, _ = a.Apply(status.Instance{Type: status.Bleed, Stacks: 1, Magnitude: 1, RemainingTicks: 2})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			status.SnapshotPair(b, a)
			b.Consume(status.Bleed, 1)
		}
	}()
	wg.Wait()
	assert.Equal(t, uint32(500), a.Stacks(status.Bleed))
}
