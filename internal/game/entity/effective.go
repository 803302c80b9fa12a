package entity

import (
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// Effective returns aggregated with the standing non-damage status modifiers of
// snap applied: Chill lowers DodgeChance, Soak lowers Tenacity and Batter lowers
// ArmorToughness, each by its total magnitude. Brittle and Vulnerable only
// apply to a single hit and are left to the combat resolver.
//
// Postcondition: every kind is at or above its floor.
func Effective(aggregated attribute.Table, snap status.Snapshot) attribute.Table {
	out := aggregated
	for t, inst := range snap {
		switch t {
		case status.Chill:
			out.Add(attribute.DodgeChance, -inst.Total())
		case status.Soak:
			out.Add(attribute.Tenacity, -inst.Total())
		case status.Batter:
			out.Add(attribute.ArmorToughness, -inst.Total())
		case status.Bleed, status.Electrocute, status.Brittle, status.Vulnerable:
		}
	}
	return out.Clamp()
}

// EffectivePair returns the effective attributes and ledger snapshots of a and
// b, read together under both ledgers' locks in owner-ID order.
func EffectivePair(a, b *Entity) (aAttrs attribute.Table, aSnap status.Snapshot, bAttrs attribute.Table, bSnap status.Snapshot) {
	aSnap, bSnap = status.SnapshotPair(a.ledger, b.ledger)
	return Effective(a.Attributes(), aSnap), aSnap, Effective(b.Attributes(), bSnap), bSnap
}

// EffectiveAttributes returns the entity's effective attributes computed from
// its current aggregate and a fresh ledger snapshot, along with that snapshot.
func (e *Entity) EffectiveAttributes() (attribute.Table, status.Snapshot) {
	snap := e.ledger.Snapshot()
	return Effective(e.Attributes(), snap), snap
}
