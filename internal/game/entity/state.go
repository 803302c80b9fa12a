package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// ErrUnknownKind is returned when a stored kind label cannot be resolved.
var ErrUnknownKind = errors.New("unknown entity kind")

// ErrStateNotFound is returned by state stores holding nothing for an entity.
var ErrStateNotFound = errors.New("entity state not found")

// ParseKind resolves a label produced by Kind.String.
func ParseKind(label string) (Kind, error) {
	switch label {
	case "player":
		return KindPlayer, nil
	case "mob":
		return KindMob, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, label)
	}
}

// State is the persistable part of an entity: everything needed to rebuild
// it after it leaves and re-enters the world.
type State struct {
	ID       string
	Kind     Kind
	Name     string
	Base     attribute.Table
	Equipped map[attribute.Slot]string
	// Statuses holds the live ledger instances in type order.
	Statuses []status.Instance
}

// Capture returns the current state of e.
func (e *Entity) Capture() State {
	snap := e.ledger.Snapshot()
	statuses := make([]status.Instance, 0, len(snap))
	for _, inst := range snap {
		statuses = append(statuses, inst)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Type < statuses[j].Type })
	return State{
		ID:       e.ID,
		Kind:     e.Kind,
		Name:     e.Name,
		Base:     e.Base(),
		Equipped: e.Equipped(),
		Statuses: statuses,
	}
}

// FromState rebuilds an entity from s with its ledger restored. Equipment
// contributions are not resolved here; the caller re-equips s.Equipped.
func FromState(s State) *Entity {
	e := New(s.ID, s.Kind, s.Name, s.Base)
	e.ledger.Restore(s.Statuses)
	return e
}
