package gameserver

import (
	"slices"
	"sync"
)

// Vec is a world position reported by the host.
type Vec struct {
	X, Y, Z float64
}

// DistanceSquared returns the squared distance between v and o.
func (v Vec) DistanceSquared(o Vec) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// Positions tracks the last reported position of each entity and answers
// radius queries for the status effect engine.
type Positions struct {
	mu  sync.RWMutex
	pos map[string]Vec
}

// NewPositions creates an empty position index.
func NewPositions() *Positions {
	return &Positions{pos: make(map[string]Vec)}
}

// Move records id at the given position.
func (p *Positions) Move(id string, at Vec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos[id] = at
}

// Remove forgets id. Removing an unknown id is a no-op.
func (p *Positions) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pos, id)
}

// Position returns the last position recorded for id.
func (p *Positions) Position(id string) (Vec, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.pos[id]
	return v, ok
}

// Nearby returns the IDs within radius of id, excluding id itself, in sorted
// order. An entity with no recorded position has no neighbours.
func (p *Positions) Nearby(id string, radius float64) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	origin, ok := p.pos[id]
	if !ok || radius < 0 {
		return nil
	}
	limit := radius * radius
	var out []string
	for other, at := range p.pos {
		if other == id {
			continue
		}
		if origin.DistanceSquared(at) <= limit {
			out = append(out, other)
		}
	}
	slices.Sort(out)
	return out
}
