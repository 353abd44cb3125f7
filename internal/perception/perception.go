// Package perception decides what an agent can see: a sighting test against
// candidate agents (radius, field of view, occlusion) and the sampled vision
// cone handed to the presentation layer.
package perception

import (
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Layer is a classification bit mask. A shape or candidate carries one or
// more bits; a query matches it when the masks intersect.
type Layer uint32

const (
	LayerNone     Layer = 0
	LayerObstacle Layer = 1 << 0
	LayerAgent    Layer = 1 << 1
	LayerAll      Layer = ^Layer(0)
)

// Matches reports whether l shares at least one bit with mask.
func (l Layer) Matches(mask Layer) bool {
	return l&mask != 0
}

// Hit is the first obstacle a ray ran into.
type Hit struct {
	Point    geometry.Vector3
	Distance float64
}

// Raycaster resolves rays against the obstacle layer.
// direction does not need to be normalized; only shapes matching mask count.
type Raycaster interface {
	Raycast(origin, direction geometry.Vector3, maxDistance float64, mask Layer) (Hit, bool)
}

// Candidate is the read-only view of another agent offered to perception.
type Candidate struct {
	ID       string
	Position geometry.Vector3
	Forward  geometry.Vector3
	Speed    float64
	Layer    Layer
}

// Sighting records what was seen of a candidate this tick.
type Sighting struct {
	AgentID  string
	Position geometry.Vector3
	Forward  geometry.Vector3
	Speed    float64
}

// Params are the fixed perception settings of one agent.
type Params struct {
	Radius        float64 `json:"perceptionRadius"`
	FieldOfView   float64 `json:"perceptionAngle"` // full angle, degrees
	AgentMask     Layer   `json:"agentMask"`
	ObstacleMask  Layer   `json:"obstacleMask"`
	RaysPerDegree float64 `json:"raysPerDegree"`
}

// HalfAngle is half of the field of view.
func (p Params) HalfAngle() float64 {
	return p.FieldOfView / 2
}

// Perceive returns the first visible candidate in enumeration order.
// A candidate is visible when it matches the agent mask, lies within Radius
// (inclusive), within half the field of view of forward (inclusive) and no
// obstacle lies on the segment between the agent and the candidate.
func Perceive(position, forward geometry.Vector3, candidates []Candidate, p Params, rc Raycaster) (Sighting, bool) {
	radiusSq := p.Radius * p.Radius
	for _, c := range candidates {
		if !c.Layer.Matches(p.AgentMask) {
			continue
		}
		if position.DistanceSquaredTo(c.Position) > radiusSq {
			continue
		}
		toCandidate := c.Position.Sub(position)
		if !geometry.WithinAngle(geometry.AngleBetween(forward, toCandidate), p.HalfAngle()) {
			continue
		}
		if rc != nil {
			if flat := toCandidate.Flat(); !flat.IsZero() {
				if _, blocked := rc.Raycast(position, flat, flat.Len(), p.ObstacleMask); blocked {
					continue
				}
			}
		}
		return Sighting{
			AgentID:  c.ID,
			Position: c.Position,
			Forward:  c.Forward,
			Speed:    c.Speed,
		}, true
	}
	return Sighting{}, false
}
