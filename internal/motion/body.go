// Package motion provides a kinematic mover: it walks in a straight line at
// constant speed toward whatever destination it was last given.
package motion

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Body is a point agent on the ground plane.
type Body struct {
	ID  string
	Pos geometry.Vector3
	Vel geometry.Vector3

	forward     geometry.Vector3
	speed       float64
	destination geometry.Vector3
	hasDest     bool
}

// NewBody creates a body facing yaw degrees, standing still.
func NewBody(id string, pos geometry.Vector3, yaw, speed float64) *Body {
	return &Body{
		ID:      id,
		Pos:     pos,
		forward: geometry.FromYaw(yaw),
		speed:   math.Max(speed, 0),
	}
}

func (b *Body) Position() geometry.Vector3 { return b.Pos }
func (b *Body) Velocity() geometry.Vector3 { return b.Vel }
func (b *Body) Forward() geometry.Vector3  { return b.forward }

// Speed is the configured linear speed, whether or not the body is moving.
func (b *Body) Speed() float64 { return b.speed }

// Destination returns the current target, or the position when there is none.
func (b *Body) Destination() geometry.Vector3 {
	if !b.hasDest {
		return b.Pos
	}
	return b.destination
}

// SetDestination replaces the current target. Non-finite points are ignored.
func (b *Body) SetDestination(d geometry.Vector3) {
	if !d.IsFinite() {
		return
	}
	b.destination = d
	b.hasDest = true
}

// RemainingDistance is the ground-plane distance left to the destination.
func (b *Body) RemainingDistance() float64 {
	if !b.hasDest {
		return 0
	}
	return b.destination.Sub(b.Pos).Flat().Len()
}

// SetYaw turns the body in place.
func (b *Body) SetYaw(yaw float64) {
	b.forward = geometry.FromYaw(yaw)
}

// Step moves the body dt seconds toward its destination without overshooting.
// Forward follows the direction of travel.
func (b *Body) Step(dt float64) {
	remaining := b.RemainingDistance()
	if dt <= 0 || remaining < geometry.Epsilon || b.speed == 0 {
		b.Vel = geometry.Zero
		return
	}

	direction := b.destination.Sub(b.Pos).Flat().Normalize()
	travel := math.Min(b.speed*dt, remaining)
	b.Pos = b.Pos.Add(direction.Mul(travel))
	// dt > 0 here
	b.Vel, _ = direction.Mul(travel).Div(dt)
	b.forward = direction
}

// Clamp keeps the body inside [0, width] x [0, depth].
func (b *Body) Clamp(width, depth float64) {
	b.Pos.X = math.Min(math.Max(b.Pos.X, 0), width)
	b.Pos.Z = math.Min(math.Max(b.Pos.Z, 0), depth)
}

// DistanceTo gives the cartesian distance from this Body to the other.
func (b *Body) DistanceTo(other *Body) float64 {
	return b.Pos.DistanceTo(other.Pos)
}
