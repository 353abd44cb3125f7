// Package behavior holds the steering rules of a wandering agent.
// Every rule is a pure function of the agent's current state and fixed
// parameters; it returns the navigation destination the mover should head for.
package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Rand is the random source the steering rules draw from.
// *rand.Rand from math/rand/v2 satisfies it; tests inject a scripted one.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// WanderParams controls the wander sphere.
// Radius is the sphere radius, Distance how far ahead of the agent its center sits.
type WanderParams struct {
	Radius   float64 `json:"wanderRadius"`
	Distance float64 `json:"wanderDistance"`
}

// WanderSample is one draw on the wander sphere.
// Destination always lies Radius from Center, and Center is Distance ahead of
// the agent along its heading.
type WanderSample struct {
	Center      geometry.Vector3
	Angle       float64 // radians, [0, 2π)
	Destination geometry.Vector3
}

// Wander picks a random point on the circumference of the wander sphere.
// heading is the mover's velocity, or its forward vector when standing still;
// a zero heading puts the sphere center on the agent itself.
func Wander(position, heading geometry.Vector3, p WanderParams, rng Rand) WanderSample {
	center := position.Add(heading.Normalize().Mul(p.Distance))
	angle := rng.Float64() * 2 * math.Pi
	direction := geometry.Vector3{X: math.Sin(angle), Z: math.Cos(angle)}
	return WanderSample{
		Center:      center,
		Angle:       angle,
		Destination: center.Add(direction.Mul(p.Radius)),
	}
}

// LookAhead returns distance/speed, or 0 when speed is not a positive finite
// number: a target that does not move is aimed at where it stands.
func LookAhead(distance, speed float64) float64 {
	if !(speed > 0) || math.IsInf(speed, 1) {
		return 0
	}
	return distance / speed
}

// Pursue aims at the rival's predicted position (lead pursuit):
// rivalPos + rivalForward * (|rivalPos - self| / rivalSpeed).
func Pursue(self, rivalPos, rivalForward geometry.Vector3, rivalSpeed float64) geometry.Vector3 {
	direction := rivalPos.Sub(self)
	lookAhead := LookAhead(direction.Len(), rivalSpeed)
	return rivalPos.Add(rivalForward.Mul(lookAhead))
}

// Evade heads away along the opposite of the rival's last known forward
// (lead evasion). The destination is flattened onto the ground plane.
func Evade(self, lastKnownForward geometry.Vector3, lastKnownSpeed float64) geometry.Vector3 {
	direction := lastKnownForward.Neg()
	lookAhead := LookAhead(direction.Len(), lastKnownSpeed)
	return self.Add(direction.Mul(lookAhead)).Flat()
}

// ReturnTo sends the agent back to the last place the rival was seen.
func ReturnTo(lastKnownPosition geometry.Vector3) geometry.Vector3 {
	return lastKnownPosition
}
