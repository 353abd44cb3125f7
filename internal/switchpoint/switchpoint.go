// Package switchpoint redirects wandering agents that walk into a marked
// region toward one of the region's open points.
package switchpoint

import (
	"sync/atomic"

	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Mode is the process-wide "switch points enabled" flag.
// Every agent holds the same *Mode; Toggle is the only mutation.
type Mode struct {
	enabled atomic.Bool
}

// NewMode returns a Mode initialised to enabled.
func NewMode(enabled bool) *Mode {
	m := &Mode{}
	m.enabled.Store(enabled)
	return m
}

// Enabled reports the current value. A nil Mode is disabled.
func (m *Mode) Enabled() bool {
	return m != nil && m.enabled.Load()
}

// Toggle flips the flag and returns the new value.
func (m *Mode) Toggle() bool {
	for {
		old := m.enabled.Load()
		if m.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// String returns "ON" or "OFF".
func (m *Mode) String() string {
	return onOff(m.Enabled())
}

// Label is the UI read-out of the mode.
func (m *Mode) Label() string {
	return LabelFor(m.Enabled())
}

// LabelFor is the read-out for a mode value seen in a snapshot.
func LabelFor(enabled bool) string {
	return "Switch Points: " + onOff(enabled)
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

// Region is a trigger volume offering ordered open points.
type Region struct {
	ID         string
	OpenPoints []geometry.Vector3
}

// Outcome tells the caller what to do with the agent after an entry event.
type Outcome int

const (
	// Ignored: mode disabled, nothing changes.
	Ignored Outcome = iota
	// Redirected: agent is inside, Decision.Destination is the new target.
	Redirected
	// Rejected: the chosen point was not ahead of the agent, inside is cleared.
	Rejected
	// NoOpenPoints: the region has no open points, inside is cleared.
	NoOpenPoints
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Redirected:
		return "redirected"
	case Rejected:
		return "rejected"
	case NoOpenPoints:
		return "no open points"
	default:
		return "unknown"
	}
}

// Decision is the result of Router.Enter.
type Decision struct {
	Outcome     Outcome
	Point       int // index into Region.OpenPoints, -1 if none was drawn
	Angle       float64
	Destination geometry.Vector3
}

// Inside reports whether the agent should be flagged inside the region.
// For Ignored the caller keeps its current flag.
func (d Decision) Inside() bool {
	return d.Outcome == Redirected
}

// Router holds the per-agent switch-point settings.
type Router struct {
	MaxAngle float64 // degrees
	Mode     *Mode
	Rand     behavior.Rand
}

// Enter draws a random open point of region and accepts it when the angle
// between forward and the direction to the point is strictly below MaxAngle.
func (r Router) Enter(position, forward geometry.Vector3, region Region) Decision {
	if !r.Mode.Enabled() {
		return Decision{Outcome: Ignored, Point: -1}
	}
	if len(region.OpenPoints) == 0 {
		return Decision{Outcome: NoOpenPoints, Point: -1}
	}

	i := r.Rand.IntN(len(region.OpenPoints))
	point := region.OpenPoints[i]
	angle := geometry.AngleBetween(forward, point.Sub(position))
	if !geometry.BelowAngle(angle, r.MaxAngle) {
		return Decision{Outcome: Rejected, Point: i, Angle: angle}
	}
	return Decision{Outcome: Redirected, Point: i, Angle: angle, Destination: point}
}
