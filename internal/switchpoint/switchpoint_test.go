package switchpoint

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// fixedRand always returns the same index.
type fixedRand int

func (f fixedRand) Float64() float64 { return 0 }
func (f fixedRand) IntN(n int) int   { return int(f) % n }

func TestMode_Toggle(t *testing.T) {
	m := NewMode(true)
	if !m.Enabled() || m.String() != "ON" {
		t.Fatalf("new mode = %v/%q, want enabled/ON", m.Enabled(), m.String())
	}
	if got := m.Toggle(); got {
		t.Errorf("first Toggle() = %v, want false", got)
	}
	if m.Label() != "Switch Points: OFF" {
		t.Errorf("Label() = %q", m.Label())
	}
	m.Toggle()
	if !m.Enabled() || m.Label() != "Switch Points: ON" {
		t.Errorf("two toggles should restore the original value, got %v", m.Enabled())
	}

	var nilMode *Mode
	if nilMode.Enabled() {
		t.Error("nil mode should read as disabled")
	}
}

func TestRouter_AngleGate(t *testing.T) {
	region := Region{ID: "r", OpenPoints: []geometry.Vector3{
		geometry.FromYaw(30).Mul(5),
		geometry.FromYaw(45).Mul(5),
		geometry.FromYaw(90).Mul(5),
	}}

	tests := []struct {
		name    string
		pick    int
		outcome Outcome
	}{
		{"within max angle", 0, Redirected},
		{"exactly at max angle", 1, Rejected},
		{"beyond max angle", 2, Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Router{MaxAngle: 45, Mode: NewMode(true), Rand: fixedRand(tt.pick)}
			d := r.Enter(geometry.Zero, geometry.Forward, region)
			if d.Outcome != tt.outcome {
				t.Fatalf("outcome = %v, want %v (angle %.4f)", d.Outcome, tt.outcome, d.Angle)
			}
			if d.Point != tt.pick {
				t.Errorf("point = %d, want %d", d.Point, tt.pick)
			}
			if d.Inside() != (tt.outcome == Redirected) {
				t.Errorf("Inside() = %v", d.Inside())
			}
			if tt.outcome == Redirected && !d.Destination.Eq(region.OpenPoints[tt.pick]) {
				t.Errorf("destination = %v, want %v", d.Destination, region.OpenPoints[tt.pick])
			}
		})
	}
}

func TestRouter_Disabled(t *testing.T) {
	mode := NewMode(true)
	mode.Toggle()
	r := Router{MaxAngle: 180, Mode: mode, Rand: fixedRand(0)}
	d := r.Enter(geometry.Zero, geometry.Forward, Region{OpenPoints: []geometry.Vector3{geometry.Forward}})
	if d.Outcome != Ignored || d.Inside() {
		t.Errorf("disabled mode should ignore entries, got %v", d.Outcome)
	}
}

func TestRouter_NoOpenPoints(t *testing.T) {
	r := Router{MaxAngle: 90, Mode: NewMode(true), Rand: fixedRand(0)}
	d := r.Enter(geometry.Zero, geometry.Forward, Region{ID: "empty"})
	if d.Outcome != NoOpenPoints || d.Inside() || d.Point != -1 {
		t.Errorf("empty region: got %+v", d)
	}
}
