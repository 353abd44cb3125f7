package simulation

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/fsm"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// AgentSnapshot is a copy of one agent's state, safe to hand to another goroutine.
type AgentSnapshot struct {
	ID          string
	State       fsm.State
	Position    geometry.Vector3
	Forward     geometry.Vector3
	Velocity    geometry.Vector3
	Destination geometry.Vector3
	Remaining   float64
	Seen        bool
	Inside      bool
	Memory      fsm.Memory
	Wander      *behavior.WanderSample
	Cone        perception.Cone
	Params      fsm.Params
}

// Snapshot is what the presentation layer draws.
type Snapshot struct {
	Tick         uint64
	Elapsed      float64
	SwitchPoints bool
	WorldWidth   float64
	WorldDepth   float64
	Agents       []AgentSnapshot
	Obstacles    []physics.Obstacle
	Regions      []RegionConfig
}

// Snapshot copies the current state, cones included.
func (w *World) Snapshot() *Snapshot {
	s := &Snapshot{
		Tick:         w.ticks,
		Elapsed:      w.elapsed,
		SwitchPoints: w.mode.Enabled(),
		WorldWidth:   w.cfg.WorldWidth,
		WorldDepth:   w.cfg.WorldDepth,
		Agents:       make([]AgentSnapshot, 0, len(w.agents)),
		Obstacles:    w.obstacles.Obstacles(),
		Regions:      w.Regions(),
	}
	for _, a := range w.agents {
		as := AgentSnapshot{
			ID:          a.ID,
			State:       a.Brain.State(),
			Position:    a.Body.Position(),
			Forward:     a.Body.Forward(),
			Velocity:    a.Body.Velocity(),
			Destination: a.Body.Destination(),
			Remaining:   a.Body.RemainingDistance(),
			Seen:        a.Brain.Seen(),
			Inside:      a.Brain.Inside(),
			Memory:      a.Brain.Memory(),
			Cone:        a.Brain.Cone(),
			Params:      a.Brain.Params(),
		}
		if sample, ok := a.Brain.LastWander(); ok {
			as.Wander = &sample
		}
		s.Agents = append(s.Agents, as)
	}
	return s
}

// Agent finds an agent snapshot by id.
func (s *Snapshot) Agent(id string) (AgentSnapshot, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentSnapshot{}, false
}

func vectorValue(v geometry.Vector3) map[string]interface{} {
	return map[string]interface{}{"x": v.X, "y": v.Y, "z": v.Z}
}

// ToProto converts the snapshot into a protobuf Struct for the actor
// message envelope. Cones are summarised, not copied.
func (s *Snapshot) ToProto() (*structpb.Struct, error) {
	agents := make([]interface{}, 0, len(s.Agents))
	for _, a := range s.Agents {
		hits := 0
		for _, c := range a.Cone.Casts {
			if c.Hit {
				hits++
			}
		}
		agent := map[string]interface{}{
			"id":          a.ID,
			"state":       a.State.String(),
			"position":    vectorValue(a.Position),
			"forward":     vectorValue(a.Forward),
			"destination": vectorValue(a.Destination),
			"remaining":   a.Remaining,
			"seen":        a.Seen,
			"inside":      a.Inside,
			"cone": map[string]interface{}{
				"rays":      len(a.Cone.Casts),
				"hits":      hits,
				"triangles": a.Cone.TriangleCount(),
			},
		}
		if a.Memory.Known {
			agent["lastKnown"] = map[string]interface{}{
				"rival":    a.Memory.RivalID,
				"position": vectorValue(a.Memory.Position),
				"forward":  vectorValue(a.Memory.Forward),
				"speed":    a.Memory.Speed,
			}
		}
		agents = append(agents, agent)
	}

	return structpb.NewStruct(map[string]interface{}{
		"tick":         s.Tick,
		"elapsed":      s.Elapsed,
		"switchPoints": s.SwitchPoints,
		"agents":       agents,
	})
}
