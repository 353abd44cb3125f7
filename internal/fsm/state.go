package fsm

import "github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"

// State is the locomotion intent of an agent.
type State int

const (
	Wander State = iota
	Follow
	WalkAway
)

// String returns the UI label of the state.
func (s State) String() string {
	switch s {
	case Wander:
		return "Wander"
	case Follow:
		return "Follow"
	case WalkAway:
		return "Walk away"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	return s >= Wander && s <= WalkAway
}

// stateBehavior is the per-state function pair. update runs once per tick and
// returns the state for the next tick; enter handles a region entry event.
type stateBehavior struct {
	update func(c *Controller, candidates []perception.Candidate) State
	enter  func(c *Controller, region Region)
}

var behaviors = [...]stateBehavior{
	Wander:   {update: (*Controller).updateWander, enter: (*Controller).switchPoint},
	Follow:   {update: (*Controller).updateFollow, enter: ignoreRegion},
	WalkAway: {update: (*Controller).updateWalkAway, enter: ignoreRegion},
}

func ignoreRegion(*Controller, Region) {}
