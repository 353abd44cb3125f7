// Package fsm drives one agent through its Wander, Follow and WalkAway states.
//
// Each tick the Controller runs the update function of its current state:
// perception first, then steering toward a destination handed to the Mover,
// then the distance checks that pick the state of the next tick.
package fsm

import (
	"math/rand/v2"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/switchpoint"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Region is the trigger volume delivered on entry and exit events.
type Region = switchpoint.Region

// Mover executes motion toward a destination. The controller only writes the
// destination; everything else is read.
type Mover interface {
	Position() geometry.Vector3
	Forward() geometry.Vector3
	Velocity() geometry.Vector3
	Speed() float64
	RemainingDistance() float64
	Destination() geometry.Vector3
	SetDestination(geometry.Vector3)
}

// Params are the fixed per-agent settings.
type Params struct {
	Wander              behavior.WanderParams
	Perception          perception.Params
	SwitchPointMaxAngle float64 // degrees
	MinFollowDistance   float64
	MaxWalkAwayDistance float64
	// LastLocationReached is the remaining distance under which the agent
	// counts as arrived at the rival's last known position.
	LastLocationReached float64
}

// DefaultParams mirrors the defaults of the scenario file.
func DefaultParams() Params {
	return Params{
		Wander: behavior.WanderParams{Radius: 1, Distance: 5},
		Perception: perception.Params{
			Radius:        5,
			FieldOfView:   30,
			AgentMask:     perception.LayerAgent,
			ObstacleMask:  perception.LayerObstacle,
			RaysPerDegree: 1,
		},
		SwitchPointMaxAngle: 120,
		MinFollowDistance:   2,
		MaxWalkAwayDistance: 8,
		LastLocationReached: 0.5,
	}
}

// Memory is what the agent remembers of the last rival it saw.
type Memory struct {
	RivalID  string
	Position geometry.Vector3
	Forward  geometry.Vector3
	Speed    float64
	Known    bool
}

// Controller is the brain of one agent. It is not safe for concurrent use.
type Controller struct {
	id        string
	mover     Mover
	params    Params
	state     State
	memory    Memory
	seen      bool
	inside    bool
	router    switchpoint.Router
	raycaster perception.Raycaster
	rng       behavior.Rand
	logger    golog.Logger

	wander      behavior.WanderSample
	hasWander   bool
	timeInState float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transitions and recoveries.
func WithLogger(l golog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRand injects the random source used by wander and switch points.
func WithRand(r behavior.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithRaycaster sets the obstacle layer perception is resolved against.
func WithRaycaster(rc perception.Raycaster) Option {
	return func(c *Controller) { c.raycaster = rc }
}

// WithMode shares the process-wide switch-point mode.
func WithMode(m *switchpoint.Mode) Option {
	return func(c *Controller) { c.router.Mode = m }
}

// NewController creates a controller in the Wander state.
// Without WithMode the controller gets its own enabled mode.
func NewController(id string, mover Mover, p Params, opts ...Option) *Controller {
	c := &Controller{
		id:     id,
		mover:  mover,
		params: p,
		state:  Wander,
		logger: golog.DiscardLogger,
		router: switchpoint.Router{MaxAngle: p.SwitchPointMaxAngle},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.router.Mode == nil {
		c.router.Mode = switchpoint.NewMode(true)
	}
	c.router.Rand = c.rng
	return c
}

func (c *Controller) ID() string     { return c.id }
func (c *Controller) State() State   { return c.state }
func (c *Controller) Memory() Memory { return c.memory }
func (c *Controller) Params() Params { return c.params }
func (c *Controller) Mover() Mover   { return c.mover }
func (c *Controller) Inside() bool   { return c.inside }

// TimeInState is the simulated time spent in the current state, in seconds.
func (c *Controller) TimeInState() float64 { return c.timeInState }

// Seen mirrors the seen indicator: true while the last perception pass found
// a rival.
func (c *Controller) Seen() bool { return c.seen }

// LastWander returns the most recent wander sample, if any was drawn.
func (c *Controller) LastWander() (behavior.WanderSample, bool) {
	return c.wander, c.hasWander
}

// Tick advances the controller by dt seconds.
func (c *Controller) Tick(dt float64, candidates []perception.Candidate) {
	c.timeInState += dt
	c.UpdateState(candidates)
}

// UpdateState runs the update function of the current state once and applies
// the transition it returns.
func (c *Controller) UpdateState(candidates []perception.Candidate) {
	if !c.state.Valid() {
		c.logger.Warnf("%s: invalid state %d, back to %s", c.id, c.state, Wander)
		c.ChangeState(Wander)
	}
	next := behaviors[c.state].update(c, candidates)
	c.ChangeState(next)
}

// ChangeState switches to next; switching to the current state is a no-op.
func (c *Controller) ChangeState(next State) {
	if next == c.state {
		return
	}
	c.logger.Debugf("%s: %s -> %s", c.id, c.state, next)
	c.state = next
	c.timeInState = 0
}

// OnRegionEnter routes a region entry to the current state.
func (c *Controller) OnRegionEnter(region Region) {
	behaviors[c.state].enter(c, region)
}

// OnRegionExit always clears the inside flag, whatever the state or mode.
func (c *Controller) OnRegionExit(Region) {
	c.inside = false
}

// CheckDistance reports whether the distance to the rival's last known
// position calls for a transition: below MinFollowDistance while following,
// above MaxWalkAwayDistance while walking away. Both are strict.
func (c *Controller) CheckDistance(distance float64, isFollowing bool) bool {
	if isFollowing {
		return distance < c.params.MinFollowDistance
	}
	return distance > c.params.MaxWalkAwayDistance
}

// DistanceToRival is the distance between the agent and the rival's last
// known position.
func (c *Controller) DistanceToRival() float64 {
	return c.memory.Position.DistanceTo(c.mover.Position())
}

// Cone samples the vision cone for the presentation layer.
func (c *Controller) Cone() perception.Cone {
	return perception.ComputeCone(c.mover.Position(), c.mover.Forward(), c.params.Perception, c.raycaster)
}

// ---------------------------------------------------------------------
// Actions shared by the states
// ---------------------------------------------------------------------

// perceive clears the seen indicator, looks for a rival and refreshes the
// memory when one is visible.
func (c *Controller) perceive(candidates []perception.Candidate) bool {
	c.seen = false
	others := candidates[:0:0]
	for _, cand := range candidates {
		if cand.ID != c.id {
			others = append(others, cand)
		}
	}
	s, ok := perception.Perceive(c.mover.Position(), c.mover.Forward(), others, c.params.Perception, c.raycaster)
	if !ok {
		return false
	}
	c.memory = Memory{RivalID: s.AgentID, Position: s.Position, Forward: s.Forward, Speed: s.Speed, Known: true}
	c.seen = true
	return true
}

func (c *Controller) wanderStep() {
	if c.inside {
		return
	}
	heading := c.mover.Velocity()
	if heading.IsZero() {
		heading = c.mover.Forward()
	}
	c.wander = behavior.Wander(c.mover.Position(), heading, c.params.Wander, c.rng)
	c.hasWander = true
	c.mover.SetDestination(c.wander.Destination)
}

func (c *Controller) followRival() {
	m := c.memory
	if !(m.Speed > 0) {
		c.logger.Debugf("%s: rival %s has no speed, aiming at its position", c.id, m.RivalID)
	}
	c.mover.SetDestination(behavior.Pursue(c.mover.Position(), m.Position, m.Forward, m.Speed))
}

func (c *Controller) walkAwayFromRival() {
	m := c.memory
	c.mover.SetDestination(behavior.Evade(c.mover.Position(), m.Forward, m.Speed))
}

func (c *Controller) lastLocationReached() bool {
	return c.mover.RemainingDistance() <= c.params.LastLocationReached
}

// ---------------------------------------------------------------------
// State updates
// ---------------------------------------------------------------------

func (c *Controller) updateWander(candidates []perception.Candidate) State {
	c.wanderStep()
	if c.perceive(candidates) {
		return Follow
	}
	return Wander
}

func (c *Controller) updateFollow(candidates []perception.Candidate) State {
	if c.perceive(candidates) {
		c.followRival()
		if c.CheckDistance(c.DistanceToRival(), true) {
			c.seen = false
			return WalkAway
		}
		return Follow
	}
	if !c.memory.Known {
		c.logger.Debugf("%s: following without a rival, back to wander", c.id)
		return Wander
	}
	if c.lastLocationReached() {
		return Wander
	}
	c.mover.SetDestination(behavior.ReturnTo(c.memory.Position))
	return Follow
}

func (c *Controller) updateWalkAway([]perception.Candidate) State {
	if !c.memory.Known {
		c.logger.Debugf("%s: walking away without a rival, back to wander", c.id)
		return Wander
	}
	c.walkAwayFromRival()
	if c.CheckDistance(c.DistanceToRival(), false) {
		return Follow
	}
	return WalkAway
}

// switchPoint hands a region entry to the router while wandering.
func (c *Controller) switchPoint(region Region) {
	d := c.router.Enter(c.mover.Position(), c.mover.Forward(), region)
	if d.Outcome == switchpoint.Ignored {
		return
	}
	c.inside = d.Inside()
	switch d.Outcome {
	case switchpoint.Redirected:
		c.mover.SetDestination(d.Destination)
		c.logger.Debugf("%s: switch point %s redirects to open point %d %v", c.id, region.ID, d.Point, d.Destination)
	case switchpoint.NoOpenPoints:
		c.logger.Debugf("%s: switch point %s has no open points", c.id, region.ID)
	}
}
