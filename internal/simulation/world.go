package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/fsm"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/motion"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/switchpoint"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

type gridKey struct {
	x, z int
}

// Agent couples a mover with its brain.
type Agent struct {
	ID    string
	Layer perception.Layer
	Body  *motion.Body
	Brain *fsm.Controller

	// regions the agent currently stands in
	inside map[string]bool
}

// Candidate is the read-only view other agents get of a.
func (a *Agent) Candidate() perception.Candidate {
	return perception.Candidate{
		ID:       a.ID,
		Position: a.Body.Position(),
		Forward:  a.Body.Forward(),
		Speed:    a.Body.Speed(),
		Layer:    a.Layer,
	}
}

type region struct {
	cfg     RegionConfig
	polygon orb.Polygon
	bound   orb.Bound
	trigger switchpoint.Region
}

func newRegion(rc RegionConfig) *region {
	ring := make(orb.Ring, 0, len(rc.Footprint)+1)
	for _, p := range rc.Footprint {
		ring = append(ring, orb.Point{p[0], p[1]})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	polygon := orb.Polygon{ring}
	return &region{
		cfg:     rc,
		polygon: polygon,
		bound:   polygon.Bound(),
		trigger: switchpoint.Region{ID: rc.ID, OpenPoints: rc.OpenPoints},
	}
}

func (r *region) contains(p geometry.Vector3) bool {
	pt := orb.Point{p.X, p.Z}
	return r.bound.Contains(pt) && planar.PolygonContains(r.polygon, pt)
}

// World is the authoritative state of the scene: agents in registration
// order, the obstacle layer, switch regions and the spatial grid used as
// perception broad-phase. It is not safe for concurrent use; the
// SimulationActor owns it.
type World struct {
	cfg       *Config
	agents    []*Agent
	byID      map[string]*Agent
	obstacles *physics.World
	regions   []*region
	mode      *switchpoint.Mode
	rng       *rand.Rand
	logger    golog.Logger

	// Optimization: Spatial Hashing on the ground plane
	grid     map[gridKey][]*Agent
	cellSize float64

	ticks   uint64
	elapsed float64
}

// NewWorld builds the scene described by cfg. A nil logger discards.
func NewWorld(cfg *Config, logger golog.Logger) (*World, error) {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		cfg:       cfg,
		byID:      make(map[string]*Agent, len(cfg.Agents)),
		obstacles: physics.NewWorld(),
		mode:      switchpoint.NewMode(cfg.SwitchPointsEnabled),
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger:    logger,
		grid:      make(map[gridKey][]*Agent),
	}

	for _, o := range cfg.Obstacles {
		if err := w.obstacles.Add(o); err != nil {
			return nil, fmt.Errorf("failed to add obstacle: %w", err)
		}
	}
	for _, rc := range cfg.Regions {
		w.regions = append(w.regions, newRegion(rc))
	}
	for _, ac := range cfg.Agents {
		if err := w.addAgent(ac); err != nil {
			return nil, err
		}
	}

	w.cellSize = w.getCellSize()
	logger.Infof("World ready: %d agents, %d obstacles, %d regions, switch points %s",
		len(w.agents), w.obstacles.Len(), len(w.regions), w.mode)
	return w, nil
}

func (w *World) addAgent(ac AgentConfig) error {
	p, err := w.cfg.ParamsFor(ac)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var yaw float64
	if ac.Yaw != nil {
		yaw = *ac.Yaw
	} else {
		// random quarter turn
		yaw = float64(90 * w.rng.IntN(4))
	}
	layer := ac.Layer
	if layer == perception.LayerNone {
		layer = perception.LayerAgent
	}

	body := motion.NewBody(ac.ID, ac.Position, yaw, p.Speed)
	brain := fsm.NewController(ac.ID, body, p.Params(),
		fsm.WithRand(w.rng),
		fsm.WithRaycaster(w.obstacles),
		fsm.WithMode(w.mode),
		fsm.WithLogger(w.logger),
	)
	a := &Agent{ID: ac.ID, Layer: layer, Body: body, Brain: brain, inside: make(map[string]bool)}
	w.agents = append(w.agents, a)
	w.byID[a.ID] = a
	return nil
}

func (w *World) Agents() []*Agent          { return w.agents }
func (w *World) Obstacles() *physics.World { return w.obstacles }
func (w *World) Mode() *switchpoint.Mode   { return w.mode }
func (w *World) Config() *Config           { return w.cfg }
func (w *World) Ticks() uint64             { return w.ticks }
func (w *World) Elapsed() float64          { return w.elapsed }

// Agent looks an agent up by id.
func (w *World) Agent(id string) (*Agent, bool) {
	a, ok := w.byID[id]
	return a, ok
}

// Regions returns the switch regions in configuration order.
func (w *World) Regions() []RegionConfig {
	out := make([]RegionConfig, 0, len(w.regions))
	for _, r := range w.regions {
		out = append(out, r.cfg)
	}
	return out
}

// ToggleSwitchPoints flips the shared switch-point mode and returns the new value.
func (w *World) ToggleSwitchPoints() bool {
	enabled := w.mode.Toggle()
	w.logger.Infof("Switch points toggled: %s", w.mode)
	return enabled
}

// Tick advances the scene by dt seconds: every brain runs in registration
// order against positions from the start of the tick, then every mover
// advances, then region entry and exit events are delivered.
func (w *World) Tick(dt float64) {
	w.rebuildGrid()

	for _, a := range w.agents {
		a.Brain.Tick(dt, w.candidatesFor(a))
	}

	for _, a := range w.agents {
		a.Body.Step(dt)
		a.Body.Clamp(w.cfg.WorldWidth, w.cfg.WorldDepth)
	}

	w.dispatchRegionEvents()

	w.ticks++
	w.elapsed += dt
}

func (w *World) dispatchRegionEvents() {
	for _, a := range w.agents {
		pos := a.Body.Position()
		for _, r := range w.regions {
			in := r.contains(pos)
			was := a.inside[r.cfg.ID]
			switch {
			case in && !was:
				a.inside[r.cfg.ID] = true
				w.logger.Debugf("%s entered region %s", a.ID, r.cfg.ID)
				a.Brain.OnRegionEnter(r.trigger)
			case !in && was:
				delete(a.inside, r.cfg.ID)
				w.logger.Debugf("%s left region %s", a.ID, r.cfg.ID)
				a.Brain.OnRegionExit(r.trigger)
			}
		}
	}
}

// candidatesFor lists the agents in the 3x3 cells around a, cell by cell,
// in registration order within a cell. This is the enumeration order
// perception reports its first sighting in.
func (w *World) candidatesFor(a *Agent) []perception.Candidate {
	pos := a.Body.Position()
	nearby := w.getNearbyAgents(pos.X, pos.Z)
	candidates := make([]perception.Candidate, 0, len(nearby))
	for _, other := range nearby {
		if other == a {
			continue
		}
		candidates = append(candidates, other.Candidate())
	}
	return candidates
}

func (w *World) rebuildGrid() {
	// Reset slices to length 0 but keep capacity: the underlying arrays are
	// reused from tick to tick.
	for k := range w.grid {
		w.grid[k] = w.grid[k][:0]
	}

	for _, a := range w.agents {
		pos := a.Body.Position()
		gx, gz := w.getCellIndices(pos.X, pos.Z)
		key := gridKey{x: gx, z: gz}
		w.grid[key] = append(w.grid[key], a)
	}
}

func (w *World) getCellSize() float64 {
	// Use the largest perception radius so the 3x3 scan covers every agent in range
	maxRadius := 0.0
	for _, a := range w.agents {
		maxRadius = math.Max(maxRadius, a.Brain.Params().Perception.Radius)
	}
	// Clamp to a minimum of 1 to avoid tiny grids or div by zero
	return math.Max(maxRadius, 1.0)
}

func (w *World) getCellIndices(x, z float64) (int, int) {
	return int(math.Floor(x / w.cellSize)), int(math.Floor(z / w.cellSize))
}

// getNearbyAgents retrieves all the agents in cells located in and around x,z (3x3 Grid)
func (w *World) getNearbyAgents(x, z float64) []*Agent {
	gx, gz := w.getCellIndices(x, z)
	var neighbors []*Agent

	for i := gx - 1; i <= gx+1; i++ {
		for j := gz - 1; j <= gz+1; j++ {
			key := gridKey{x: i, z: j}
			if agents, ok := w.grid[key]; ok {
				neighbors = append(neighbors, agents...)
			}
		}
	}
	return neighbors
}
