// Package viewer draws a running simulation with ebiten: obstacles, switch
// regions, agents with their state, vision cones and steering gizmos.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/fsm"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/simulation"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/switchpoint"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/ui"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	panelWidth   = 230
)

var (
	colorBackground = color.RGBA{R: 18, G: 18, B: 28, A: 255}
	colorBounds     = color.RGBA{R: 70, G: 70, B: 90, A: 255}
	colorObstacle   = color.RGBA{R: 120, G: 110, B: 100, A: 255}
	colorRegion     = color.RGBA{R: 60, G: 160, B: 200, A: 255}
	colorOpenPoint  = color.RGBA{R: 120, G: 220, B: 255, A: 255}
	colorCone       = color.RGBA{R: 90, G: 80, B: 20, A: 90}
	colorConeSeen   = color.RGBA{R: 110, G: 20, B: 20, A: 110}
	colorGizmo      = color.RGBA{R: 200, G: 200, B: 200, A: 160}
	colorMemory     = color.RGBA{R: 255, G: 80, B: 200, A: 255}
)

// stateColor is the fill of an agent body.
func stateColor(s fsm.State) color.RGBA {
	switch s {
	case fsm.Follow:
		return color.RGBA{R: 255, G: 50, B: 50, A: 255}
	case fsm.WalkAway:
		return color.RGBA{R: 255, G: 170, B: 40, A: 255}
	default:
		return color.RGBA{R: 80, G: 220, B: 120, A: 255}
	}
}

type Game struct {
	ctx        context.Context
	logger     golog.Logger
	configPath string
	cfg        *simulation.Config

	System     actor.ActorSystem
	simPID     *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot
	watcher    *ConfigWatcher

	proj  Projection
	white *ebiten.Image

	// UI Controls
	panel *ui.UIPanel

	widgetSwitchPoints *ui.Button
	widgetShowCones    *ui.Checkbox
	widgetShowGizmos   *ui.Checkbox
	widgetShowLabels   *ui.Checkbox
	widgetPause        *ui.Checkbox
	widgetTimeScale    *ui.Slider

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame starts the simulation described by cfg. When configPath is not
// empty the file is watched and the scene is rebuilt whenever it changes.
func NewGame(ctx context.Context, cfg *simulation.Config, configPath string, logger golog.Logger) (*Game, error) {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	g := &Game{
		ctx:        ctx,
		logger:     logger,
		configPath: configPath,
		snapshotCh: make(chan *simulation.Snapshot, 10), // Buffer to avoid blocking
	}
	if err := g.start(cfg); err != nil {
		return nil, err
	}

	g.white = ebiten.NewImage(3, 3)
	g.white.Fill(color.White)

	g.panel = ui.NewUIPanel("FSM Agents", 10, 10, panelWidth-20, ScreenHeight-20)
	g.panel.AddSection("Switch Points")
	g.widgetSwitchPoints = g.panel.AddButton(switchpoint.LabelFor(g.lastState.SwitchPoints), g.toggleSwitchPoints)
	g.panel.EndSection()

	g.panel.AddSection("Visualization")
	g.widgetShowCones = g.panel.AddCheckbox("Show Vision Cones", true)
	g.widgetShowGizmos = g.panel.AddCheckbox("Show Steering Gizmos", false)
	g.widgetShowLabels = g.panel.AddCheckbox("Show State Labels", true)
	g.panel.EndSection()

	g.panel.AddSection("Time")
	g.widgetPause = g.panel.AddCheckbox("Pause", false)
	g.widgetPause.OnChange = g.onPause
	g.widgetTimeScale = g.panel.AddSlider("Time Scale", 0.1, 4, 1)
	g.panel.EndSection()

	if configPath != "" {
		w, err := WatchConfig(configPath)
		if err != nil {
			logger.Warnf("hot reload disabled, cannot watch %s: %v", configPath, err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) start(cfg *simulation.Config) error {
	world, err := simulation.NewWorld(cfg, g.logger)
	if err != nil {
		return err
	}
	// Taken before the actor owns the world.
	initial := world.Snapshot()

	system, pid, err := simulation.Start(g.ctx, world, g.logger, g.snapshotCh)
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.System = system
	g.simPID = pid
	g.lastState = initial
	g.proj = NewProjection(cfg.WorldWidth, cfg.WorldDepth, panelWidth, 10, ScreenWidth-panelWidth-10, ScreenHeight-20)
	return nil
}

// Close stops the watcher and the actor system.
func (g *Game) Close() error {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	return g.System.Stop(g.ctx)
}

func (g *Game) toggleSwitchPoints() {
	reply, err := actor.Ask(g.ctx, g.simPID, simulation.Command(simulation.CommandToggleSwitchPoints), time.Second)
	if err != nil {
		g.logger.Warnf("failed to toggle switch points: %v", err)
		return
	}
	if enabled, ok := reply.(*wrapperspb.BoolValue); ok {
		g.widgetSwitchPoints.Label = switchpoint.LabelFor(enabled.GetValue())
	}
}

func (g *Game) onPause(paused bool) {
	if paused {
		g.logger.Infof("Simulation paused at tick %d", g.lastState.Tick)
		return
	}
	g.logger.Infof("Simulation resumed at tick %d", g.lastState.Tick)
}

// cursorLabel reads out the ground position under the mouse, empty outside the world.
func (g *Game) cursorLabel(mx, my int) string {
	p := g.proj.ToWorld(float64(mx), float64(my))
	if p.X < 0 || p.X > g.lastState.WorldWidth || p.Z < 0 || p.Z > g.lastState.WorldDepth {
		return ""
	}
	return fmt.Sprintf("Cursor: %.1f, %.1f", p.X, p.Z)
}

func (g *Game) reload() {
	cfg, err := simulation.LoadConfig(g.configPath)
	if err != nil {
		g.logger.Warnf("config reload failed, keeping the running scene: %v", err)
		return
	}
	old := g.System
	if err := g.start(cfg); err != nil {
		g.logger.Warnf("config reload failed, keeping the running scene: %v", err)
		return
	}
	if err := old.Stop(g.ctx); err != nil {
		g.logger.Warnf("failed to stop previous simulation: %v", err)
	}
	// drop frames of the previous scene
	for len(g.snapshotCh) > 0 {
		<-g.snapshotCh
	}
	g.widgetSwitchPoints.Label = switchpoint.LabelFor(g.lastState.SwitchPoints)
	g.logger.Infof("Reloaded %s: %d agents", g.configPath, len(cfg.Agents))
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	// 1. Update UI Panel
	g.panel.Update()

	// 2. Hot reload
	if g.watcher != nil {
		select {
		case <-g.watcher.Events:
			g.reload()
		case err := <-g.watcher.Errors:
			g.logger.Warnf("config watcher: %v", err)
		default:
		}
	}

	// 3. Retrieve Latest State (Non-blocking)
Drain:
	for {
		select {
		case snap := <-g.snapshotCh:
			g.lastState = snap
		default:
			break Drain
		}
	}
	g.widgetSwitchPoints.Label = switchpoint.LabelFor(g.lastState.SwitchPoints)

	// 4. Trigger Simulation Step
	if !g.widgetPause.Value {
		dt := time.Duration(float64(time.Second) / float64(ebiten.TPS()) * g.widgetTimeScale.Value)
		if err := actor.Tell(g.ctx, g.simPID, simulation.TickMessage(dt)); err != nil {
			g.logger.Warnf("failed to send tick: %v", err)
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	screen.Fill(colorBackground)
	s := g.lastState

	// 1. Scene
	x0, y0 := g.proj.ToScreen(geometry.NewVector3(0, 0, s.WorldDepth))
	vector.StrokeRect(screen, x0, y0, g.proj.Length(s.WorldWidth), g.proj.Length(s.WorldDepth), 1, colorBounds, true)
	for _, r := range s.Regions {
		g.drawRegion(screen, r)
	}
	for _, o := range s.Obstacles {
		g.drawObstacle(screen, o)
	}

	// 2. Agents
	if g.widgetShowCones.Value {
		for _, a := range s.Agents {
			clr := colorCone
			if a.Seen {
				clr = colorConeSeen
			}
			if vertices, indices := coneMesh(a, g.proj, clr); len(indices) > 0 {
				screen.DrawTriangles(vertices, indices, g.white, &ebiten.DrawTrianglesOptions{})
			}
		}
	}
	for _, a := range s.Agents {
		if g.widgetShowGizmos.Value {
			g.drawGizmos(screen, a)
		}
		g.drawAgent(screen, a)
	}

	// 3. UI Panel
	g.panel.Draw(screen)

	// Display timing breakdown for performance analysis
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nTick: %d (%.1fs)\n%s\n\nUpdate: %.2fms\nDraw:   %.2fms\n\n%s",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		s.Tick, s.Elapsed,
		switchpoint.LabelFor(s.SwitchPoints),
		g.updateAvg,
		g.drawAvg,
		g.cursorLabel(ebiten.CursorPosition()))
	ebitenutil.DebugPrintAt(screen, msg, ScreenWidth-170, 10)
}

func (g *Game) drawRegion(screen *ebiten.Image, r simulation.RegionConfig) {
	n := len(r.Footprint)
	for i := 0; i < n; i++ {
		a, b := r.Footprint[i], r.Footprint[(i+1)%n]
		ax, ay := g.proj.ToScreen(geometry.NewVector3(a[0], 0, a[1]))
		bx, by := g.proj.ToScreen(geometry.NewVector3(b[0], 0, b[1]))
		vector.StrokeLine(screen, ax, ay, bx, by, 2, colorRegion, true)
	}
	if n > 0 {
		lx, ly := g.proj.ToScreen(geometry.NewVector3(r.Footprint[0][0], 0, r.Footprint[0][1]))
		ebitenutil.DebugPrintAt(screen, r.ID, int(lx)+2, int(ly)+2)
	}
	for _, p := range r.OpenPoints {
		px, py := g.proj.ToScreen(p)
		vector.StrokeCircle(screen, px, py, 5, 1.5, colorOpenPoint, true)
	}
}

func (g *Game) drawObstacle(screen *ebiten.Image, o physics.Obstacle) {
	switch o.Kind {
	case physics.KindBox:
		// top-left corner is min X, max Z
		x, y := g.proj.ToScreen(geometry.NewVector3(o.Center.X-o.Size.X/2, 0, o.Center.Z+o.Size.Z/2))
		vector.FillRect(screen, x, y, g.proj.Length(o.Size.X), g.proj.Length(o.Size.Z), colorObstacle, true)
	case physics.KindCircle:
		x, y := g.proj.ToScreen(o.Center)
		vector.FillCircle(screen, x, y, g.proj.Length(o.Radius), colorObstacle, true)
	case physics.KindWall:
		ax, ay := g.proj.ToScreen(o.From)
		bx, by := g.proj.ToScreen(o.To)
		width := max(g.proj.Length(2*o.Radius), 2)
		vector.StrokeLine(screen, ax, ay, bx, by, width, colorObstacle, true)
	}
}

func (g *Game) drawAgent(screen *ebiten.Image, a simulation.AgentSnapshot) {
	x, y := g.proj.ToScreen(a.Position)
	radius := max(g.proj.Length(0.5), 4)
	vector.FillCircle(screen, x, y, radius, stateColor(a.State), true)

	tx, ty := g.proj.ToScreen(a.Position.Add(a.Forward.Mul(float64(radius*2) / g.proj.Scale)))
	vector.StrokeLine(screen, x, y, tx, ty, 2, color.White, true)

	if g.widgetShowLabels.Value {
		label := a.ID + "\n" + a.State.String()
		if a.Seen {
			label += " (!)"
		}
		ebitenutil.DebugPrintAt(screen, label, int(x+radius+2), int(y-radius))
	}
}

// drawGizmos shows the wander sphere and its pick, the path to the current
// destination and the last place the rival was seen.
func (g *Game) drawGizmos(screen *ebiten.Image, a simulation.AgentSnapshot) {
	x, y := g.proj.ToScreen(a.Position)

	if a.Wander != nil && a.State == fsm.Wander {
		cx, cy := g.proj.ToScreen(a.Wander.Center)
		vector.StrokeCircle(screen, cx, cy, g.proj.Length(a.Params.Wander.Radius), 1, colorGizmo, true)
		dx, dy := g.proj.ToScreen(a.Wander.Destination)
		vector.FillCircle(screen, dx, dy, 3, colorGizmo, true)
	}

	if a.Remaining > 0 && !math.IsInf(a.Remaining, 0) {
		dx, dy := g.proj.ToScreen(a.Destination)
		vector.StrokeLine(screen, x, y, dx, dy, 1, colorGizmo, true)
	}

	if a.Memory.Known {
		mx, my := g.proj.ToScreen(a.Memory.Position)
		vector.StrokeLine(screen, mx-5, my-5, mx+5, my+5, 2, colorMemory, true)
		vector.StrokeLine(screen, mx-5, my+5, mx+5, my-5, 2, colorMemory, true)
	}
}

func (g *Game) Layout(w, h int) (int, int) { return ScreenWidth, ScreenHeight }
