package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Commands understood by the SimulationActor, carried in a StringValue.
const (
	CommandToggleSwitchPoints = "switch-points/toggle"
	CommandSwitchPointsState  = "switch-points/state"
	CommandSnapshot           = "snapshot"
)

// ActorName is the name the simulation actor is spawned under.
const ActorName = "Simulation"

// SimulationActor is the single owner of the World. Its mailbox serialises
// ticks, mode toggles and snapshot requests, so a toggle always lands between
// two ticks.
//
// Messages:
//   - *durationpb.Duration: advance the world by that much simulated time
//   - *wrapperspb.StringValue: one of the Command constants
type SimulationActor struct {
	world      *World
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

var _ actor.Actor = (*SimulationActor)(nil)

// NewSimulationActor wraps world. When snapshotCh is not nil a snapshot is
// pushed after every tick; a busy receiver skips frames.
func NewSimulationActor(world *World, snapshotCh chan<- *Snapshot) *SimulationActor {
	return &SimulationActor{
		world:       world,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (s *SimulationActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Simulation is starting with %d agents...", len(s.world.Agents()))
	return nil
}

func (s *SimulationActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("%s started, switch points %s", ctx.Self().Name(), s.world.Mode())

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		dt := msg.AsDuration().Seconds()
		if dt <= 0 {
			ctx.Logger().Debugf("ignoring non-positive tick %v", msg.AsDuration())
			return
		}
		s.world.Tick(dt)
		s.tickCount++
		s.logBenchmarks(ctx)
		s.pushSnapshot()

	case *wrapperspb.StringValue:
		switch msg.GetValue() {
		case CommandToggleSwitchPoints:
			ctx.Response(wrapperspb.Bool(s.world.ToggleSwitchPoints()))
		case CommandSwitchPointsState:
			ctx.Response(wrapperspb.Bool(s.world.Mode().Enabled()))
		case CommandSnapshot:
			snapshot, err := s.world.Snapshot().ToProto()
			if err != nil {
				ctx.Err(fmt.Errorf("failed to build snapshot: %w", err))
				return
			}
			ctx.Response(snapshot)
		default:
			ctx.Unhandled()
		}

	default:
		ctx.Unhandled()
	}
}

func (s *SimulationActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(s.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Agents: %d | Tick: %d",
			s.tickCount, len(s.world.Agents()), s.world.Ticks())
		s.tickCount = 0
		s.lastLogTime = time.Now()
	}
}

func (s *SimulationActor) pushSnapshot() {
	if s.snapshotCh == nil {
		return
	}
	select {
	case s.snapshotCh <- s.world.Snapshot():
	default:
		// UI busy, skip frame
	}
}

func (s *SimulationActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("Simulation is shutdown...")
	return nil
}

// Start creates and starts the "AgentWorld" actor system, then
// spawns the simulation actor on world.
func Start(ctx context.Context, world *World, logger golog.Logger, snapshotCh chan<- *Snapshot) (actor.ActorSystem, *actor.PID, error) {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	system, err := actor.NewActorSystem("AgentWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	pid, err := system.Spawn(ctx, ActorName, NewSimulationActor(world, snapshotCh))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, nil, fmt.Errorf("failed to spawn simulation: %w", err)
	}
	return system, pid, nil
}

// TickMessage wraps dt for the actor mailbox.
func TickMessage(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// Command wraps a Command constant for the actor mailbox.
func Command(name string) *wrapperspb.StringValue {
	return wrapperspb.String(name)
}
