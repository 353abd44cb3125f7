// Command agentsim runs a scenario headless for a fixed number of ticks and
// prints the final snapshot as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/simulation"
)

func main() {
	configPath := flag.String("config", "", "scenario file (.json, .yaml or .yml), built-in scene when empty")
	ticks := flag.Int("ticks", 600, "number of ticks to simulate")
	toggleAt := flag.Int("toggle-at", 0, "toggle switch points after this many ticks (0: never)")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatalf("💥 %v", err)
		}
	}
	level, _ := simulation.ParseLogLevel(cfg.LogLevel)
	// stdout carries the snapshot
	logger := golog.New(level, os.Stderr)

	ctx := context.Background()
	world, err := simulation.NewWorld(cfg, logger)
	if err != nil {
		logger.Fatalf("💥 failed to build world: %v", err)
	}
	system, pid, err := simulation.Start(ctx, world, logger, nil)
	if err != nil {
		logger.Fatalf("💥 %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	dt := time.Second / time.Duration(cfg.TickRate)
	for i := 1; i <= *ticks; i++ {
		if err := actor.Tell(ctx, pid, simulation.TickMessage(dt)); err != nil {
			logger.Fatalf("💥 tick %d: %v", i, err)
		}
		if i == *toggleAt {
			reply, err := actor.Ask(ctx, pid, simulation.Command(simulation.CommandToggleSwitchPoints), 5*time.Second)
			if err != nil {
				logger.Fatalf("💥 failed to toggle switch points: %v", err)
			}
			if enabled, ok := reply.(*wrapperspb.BoolValue); ok {
				logger.Infof("tick %d: switch points toggled, enabled=%v", i, enabled.GetValue())
			}
		}
	}

	reply, err := actor.Ask(ctx, pid, simulation.Command(simulation.CommandSnapshot), 30*time.Second)
	if err != nil {
		logger.Fatalf("💥 failed to read snapshot: %v", err)
	}
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(reply)
	if err != nil {
		logger.Fatalf("💥 failed to encode snapshot: %v", err)
	}
	fmt.Println(string(out))
}
