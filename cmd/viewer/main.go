package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/simulation"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/viewer"
)

func main() {
	configPath := flag.String("config", "configs/scenario.yaml", "scenario file, reloaded when it changes (empty: built-in scene)")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatalf("💥 %v", err)
		}
	}
	level, _ := simulation.ParseLogLevel(cfg.LogLevel)
	logger := golog.New(level, os.Stdout)

	ctx := context.Background()
	ebiten.SetWindowSize(viewer.ScreenWidth, viewer.ScreenHeight)
	ebiten.SetWindowTitle("FSM Agents: Wander, Follow, Walk away")
	ebiten.SetTPS(cfg.TickRate)

	game, err := viewer.NewGame(ctx, cfg, *configPath, logger)
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	defer game.Close()
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
