package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

const jsonScenario = `{
  "seed": 7,
  "logLevel": "debug",
  "worldWidth": 50,
  "worldDepth": 20,
  "agentDefaults": {"perceptionRadius": 6, "perceptionAngle": 45},
  "agents": [
    {"id": "hunter", "position": {"x": 5, "z": 5}, "yaw": 90},
    {"id": "prey", "position": {"x": 20, "z": 5}, "overrides": {"speed": 1.5}}
  ],
  "obstacles": [
    {"id": "crate", "kind": "box", "center": {"x": 12, "z": 5}, "size": {"x": 1, "z": 2}}
  ],
  "regions": [
    {"id": "gate", "footprint": [[0, 0], [4, 0], [4, 4]], "openPoints": [{"x": 10, "z": 10}]}
  ]
}`

const yamlScenario = `
seed: 7
logLevel: debug
worldWidth: 50
worldDepth: 20
agentDefaults:
  perceptionRadius: 6
  perceptionAngle: 45
agents:
  - id: hunter
    position: {x: 5, z: 5}
    yaw: 90
  - id: prey
    position: {x: 20, z: 5}
    overrides:
      speed: 1.5
obstacles:
  - id: crate
    kind: box
    center: {x: 12, z: 5}
    size: {x: 1, z: 2}
regions:
  - id: gate
    footprint: [[0, 0], [4, 0], [4, 4]]
    openPoints:
      - {x: 10, z: 10}
`

func TestLoadConfig(t *testing.T) {
	for name, content := range map[string]string{"scenario.json": jsonScenario, "scenario.yaml": yamlScenario} {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, name, content))
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if cfg.Seed != 7 || cfg.WorldWidth != 50 || cfg.WorldDepth != 20 {
				t.Errorf("unexpected header %+v", cfg)
			}
			// Missing fields keep their defaults.
			if cfg.TickRate != 60 || !cfg.SwitchPointsEnabled {
				t.Errorf("defaults lost: tickRate %d, switch points %v", cfg.TickRate, cfg.SwitchPointsEnabled)
			}
			if cfg.AgentDefaults.PerceptionRadius != 6 || cfg.AgentDefaults.MinFollowDistance != 2 {
				t.Errorf("agent defaults = %+v", cfg.AgentDefaults)
			}
			if len(cfg.Agents) != 2 || cfg.Agents[0].Yaw == nil || *cfg.Agents[0].Yaw != 90 || cfg.Agents[1].Yaw != nil {
				t.Fatalf("agents = %+v", cfg.Agents)
			}
			prey, err := cfg.ParamsFor(cfg.Agents[1])
			if err != nil {
				t.Fatalf("ParamsFor failed: %v", err)
			}
			if prey.Speed != 1.5 || prey.PerceptionAngle != 45 {
				t.Errorf("prey params = %+v", prey)
			}
			if len(cfg.Obstacles) != 1 || cfg.Obstacles[0].Kind != physics.KindBox {
				t.Errorf("obstacles = %+v", cfg.Obstacles)
			}
			if len(cfg.Regions) != 1 || len(cfg.Regions[0].Footprint) != 3 {
				t.Errorf("regions = %+v", cfg.Regions)
			}
			if _, err := NewWorld(cfg, nil); err != nil {
				t.Errorf("NewWorld failed on a loaded config: %v", err)
			}
		})
	}
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"angle out of range": `{"agentDefaults": {"perceptionAngle": 400}}`,
		"unknown property":   `{"gravity": 9.81}`,
		"bad obstacle kind":  `{"obstacles": [{"id": "x", "kind": "cone"}]}`,
		"agent without id":   `{"agents": [{"position": {"x": 1}}]}`,
		"negative width":     `{"worldWidth": -1}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "bad.json", content))
			if err == nil || !strings.Contains(err.Error(), "config validation failed") {
				t.Errorf("expected a schema error, got %v", err)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadConfig(writeFile(t, "broken.json", `{"seed": `)); err == nil {
		t.Error("broken json should fail")
	}
	if _, err := LoadConfig(writeFile(t, "broken.yaml", "agents: [\n")); err == nil {
		t.Error("broken yaml should fail")
	}

	dup := `{"agents": [{"id": "a", "position": {}}, {"id": "a", "position": {}}]}`
	if _, err := LoadConfig(writeFile(t, "dup.json", dup)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("duplicate ids: expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Regions = []RegionConfig{{ID: "line", Footprint: [][2]float64{{0, 0}, {1, 1}}}}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("two point footprint: expected ErrInvalidConfig, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Agents[0].Overrides = []byte(`{"speed": -2}`)
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative speed override: expected ErrInvalidConfig, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown log level: expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]golog.Level{
		"debug":   golog.DebugLevel,
		"":        golog.InfoLevel,
		"INFO":    golog.InfoLevel,
		"warn":    golog.WarningLevel,
		"warning": golog.WarningLevel,
		"error":   golog.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestLoadConfig_SampleScenario(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "scenario.yaml"))
	if err != nil {
		t.Fatalf("sample scenario does not load: %v", err)
	}
	w, err := NewWorld(cfg, nil)
	if err != nil {
		t.Fatalf("sample scenario does not build: %v", err)
	}
	if len(w.Agents()) != 4 || w.Obstacles().Len() != 3 || len(w.Regions()) != 1 {
		t.Errorf("sample scene has %d agents, %d obstacles, %d regions", len(w.Agents()), w.Obstacles().Len(), len(w.Regions()))
	}
	for i := 0; i < 120; i++ {
		w.Tick(1.0 / float64(cfg.TickRate))
	}
	for _, a := range w.Agents() {
		p := a.Body.Position()
		if p.X < 0 || p.X > cfg.WorldWidth || p.Z < 0 || p.Z > cfg.WorldDepth {
			t.Errorf("%s left the world: %v", a.ID, p)
		}
	}
}
