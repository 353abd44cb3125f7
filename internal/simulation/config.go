package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	golog "github.com/tochemey/goakt/v3/log"
	"gopkg.in/yaml.v3"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/fsm"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

//go:embed schema/config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

// ErrInvalidConfig wraps every semantic validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Seed     uint64 `json:"seed"`
	LogLevel string `json:"logLevel"`
	TickRate int    `json:"tickRate"` // ticks per second

	// World Dimensions (ground plane X by Z)
	WorldWidth float64 `json:"worldWidth"`
	WorldDepth float64 `json:"worldDepth"`

	// Initial value of the process-wide switch-point mode
	SwitchPointsEnabled bool `json:"switchPointsEnabled"`

	AgentDefaults AgentParams        `json:"agentDefaults"`
	Agents        []AgentConfig      `json:"agents"`
	Obstacles     []physics.Obstacle `json:"obstacles"`
	Regions       []RegionConfig     `json:"regions"`
}

// AgentParams are the fixed per-agent settings.
type AgentParams struct {
	Speed float64 `json:"speed"`

	// Wander
	WanderRadius        float64 `json:"wanderRadius"`
	WanderDistance      float64 `json:"wanderDistance"`
	SwitchPointMaxAngle float64 `json:"switchPointMaxAngle"`

	// Perception
	PerceptionRadius float64          `json:"perceptionRadius"`
	PerceptionAngle  float64          `json:"perceptionAngle"`
	AgentMask        perception.Layer `json:"agentMask"`
	ObstacleMask     perception.Layer `json:"obstacleMask"`
	RaysPerDegree    float64          `json:"raysPerDegree"`

	// Follow and Walk Away
	MinFollowDistance   float64 `json:"minFollowDistance"`
	MaxWalkAwayDistance float64 `json:"maxWalkAwayDistance"`
	LastLocationReached float64 `json:"lastLocationReached"`
}

// AgentConfig places one agent. Yaw nil means a random quarter turn.
// Overrides is a partial AgentParams object applied on top of the defaults.
type AgentConfig struct {
	ID        string           `json:"id"`
	Position  geometry.Vector3 `json:"position"`
	Yaw       *float64         `json:"yaw,omitempty"`
	Layer     perception.Layer `json:"layer,omitempty"`
	Overrides json.RawMessage  `json:"overrides,omitempty"`
}

// RegionConfig is a switch region: a ground footprint (x, z pairs) and its
// ordered open points.
type RegionConfig struct {
	ID         string             `json:"id"`
	Footprint  [][2]float64       `json:"footprint"`
	OpenPoints []geometry.Vector3 `json:"openPoints"`
}

func DefaultAgentParams() AgentParams {
	return AgentParams{
		Speed:               3.5,
		WanderRadius:        1,
		WanderDistance:      5,
		SwitchPointMaxAngle: 120,
		PerceptionRadius:    5,
		PerceptionAngle:     30,
		AgentMask:           perception.LayerAgent,
		ObstacleMask:        perception.LayerObstacle,
		RaysPerDegree:       1,
		MinFollowDistance:   2,
		MaxWalkAwayDistance: 8,
		LastLocationReached: 0.5,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Seed:                1,
		LogLevel:            "info",
		TickRate:            60,
		WorldWidth:          40,
		WorldDepth:          30,
		SwitchPointsEnabled: true,
		AgentDefaults:       DefaultAgentParams(),
		Agents: []AgentConfig{
			{ID: "agent-1", Position: geometry.NewVector3(10, 0, 10)},
			{ID: "agent-2", Position: geometry.NewVector3(30, 0, 20)},
		},
	}
}

// Params converts to the controller settings.
func (p AgentParams) Params() fsm.Params {
	return fsm.Params{
		Wander: behavior.WanderParams{Radius: p.WanderRadius, Distance: p.WanderDistance},
		Perception: perception.Params{
			Radius:        p.PerceptionRadius,
			FieldOfView:   p.PerceptionAngle,
			AgentMask:     p.AgentMask,
			ObstacleMask:  p.ObstacleMask,
			RaysPerDegree: p.RaysPerDegree,
		},
		SwitchPointMaxAngle: p.SwitchPointMaxAngle,
		MinFollowDistance:   p.MinFollowDistance,
		MaxWalkAwayDistance: p.MaxWalkAwayDistance,
		LastLocationReached: p.LastLocationReached,
	}
}

// ParamsFor returns the defaults with the agent's overrides applied.
func (c *Config) ParamsFor(a AgentConfig) (AgentParams, error) {
	p := c.AgentDefaults
	if len(a.Overrides) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(a.Overrides, &p); err != nil {
		return p, fmt.Errorf("agent %q overrides: %w", a.ID, err)
	}
	return p, nil
}

// Validate checks what the schema cannot express.
func (c *Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldDepth <= 0 {
		return fmt.Errorf("%w: world size must be positive, got %vx%v", ErrInvalidConfig, c.WorldWidth, c.WorldDepth)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tickRate must be positive, got %d", ErrInvalidConfig, c.TickRate)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("%w: agent without id", ErrInvalidConfig)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate agent id %q", ErrInvalidConfig, a.ID)
		}
		seen[a.ID] = true
		p, err := c.ParamsFor(a)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if p.Speed < 0 || p.PerceptionRadius < 0 || p.PerceptionAngle < 0 || p.PerceptionAngle > 360 || p.RaysPerDegree < 0 {
			return fmt.Errorf("%w: agent %q has out of range parameters", ErrInvalidConfig, a.ID)
		}
	}
	regions := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if regions[r.ID] {
			return fmt.Errorf("%w: duplicate region id %q", ErrInvalidConfig, r.ID)
		}
		regions[r.ID] = true
		if len(r.Footprint) < 3 {
			return fmt.Errorf("%w: region %q footprint needs at least 3 points", ErrInvalidConfig, r.ID)
		}
	}
	return nil
}

// ParseLogLevel maps the config level name to a goakt log level.
func ParseLogLevel(level string) (golog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return golog.DebugLevel, nil
	case "", "info":
		return golog.InfoLevel, nil
	case "warn", "warning":
		return golog.WarningLevel, nil
	case "error":
		return golog.ErrorLevel, nil
	default:
		return golog.InfoLevel, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, level)
	}
}

// LoadConfig loads configuration from a JSON or YAML file and validates it
// against the embedded schema. Fields missing from the file keep their
// DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if b, err = yamlToJSON(b); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	// Agents are decoded into a fresh slice so default entries do not leak
	// fields into the file's agents.
	cfg := DefaultConfig()
	defaultAgents := cfg.Agents
	cfg.Agents = nil
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Agents == nil {
		cfg.Agents = defaultAgents
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func yamlToJSON(b []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = map[string]interface{}{}
	}
	return json.Marshal(v)
}
