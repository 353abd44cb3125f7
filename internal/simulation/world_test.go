package simulation

import (
	"fmt"
	"testing"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/fsm"
	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/physics"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

func yaw(deg float64) *float64 { return &deg }

// testConfig returns a 100x100 world with a perception radius of 10 (cell size 10).
func testConfig(agents ...AgentConfig) *Config {
	cfg := DefaultConfig()
	cfg.WorldWidth = 100
	cfg.WorldDepth = 100
	cfg.AgentDefaults.PerceptionRadius = 10
	cfg.Agents = agents
	return cfg
}

func agentAt(id string, x, z float64, heading float64) AgentConfig {
	return AgentConfig{ID: id, Position: geometry.NewVector3(x, 0, z), Yaw: yaw(heading)}
}

func newTestWorld(t *testing.T, cfg *Config) *World {
	t.Helper()
	w, err := NewWorld(cfg, nil)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	return w
}

func TestWorld_rebuildGrid(t *testing.T) {
	w := newTestWorld(t, testConfig(
		agentAt("a1", 5, 5, 0),   // Grid 0,0
		agentAt("a2", 15, 5, 0),  // Grid 1,0
		agentAt("a3", 5, 15, 0),  // Grid 0,1
		agentAt("a4", 25, 25, 0), // Grid 2,2
	))

	w.rebuildGrid()

	contains := func(list []*Agent, id string) bool {
		for _, a := range list {
			if a.ID == id {
				return true
			}
		}
		return false
	}

	cases := map[gridKey]string{
		{x: 0, z: 0}: "a1",
		{x: 1, z: 0}: "a2",
		{x: 0, z: 1}: "a3",
		{x: 2, z: 2}: "a4",
	}
	for key, id := range cases {
		if list, ok := w.grid[key]; !ok || !contains(list, id) {
			t.Errorf("Expected %s in grid %d,%d, got %v", id, key.x, key.z, list)
		}
	}

	// Ensure no cross-contamination
	if contains(w.grid[gridKey{x: 0, z: 0}], "a2") {
		t.Errorf("Did not expect a2 in grid 0,0")
	}
}

func TestWorld_getNearbyAgents(t *testing.T) {
	w := newTestWorld(t, testConfig(
		agentAt("center", 15, 15, 0), // 1,1
		agentAt("neighbor", 5, 5, 0), // 0,0
		agentAt("far", 35, 35, 0),    // 3,3
	))
	w.rebuildGrid()

	result := w.getNearbyAgents(15, 15)

	found := map[string]bool{}
	for _, a := range result {
		found[a.ID] = true
	}
	if !found["center"] {
		t.Error("Expected to find center agent")
	}
	if !found["neighbor"] {
		t.Error("Expected to find neighbor agent (in 0,0)")
	}
	if found["far"] {
		t.Error("Should NOT find far agent (in 3,3)")
	}
}

func TestWorld_candidatesForOrder(t *testing.T) {
	w := newTestWorld(t, testConfig(
		agentAt("self", 15, 15, 0), // 1,1
		agentAt("c", 25, 5, 0),     // 2,0
		agentAt("d", 16, 16, 0),    // 1,1
		agentAt("b", 5, 25, 0),     // 0,2
	))
	w.rebuildGrid()
	self, _ := w.Agent("self")

	got := w.candidatesFor(self)
	want := []string{"b", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("candidate %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestWorld_RandomQuarterTurn(t *testing.T) {
	cfg := testConfig(AgentConfig{ID: "a", Position: geometry.NewVector3(50, 0, 50)})
	first := newTestWorld(t, cfg)
	second := newTestWorld(t, cfg)

	a1, _ := first.Agent("a")
	a2, _ := second.Agent("a")
	fwd := a1.Body.Forward()
	if !fwd.Eq(a2.Body.Forward()) {
		t.Errorf("same seed gave %v and %v", fwd, a2.Body.Forward())
	}
	cardinal := []geometry.Vector3{geometry.FromYaw(0), geometry.FromYaw(90), geometry.FromYaw(180), geometry.FromYaw(270)}
	ok := false
	for _, c := range cardinal {
		if fwd.Eq(c) {
			ok = true
		}
	}
	if !ok {
		t.Errorf("forward %v is not a quarter turn", fwd)
	}
}

func TestWorld_TickPerception(t *testing.T) {
	w := newTestWorld(t, testConfig(
		agentAt("a", 10, 10, 0),
		agentAt("b", 10, 13, 180),
	))
	w.Tick(0.1)

	a, _ := w.Agent("a")
	b, _ := w.Agent("b")
	if a.Brain.State() != fsm.Follow || b.Brain.State() != fsm.Follow {
		t.Fatalf("states = %s/%s, want Follow/Follow", a.Brain.State(), b.Brain.State())
	}
	if mem := a.Brain.Memory(); mem.RivalID != "b" || !mem.Position.Eq(geometry.NewVector3(10, 0, 13)) {
		t.Errorf("a remembers %+v", mem)
	}
	if w.Ticks() != 1 {
		t.Errorf("Ticks() = %d, want 1", w.Ticks())
	}
}

func TestWorld_TickOcclusion(t *testing.T) {
	cfg := testConfig(
		agentAt("a", 10, 10, 0),
		agentAt("b", 10, 13, 180),
	)
	cfg.Obstacles = []physics.Obstacle{
		{ID: "crate", Kind: physics.KindBox, Center: geometry.NewVector3(10, 0, 11.5), Size: geometry.NewVector3(4, 0, 1)},
	}
	w := newTestWorld(t, cfg)
	w.Tick(0.1)

	for _, a := range w.Agents() {
		if a.Brain.State() != fsm.Wander || a.Brain.Seen() {
			t.Errorf("%s: state %s seen %v, the crate should hide the rival", a.ID, a.Brain.State(), a.Brain.Seen())
		}
	}
}

func regionConfig() RegionConfig {
	return RegionConfig{
		ID:         "plaza",
		Footprint:  [][2]float64{{5, 5}, {15, 5}, {15, 15}, {5, 15}},
		OpenPoints: []geometry.Vector3{geometry.NewVector3(10, 0, 25)},
	}
}

func TestWorld_RegionEvents(t *testing.T) {
	cfg := testConfig(agentAt("a", 10, 10, 0))
	cfg.Regions = []RegionConfig{regionConfig()}
	w := newTestWorld(t, cfg)
	a, _ := w.Agent("a")

	w.Tick(0.1)
	if !a.Brain.Inside() {
		t.Fatal("agent should be redirected by the plaza")
	}
	if !a.Body.Destination().Eq(geometry.NewVector3(10, 0, 25)) {
		t.Errorf("destination = %v, want the open point", a.Body.Destination())
	}

	exited := false
	for i := 0; i < 30 && !exited; i++ {
		w.Tick(0.1)
		exited = !a.Brain.Inside()
	}
	if !exited {
		t.Fatalf("agent never left the plaza, at %v", a.Body.Position())
	}
	if a.Body.Position().Z < 15 {
		t.Errorf("exit reported at %v, still inside the footprint", a.Body.Position())
	}
}

func TestWorld_RegionEventsDisabled(t *testing.T) {
	cfg := testConfig(agentAt("a", 10, 10, 0))
	cfg.Regions = []RegionConfig{regionConfig()}
	cfg.SwitchPointsEnabled = false
	w := newTestWorld(t, cfg)
	a, _ := w.Agent("a")

	w.Tick(0.1)
	if a.Brain.Inside() {
		t.Error("disabled switch points should not redirect")
	}

	if !w.ToggleSwitchPoints() {
		t.Fatal("toggle should enable switch points")
	}
	// Still inside the footprint: no new entry event until the agent leaves.
	w.Tick(0.1)
	if a.Brain.Inside() {
		t.Error("enabling the mode should not replay the entry event")
	}
}

func TestWorld_Snapshot(t *testing.T) {
	w := newTestWorld(t, testConfig(
		agentAt("a", 10, 10, 0),
		agentAt("b", 10, 13, 180),
	))
	w.Tick(0.1)

	s := w.Snapshot()
	if s.Tick != 1 || len(s.Agents) != 2 || !s.SwitchPoints {
		t.Fatalf("unexpected snapshot header %+v", s)
	}
	a, ok := s.Agent("a")
	if !ok {
		t.Fatal("agent a missing from snapshot")
	}
	if a.State != fsm.Follow || !a.Seen || a.Wander == nil {
		t.Errorf("agent a snapshot = %+v", a)
	}
	// perceptionAngle 30 at 1 ray per degree
	if len(a.Cone.Casts) != 31 {
		t.Errorf("cone casts = %d, want 31", len(a.Cone.Casts))
	}

	pb, err := s.ToProto()
	if err != nil {
		t.Fatalf("ToProto failed: %v", err)
	}
	if got := pb.Fields["tick"].GetNumberValue(); got != 1 {
		t.Errorf("tick = %v, want 1", got)
	}
	agents := pb.Fields["agents"].GetListValue().GetValues()
	if len(agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(agents))
	}
	first := agents[0].GetStructValue().GetFields()
	if first["state"].GetStringValue() != "Follow" {
		t.Errorf("state = %q, want Follow", first["state"].GetStringValue())
	}
	if first["lastKnown"].GetStructValue().GetFields()["rival"].GetStringValue() != "b" {
		t.Error("lastKnown.rival should be b")
	}
}

func BenchmarkWorld_rebuildGrid(b *testing.B) {
	// Setup: 1000 agents
	agents := make([]AgentConfig, 0, 1000)
	for i := 0; i < 1000; i++ {
		agents = append(agents, agentAt(fmt.Sprintf("a-%03d", i), float64(i%100), float64(i/10), 0))
	}
	w, err := NewWorld(testConfig(agents...), nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.rebuildGrid()
	}
}

func BenchmarkWorld_Tick(b *testing.B) {
	agents := make([]AgentConfig, 0, 200)
	for i := 0; i < 200; i++ {
		agents = append(agents, agentAt(fmt.Sprintf("a-%03d", i), float64(i%20)*5, float64(i/20)*10, float64(i%4)*90))
	}
	w, err := NewWorld(testConfig(agents...), nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Tick(1.0 / 60)
	}
}
