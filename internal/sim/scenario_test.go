package sim

import (
	"strings"
	"testing"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v`
// output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

// --- Scenario: Quiet Horde ---

func TestScenario_QuietHordeStaysDormant(t *testing.T) {
	t.Log("=== TestScenario_QuietHordeStaysDormant ===")
	t.Log("--- Setup: 12 zombies scattered, no players, no noise ---")

	opts := []SimOption{WithSeed(21)}
	for i := 0; i < 12; i++ {
		opts = append(opts, WithZombie(float64(100+i*90), float64(100+(i%4)*120)))
	}
	ts := NewTestSim(opts...)

	ts.RunTicks(1800) // 30s
	dumpLog(t, ts)

	// Nothing to hunt: no zombie should ever reach a combat state.
	for _, e := range ts.SimLog.Filter("state", "transition") {
		switch {
		case strings.Contains(e.Value, "chasing"),
			strings.Contains(e.Value, "windingUp"),
			strings.Contains(e.Value, "attacking"):
			t.Errorf("dormant zombie escalated with nothing around: %s", e.String())
		}
	}
	if got := ts.World.ThreatLevel(); got != 0 {
		t.Errorf("threat level %.2f in an empty world, want 0", got)
	}
	// They do wander, though.
	if !ts.SimLog.HasEntry("state", "transition", "idle -> wandering") {
		t.Error("no zombie ever wandered in 30 seconds")
	}
}

// --- Scenario: Last Stand ---

func TestScenario_LastStandAtTheCrystal(t *testing.T) {
	t.Log("=== TestScenario_LastStandAtTheCrystal ===")
	t.Log("--- Setup: crystal, 6 defenders, escalating waves ---")

	ts := NewTestSim(
		WithSeed(99),
		WithCrystal(640, 360),
		WithSoldier(560, 330),
		WithSoldier(560, 390),
		WithSoldier(720, 330),
		WithSoldier(720, 390),
		WithSoldier(640, 290),
		WithSoldier(640, 430),
		WithWaves(5, 3, 0.1, 1.0),
	)

	ts.RunTicks(3600) // one minute of siege
	dumpLog(t, ts)

	if got := ts.World.Wave().Number; got < 1 {
		t.Fatalf("wave number = %d after a minute, want at least 1", got)
	}
	if ts.World.Kills() == 0 {
		t.Error("defenders never killed anything across a full siege")
	}
	if !ts.SimLog.HasEntry("wave", "start", "wave 1") {
		t.Error("wave start never logged")
	}
	// Gunfire made noise.
	if len(ts.World.DrainNoiseViz()) == 0 && ts.SimLog.CountCategory("noise", "") == 0 {
		t.Error("a minute of gunfire produced no noise anywhere")
	}
	if p := ts.World.CrystalPower(); p < 0 || p > 1 {
		t.Errorf("crystal power %.2f outside [0,1]", p)
	}
}

// --- Scenario: Barricaded Choke ---

func TestScenario_BarricadeForcesDetour(t *testing.T) {
	t.Log("=== TestScenario_BarricadeForcesDetour ===")
	t.Log("--- Setup: crystal behind a wall with one gap, marcher inbound ---")

	opts := []SimOption{
		WithSeed(5),
		WithMapSize(640, 480),
		WithCrystal(520, 240),
	}
	// A vertical barricade line at x≈320 with a gap near the bottom.
	for cy := 0; cy < 30; cy++ {
		if cy >= 20 && cy <= 22 {
			continue
		}
		opts = append(opts, WithBarricade(328, float64(cy*16+8), 1, 1))
	}
	ts := NewTestSim(opts...)
	w := ts.World

	z := w.SpawnZombie(Vec2{X: 100, Y: 100})
	z.Zombie.MarchOnCrystal = true

	reached := ts.RunUntil(func(*TestSim) bool {
		return z.Pos.X > 340
	}, 60*60)
	dumpLog(t, ts)
	if reached < 0 {
		t.Fatalf("marcher never crossed the barricade line, ended at %v", z.Pos)
	}
	// The only opening is the bottom gap, so the crossing point must sit in
	// its band, well below the straight line from spawn to crystal.
	if z.Pos.Y < 280 {
		t.Errorf("marcher crossed at %v, outside the gap band (tunnelled through?)", z.Pos)
	}
}
