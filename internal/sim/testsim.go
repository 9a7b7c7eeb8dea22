package sim

import "fmt"

// TestSim is a headless simulation harness used exclusively by tests. It
// wraps a World, runs it at the fixed render-loop rate and logs state
// transitions into the world's SimLog so assertions never poke at raw agent
// fields across ticks.
type TestSim struct {
	World  *World
	SimLog *SimLog

	width, height float64
	tuning        Tuning
	seed          int64
	workers       int
	verbose       bool

	prevStates map[int]ZombieState
	prevTarget map[int]int
}

// TickDt is the fixed step used by the harness and the shell.
const TickDt = 1.0 / 60.0

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra     simOptionKind = iota // map size, tuning, seed, workers
	simOptAgent                          // spawn agents, after the world exists
	simOptDirective                      // commands and directors, after agents exist
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapSize sets the playfield dimensions.
func WithMapSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.width, ts.height = w, h
	}}
}

// WithTuning replaces the default parameter set.
func WithTuning(t Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.tuning = t
	}}
}

// WithSeed sets the world seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.seed = seed
	}}
}

// WithWorkers sets the batch worker count. Tests that assert exact event
// ordering use a single worker.
func WithWorkers(n int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.workers = n
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.verbose = v
	}}
}

// WithSoldier adds one player unit.
func WithSoldier(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.World.SpawnSoldier(Vec2{X: x, Y: y})
	}}
}

// WithZombie adds one dormant zombie.
func WithZombie(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.World.SpawnZombie(Vec2{X: x, Y: y})
	}}
}

// WithCrystal places the defended crystal.
func WithCrystal(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.World.SpawnCrystal(Vec2{X: x, Y: y})
	}}
}

// WithBarricade places a destructible blocker of w × h tiles.
func WithBarricade(x, y float64, w, h int) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.World.SpawnBarricade(Vec2{X: x, Y: y}, Footprint{W: w, H: h}, 200)
	}}
}

// WithMoveCommand issues an initial move order to the player units.
func WithMoveCommand(x, y float64) SimOption {
	return SimOption{simOptDirective, func(ts *TestSim) {
		ts.World.CommandMove(Vec2{X: x, Y: y})
	}}
}

// WithWaves enables the wave director.
func WithWaves(base, perWave int, spawnEvery, restTime float64) SimOption {
	return SimOption{simOptDirective, func(ts *TestSim) {
		ts.World.EnableWaves(base, perWave, spawnEvery, restTime)
	}}
}

// NewTestSim constructs a TestSim from the given options in three ordered
// passes:
//  1. Infrastructure (map size, tuning, seed, workers)
//  2. Agents (soldiers, zombies, crystal, barricades)
//  3. Directives (move commands, wave director)
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		width:   1280,
		height:  720,
		tuning:  DefaultTuning(),
		seed:    1,
		workers: 1,
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.World = NewWorld(ts.width, ts.height, ts.tuning, ts.seed, ts.workers)
	ts.World.Log = NewSimLog(ts.verbose)
	ts.SimLog = ts.World.Log
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptDirective {
			o.fn(ts)
		}
	}
	ts.prevStates = make(map[int]ZombieState)
	ts.prevTarget = make(map[int]int)
	ts.recordBaseline()
	return ts
}

// RunTicks advances the simulation n ticks at the fixed step, logging state
// transitions to SimLog.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.World.Step(TickDt)
		ts.logChanges()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.World.Step(TickDt)
		ts.logChanges()
		if predicate(ts) {
			return ts.World.Tick()
		}
	}
	return -1
}

// Zombies returns every living zombie.
func (ts *TestSim) Zombies() []*Agent {
	var out []*Agent
	for _, a := range ts.World.agents {
		if a.Zombie != nil && a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

// Soldiers returns every living player unit.
func (ts *TestSim) Soldiers() []*Agent {
	var out []*Agent
	for _, a := range ts.World.agents {
		if a.Soldier != nil && a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

// AgentByLabel finds a live agent by its log label.
func (ts *TestSim) AgentByLabel(label string) *Agent {
	for _, a := range ts.World.agents {
		if a.Label == label {
			return a
		}
	}
	return nil
}

func (ts *TestSim) recordBaseline() {
	for _, a := range ts.World.agents {
		if a.Zombie != nil {
			ts.prevStates[a.ID] = a.Zombie.State
			ts.prevTarget[a.ID] = a.Zombie.TargetID
		}
	}
}

// logChanges diffs zombie minds against the previous tick and records every
// transition, so tests can assert on sequences rather than sampled states.
func (ts *TestSim) logChanges() {
	w := ts.World
	for _, a := range w.agents {
		if a.Zombie == nil {
			continue
		}
		m := a.Zombie
		if prev, ok := ts.prevStates[a.ID]; !ok || prev != m.State {
			w.Log.Add(w.Tick(), a.Label, "state", "transition",
				fmt.Sprintf("%s -> %s", prevStateName(ts.prevStates, a.ID), m.State), float64(m.State))
		}
		if prev, ok := ts.prevTarget[a.ID]; !ok || prev != m.TargetID {
			w.Log.Add(w.Tick(), a.Label, "state", "target",
				fmt.Sprintf("%d -> %d", prev, m.TargetID), float64(m.TargetID))
		}
		ts.prevStates[a.ID] = m.State
		ts.prevTarget[a.ID] = m.TargetID
		w.Log.AddVerbose(w.Tick(), a.Label, "move", "pos", formatVec(a.Pos), 0)
	}
}

func prevStateName(prev map[int]ZombieState, id int) string {
	if s, ok := prev[id]; ok {
		return s.String()
	}
	return "new"
}
