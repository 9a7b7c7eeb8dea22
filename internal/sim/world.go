package sim

import (
	"math/rand"
)

// agentView is the read-only per-agent snapshot taken at the start of every
// tick. Batch workers cross-read these instead of live agents, so writes to
// one agent can never be observed half-done by another worker.
type agentView struct {
	ID      int
	Pos     Vec2
	Faction Faction
	Alive   bool
}

// activeNoise is a lingering sound still rolling activation checks.
type activeNoise struct {
	NoiseEvent
	remaining float64
}

// World owns every piece of simulation state and drives the tick pipeline.
// All mutation happens inside Step; between Steps the world is quiescent and
// safe to snapshot from any goroutine that holds it exclusively.
type World struct {
	Width, Height float64

	tuning Tuning
	rng    *rand.Rand // single-threaded phases only
	runner *BatchRunner

	spatial     *SpatialIndex
	walkGrid    *WalkGrid
	obstacles   *ObstacleSet
	globalField *FlowField
	destField   *FlowField
	visibility  *VisibilityGrid

	agents  []*Agent
	byID    map[int]*Agent
	nextID  int
	labelNo map[Faction]int

	views   []agentView
	viewIdx map[int]int

	sepForces []Vec2

	damage *EventBus[DamageEvent]
	noise  *EventBus[NoiseEvent]
	noises []activeNoise

	debug    *CappedQueue[DebugEvent]
	noiseViz *CappedQueue[NoiseVizEvent]

	crystalID int
	wave      WaveState

	tick  int
	kills int // enemy deaths caused by player damage

	Log *SimLog
}

// NewWorld creates an empty world covering width × height world units. Agents
// are added afterwards through the spawn functions; the first Step builds the
// initial spatial index from whatever was spawned.
func NewWorld(width, height float64, tuning Tuning, seed int64, workers int) *World {
	walk := NewWalkGrid(width, height, tuning.CellSize)
	runner := NewBatchRunner(workers, seed)
	w := &World{
		Width:       width,
		Height:      height,
		tuning:      tuning,
		rng:         rand.New(rand.NewSource(seed)), // #nosec G404 -- simulation only
		runner:      runner,
		spatial:     NewSpatialIndex(tuning.CellSize, Vec2{}),
		walkGrid:    walk,
		obstacles:   NewObstacleSet(walk),
		globalField: NewFlowField(walk),
		destField:   NewFlowField(walk),
		visibility:  NewVisibilityGrid(walk.Cols, walk.Rows, tuning.CellSize),
		byID:        make(map[int]*Agent),
		labelNo:     make(map[Faction]int),
		viewIdx:     make(map[int]int),
		damage:      NewEventBus[DamageEvent](runner.Workers()),
		noise:       NewEventBus[NoiseEvent](runner.Workers()),
		debug:       NewCappedQueue[DebugEvent](256),
		noiseViz:    NewCappedQueue[NoiseVizEvent](128),
		crystalID:   -1,
		Log:         NewSimLog(false),
	}
	return w
}

// Tuning returns the active parameter set.
func (w *World) Tuning() Tuning { return w.tuning }

// Tick returns the number of completed Steps.
func (w *World) Tick() int { return w.tick }

// Kills returns how many enemies player damage has destroyed.
func (w *World) Kills() int { return w.kills }

// WalkGrid exposes the walkability grid for overlays.
func (w *World) WalkGrid() *WalkGrid { return w.walkGrid }

// Visibility exposes the fog-of-war grid for the renderer.
func (w *World) Visibility() *VisibilityGrid { return w.visibility }

// GlobalField exposes the crystal-bound flow field for overlays and tests.
func (w *World) GlobalField() *FlowField { return w.globalField }

// DestField exposes the move-command flow field for overlays and tests.
func (w *World) DestField() *FlowField { return w.destField }

// DrainDebug returns and clears buffered combat diagnostics.
func (w *World) DrainDebug() []DebugEvent { return w.debug.Drain() }

// DrainNoiseViz returns and clears buffered noise pings.
func (w *World) DrainNoiseViz() []NoiseVizEvent { return w.noiseViz.Drain() }

// CommandMove points every player unit at a destination by retargeting the
// shared destination field. Issuing the same destination cell twice does not
// trigger a second field generation.
func (w *World) CommandMove(dest Vec2) {
	w.destField.SetGoal(dest)
	w.Log.Add(w.tick, "--", "command", "move",
		formatVec(dest), 0)
}

// SelectAt marks the closest living player unit within pick range of p as
// the selected one, clearing any previous selection. Selection is a pure UI
// affordance; nothing in the simulation reads it.
func (w *World) SelectAt(p Vec2, pickRange float64) *Agent {
	var best *Agent
	bestD := pickRange
	for _, a := range w.agents {
		a.Selected = false
		if a.Faction != FactionPlayer || !a.Alive() {
			continue
		}
		if d := a.Pos.DistTo(p); d <= bestD {
			best = a
			bestD = d
		}
	}
	if best != nil {
		best.Selected = true
	}
	return best
}

// InjectNoise drops an artificial noise into the world, as if a weapon had
// fired at origin. Used by tests and the lure ability.
func (w *World) InjectNoise(origin Vec2, radius, life float64) {
	w.noises = append(w.noises, activeNoise{
		NoiseEvent: NoiseEvent{Origin: origin, Radius: radius, Life: life},
		remaining:  life,
	})
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) {
	// Index the world as of this tick's start, then flip so every reader in
	// the parallel phase sees the same consistent buffer.
	w.spatial.Rebuild(w.agents, w.runner)
	w.spatial.Swap()

	// Obstacle churn invalidates both flow fields before anyone steers.
	if w.obstacles.Dirty() {
		w.globalField.Invalidate()
		w.destField.Invalidate()
		w.obstacles.ClearDirty()
	}

	w.snapshotViews()

	// Parallel phase: every agent decides and moves against the snapshot.
	// Hits and weapon reports are deferred through the buses.
	w.runner.Run(len(w.agents), func(worker, start, end int) {
		for _, a := range w.agents[start:end] {
			if !a.Alive() {
				continue
			}
			switch {
			case a.Zombie != nil:
				w.stepZombie(a, worker, dt)
			case a.Soldier != nil:
				w.stepSoldier(a, worker, dt)
			}
			if a.Vel.X != 0 || a.Vel.Y != 0 {
				w.moveAgent(a, dt)
			}
		}
	})

	// Single-threaded phases, in a fixed order so runs replay exactly.
	w.drainDamage()
	w.drainNoise(dt)

	if len(w.sepForces) < len(w.agents) {
		w.sepForces = make([]Vec2, len(w.agents))
	}
	w.runner.Run(len(w.agents), func(_, start, end int) {
		w.computeSeparation(start, end)
	})
	w.runner.Run(len(w.agents), func(_, start, end int) {
		w.applySeparation(start, end, dt)
	})

	w.sweepDead()
	w.stepWave(dt)
	w.visibility.Update(w.agents, w.tuning.Visibility.Radius)
	w.tick++
}

// Dispose releases the event buses and diagnostic queues. The world must not
// Step again afterwards.
func (w *World) Dispose() {
	w.damage = nil
	w.noise = nil
	w.debug = nil
	w.noiseViz = nil
	w.noises = nil
}

// moveAgent integrates velocity and clamps to the playfield. Footprint
// agents never move, so no walkability check is needed here; separation and
// the flow fields keep mobs out of blocked cells in practice.
func (w *World) moveAgent(a *Agent, dt float64) {
	a.Pos = a.Pos.Add(a.Vel.Mul(dt))
	if a.Pos.X < 0 {
		a.Pos.X = 0
	}
	if a.Pos.Y < 0 {
		a.Pos.Y = 0
	}
	if a.Pos.X > w.Width {
		a.Pos.X = w.Width
	}
	if a.Pos.Y > w.Height {
		a.Pos.Y = w.Height
	}
}

// snapshotViews rebuilds the read-only views slice and its id lookup.
func (w *World) snapshotViews() {
	w.views = w.views[:0]
	clear(w.viewIdx)
	for _, a := range w.agents {
		w.viewIdx[a.ID] = len(w.views)
		w.views = append(w.views, agentView{
			ID:      a.ID,
			Pos:     a.Pos,
			Faction: a.Faction,
			Alive:   a.Alive(),
		})
	}
}

// viewByID looks up a snapshot entry. Safe from batch workers: the views are
// frozen for the whole parallel phase.
func (w *World) viewByID(id int) (agentView, bool) {
	i, ok := w.viewIdx[id]
	if !ok {
		return agentView{}, false
	}
	return w.views[i], true
}

// nearestFactionView returns the closest living agent of the given faction
// within radius of p, using the previous tick's spatial index.
func (w *World) nearestFactionView(p Vec2, radius float64, f Faction) (agentView, bool) {
	best := agentView{}
	bestD := radius
	found := false
	w.spatial.ForEachNear(p, radius, func(id int) {
		i, ok := w.viewIdx[id]
		if !ok {
			return
		}
		v := w.views[i]
		if v.Faction != f || !v.Alive {
			return
		}
		d := p.DistTo(v.Pos)
		if d <= bestD && (!found || d < bestD) {
			best = v
			bestD = d
			found = true
		}
	})
	return best, found
}

// drainDamage applies every buffered hit in worker-then-emission order. A
// target that died earlier in the batch absorbs nothing; the overkill is
// discarded rather than spilled onto anyone else.
func (w *World) drainDamage() {
	w.damage.Drain(func(ev DamageEvent) {
		target, ok := w.byID[ev.Target]
		if !ok || !target.Alive() {
			return
		}
		target.Health.Current -= ev.Amount
		w.debug.Push(DebugEvent{
			Tick: w.tick,
			Kind: "hit",
			Msg:  target.Label,
			X:    target.Pos.X,
			Y:    target.Pos.Y,
		})
		if target.Health.Current > 0 {
			return
		}
		target.Health.Current = 0
		target.Life = LifeDead
		if ev.FromPlayer && target.Faction == FactionEnemy {
			w.kills++
		}
		w.Log.Add(w.tick, target.Label, "death", "killed",
			attackerLabel(w, ev.Attacker), 0)
	})
}

func attackerLabel(w *World, id int) string {
	if a, ok := w.byID[id]; ok {
		return a.Label
	}
	return "--"
}

// drainNoise moves freshly emitted noises into the active list, then rolls
// every active noise against every dormant zombie in range. Rolls use the
// world's own rand stream so noise outcomes replay for a given seed
// regardless of worker count.
func (w *World) drainNoise(dt float64) {
	w.noise.Drain(func(ev NoiseEvent) {
		w.noises = append(w.noises, activeNoise{NoiseEvent: ev, remaining: ev.Life})
		w.noiseViz.Push(NoiseVizEvent{
			Tick: w.tick, X: ev.Origin.X, Y: ev.Origin.Y, Radius: ev.Radius,
		})
	})

	nt := &w.tuning.Noise
	for _, n := range w.noises {
		for _, a := range w.agents {
			if a.Zombie == nil || !a.Alive() {
				continue
			}
			m := a.Zombie
			if m.State != ZombieIdle && m.State != ZombieWandering {
				continue
			}
			dist := a.Pos.DistTo(n.Origin)
			p := nt.ActivationChance(dist, n.Radius, w.tuning.Zombie.Sensitivity)
			if p <= 0 || w.rng.Float64() >= p {
				continue
			}
			w.activateZombie(a, m, n.Origin)
		}
	}

	live := w.noises[:0]
	for _, n := range w.noises {
		n.remaining -= dt
		if n.remaining > 0 {
			live = append(live, n)
		}
	}
	w.noises = live
}

// activateZombie wakes a dormant zombie that heard something. A small share
// go straight to hunting the nearest player; the rest shamble toward the
// sound to investigate.
func (w *World) activateZombie(a *Agent, m *ZombieMind, origin Vec2) {
	if w.rng.Float64() < w.tuning.Noise.AggroChance {
		if w.acquireNearbyPlayer(a, m, w.tuning.Zombie.AggroRadius) {
			m.State = ZombieChasing
			w.Log.Add(w.tick, a.Label, "noise", "aggro", "heard shot, hunting", 0)
			return
		}
	}
	m.WanderDest = origin
	m.HasWanderDest = true
	m.State = ZombieWandering
	w.Log.Add(w.tick, a.Label, "noise", "investigate", formatVec(origin), 0)
}
