package sim

import "testing"

func TestWorld_DamageDrainAppliesBatchedHits(t *testing.T) {
	w := NewWorld(640, 480, DefaultTuning(), 1, 1)
	z := w.SpawnZombie(Vec2{X: 100, Y: 100})

	w.damage.Emit(0, DamageEvent{Target: z.ID, Amount: 15, Attacker: -1})
	w.damage.Emit(0, DamageEvent{Target: z.ID, Amount: 10, Attacker: -1})
	w.drainDamage()

	if got, want := z.Health.Current, z.Health.Max-25; got != want {
		t.Errorf("health = %.0f after two hits, want %.0f", got, want)
	}
}

func TestWorld_OverkillIsDiscarded(t *testing.T) {
	w := NewWorld(640, 480, DefaultTuning(), 1, 1)
	z := w.SpawnZombie(Vec2{X: 100, Y: 100})
	z.Health.Current = 10

	// Two soldiers fired at the same nearly-dead target in one batch. The
	// first hit kills; the second must bounce off the corpse.
	w.damage.Emit(0, DamageEvent{Target: z.ID, Amount: 12, Attacker: -1, FromPlayer: true})
	w.damage.Emit(0, DamageEvent{Target: z.ID, Amount: 12, Attacker: -1, FromPlayer: true})
	w.drainDamage()

	if z.Health.Current != 0 {
		t.Errorf("health = %.1f, want exactly 0 (no negative spill)", z.Health.Current)
	}
	if z.Life != LifeDead {
		t.Error("lethal hit did not mark the target dead")
	}
	if w.Kills() != 1 {
		t.Errorf("kills = %d, want 1 (overkill must not double-count)", w.Kills())
	}
}

func TestWorld_NeutralDeathsDoNotCountAsKills(t *testing.T) {
	w := NewWorld(640, 480, DefaultTuning(), 1, 1)
	b := w.SpawnBarricade(Vec2{X: 100, Y: 100}, Footprint{W: 1, H: 1}, 10)

	w.damage.Emit(0, DamageEvent{Target: b.ID, Amount: 50, Attacker: -1, FromPlayer: true})
	w.drainDamage()
	if w.Kills() != 0 {
		t.Errorf("kills = %d after a barricade fell, want 0", w.Kills())
	}
}

func TestWorld_SweepReleasesFootprintsAndIDs(t *testing.T) {
	w := NewWorld(640, 480, DefaultTuning(), 1, 1)
	b := w.SpawnBarricade(Vec2{X: 104, Y: 104}, Footprint{W: 1, H: 1}, 10)
	cx, cy := w.walkGrid.CellAt(b.Pos)
	if w.walkGrid.Walkable(cx, cy) {
		t.Fatal("barricade cell walkable while it stands")
	}

	b.Health.Current = 0
	b.Life = LifeDead
	w.sweepDead()

	if !w.walkGrid.Walkable(cx, cy) {
		t.Error("barricade cell still blocked after the sweep")
	}
	if w.AgentByID(b.ID) != nil {
		t.Error("dead agent still resolvable by id")
	}
	if !w.obstacles.Dirty() {
		t.Error("footprint release did not dirty the obstacle set")
	}
}

func TestWorld_CrystalFallReadsAsZeroPower(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithCrystal(320, 240),
	)
	w := ts.World
	if w.CrystalPower() != 1 {
		t.Fatalf("fresh crystal power = %.2f, want 1", w.CrystalPower())
	}
	crystal := ts.AgentByLabel("CR")
	crystal.Health.Current = 0
	crystal.Life = LifeDead
	ts.RunTicks(1)

	if w.CrystalPower() != 0 {
		t.Errorf("fallen crystal power = %.2f, want 0", w.CrystalPower())
	}
	if !ts.SimLog.HasEntry("death", "crystalDown", "") {
		t.Error("crystal fall left no log entry")
	}
}

func TestWorld_CommandMoveReusesFieldForSameCell(t *testing.T) {
	w := NewWorld(640, 480, DefaultTuning(), 1, 1)
	w.CommandMove(Vec2{X: 200, Y: 200})
	gen := w.DestField().Generation()
	w.CommandMove(Vec2{X: 201, Y: 199}) // same flow cell
	if w.DestField().Generation() != gen {
		t.Error("re-issuing the same destination regenerated the field")
	}
	w.CommandMove(Vec2{X: 400, Y: 100})
	if w.DestField().Generation() != gen+1 {
		t.Error("a genuinely new destination did not regenerate the field")
	}
}

func TestWorld_SoldiersFollowMoveCommand(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithSoldier(100, 100),
		WithMoveCommand(400, 100),
	)
	s := ts.AgentByLabel("S0")

	arrived := ts.RunUntil(func(*TestSim) bool {
		return ts.World.DestField().AtGoal(s.Pos)
	}, 600)
	if arrived < 0 {
		t.Fatalf("soldier never reached the ordered destination, ended at %v", s.Pos)
	}
	// Arrived soldiers hold position.
	at := s.Pos
	ts.RunTicks(30)
	if s.Pos.DistTo(at) > ts.World.Tuning().CellSize {
		t.Errorf("soldier kept drifting after arrival: %v -> %v", at, s.Pos)
	}
}

func TestWorld_SoldierFiresAndRaisesNoise(t *testing.T) {
	tn := DefaultTuning()
	tn.Zombie.MoveSpeed = 0 // keep the target planted
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(1),
		WithSoldier(100, 100),
		WithZombie(200, 100), // inside fire range
	)
	z := ts.AgentByLabel("Z0")

	hit := ts.RunUntil(func(*TestSim) bool {
		return z.Health.Current < z.Health.Max
	}, 10)
	if hit < 0 {
		t.Fatal("soldier never fired at a target in range")
	}
	if got, want := z.Health.Current, z.Health.Max-tn.Soldier.Damage; got != want {
		t.Errorf("target health = %.0f, want %.0f (one shot per cooldown)", got, want)
	}
	// The shot rang out: the zombie should investigate or hunt shortly.
	woke := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State != ZombieIdle
	}, 120)
	if woke < 0 {
		t.Errorf("weapon report never woke the target\n%s", ts.SimLog.Dump())
	}
}

func TestWorld_ObstacleChurnRedirectsFlow(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithCrystal(500, 240),
	)
	w := ts.World
	ts.RunTicks(1) // settle the crystal's own footprint registration
	gen := w.GlobalField().Generation()

	// Raising a barricade dirties walkability; the next step regenerates.
	w.SpawnBarricade(Vec2{X: 300, Y: 240}, Footprint{W: 1, H: 3}, 100)
	ts.RunTicks(1)
	if w.GlobalField().Generation() != gen+1 {
		t.Errorf("global field generation = %d after obstacle change, want %d",
			w.GlobalField().Generation(), gen+1)
	}
	// Quiet ticks regenerate nothing.
	ts.RunTicks(10)
	if w.GlobalField().Generation() != gen+1 {
		t.Error("flow field regenerated without any walkability change")
	}
}

func TestWorld_WavesEscalateAndMarch(t *testing.T) {
	ts := NewTestSim(
		WithSeed(9),
		WithCrystal(640, 360),
		WithWaves(3, 2, 0.05, 0.5),
	)
	w := ts.World

	started := ts.RunUntil(func(*TestSim) bool {
		return w.Wave().Number >= 1
	}, 120)
	if started < 0 {
		t.Fatal("first wave never started")
	}
	spawned := ts.RunUntil(func(*TestSim) bool {
		return w.LivingCount(FactionEnemy) >= 3
	}, 600)
	if spawned < 0 {
		t.Fatalf("wave spawned %d zombies, want 3", w.LivingCount(FactionEnemy))
	}

	// Marchers head for the crystal and eventually chew on it.
	damaged := ts.RunUntil(func(*TestSim) bool {
		return w.CrystalPower() < 1
	}, 60*60)
	if damaged < 0 {
		t.Fatalf("no marcher ever reached the crystal\n%s", ts.SimLog.Dump())
	}
}

func TestWorld_ThreatLevelTracksHunters(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(2),
		WithSoldier(150, 100),
		WithZombie(100, 100), // will chase
		WithZombie(700, 500), // stays dormant, far from everything
	)
	w := ts.World
	if w.ThreatLevel() != 0 {
		t.Fatalf("initial threat = %.2f, want 0", w.ThreatLevel())
	}
	ts.RunTicks(5)
	if got := w.ThreatLevel(); got != 0.5 {
		t.Errorf("threat = %.2f with one of two zombies hunting, want 0.5", got)
	}
}
