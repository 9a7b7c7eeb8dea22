package sim

import (
	"math"
	"testing"
)

// combatTuning disables return fire and separation shoving so melee timing
// scenarios measure only the zombie state machine.
func combatTuning() Tuning {
	tn := DefaultTuning()
	tn.Soldier.FireRange = 0
	tn.Separation.Strength = 0
	return tn
}

func TestZombie_FirstAttackIsWindupGated(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(42),
		WithSoldier(110, 100),
		WithZombie(100, 100), // inside alert and attack range from the start
	)
	s := ts.AgentByLabel("S0")
	z := ts.AgentByLabel("Z0")

	windupTicks := int(tn.Zombie.Windup / TickDt)
	hitTick := ts.RunUntil(func(*TestSim) bool {
		return s.Health.Current < s.Health.Max
	}, windupTicks*4)
	if hitTick < 0 {
		t.Fatalf("no hit landed\n%s", ts.SimLog.Dump())
	}
	if hitTick < windupTicks {
		t.Errorf("hit landed at tick %d, before the %d-tick windup elapsed", hitTick, windupTicks)
	}
	if hitTick > windupTicks+6 {
		t.Errorf("hit landed at tick %d, long after the %d-tick windup", hitTick, windupTicks)
	}
	if got, want := s.Health.Current, s.Health.Max-tn.Zombie.Damage; got != want {
		t.Errorf("soldier health = %.0f after first swing, want %.0f (exactly one hit)", got, want)
	}
	if z.Zombie.State != ZombieCooldown {
		t.Errorf("zombie state = %v after landing, want cooldown", z.Zombie.State)
	}
	if !z.Zombie.Engaged {
		t.Error("zombie not engaged after a landed swing")
	}
}

func TestZombie_EngagedSwingSkipsWindup(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(42),
		WithSoldier(110, 100),
		WithZombie(100, 100),
	)
	s := ts.AgentByLabel("S0")

	first := ts.RunUntil(func(*TestSim) bool {
		return s.Health.Current < s.Health.Max
	}, 600)
	if first < 0 {
		t.Fatal("first hit never landed")
	}
	healthAfterFirst := s.Health.Current
	second := ts.RunUntil(func(*TestSim) bool {
		return s.Health.Current < healthAfterFirst
	}, 600)
	if second < 0 {
		t.Fatal("second hit never landed")
	}

	cooldownTicks := int(tn.Zombie.Cooldown / TickDt)
	windupTicks := int(tn.Zombie.Windup / TickDt)
	gap := second - first
	if gap > cooldownTicks+6 {
		t.Errorf("second swing took %d ticks, want ~%d (engaged swings skip the %d-tick windup)",
			gap, cooldownTicks, windupTicks)
	}
	if gap < cooldownTicks {
		t.Errorf("second swing took %d ticks, inside the %d-tick cooldown", gap, cooldownTicks)
	}
}

func TestZombie_TargetEscapingAggroRadiusDropsToIdle(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(7),
		WithSoldier(150, 100), // dist 50: inside alert radius
		WithZombie(100, 100),
	)
	z := ts.AgentByLabel("Z0")
	s := ts.AgentByLabel("S0")

	if got := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State == ZombieChasing
	}, 10); got < 0 {
		t.Fatalf("zombie never started chasing\n%s", ts.SimLog.Dump())
	}

	// Teleport the target far beyond the aggro radius.
	s.Pos = Vec2{X: 100 + tn.Zombie.AggroRadius*3, Y: 100}
	ts.RunTicks(2)

	if z.Zombie.State != ZombieIdle {
		t.Errorf("state = %v after target escaped, want idle", z.Zombie.State)
	}
	if z.Zombie.TargetID != -1 {
		t.Errorf("target id = %d after escape, want -1", z.Zombie.TargetID)
	}
	if z.Zombie.Engaged {
		t.Error("engaged flag survived target loss")
	}
}

func TestZombie_DeadTargetDropsMidWindup(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(7),
		WithSoldier(110, 100),
		WithZombie(100, 100),
	)
	z := ts.AgentByLabel("Z0")
	s := ts.AgentByLabel("S0")

	if got := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State == ZombieWindingUp
	}, 10); got < 0 {
		t.Fatal("zombie never started winding up")
	}
	s.Health.Current = 0
	ts.RunTicks(2)

	if z.Zombie.State != ZombieIdle {
		t.Errorf("state = %v after target died, want idle", z.Zombie.State)
	}
	if got := s.Health.Current; got != 0 {
		t.Errorf("dead target took damage: health %.1f", got)
	}
}

func TestZombie_AttackConeRejectsTargetsBehind(t *testing.T) {
	w := NewWorld(640, 480, combatTuning(), 1, 1)
	z := w.SpawnZombie(Vec2{X: 100, Y: 100})
	target := Vec2{X: 110, Y: 100}

	z.Facing = 0 // looking straight at the target
	if !w.inAttackCone(z, target) {
		t.Error("target dead ahead rejected by the cone")
	}
	z.Facing = math.Pi // looking away
	if w.inAttackCone(z, target) {
		t.Error("target directly behind accepted by the cone")
	}
	// Just inside and just outside the half-angle.
	half := z.Combat.ConeDeg * math.Pi / 360
	z.Facing = half - 0.01
	if !w.inAttackCone(z, target) {
		t.Error("target just inside the cone edge rejected")
	}
	z.Facing = half + 0.01
	if w.inAttackCone(z, target) {
		t.Error("target just outside the cone edge accepted")
	}
}

func TestZombie_IdleWandersNearSpawn(t *testing.T) {
	tn := DefaultTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(3),
		WithZombie(300, 300),
	)
	z := ts.AgentByLabel("Z0")

	idleTicks := int(tn.Zombie.IdleTime/TickDt) + 5
	if got := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State == ZombieWandering
	}, idleTicks); got < 0 {
		t.Fatal("zombie never left idle")
	}
	// Wander for a while: it must stay leashed near its spawn point.
	ts.RunTicks(1200)
	leash := tn.Zombie.WanderRadius + 2*tn.CellSize
	if d := z.Pos.DistTo(z.SpawnPos); d > leash {
		t.Errorf("wandered %.0f units from spawn, leash is %.0f", d, leash)
	}
}

func TestZombie_NoiseInsideRadiusWakesSleeper(t *testing.T) {
	tn := DefaultTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(11),
		WithZombie(100, 100),
	)
	z := ts.AgentByLabel("Z0")
	origin := Vec2{X: 150, Y: 100}
	ts.World.InjectNoise(origin, 340, 100)

	woke := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State != ZombieIdle
	}, 120)
	if woke < 0 {
		t.Fatalf("zombie slept through a loud nearby noise\n%s", ts.SimLog.Dump())
	}
	if !ts.SimLog.HasEntry("noise", "investigate", "") && !ts.SimLog.HasEntry("noise", "aggro", "") {
		t.Error("activation left no noise log entry")
	}
}

func TestZombie_NoiseBeyondRadiusNeverRolls(t *testing.T) {
	tn := DefaultTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(11),
		WithZombie(100, 100),
	)
	ts.World.InjectNoise(Vec2{X: 200, Y: 100}, 40, 100) // rim 60 units short

	ts.RunTicks(100)
	if n := ts.SimLog.CountCategory("noise", "investigate") +
		ts.SimLog.CountCategory("noise", "aggro"); n != 0 {
		t.Errorf("%d activations from an out-of-range noise", n)
	}
}

func TestZombie_ActivationFrequencyMatchesFormula(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(1280, 720, tn, 7, 1)
	z := w.SpawnZombie(Vec2{X: 400, Y: 360})
	origin := Vec2{X: 520, Y: 360} // 120 units away
	radius := tn.Soldier.NoiseRadius

	// Each trial resets the zombie to dormant, injects one noise and runs a
	// single activation pass, so the observed rate measures the roll the
	// pipeline actually makes.
	const trials = 10000
	hits := 0
	for i := 0; i < trials; i++ {
		m := z.Zombie
		m.State = ZombieIdle
		m.Timer = tn.Zombie.IdleTime
		m.TargetID = -1
		m.HasWanderDest = false
		w.noises = w.noises[:0]
		w.InjectNoise(origin, radius, 1.0)
		w.drainNoise(TickDt)
		if m.State != ZombieIdle {
			hits++
		}
	}

	want := tn.Noise.ActivationChance(120, radius, tn.Zombie.Sensitivity)
	freq := float64(hits) / trials
	if math.Abs(freq-want) > 0.02 {
		t.Errorf("observed activation frequency %.3f, formula gives %.3f", freq, want)
	}
}

func TestZombie_NoiseAggroEventuallyHunts(t *testing.T) {
	tn := combatTuning()
	ts := NewTestSim(
		WithTuning(tn),
		WithSeed(5),
		WithSoldier(250, 100), // inside aggro radius, outside alert radius
		WithZombie(100, 100),
	)
	z := ts.AgentByLabel("Z0")
	// A standing din keeps the dormant zombie rolling every tick; with the
	// aggro share at its default some roll sends it hunting.
	ts.World.InjectNoise(Vec2{X: 120, Y: 100}, 340, 600)

	hunting := ts.RunUntil(func(*TestSim) bool {
		return z.Zombie.State == ZombieChasing
	}, 3000)
	if hunting < 0 {
		t.Fatalf("zombie never escalated to hunting\n%s", ts.SimLog.Dump())
	}
}
