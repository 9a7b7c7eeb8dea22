package sim

import "math"

// ZombieState is the combat AI state of a single zombie.
type ZombieState int

const (
	// ZombieIdle is dormant on the spot, counting down to a wander.
	ZombieIdle ZombieState = iota
	// ZombieWandering is drifting toward a random point near spawn.
	ZombieWandering
	// ZombieChasing is closing on an acquired target.
	ZombieChasing
	// ZombieWindingUp is the telegraphed pre-attack pause.
	ZombieWindingUp
	// ZombieAttacking is the single tick the hit check runs.
	ZombieAttacking
	// ZombieCooldown is the post-attack recovery.
	ZombieCooldown
)

// String implements fmt.Stringer for logs and reports.
func (s ZombieState) String() string {
	switch s {
	case ZombieIdle:
		return "idle"
	case ZombieWandering:
		return "wandering"
	case ZombieChasing:
		return "chasing"
	case ZombieWindingUp:
		return "windingUp"
	case ZombieAttacking:
		return "attacking"
	case ZombieCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// ZombieMind is the per-zombie AI scratchpad. Only the zombie's own batch
// worker writes it.
type ZombieMind struct {
	State ZombieState
	Timer float64 // seconds left in the current state, where timed

	TargetID  int  // -1 = none
	TargetPos Vec2 // last seen position of the target

	WanderDest    Vec2
	HasWanderDest bool

	// Engaged means the last swing landed while the target stayed in reach,
	// so the next swing after cooldown skips the windup telegraph.
	Engaged bool

	// MarchOnCrystal makes an idle zombie re-acquire the crystal instead of
	// waiting out its idle timer. Set on wave spawns.
	MarchOnCrystal bool
}

// NewZombieMind returns a dormant mind with the idle timer charged.
func NewZombieMind(idleTime float64) *ZombieMind {
	return &ZombieMind{State: ZombieIdle, Timer: idleTime, TargetID: -1}
}

// stepZombie advances one zombie by dt. It runs inside the parallel batch:
// it writes only its own agent, reads everyone else through the previous
// tick's views, and defers every hit through the damage bus.
func (w *World) stepZombie(a *Agent, worker int, dt float64) {
	m := a.Zombie
	zt := &w.tuning.Zombie

	switch m.State {
	case ZombieIdle:
		a.Vel = Vec2{}
		if m.MarchOnCrystal && w.acquireCrystal(m) {
			m.State = ZombieChasing
			break
		}
		if w.acquireNearbyPlayer(a, m, zt.AlertRadius) {
			m.State = ZombieChasing
			break
		}
		m.Timer -= dt
		if m.Timer <= 0 {
			rng := w.runner.RNG(worker)
			ang := rng.Float64() * 2 * math.Pi
			r := math.Sqrt(rng.Float64()) * zt.WanderRadius
			m.WanderDest = a.SpawnPos.Add(Vec2{X: math.Cos(ang) * r, Y: math.Sin(ang) * r})
			m.HasWanderDest = true
			m.State = ZombieWandering
		}

	case ZombieWandering:
		if w.acquireNearbyPlayer(a, m, zt.AlertRadius) {
			m.State = ZombieChasing
			break
		}
		if !m.HasWanderDest || a.Pos.DistTo(m.WanderDest) <= w.tuning.CellSize*0.5 {
			m.HasWanderDest = false
			m.State = ZombieIdle
			m.Timer = zt.IdleTime
			a.Vel = Vec2{}
			break
		}
		w.steerZombie(a, m.WanderDest, zt.MoveSpeed*zt.WanderSpeedFrac, false)

	case ZombieChasing:
		if !w.refreshTarget(a, m) {
			break
		}
		if w.inAttackReach(a, m) {
			a.Vel = Vec2{}
			a.Facing = facingTo(a.Pos, m.TargetPos)
			m.State = ZombieWindingUp
			m.Timer = a.Combat.Windup
			break
		}
		w.steerZombie(a, m.TargetPos, zt.MoveSpeed, m.TargetID == w.crystalID)

	case ZombieWindingUp:
		a.Vel = Vec2{}
		if !w.refreshTarget(a, m) {
			break
		}
		if !w.inAttackReach(a, m) {
			// Target slipped away mid-telegraph: the swing never happens.
			m.Engaged = false
			m.State = ZombieChasing
			break
		}
		a.Facing = facingTo(a.Pos, m.TargetPos)
		m.Timer -= dt
		if m.Timer <= 0 {
			m.State = ZombieAttacking
		}

	case ZombieAttacking:
		a.Vel = Vec2{}
		if w.refreshTarget(a, m) && w.inAttackReach(a, m) && w.inAttackCone(a, m.TargetPos) {
			dir := m.TargetPos.Sub(a.Pos).Normalized()
			w.damage.Emit(worker, DamageEvent{
				Target:   m.TargetID,
				Amount:   a.Combat.Damage,
				Dir:      dir,
				Attacker: a.ID,
			})
			m.Engaged = true
			m.State = ZombieCooldown
			m.Timer = a.Combat.Cooldown
			break
		}
		m.Engaged = false
		if m.TargetID >= 0 {
			m.State = ZombieChasing
		}

	case ZombieCooldown:
		a.Vel = Vec2{}
		if !w.refreshTarget(a, m) {
			break
		}
		if w.inAttackReach(a, m) {
			a.Facing = facingTo(a.Pos, m.TargetPos)
		} else {
			m.Engaged = false
		}
		m.Timer -= dt
		if m.Timer <= 0 {
			if m.Engaged && w.inAttackReach(a, m) {
				// An engaged zombie keeps swinging without re-telegraphing.
				m.State = ZombieAttacking
			} else if w.inAttackReach(a, m) {
				m.State = ZombieWindingUp
				m.Timer = a.Combat.Windup
			} else {
				m.State = ZombieChasing
			}
		}
	}
}

// acquireNearbyPlayer scans the previous tick's index for the nearest living
// player unit within radius and targets it.
func (w *World) acquireNearbyPlayer(a *Agent, m *ZombieMind, radius float64) bool {
	v, ok := w.nearestFactionView(a.Pos, radius, FactionPlayer)
	if !ok {
		return false
	}
	m.TargetID = v.ID
	m.TargetPos = v.Pos
	return true
}

// acquireCrystal targets the crystal if it still stands.
func (w *World) acquireCrystal(m *ZombieMind) bool {
	if w.crystalID < 0 {
		return false
	}
	v, ok := w.viewByID(w.crystalID)
	if !ok || !v.Alive {
		return false
	}
	m.TargetID = v.ID
	m.TargetPos = v.Pos
	return true
}

// refreshTarget revalidates the current target against the views. A dead or
// vanished target, or a player target beyond the aggro radius, drops the
// zombie back to idle. The crystal never escapes aggro range. Returns false
// when the caller's state was reset.
func (w *World) refreshTarget(a *Agent, m *ZombieMind) bool {
	if m.TargetID < 0 {
		w.dropTarget(a, m)
		return false
	}
	v, ok := w.viewByID(m.TargetID)
	if !ok || !v.Alive {
		w.dropTarget(a, m)
		return false
	}
	if m.TargetID != w.crystalID && a.Pos.DistTo(v.Pos) > w.tuning.Zombie.AggroRadius {
		w.dropTarget(a, m)
		return false
	}
	m.TargetPos = v.Pos
	return true
}

func (w *World) dropTarget(a *Agent, m *ZombieMind) {
	m.TargetID = -1
	m.Engaged = false
	m.State = ZombieIdle
	m.Timer = w.tuning.Zombie.IdleTime
	a.Vel = Vec2{}
}

// inAttackReach tests range against the target's last seen position. The
// crystal's body radius extends the reach so attackers ring its rim instead
// of piling onto its centre.
func (w *World) inAttackReach(a *Agent, m *ZombieMind) bool {
	reach := a.Combat.Range
	if m.TargetID == w.crystalID {
		reach += w.tuning.Crystal.Radius
	}
	return a.Pos.DistTo(m.TargetPos) <= reach
}

// inAttackCone tests whether the target sits inside the attack cone around
// the current facing.
func (w *World) inAttackCone(a *Agent, target Vec2) bool {
	half := a.Combat.ConeDeg * math.Pi / 360.0
	want := facingTo(a.Pos, target)
	d := math.Abs(angleDiff(want, a.Facing))
	return d <= half
}

// steerZombie sets velocity and facing toward dest. Crystal-bound movement
// follows the global flow field so crowds route around obstacles; everything
// else beelines, which is fine at short chase distances.
func (w *World) steerZombie(a *Agent, dest Vec2, speed float64, viaField bool) {
	var dir Vec2
	if viaField {
		dir = w.globalField.DirAt(a.Pos)
	}
	if dir.Len() == 0 {
		dir = dest.Sub(a.Pos).Normalized()
	}
	a.Vel = dir.Mul(speed)
	if dir.Len() > 0 {
		a.Facing = math.Atan2(dir.Y, dir.X)
	}
}

func facingTo(from, to Vec2) float64 {
	d := to.Sub(from)
	return math.Atan2(d.Y, d.X)
}

// angleDiff returns the signed smallest difference between two angles, in
// (-π, π].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
