package sim

import "math"

// SoldierMind is the per-soldier scratchpad. Soldiers have no state machine:
// they follow the destination field when one is set and fire at the nearest
// enemy in range whenever their weapon is ready.
type SoldierMind struct {
	FireCooldown float64 // seconds until the weapon is ready
}

// stepSoldier advances one player unit by dt inside the parallel batch. Same
// write discipline as the zombies: own agent only, hits and weapon reports
// go through the buses.
func (w *World) stepSoldier(a *Agent, worker int, dt float64) {
	m := a.Soldier
	st := &w.tuning.Soldier

	// Movement: the destination field is shared by every soldier. An inert
	// field (no move command yet) keeps them holding position.
	a.Vel = Vec2{}
	if w.destField.HasGoal() && !w.destField.AtGoal(a.Pos) {
		dir := w.destField.DirAt(a.Pos)
		if dir.Len() > 0 {
			a.Vel = dir.Mul(st.MoveSpeed)
			a.Facing = math.Atan2(dir.Y, dir.X)
		}
	}

	if m.FireCooldown > 0 {
		m.FireCooldown -= dt
	}
	if m.FireCooldown > 0 {
		return
	}

	v, ok := w.nearestFactionView(a.Pos, a.Combat.Range, FactionEnemy)
	if !ok {
		return
	}
	a.Facing = facingTo(a.Pos, v.Pos)
	w.damage.Emit(worker, DamageEvent{
		Target:     v.ID,
		Amount:     a.Combat.Damage,
		Dir:        v.Pos.Sub(a.Pos).Normalized(),
		Attacker:   a.ID,
		FromPlayer: true,
	})
	w.noise.Emit(worker, NoiseEvent{
		Origin: a.Pos,
		Radius: st.NoiseRadius,
		Life:   st.NoiseLife,
	})
	m.FireCooldown = a.Combat.Cooldown
}
