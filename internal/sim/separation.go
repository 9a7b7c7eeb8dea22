package sim

// Separation keeps agents from stacking. It runs as two batch passes per
// tick: a compute pass that reads only the previous tick's spatial index and
// positions and writes one force per agent into a private slot, then an
// apply pass that adds each force to its own agent. No pass ever reads a
// position another worker is writing.

// computeSeparation fills w.sepForces for agents[start:end].
func (w *World) computeSeparation(start, end int) {
	sep := &w.tuning.Separation
	for i := start; i < end; i++ {
		a := w.agents[i]
		w.sepForces[i] = Vec2{}
		if !a.Alive() || a.Footprint != nil {
			continue
		}
		var force Vec2
		w.spatial.ForEachNear(a.Pos, sep.Radius, func(id int) {
			if id == a.ID {
				return
			}
			vi, ok := w.viewIdx[id]
			if !ok {
				return
			}
			v := w.views[vi]
			if !v.Alive {
				return
			}
			d := a.Pos.Sub(v.Pos)
			dist := d.Len()
			if dist >= sep.Radius {
				return
			}
			if dist < 1e-6 {
				// Perfectly stacked pair: nudge along a stable axis derived
				// from the id order so the two agents split apart instead of
				// cancelling.
				if a.ID > id {
					d = Vec2{X: 1}
				} else {
					d = Vec2{X: -1}
				}
				dist = 1e-6
			}
			// Inverse falloff: full strength at contact, zero at the radius.
			scale := sep.Strength * (1.0 - dist/sep.Radius)
			force = force.Add(d.Mul(scale / dist))
		})
		if l := force.Len(); l > sep.MaxForce {
			force = force.Mul(sep.MaxForce / l)
		}
		w.sepForces[i] = force
	}
}

// applySeparation integrates the forces computed this tick into positions.
func (w *World) applySeparation(start, end int, dt float64) {
	for i := start; i < end; i++ {
		a := w.agents[i]
		if !a.Alive() || a.Footprint != nil {
			continue
		}
		a.Pos = a.Pos.Add(w.sepForces[i].Mul(dt))
	}
}
