package sim

// AgentSnapshot is a flattened copy of one agent for renderers, telemetry
// and reports. It carries no pointers into the live world.
type AgentSnapshot struct {
	ID        int     `json:"id"`
	Label     string  `json:"label"`
	Faction   string  `json:"faction"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Facing    float64 `json:"facing"`
	HealthPct float64 `json:"healthPct"`
	State     string  `json:"state,omitempty"` // zombie AI state, empty otherwise
	Selected  bool    `json:"selected,omitempty"`
}

// Snapshots returns a copy of every living agent. Call between Steps only.
func (w *World) Snapshots() []AgentSnapshot {
	out := make([]AgentSnapshot, 0, len(w.agents))
	for _, a := range w.agents {
		if !a.Alive() {
			continue
		}
		s := AgentSnapshot{
			ID:        a.ID,
			Label:     a.Label,
			Faction:   a.Faction.String(),
			X:         a.Pos.X,
			Y:         a.Pos.Y,
			Facing:    a.Facing,
			HealthPct: a.Health.Pct(),
			Selected:  a.Selected,
		}
		if a.Zombie != nil {
			s.State = a.Zombie.State.String()
		}
		out = append(out, s)
	}
	return out
}

// WaveStatus summarizes the wave director for HUDs and telemetry.
type WaveStatus struct {
	Number       int `json:"number"`
	Pending      int `json:"pending"`
	EnemiesAlive int `json:"enemiesAlive"`
}

// WaveStatus returns the current assault summary.
func (w *World) WaveStatus() WaveStatus {
	return WaveStatus{
		Number:       w.wave.Number,
		Pending:      w.wave.Pending,
		EnemiesAlive: w.countLivingEnemies(),
	}
}

// CrystalPower returns the crystal's remaining health fraction, zero once it
// has fallen (or was never placed).
func (w *World) CrystalPower() float64 {
	if w.crystalID < 0 {
		return 0
	}
	c, ok := w.byID[w.crystalID]
	if !ok {
		return 0
	}
	return c.Health.Pct()
}

// ThreatLevel is the fraction of living enemies not dormant: 0 means every
// zombie is idling or wandering, 1 means all of them are hunting something.
func (w *World) ThreatLevel() float64 {
	total, hunting := 0, 0
	for _, a := range w.agents {
		if a.Zombie == nil || !a.Alive() {
			continue
		}
		total++
		switch a.Zombie.State {
		case ZombieChasing, ZombieWindingUp, ZombieAttacking, ZombieCooldown:
			hunting++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hunting) / float64(total)
}

// LivingCount returns how many living agents belong to the faction.
func (w *World) LivingCount(f Faction) int {
	n := 0
	for _, a := range w.agents {
		if a.Faction == f && a.Alive() {
			n++
		}
	}
	return n
}

// AgentByID exposes one live agent for the inspector. Returns nil when the
// id is unknown or already swept.
func (w *World) AgentByID(id int) *Agent {
	return w.byID[id]
}
