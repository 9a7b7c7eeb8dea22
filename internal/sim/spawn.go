package sim

import (
	"fmt"
	"math"
)

// WaveState drives the escalating assault on the crystal. A wave trickles
// its zombies in from the map edges; once every enemy on the field is dead a
// rest period runs, then the next, larger wave begins.
type WaveState struct {
	Enabled bool
	Number  int // 0 until the first wave starts
	Pending int // zombies of the current wave not yet spawned

	BaseCount  int
	PerWave    int     // extra zombies added each wave
	SpawnEvery float64 // seconds between trickled spawns
	RestTime   float64 // seconds of quiet between waves

	spawnTimer float64
	restTimer  float64
}

// EnableWaves turns on the wave director. The first wave starts after one
// rest period.
func (w *World) EnableWaves(baseCount, perWave int, spawnEvery, restTime float64) {
	w.wave = WaveState{
		Enabled:    true,
		BaseCount:  baseCount,
		PerWave:    perWave,
		SpawnEvery: spawnEvery,
		RestTime:   restTime,
		restTimer:  restTime,
	}
}

// Wave returns the current wave director state.
func (w *World) Wave() WaveState { return w.wave }

// stepWave trickles pending spawns and schedules the next wave.
func (w *World) stepWave(dt float64) {
	wv := &w.wave
	if !wv.Enabled {
		return
	}
	if wv.Pending > 0 {
		wv.spawnTimer -= dt
		if wv.spawnTimer <= 0 {
			w.spawnWaveZombie()
			wv.Pending--
			wv.spawnTimer = wv.SpawnEvery
		}
		return
	}
	if w.countLivingEnemies() > 0 {
		return
	}
	wv.restTimer -= dt
	if wv.restTimer <= 0 {
		wv.Number++
		wv.Pending = wv.BaseCount + (wv.Number-1)*wv.PerWave
		wv.spawnTimer = 0
		wv.restTimer = wv.RestTime
		w.Log.Add(w.tick, "--", "wave", "start",
			fmt.Sprintf("wave %d, %d zombies", wv.Number, wv.Pending), float64(wv.Number))
	}
}

func (w *World) countLivingEnemies() int {
	n := 0
	for _, a := range w.agents {
		if a.Faction == FactionEnemy && a.Alive() {
			n++
		}
	}
	return n
}

// spawnWaveZombie drops one marcher at a random point on the map edge.
func (w *World) spawnWaveZombie() {
	var pos Vec2
	switch w.rng.Intn(4) {
	case 0:
		pos = Vec2{X: w.rng.Float64() * w.Width, Y: 0}
	case 1:
		pos = Vec2{X: w.rng.Float64() * w.Width, Y: w.Height}
	case 2:
		pos = Vec2{X: 0, Y: w.rng.Float64() * w.Height}
	default:
		pos = Vec2{X: w.Width, Y: w.rng.Float64() * w.Height}
	}
	z := w.SpawnZombie(pos)
	z.Zombie.MarchOnCrystal = true
}

func (w *World) addAgent(a *Agent) *Agent {
	a.ID = w.nextID
	w.nextID++
	w.agents = append(w.agents, a)
	w.byID[a.ID] = a
	w.Log.Add(w.tick, a.Label, "spawn", a.Faction.String(), formatVec(a.Pos), 0)
	return a
}

func (w *World) nextLabel(prefix string, f Faction) string {
	n := w.labelNo[f]
	w.labelNo[f] = n + 1
	return fmt.Sprintf("%s%d", prefix, n)
}

// SpawnSoldier adds one player unit at pos, configured from the tuning.
func (w *World) SpawnSoldier(pos Vec2) *Agent {
	st := &w.tuning.Soldier
	return w.addAgent(&Agent{
		Label:    w.nextLabel("S", FactionPlayer),
		Faction:  FactionPlayer,
		Pos:      pos,
		SpawnPos: pos,
		Health:   Health{Current: st.MaxHealth, Max: st.MaxHealth},
		Combat: CombatConfig{
			Damage:   st.Damage,
			Range:    st.FireRange,
			Cooldown: st.FireCooldown,
		},
		Soldier: &SoldierMind{},
	})
}

// SpawnZombie adds one dormant zombie at pos, configured from the tuning.
func (w *World) SpawnZombie(pos Vec2) *Agent {
	zt := &w.tuning.Zombie
	return w.addAgent(&Agent{
		Label:    w.nextLabel("Z", FactionEnemy),
		Faction:  FactionEnemy,
		Pos:      pos,
		SpawnPos: pos,
		Health:   Health{Current: zt.MaxHealth, Max: zt.MaxHealth},
		Combat: CombatConfig{
			Damage:   zt.Damage,
			Range:    zt.AttackRange,
			Cooldown: zt.Cooldown,
			Windup:   zt.Windup,
			ConeDeg:  zt.ConeDeg,
		},
		Zombie: NewZombieMind(zt.IdleTime),
	})
}

// SpawnCrystal places the defended base object. It blocks pathing, becomes
// the global flow field's goal, and is the standing target of every wave
// marcher. Only one crystal exists at a time.
func (w *World) SpawnCrystal(pos Vec2) *Agent {
	ct := &w.tuning.Crystal
	tiles := int(math.Ceil(2*ct.Radius/w.tuning.CellSize)) | 1 // odd, centred
	a := w.addAgent(&Agent{
		Label:     "CR",
		Faction:   FactionNeutral,
		Pos:       pos,
		SpawnPos:  pos,
		Health:    Health{Current: ct.MaxHealth, Max: ct.MaxHealth},
		Footprint: &Footprint{W: tiles, H: tiles},
	})
	w.crystalID = a.ID
	w.obstacles.Register(a.ID, a.Pos, *a.Footprint)
	w.globalField.SetGoal(pos)
	return a
}

// SpawnBarricade places a destructible blocker covering fp tiles around pos.
func (w *World) SpawnBarricade(pos Vec2, fp Footprint, health float64) *Agent {
	a := w.addAgent(&Agent{
		Label:     w.nextLabel("B", FactionNeutral),
		Faction:   FactionNeutral,
		Pos:       pos,
		SpawnPos:  pos,
		Health:    Health{Current: health, Max: health},
		Footprint: &fp,
	})
	w.obstacles.Register(a.ID, a.Pos, fp)
	return a
}

// SpawnBatch scatters n agents of one faction uniformly inside a disc. Used
// by the shell's initial layout and the headless report.
func (w *World) SpawnBatch(n int, f Faction, center Vec2, radius float64) []*Agent {
	out := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		ang := w.rng.Float64() * 2 * math.Pi
		r := math.Sqrt(w.rng.Float64()) * radius
		pos := center.Add(Vec2{X: math.Cos(ang) * r, Y: math.Sin(ang) * r})
		switch f {
		case FactionPlayer:
			out = append(out, w.SpawnSoldier(pos))
		case FactionEnemy:
			out = append(out, w.SpawnZombie(pos))
		}
	}
	return out
}

// sweepDead removes every dead agent at the end of the tick: footprints are
// released (dirtying the flow fields), id lookups dropped, and the agent
// slice compacted in place.
func (w *World) sweepDead() {
	live := w.agents[:0]
	for _, a := range w.agents {
		if a.Life != LifeDead && a.Health.Current > 0 {
			live = append(live, a)
			continue
		}
		if a.Footprint != nil {
			w.obstacles.Deregister(a.ID)
		}
		if a.ID == w.crystalID {
			w.crystalID = -1
			w.Log.Add(w.tick, a.Label, "death", "crystalDown", "", 0)
		}
		delete(w.byID, a.ID)
	}
	w.agents = live
}
