package sim

import (
	"fmt"
	"math"
)

// Vec2 is a 2D world-space vector. Positions are in world units (pixels),
// velocities in units per second.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Mul(s float64) Vec2    { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64          { return math.Hypot(v.X, v.Y) }
func (v Vec2) DistTo(o Vec2) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// Normalized returns the unit vector, or the zero vector for near-zero input.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func formatVec(v Vec2) string {
	return fmt.Sprintf("(%.0f, %.0f)", v.X, v.Y)
}

// Faction distinguishes the two sides plus world-owned agents (crystal,
// barricades).
type Faction uint8

const (
	FactionPlayer Faction = iota
	FactionEnemy
	FactionNeutral
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	case FactionNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// LifeState is the terminal-death discriminant. A dead agent is soft-deleted:
// it stays in the agent list until the end-of-tick sweep but is excluded from
// every query and snapshot.
type LifeState uint8

const (
	LifeAlive LifeState = iota
	LifeDead
)

// Health tracks current and maximum hit points. Current stays in [0, Max].
type Health struct {
	Current float64
	Max     float64
}

// Pct returns current health as a fraction of max in [0, 1].
func (h Health) Pct() float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}

// CombatConfig is the cold, rarely-read attack configuration of an agent.
type CombatConfig struct {
	Damage   float64 // hit points per strike
	Range    float64 // world units
	Cooldown float64 // seconds between strikes
	Windup   float64 // seconds from stopping to the first strike
	ConeDeg  float64 // full attack cone angle, degrees
}

// Footprint is an obstacle footprint in flow-field tiles, centred on the
// owning agent's position. Agents with a footprint block those cells for
// pathing while they exist.
type Footprint struct {
	W, H int
}

// Agent is one simulated entity: player soldier, zombie, crystal or
// barricade. Hot movement/combat fields live directly on the struct; the
// cold configuration is grouped in Combat. Mind pointers are nil for
// factions that do not use them.
type Agent struct {
	ID      int
	Label   string // short log label, e.g. "Z4", "S0", "CR"
	Faction Faction
	Life    LifeState

	Pos      Vec2
	Vel      Vec2
	Facing   float64 // radians
	SpawnPos Vec2

	Health Health
	Combat CombatConfig

	Footprint *Footprint
	Zombie    *ZombieMind
	Soldier   *SoldierMind

	Selected bool
}

// Alive reports whether the agent can still be targeted. An agent at zero
// health is never attackable even before the death sweep runs.
func (a *Agent) Alive() bool {
	return a.Life == LifeAlive && a.Health.Current > 0
}
