package sim

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every behavioural constant of the simulation. All values have
// sane defaults; a yaml file can override any subset. Loading a missing file
// is not an error; the caller gets the defaults, matching the retry-friendly
// startup model of the rest of the core.
type Tuning struct {
	CellSize float64 `yaml:"cellSize"` // spatial index + flow field tile size

	Zombie     ZombieTuning     `yaml:"zombie"`
	Soldier    SoldierTuning    `yaml:"soldier"`
	Noise      NoiseTuning      `yaml:"noise"`
	Separation SeparationTuning `yaml:"separation"`
	Crystal    CrystalTuning    `yaml:"crystal"`
	Visibility VisibilityTuning `yaml:"visibility"`
}

// ZombieTuning configures the zombie combat AI.
type ZombieTuning struct {
	MaxHealth       float64 `yaml:"maxHealth"`
	MoveSpeed       float64 `yaml:"moveSpeed"`       // units/sec at full chase
	WanderSpeedFrac float64 `yaml:"wanderSpeedFrac"` // fraction of MoveSpeed while wandering
	WanderRadius    float64 `yaml:"wanderRadius"`    // around spawn point
	IdleTime        float64 `yaml:"idleTime"`        // seconds before idle → wander
	AlertRadius     float64 `yaml:"alertRadius"`     // detection while idle/wandering
	AggroRadius     float64 `yaml:"aggroRadius"`     // detection + target-keep while chasing
	Sensitivity     float64 `yaml:"sensitivity"`     // noise activation multiplier
	Damage          float64 `yaml:"damage"`
	AttackRange     float64 `yaml:"attackRange"`
	Cooldown        float64 `yaml:"cooldown"`
	Windup          float64 `yaml:"windup"`
	ConeDeg         float64 `yaml:"coneDeg"`
}

// SoldierTuning configures player units.
type SoldierTuning struct {
	MaxHealth    float64 `yaml:"maxHealth"`
	MoveSpeed    float64 `yaml:"moveSpeed"`
	FireRange    float64 `yaml:"fireRange"`
	FireCooldown float64 `yaml:"fireCooldown"`
	Damage       float64 `yaml:"damage"`
	NoiseRadius  float64 `yaml:"noiseRadius"` // weapon report radius
	NoiseLife    float64 `yaml:"noiseLife"`   // seconds a report lingers
}

// NoiseTuning configures the noise-driven activation roll. The combination
// order is multiply-then-clamp:
//
//	p = clamp(((1 - d/r)^falloffExp) * sensitivity, min, max)
//
// All four knobs are tunables, not a bit-exact contract.
type NoiseTuning struct {
	FalloffExp    float64 `yaml:"falloffExp"`
	MinActivation float64 `yaml:"minActivation"`
	MaxActivation float64 `yaml:"maxActivation"`
	AggroChance   float64 `yaml:"aggroChance"` // activated zombie goes straight to chasing
}

// SeparationTuning configures the two-pass local collision resolver.
type SeparationTuning struct {
	Radius   float64 `yaml:"radius"`   // neighbour influence distance
	Strength float64 `yaml:"strength"` // force scale, units/sec² at touch
	MaxForce float64 `yaml:"maxForce"` // accumulated force cap
}

// CrystalTuning configures the defended base object.
type CrystalTuning struct {
	MaxHealth float64 `yaml:"maxHealth"`
	Radius    float64 `yaml:"radius"` // body radius added to attacker range checks
}

// VisibilityTuning configures the fog-of-war visibility grid.
type VisibilityTuning struct {
	Radius float64 `yaml:"radius"` // reveal radius around living player units
}

// DefaultTuning returns the baseline parameter set used by the shell, the
// headless report and every test that does not override it.
func DefaultTuning() Tuning {
	return Tuning{
		CellSize: 16,
		Zombie: ZombieTuning{
			MaxHealth:       60,
			MoveSpeed:       55,
			WanderSpeedFrac: 0.35,
			WanderRadius:    120,
			IdleTime:        3.0,
			AlertRadius:     90,
			AggroRadius:     260,
			Sensitivity:     1.0,
			Damage:          8,
			AttackRange:     18,
			Cooldown:        1.2,
			Windup:          0.5,
			ConeDeg:         120,
		},
		Soldier: SoldierTuning{
			MaxHealth:    100,
			MoveSpeed:    75,
			FireRange:    220,
			FireCooldown: 0.6,
			Damage:       12,
			NoiseRadius:  340,
			NoiseLife:    0.4,
		},
		Noise: NoiseTuning{
			FalloffExp:    1.5,
			MinActivation: 0.05,
			MaxActivation: 0.95,
			AggroChance:   0.15,
		},
		Separation: SeparationTuning{
			Radius:   14,
			Strength: 160,
			MaxForce: 320,
		},
		Crystal: CrystalTuning{
			MaxHealth: 2000,
			Radius:    20,
		},
		Visibility: VisibilityTuning{
			Radius: 180,
		},
	}
}

// LoadTuning reads a yaml tuning file over the defaults. A missing file is
// not an error; a malformed one is.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultTuning(), fmt.Errorf("unmarshal tuning file: %w", err)
	}
	return t, nil
}

// ActivationChance returns the probability that a dormant zombie at distance
// dist from a noise of the given radius activates this tick.
func (n NoiseTuning) ActivationChance(dist, radius, sensitivity float64) float64 {
	if radius <= 0 || dist >= radius {
		return 0
	}
	base := math.Pow(1.0-dist/radius, n.FalloffExp)
	p := base * sensitivity
	if p < n.MinActivation {
		p = n.MinActivation
	}
	if p > n.MaxActivation {
		p = n.MaxActivation
	}
	return p
}
