package sim

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// reportWindowTicks is the default sliding window for recent-behaviour
// summaries (~10s at 60TPS).
const reportWindowTicks = 600

// SimReport is a snapshot of the simulation at one tick.
type SimReport struct {
	Tick int

	SoldiersAlive int
	ZombiesAlive  int

	// Zombie AI state distribution (state → count).
	ZombieStates map[ZombieState]int

	Kills        int
	CrystalPower float64
	Threat       float64
	Wave         WaveStatus
}

// collectReport gathers a snapshot from the current world state.
func collectReport(w *World) SimReport {
	r := SimReport{
		Tick:          w.Tick(),
		SoldiersAlive: w.LivingCount(FactionPlayer),
		ZombiesAlive:  w.LivingCount(FactionEnemy),
		ZombieStates:  make(map[ZombieState]int),
		Kills:         w.Kills(),
		CrystalPower:  w.CrystalPower(),
		Threat:        w.ThreatLevel(),
		Wave:          w.WaveStatus(),
	}
	for _, a := range w.agents {
		if a.Zombie != nil && a.Alive() {
			r.ZombieStates[a.Zombie.State]++
		}
	}
	return r
}

// SimReporter collects periodic reports from a running world and renders a
// run summary. Each reporter owns a unique run id so batched headless runs
// can be told apart in merged output.
type SimReporter struct {
	RunID   string
	Seed    int64
	history []SimReport
	window  int
}

// NewSimReporter creates a reporter with the given sliding window size.
func NewSimReporter(seed int64, windowTicks int) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{
		RunID:  uuid.NewString(),
		Seed:   seed,
		window: windowTicks,
	}
}

// Collect snapshots the world. Call periodically, e.g. every 60 ticks.
func (r *SimReporter) Collect(w *World) {
	r.history = append(r.history, collectReport(w))
}

// Last returns the most recent snapshot, or false if none was collected.
func (r *SimReporter) Last() (SimReport, bool) {
	if len(r.history) == 0 {
		return SimReport{}, false
	}
	return r.history[len(r.history)-1], true
}

// Recent returns the snapshots within the sliding window ending at the
// latest collected tick.
func (r *SimReporter) Recent() []SimReport {
	if len(r.history) == 0 {
		return nil
	}
	cutoff := r.history[len(r.history)-1].Tick - r.window
	for i, rep := range r.history {
		if rep.Tick > cutoff {
			return r.history[i:]
		}
	}
	return nil
}

// PeakThreat returns the highest threat level inside the window.
func (r *SimReporter) PeakThreat() float64 {
	peak := 0.0
	for _, rep := range r.Recent() {
		if rep.Threat > peak {
			peak = rep.Threat
		}
	}
	return peak
}

// Summary renders the whole run as a printable block: one line per
// collected snapshot plus a header and an outcome footer.
func (r *SimReporter) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (seed %d)\n", r.RunID, r.Seed)
	fmt.Fprintf(&b, "%-6s %-5s %-5s %-6s %-8s %-7s %s\n",
		"tick", "sold", "zomb", "kills", "crystal", "threat", "wave")
	for _, rep := range r.history {
		fmt.Fprintf(&b, "%-6d %-5d %-5d %-6d %-8.2f %-7.2f %d (+%d pending)\n",
			rep.Tick, rep.SoldiersAlive, rep.ZombiesAlive, rep.Kills,
			rep.CrystalPower, rep.Threat, rep.Wave.Number, rep.Wave.Pending)
	}
	if last, ok := r.Last(); ok {
		outcome := "holding"
		switch {
		case last.CrystalPower <= 0:
			outcome = "crystal destroyed"
		case last.SoldiersAlive == 0:
			outcome = "wiped"
		}
		fmt.Fprintf(&b, "outcome: %s after %d ticks, %d kills, wave %d\n",
			outcome, last.Tick, last.Kills, last.Wave.Number)
	}
	return b.String()
}
