package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"hordefall/internal/sim"
)

// runStats condenses one finished siege run for the aggregate block.
type runStats struct {
	runIndex int
	seed     int64

	finalWave    int
	kills        int
	crystalPower float64
	soldiersLeft int
	firstBreach  int // tick the crystal first took damage, -1 if never
	peakThreat   float64
	noiseEvents  int
	deaths       int
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var waveBase int
	var copyOut bool

	flag.IntVar(&runs, "runs", 5, "number of headless siege runs")
	flag.IntVar(&ticks, "ticks", 7200, "ticks per run (60 = 1s)")
	flag.Int64Var(&seedBase, "seed-base", 42, "world seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.IntVar(&waveBase, "waves", 5, "zombies in the first wave")
	flag.BoolVar(&copyOut, "copy", false, "copy the report to the clipboard")
	flag.Parse()

	if runs <= 0 || ticks <= 0 {
		fmt.Println("error: -runs and -ticks must be > 0")
		os.Exit(1)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== Headless Siege Report ===\n")
	fmt.Fprintf(&out, "runs=%d ticks=%d seed_base=%d seed_step=%d wave_base=%d\n\n",
		runs, ticks, seedBase, seedStep, waveBase)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, summary := runSiege(i+1, seed, ticks, waveBase)
		all = append(all, stats)
		out.WriteString(summary)
		out.WriteByte('\n')
	}
	writeAggregate(&out, all)

	fmt.Print(out.String())
	if copyOut {
		if err := clipboard.WriteAll(out.String()); err != nil {
			fmt.Printf("clipboard copy failed: %v\n", err)
		} else {
			fmt.Println("(report copied to clipboard)")
		}
	}
}

// runSiege plays the standard defence layout headlessly: crystal mid-map,
// six defenders in a ring, escalating waves from the edges.
func runSiege(runIndex int, seed int64, ticks, waveBase int) (runStats, string) {
	ts := sim.NewTestSim(
		sim.WithMapSize(1280, 720),
		sim.WithSeed(seed),
		sim.WithCrystal(640, 360),
		sim.WithSoldier(560, 330),
		sim.WithSoldier(560, 390),
		sim.WithSoldier(720, 330),
		sim.WithSoldier(720, 390),
		sim.WithSoldier(640, 290),
		sim.WithSoldier(640, 430),
		sim.WithWaves(waveBase, 3, 0.4, 8.0),
	)
	reporter := sim.NewSimReporter(seed, 600)

	firstBreach := -1
	for t := 0; t < ticks; t += 60 {
		ts.RunTicks(60)
		reporter.Collect(ts.World)
		if firstBreach < 0 && ts.World.CrystalPower() < 1 {
			firstBreach = ts.World.Tick()
		}
		if ts.World.CrystalPower() <= 0 {
			break
		}
	}

	w := ts.World
	stats := runStats{
		runIndex:     runIndex,
		seed:         seed,
		finalWave:    w.Wave().Number,
		kills:        w.Kills(),
		crystalPower: w.CrystalPower(),
		soldiersLeft: w.LivingCount(sim.FactionPlayer),
		firstBreach:  firstBreach,
		peakThreat:   reporter.PeakThreat(),
		noiseEvents:  ts.SimLog.CountCategory("noise", ""),
		deaths:       ts.SimLog.CountCategory("death", "killed"),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- run %d ---\n", runIndex)
	b.WriteString(reporter.Summary())
	fmt.Fprintf(&b, "soldiers_left=%d first_breach=%s noise_events=%d deaths=%d\n",
		stats.soldiersLeft, tickString(stats.firstBreach), stats.noiseEvents, stats.deaths)
	ts.World.Dispose()
	return stats, b.String()
}

func writeAggregate(out *strings.Builder, all []runStats) {
	held := 0
	var sumWave, sumKills, sumDeaths int
	var sumPower, sumThreat float64
	var breaches []int
	for _, s := range all {
		if s.crystalPower > 0 {
			held++
		}
		sumWave += s.finalWave
		sumKills += s.kills
		sumDeaths += s.deaths
		sumPower += s.crystalPower
		sumThreat += s.peakThreat
		if s.firstBreach >= 0 {
			breaches = append(breaches, s.firstBreach)
		}
	}
	n := len(all)
	fmt.Fprintf(out, "=== Aggregate ===\n")
	fmt.Fprintf(out, "runs=%d crystal_held=%d/%d\n", n, held, n)
	fmt.Fprintf(out, "avg_final_wave=%.1f avg_kills=%.1f avg_deaths=%.1f\n",
		avg(sumWave, n), avg(sumKills, n), avg(sumDeaths, n))
	fmt.Fprintf(out, "avg_crystal_power=%.2f avg_peak_threat=%.2f avg_first_breach=%s\n",
		sumPower/float64(n), sumThreat/float64(n), avgTickString(breaches))
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func tickString(v int) string {
	if v < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d", v)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
