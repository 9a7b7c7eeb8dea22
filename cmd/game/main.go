package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"hordefall/internal/persist"
	"hordefall/internal/sim"
	"hordefall/internal/telemetry"
	"hordefall/internal/view"
)

const (
	worldWidth  = 1280
	worldHeight = 720
)

func main() {
	seed := flag.Int64("seed", time.Now().UnixNano(), "world seed")
	tuningPath := flag.String("tuning", "tuning.yaml", "tuning file (optional)")
	workers := flag.Int("workers", runtime.NumCPU(), "simulation worker count")
	telemetryAddr := flag.String("telemetry", "", "telemetry listen address, e.g. :8090 (disabled when empty)")
	noSave := flag.Bool("no-save", false, "do not touch the save file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tuning, err := sim.LoadTuning(*tuningPath)
	if err != nil {
		logger.Error("loading tuning failed", "path", *tuningPath, "err", err)
		os.Exit(1)
	}

	store := persist.NewMemoryStore()
	if !*noSave {
		if s, err := persist.Open("hordefall"); err == nil {
			store = s
		} else {
			logger.Warn("save storage unavailable, running without it", "err", err)
		}
	}

	world := sim.NewWorld(worldWidth, worldHeight, tuning, *seed, *workers)
	defer world.Dispose()
	world.SpawnCrystal(sim.Vec2{X: worldWidth / 2, Y: worldHeight / 2})
	world.SpawnBatch(6, sim.FactionPlayer,
		sim.Vec2{X: worldWidth / 2, Y: worldHeight/2 + 80}, 50)
	world.EnableWaves(5, 3, 0.4, 8.0)

	var streamer *telemetry.Streamer
	if *telemetryAddr != "" {
		streamer = telemetry.NewStreamer(logger)
		go func() {
			if err := telemetry.Serve(context.Background(), *telemetryAddr, streamer); err != nil {
				logger.Error("telemetry server stopped", "err", err)
			}
		}()
	}

	logger.Info("starting", "seed", *seed, "workers", *workers)
	ebiten.SetWindowTitle("Hordefall")
	ebiten.SetWindowSize(worldWidth, worldHeight)
	if err := ebiten.RunGame(view.New(world, store, streamer, *seed, logger)); err != nil {
		log.Fatal(err)
	}
}
