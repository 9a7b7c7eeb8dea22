// Package view is the ebiten shell around the simulation: input, camera-less
// 1:1 rendering and the HUD. Everything here reads world state between Steps;
// nothing in the sim depends on it.
package view

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"hordefall/internal/persist"
	"hordefall/internal/sim"
	"hordefall/internal/telemetry"
)

const telemetryEvery = 10 // ticks between published frames

var (
	colBackground = color.RGBA{R: 24, G: 28, B: 24, A: 255}
	colHidden     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	colExplored   = color.RGBA{R: 0, G: 0, B: 0, A: 150}
	colBlocked    = color.RGBA{R: 70, G: 64, B: 52, A: 255}
	colSoldier    = color.RGBA{R: 80, G: 190, B: 210, A: 255}
	colCrystal    = color.RGBA{R: 150, G: 110, B: 230, A: 255}
	colNoiseRing  = color.RGBA{R: 230, G: 210, B: 90, A: 120}
	colHUD        = color.RGBA{R: 220, G: 220, B: 210, A: 255}
	colHealthBack = color.RGBA{R: 40, G: 10, B: 10, A: 200}
	colHealthFill = color.RGBA{R: 60, G: 200, B: 80, A: 220}
)

// zombieStateColors shade zombies by how dangerous they currently are.
var zombieStateColors = map[string]color.RGBA{
	"idle":      {R: 110, G: 120, B: 95, A: 255},
	"wandering": {R: 130, G: 140, B: 90, A: 255},
	"chasing":   {R: 200, G: 110, B: 60, A: 255},
	"windingUp": {R: 230, G: 160, B: 50, A: 255},
	"attacking": {R: 240, G: 70, B: 50, A: 255},
	"cooldown":  {R: 180, G: 90, B: 70, A: 255},
}

// noisePing is a fading ring left behind by a weapon report.
type noisePing struct {
	x, y, radius float64
	ttl          int
}

// Game drives the world at the display tick rate and renders it. It
// implements ebiten.Game.
type Game struct {
	world    *sim.World
	store    *persist.Store
	streamer *telemetry.Streamer // nil when telemetry is disabled
	logger   *slog.Logger

	seed     int64
	paused   bool
	gameOver bool
	pings    []noisePing
}

// New wires the shell. store must not be nil; pass persist.NewMemoryStore()
// to run without a save file. streamer may be nil.
func New(world *sim.World, store *persist.Store, streamer *telemetry.Streamer, seed int64, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	return &Game{
		world:    world,
		store:    store,
		streamer: streamer,
		seed:     seed,
		logger:   logger,
	}
}

// Update advances one fixed simulation step per display tick.
func (g *Game) Update() error {
	g.handleInput()
	if g.paused || g.gameOver {
		return nil
	}
	g.world.Step(sim.TickDt)
	g.collectPings()

	if g.streamer != nil && g.world.Tick()%telemetryEvery == 0 {
		if err := g.streamer.Publish(telemetry.CaptureFrame(g.world)); err != nil {
			g.logger.Warn("telemetry publish failed", "err", err)
		}
	}

	if g.world.CrystalPower() <= 0 && !g.gameOver {
		g.gameOver = true
		if err := g.store.RecordRun(g.world.Wave().Number, g.world.Kills(), g.seed); err != nil {
			g.logger.Warn("saving run record failed", "err", err)
		}
		g.logger.Info("crystal destroyed",
			"wave", g.world.Wave().Number, "kills", g.world.Kills(), "tick", g.world.Tick())
	}
	return nil
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	mx, my := ebiten.CursorPosition()
	cursor := sim.Vec2{X: float64(mx), Y: float64(my)}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.world.SelectAt(cursor, 16)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.world.CommandMove(cursor)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		// Thrown lure: draws dormant zombies toward the cursor.
		t := g.world.Tuning()
		g.world.InjectNoise(cursor, t.Soldier.NoiseRadius, 1.0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.world.SpawnBarricade(cursor, sim.Footprint{W: 2, H: 2}, 200)
	}
}

func (g *Game) collectPings() {
	for _, ev := range g.world.DrainNoiseViz() {
		g.pings = append(g.pings, noisePing{x: ev.X, y: ev.Y, radius: ev.Radius, ttl: 20})
	}
	live := g.pings[:0]
	for _, p := range g.pings {
		p.ttl--
		if p.ttl > 0 {
			live = append(live, p)
		}
	}
	g.pings = live
}

// Draw renders terrain, agents, pings, fog and HUD, back to front.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	g.drawTerrain(screen)
	g.drawAgents(screen)
	g.drawPings(screen)
	g.drawFog(screen)
	g.drawHUD(screen)
}

func (g *Game) drawTerrain(screen *ebiten.Image) {
	grid := g.world.WalkGrid()
	cs := float32(grid.CellSize)
	for cy := 0; cy < grid.Rows; cy++ {
		for cx := 0; cx < grid.Cols; cx++ {
			if grid.Walkable(cx, cy) {
				continue
			}
			vector.FillRect(screen, float32(cx)*cs, float32(cy)*cs, cs, cs, colBlocked, false)
		}
	}
}

func (g *Game) drawAgents(screen *ebiten.Image) {
	t := g.world.Tuning()
	for _, s := range g.world.Snapshots() {
		x, y := float32(s.X), float32(s.Y)
		switch s.Faction {
		case "player":
			vector.DrawFilledCircle(screen, x, y, 5, colSoldier, true)
		case "enemy":
			c, ok := zombieStateColors[s.State]
			if !ok {
				c = zombieStateColors["idle"]
			}
			vector.DrawFilledCircle(screen, x, y, 5, c, true)
		case "neutral":
			if s.Label == "CR" {
				vector.DrawFilledCircle(screen, x, y, float32(t.Crystal.Radius), colCrystal, true)
			}
		}
		if s.Selected {
			vector.StrokeCircle(screen, x, y, 8, 1.0, colHUD, true)
		}
		if s.HealthPct < 1 {
			g.drawHealthBar(screen, x, y-10, s.HealthPct)
		}
	}
}

func (g *Game) drawHealthBar(screen *ebiten.Image, x, y float32, pct float64) {
	const w, h = 12, 2
	vector.FillRect(screen, x-w/2, y, w, h, colHealthBack, false)
	vector.FillRect(screen, x-w/2, y, w*float32(pct), h, colHealthFill, false)
}

func (g *Game) drawPings(screen *ebiten.Image) {
	for _, p := range g.pings {
		grow := 1.0 - float64(p.ttl)/20.0
		vector.StrokeCircle(screen, float32(p.x), float32(p.y),
			float32(p.radius*grow), 1.0, colNoiseRing, true)
	}
}

func (g *Game) drawFog(screen *ebiten.Image) {
	vis := g.world.Visibility()
	cs := float32(vis.CellSize)
	for cy := 0; cy < vis.Rows; cy++ {
		for cx := 0; cx < vis.Cols; cx++ {
			switch vis.At(cx, cy) {
			case sim.VisVisible:
				continue
			case sim.VisExplored:
				vector.FillRect(screen, float32(cx)*cs, float32(cy)*cs, cs, cs, colExplored, false)
			default:
				vector.FillRect(screen, float32(cx)*cs, float32(cy)*cs, cs, cs, colHidden, false)
			}
		}
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	w := g.world
	ws := w.WaveStatus()
	best := g.store.Progress()
	line := fmt.Sprintf("wave %d  enemies %d(+%d)  kills %d  crystal %3.0f%%  threat %.2f  best wave %d",
		ws.Number, ws.EnemiesAlive, ws.Pending, w.Kills(),
		w.CrystalPower()*100, w.ThreatLevel(), best.BestWave)
	text.Draw(screen, line, basicfont.Face7x13, 8, 16, colHUD)
	if g.paused {
		text.Draw(screen, "PAUSED (space)", basicfont.Face7x13, 8, 32, colHUD)
	}
	if g.gameOver {
		text.Draw(screen, "THE CRYSTAL HAS FALLEN", basicfont.Face7x13,
			int(w.Width)/2-80, int(w.Height)/2, colHUD)
	}
}

// Layout keeps the screen 1:1 with world units.
func (g *Game) Layout(_, _ int) (int, int) {
	return int(g.world.Width), int(g.world.Height)
}
