package sim

// VisState is the fog-of-war state of a visibility cell.
type VisState uint8

const (
	// VisHidden has never been seen.
	VisHidden VisState = iota
	// VisExplored was seen earlier but no unit watches it now.
	VisExplored
	// VisVisible is inside a living player unit's view radius this tick.
	VisVisible
)

// VisibilityGrid tracks which parts of the map the player has uncovered.
// Cells only ever move forward: hidden to visible, visible to explored and
// back to visible, never back to hidden.
type VisibilityGrid struct {
	Cols, Rows int
	CellSize   float64
	states     []VisState
}

// NewVisibilityGrid covers the same region as the walk grid so overlays can
// share cell coordinates.
func NewVisibilityGrid(cols, rows int, cellSize float64) *VisibilityGrid {
	return &VisibilityGrid{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		states:   make([]VisState, cols*rows),
	}
}

// At returns the state of a cell; out of bounds is hidden.
func (vg *VisibilityGrid) At(cx, cy int) VisState {
	if cx < 0 || cy < 0 || cx >= vg.Cols || cy >= vg.Rows {
		return VisHidden
	}
	return vg.states[cy*vg.Cols+cx]
}

// Update downgrades last tick's visible cells to explored, then reveals a
// disc around every living player unit. Runs single-threaded at the end of
// the tick.
func (vg *VisibilityGrid) Update(agents []*Agent, radius float64) {
	for i, s := range vg.states {
		if s == VisVisible {
			vg.states[i] = VisExplored
		}
	}
	cellRadius := int(radius/vg.CellSize) + 1
	r2 := radius * radius
	for _, a := range agents {
		if a.Faction != FactionPlayer || !a.Alive() {
			continue
		}
		ccx := int(a.Pos.X / vg.CellSize)
		ccy := int(a.Pos.Y / vg.CellSize)
		for cy := ccy - cellRadius; cy <= ccy+cellRadius; cy++ {
			if cy < 0 || cy >= vg.Rows {
				continue
			}
			for cx := ccx - cellRadius; cx <= ccx+cellRadius; cx++ {
				if cx < 0 || cx >= vg.Cols {
					continue
				}
				c := Vec2{
					X: (float64(cx) + 0.5) * vg.CellSize,
					Y: (float64(cy) + 0.5) * vg.CellSize,
				}
				d := c.Sub(a.Pos)
				if d.X*d.X+d.Y*d.Y <= r2 {
					vg.states[cy*vg.Cols+cx] = VisVisible
				}
			}
		}
	}
}
