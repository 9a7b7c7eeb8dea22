package sim

import "math"

// UnreachableCost marks a cell no BFS wave ever reached.
const UnreachableCost = math.MaxUint32

// flowDirs is the fixed neighbour enumeration order shared by the BFS
// expansion and the direction pass: cardinals first, then diagonals. Ties
// always break toward the first enumerated neighbour, keeping generation
// deterministic for a given grid and goal.
var flowDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// WalkGrid is the walkability grid shared by every flow field over the same
// world region. Only obstacle registration writes it.
type WalkGrid struct {
	Cols, Rows int
	CellSize   float64
	walkable   []bool
}

// NewWalkGrid creates a fully walkable grid covering width × height world
// units.
func NewWalkGrid(width, height, cellSize float64) *WalkGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &WalkGrid{Cols: cols, Rows: rows, CellSize: cellSize, walkable: make([]bool, cols*rows)}
	for i := range g.walkable {
		g.walkable[i] = true
	}
	return g
}

func (g *WalkGrid) index(cx, cy int) int { return cy*g.Cols + cx }

// InBounds reports whether the cell lies inside the grid.
func (g *WalkGrid) InBounds(cx, cy int) bool {
	return cx >= 0 && cy >= 0 && cx < g.Cols && cy < g.Rows
}

// Walkable reports whether the cell is inside the grid and not blocked.
func (g *WalkGrid) Walkable(cx, cy int) bool {
	return g.InBounds(cx, cy) && g.walkable[g.index(cx, cy)]
}

// SetWalkable marks a single cell. Out-of-bounds writes are ignored.
func (g *WalkGrid) SetWalkable(cx, cy int, ok bool) {
	if g.InBounds(cx, cy) {
		g.walkable[g.index(cx, cy)] = ok
	}
}

// CellAt maps a world position to cell coordinates (unclamped).
func (g *WalkGrid) CellAt(p Vec2) (int, int) {
	return int(math.Floor(p.X / g.CellSize)), int(math.Floor(p.Y / g.CellSize))
}

// CellCenter returns the world-space centre of a cell.
func (g *WalkGrid) CellCenter(cx, cy int) Vec2 {
	return Vec2{
		X: (float64(cx) + 0.5) * g.CellSize,
		Y: (float64(cy) + 0.5) * g.CellSize,
	}
}

// FlowField steers agents toward one goal: every walkable cell gets an
// integration cost (BFS depth from the goal) and a unit direction pointing
// at its cheapest reachable neighbour. Two independent instances exist per
// world, sharing one WalkGrid: the global field (goal = crystal) and the
// destination field (goal = latest move command).
//
// Generation is demand-driven: only an obstacle change or a changed goal
// triggers a new BFS pass, observable through the generation counter.
type FlowField struct {
	grid *WalkGrid

	cost []uint32
	dirX []float32
	dirY []float32

	goalX, goalY int
	hasGoal      bool
	generation   uint64

	queue []int // reusable BFS queue
}

// NewFlowField creates an inert field: no goal, zero directions everywhere,
// every cost at the unreachable sentinel.
func NewFlowField(grid *WalkGrid) *FlowField {
	n := grid.Cols * grid.Rows
	f := &FlowField{
		grid:  grid,
		cost:  make([]uint32, n),
		dirX:  make([]float32, n),
		dirY:  make([]float32, n),
		queue: make([]int, 0, n),
	}
	for i := range f.cost {
		f.cost[i] = UnreachableCost
	}
	return f
}

// Generation returns how many BFS passes have run.
func (f *FlowField) Generation() uint64 { return f.generation }

// HasGoal reports whether a goal has ever been set.
func (f *FlowField) HasGoal() bool { return f.hasGoal }

// SetGoal points the field at a world position. Setting the same goal cell
// again is a no-op: no second BFS pass runs.
func (f *FlowField) SetGoal(goal Vec2) {
	cx, cy := f.grid.CellAt(goal)
	if cx < 0 {
		cx = 0
	}
	if cx >= f.grid.Cols {
		cx = f.grid.Cols - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= f.grid.Rows {
		cy = f.grid.Rows - 1
	}
	if f.hasGoal && cx == f.goalX && cy == f.goalY {
		return
	}
	f.goalX, f.goalY = cx, cy
	f.hasGoal = true
	f.regenerate()
}

// Invalidate re-runs generation against the current goal after the shared
// walkability grid changed. A field with no goal stays inert.
func (f *FlowField) Invalidate() {
	if !f.hasGoal {
		return
	}
	f.regenerate()
}

func (f *FlowField) regenerate() {
	g := f.grid
	for i := range f.cost {
		f.cost[i] = UnreachableCost
		f.dirX[i] = 0
		f.dirY[i] = 0
	}

	// The goal cell seeds the BFS even when an obstacle covers it (the
	// crystal blocks its own cell). If the goal sits inside a blocked patch,
	// the whole contiguous patch seeds at cost zero, so the wave escapes the
	// obstacle's rim and agents converge on it instead of getting no field.
	goalIdx := g.index(f.goalX, f.goalY)
	f.cost[goalIdx] = 0
	f.queue = f.queue[:0]
	f.queue = append(f.queue, goalIdx)
	if !g.walkable[goalIdx] {
		for head := 0; head < len(f.queue); head++ {
			cur := f.queue[head]
			cx := cur % g.Cols
			cy := cur / g.Cols
			for _, d := range flowDirs[:4] {
				nx, ny := cx+d[0], cy+d[1]
				if !g.InBounds(nx, ny) || g.Walkable(nx, ny) {
					continue
				}
				ni := g.index(nx, ny)
				if f.cost[ni] == 0 {
					continue
				}
				f.cost[ni] = 0
				f.queue = append(f.queue, ni)
			}
		}
	}

	// Uniform-cost BFS outward from the seeds. Insertion order is
	// deterministic given the fixed neighbour enumeration.
	for head := 0; head < len(f.queue); head++ {
		cur := f.queue[head]
		cx := cur % g.Cols
		cy := cur / g.Cols
		for _, d := range flowDirs {
			nx, ny := cx+d[0], cy+d[1]
			if !g.Walkable(nx, ny) {
				continue
			}
			// No corner cutting: a diagonal step requires both adjacent
			// cardinals to be open.
			if d[0] != 0 && d[1] != 0 {
				if !g.Walkable(cx+d[0], cy) || !g.Walkable(cx, cy+d[1]) {
					continue
				}
			}
			ni := g.index(nx, ny)
			if f.cost[ni] != UnreachableCost {
				continue
			}
			f.cost[ni] = f.cost[cur] + 1
			f.queue = append(f.queue, ni)
		}
	}

	// Direction pass: each reached cell points at its lowest-cost reachable
	// neighbour. The goal cell keeps a zero direction (arrived).
	for cy := 0; cy < g.Rows; cy++ {
		for cx := 0; cx < g.Cols; cx++ {
			i := g.index(cx, cy)
			if f.cost[i] == UnreachableCost || f.cost[i] == 0 {
				continue
			}
			var best uint32 = UnreachableCost
			bx, by := 0, 0
			for _, d := range flowDirs {
				nx, ny := cx+d[0], cy+d[1]
				if !g.InBounds(nx, ny) {
					continue
				}
				// A cost-zero goal cell is a valid step target even when
				// blocked; rim cells must point at it, not sideways.
				ni := g.index(nx, ny)
				if !g.Walkable(nx, ny) && f.cost[ni] != 0 {
					continue
				}
				if d[0] != 0 && d[1] != 0 {
					if !g.Walkable(cx+d[0], cy) || !g.Walkable(cx, cy+d[1]) {
						continue
					}
				}
				nc := f.cost[ni]
				if nc < best {
					best = nc
					bx, by = d[0], d[1]
				}
			}
			if best == UnreachableCost {
				continue
			}
			l := math.Hypot(float64(bx), float64(by))
			f.dirX[i] = float32(float64(bx) / l)
			f.dirY[i] = float32(float64(by) / l)
		}
	}
	f.generation++
}

// CostAt returns the integration cost of a cell; out of bounds is
// unreachable.
func (f *FlowField) CostAt(cx, cy int) uint32 {
	if !f.grid.InBounds(cx, cy) {
		return UnreachableCost
	}
	return f.cost[f.grid.index(cx, cy)]
}

// DirAtCell returns the unit flow direction of a cell, zero if unreachable
// or at the goal.
func (f *FlowField) DirAtCell(cx, cy int) Vec2 {
	if !f.grid.InBounds(cx, cy) {
		return Vec2{}
	}
	i := f.grid.index(cx, cy)
	return Vec2{X: float64(f.dirX[i]), Y: float64(f.dirY[i])}
}

// DirAt returns the flow direction under a world position.
func (f *FlowField) DirAt(p Vec2) Vec2 {
	cx, cy := f.grid.CellAt(p)
	return f.DirAtCell(cx, cy)
}

// AtGoal reports whether the position sits in the goal cell.
func (f *FlowField) AtGoal(p Vec2) bool {
	if !f.hasGoal {
		return false
	}
	cx, cy := f.grid.CellAt(p)
	return cx == f.goalX && cy == f.goalY
}
