package sim

// ObstacleSet tracks which agents block which walk-grid cells. Footprints
// may overlap, so each cell keeps a block count; a cell is walkable only
// while its count is zero. Registration and removal mark the set dirty so
// the world knows to regenerate the flow fields; fields are never rebuilt
// on a schedule.
type ObstacleSet struct {
	grid    *WalkGrid
	counts  []int
	byAgent map[int][]int // agent id → blocked cell indices
	dirty   bool
}

// NewObstacleSet wraps a walk grid.
func NewObstacleSet(grid *WalkGrid) *ObstacleSet {
	return &ObstacleSet{
		grid:    grid,
		counts:  make([]int, grid.Cols*grid.Rows),
		byAgent: make(map[int][]int),
	}
}

// Register blocks the footprint's cells, centred on pos. Registering the
// same agent twice replaces its previous footprint.
func (obs *ObstacleSet) Register(agentID int, pos Vec2, fp Footprint) {
	if _, ok := obs.byAgent[agentID]; ok {
		obs.Deregister(agentID)
	}
	ccx, ccy := obs.grid.CellAt(pos)
	x0 := ccx - fp.W/2
	y0 := ccy - fp.H/2
	var cells []int
	for cy := y0; cy < y0+fp.H; cy++ {
		for cx := x0; cx < x0+fp.W; cx++ {
			if !obs.grid.InBounds(cx, cy) {
				continue
			}
			i := obs.grid.index(cx, cy)
			obs.counts[i]++
			if obs.counts[i] == 1 {
				obs.grid.SetWalkable(cx, cy, false)
			}
			cells = append(cells, i)
		}
	}
	obs.byAgent[agentID] = cells
	obs.dirty = true
}

// Deregister releases the agent's cells. Unknown agents are a no-op.
func (obs *ObstacleSet) Deregister(agentID int) {
	cells, ok := obs.byAgent[agentID]
	if !ok {
		return
	}
	for _, i := range cells {
		obs.counts[i]--
		if obs.counts[i] <= 0 {
			obs.counts[i] = 0
			obs.grid.walkable[i] = true
		}
	}
	delete(obs.byAgent, agentID)
	obs.dirty = true
}

// Dirty reports whether walkability changed since the last ClearDirty.
func (obs *ObstacleSet) Dirty() bool { return obs.dirty }

// ClearDirty acknowledges a completed flow-field regeneration.
func (obs *ObstacleSet) ClearDirty() { obs.dirty = false }
