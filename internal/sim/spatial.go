package sim

import (
	"math"
	"sync/atomic"
)

// Cell is a discretized grid coordinate. Cells are derived from positions
// every rebuild and never persisted as ground truth.
type Cell struct {
	X, Y int
}

// SpatialIndex is a double-buffered cell-hash multimap from Cell to agent
// ids. One buffer is built in parallel during a tick while every reader
// queries the buffer completed on the previous tick; Swap flips an atomic
// flag at the tick boundary. Readers therefore see positions that are one
// tick stale, which is acceptable because per-tick displacement is small
// relative to the cell size.
type SpatialIndex struct {
	cellSize float64
	offset   Vec2

	buffers [2]map[Cell][]int
	readIdx atomic.Int32
}

// NewSpatialIndex creates an index with the given cell size and world
// offset. Buffers are created lazily on first build; a query against an
// index that has never been built returns nothing.
func NewSpatialIndex(cellSize float64, offset Vec2) *SpatialIndex {
	return &SpatialIndex{cellSize: cellSize, offset: offset}
}

// CellOf maps a world position to its cell.
func (si *SpatialIndex) CellOf(p Vec2) Cell {
	return Cell{
		X: int(math.Floor((p.X + si.offset.X) / si.cellSize)),
		Y: int(math.Floor((p.Y + si.offset.Y) / si.cellSize)),
	}
}

func (si *SpatialIndex) writeBuffer() map[Cell][]int {
	w := 1 - si.readIdx.Load()
	if si.buffers[w] == nil {
		si.buffers[w] = make(map[Cell][]int, 1024)
	}
	return si.buffers[w]
}

// Rebuild bulk-inserts every living agent's (cell → id) pair into the write
// buffer. The work is chunked across the runner's workers; each worker fills
// a private shard which is merged single-threaded at the join point, so no
// two goroutines ever touch the same bucket. Buckets grow as needed; an
// accepted insertion is never dropped.
func (si *SpatialIndex) Rebuild(agents []*Agent, runner *BatchRunner) {
	shards := make([]map[Cell][]int, runner.Workers())
	runner.Run(len(agents), func(worker, start, end int) {
		shard := make(map[Cell][]int, end-start)
		for _, a := range agents[start:end] {
			if !a.Alive() {
				continue
			}
			c := si.CellOf(a.Pos)
			shard[c] = append(shard[c], a.ID)
		}
		shards[worker] = shard
	})

	w := si.writeBuffer()
	for c := range w {
		w[c] = w[c][:0]
	}
	for _, shard := range shards {
		for c, ids := range shard {
			w[c] = append(w[c], ids...)
		}
	}
}

// Swap makes the just-built write buffer the read buffer and clears the new
// write target. Must only be called from the single-threaded tick boundary,
// after all rebuild work has joined.
func (si *SpatialIndex) Swap() {
	si.readIdx.Store(1 - si.readIdx.Load())
	w := 1 - si.readIdx.Load()
	for c := range si.buffers[w] {
		si.buffers[w][c] = si.buffers[w][c][:0]
	}
}

// Query returns the ids inserted for the cell during the previous tick's
// build. The returned slice is read-only and valid until the next Swap.
func (si *SpatialIndex) Query(c Cell) []int {
	buf := si.buffers[si.readIdx.Load()]
	if buf == nil {
		return nil
	}
	return buf[c]
}

// ForEachNear calls fn for every id whose cell intersects the square of the
// given radius around p. Distance filtering is left to the caller since
// cell membership is one tick stale anyway.
func (si *SpatialIndex) ForEachNear(p Vec2, radius float64, fn func(id int)) {
	buf := si.buffers[si.readIdx.Load()]
	if buf == nil {
		return
	}
	c := si.CellOf(p)
	span := int(math.Ceil(radius/si.cellSize)) + 1
	for dy := -span; dy <= span; dy++ {
		for dx := -span; dx <= span; dx++ {
			for _, id := range buf[Cell{c.X + dx, c.Y + dy}] {
				fn(id)
			}
		}
	}
}
