package sim

// DamageEvent is a deferred hit. Producers running in parallel never touch
// target health directly; they emit one of these and the world applies the
// whole batch single-threaded after the batch joins.
type DamageEvent struct {
	Target     int
	Amount     float64
	Dir        Vec2 // attack direction, for knockback and debug overlays
	Attacker   int
	FromPlayer bool
}

// NoiseEvent is a sound emission. Noises are collected during the parallel
// phase and rolled against dormant zombies single-threaded, so activation
// uses one rand stream and stays reproducible for a given seed.
type NoiseEvent struct {
	Origin Vec2
	Radius float64
	Life   float64 // seconds the noise keeps rolling
}

// EventBus collects events from parallel producers without locks: each
// worker appends to its own shard, and Drain merges shards in worker order
// after the producing batch has joined. Within a shard order is emission
// order, so a single-worker run drains in exact FIFO order.
type EventBus[T any] struct {
	shards [][]T
}

// NewEventBus creates a bus with one shard per worker.
func NewEventBus[T any](workers int) *EventBus[T] {
	return &EventBus[T]{shards: make([][]T, workers)}
}

// Emit appends an event to the calling worker's shard. Safe to call
// concurrently from distinct workers, never from the same worker twice at
// once.
func (b *EventBus[T]) Emit(worker int, ev T) {
	b.shards[worker] = append(b.shards[worker], ev)
}

// Drain visits every buffered event in worker-then-emission order and resets
// the shards, keeping their capacity. Must only run single-threaded.
func (b *EventBus[T]) Drain(fn func(ev T)) {
	for w := range b.shards {
		for _, ev := range b.shards[w] {
			fn(ev)
		}
		b.shards[w] = b.shards[w][:0]
	}
}

// Len returns the number of buffered events across all shards.
func (b *EventBus[T]) Len() int {
	n := 0
	for _, s := range b.shards {
		n += len(s)
	}
	return n
}

// DebugEvent is one line of combat diagnostics, kept in a capped queue for
// overlays and telemetry.
type DebugEvent struct {
	Tick int     `json:"tick"`
	Kind string  `json:"kind"`
	Msg  string  `json:"msg"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// NoiseVizEvent is a noise ping for the renderer.
type NoiseVizEvent struct {
	Tick   int
	X, Y   float64
	Radius float64
}

// CappedQueue is a bounded diagnostic buffer. When full, pushing drops the
// oldest entry; diagnostics are best-effort and must never grow without
// bound during long headless runs.
type CappedQueue[T any] struct {
	items []T
	cap   int
}

// NewCappedQueue creates a queue holding at most capacity entries
// (minimum 1).
func NewCappedQueue[T any](capacity int) *CappedQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &CappedQueue[T]{cap: capacity}
}

// Push appends an entry, evicting the oldest if the queue is full.
func (q *CappedQueue[T]) Push(item T) {
	if len(q.items) >= q.cap {
		copy(q.items, q.items[1:])
		q.items[len(q.items)-1] = item
		return
	}
	q.items = append(q.items, item)
}

// Len returns the number of buffered entries.
func (q *CappedQueue[T]) Len() int { return len(q.items) }

// Drain returns and clears the buffered entries, oldest first.
func (q *CappedQueue[T]) Drain() []T {
	out := q.items
	q.items = nil
	return out
}

// Peek returns the buffered entries without clearing them.
func (q *CappedQueue[T]) Peek() []T { return q.items }
