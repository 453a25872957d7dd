// Package worklist implements component C: a plain FIFO queue of
// (pointer, delta) entries. Duplicate entries are allowed by design —
// the solvers that drain this queue perform idempotent delta-only
// propagation, so redundant entries are simply no-ops when popped.
//
// Grounded on the same queue-of-deltas shape used by the Go compiler's
// SCCP worklist (cmd/compile/internal/ssa/sccp.go: t.edges / t.uses
// consumed FIFO, re-fed by addUses) and on a plain BFS reachability
// queue, generalized from a plain node queue to a (node, delta) pair
// queue.
package worklist

// Entry pairs a pointer node id with the delta points-to set that
// needs to be propagated into it.
type Entry[N any, D any] struct {
	Node  N
	Delta D
}

// Worklist is a generic FIFO queue. The zero value is ready to use.
type Worklist[N any, D any] struct {
	items []Entry[N, D]
}

// Push enqueues an entry.
func (w *Worklist[N, D]) Push(n N, d D) {
	w.items = append(w.items, Entry[N, D]{Node: n, Delta: d})
}

// Poll dequeues the oldest entry, reporting false when empty.
func (w *Worklist[N, D]) Poll() (Entry[N, D], bool) {
	if len(w.items) == 0 {
		var zero Entry[N, D]
		return zero, false
	}
	e := w.items[0]
	w.items = w.items[1:]
	return e, true
}

// Empty reports whether the queue has no pending entries.
func (w *Worklist[N, D]) Empty() bool { return len(w.items) == 0 }

// Len returns the number of pending entries.
func (w *Worklist[N, D]) Len() int { return len(w.items) }
