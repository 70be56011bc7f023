package geode

import "container/heap"

// pending is a ledger waiting in the frontier with its optimistic bound
type pending struct {
	ledger   Ledger
	bound    int
	sequence int64 // insertion order for stable ordering
}

// pendingHeap implements heap.Interface as a max-heap on bound
type pendingHeap []pending

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].bound != h[j].bound {
		return h[i].bound > h[j].bound
	}
	// Deeper ledgers first on ties, then insertion order
	if h[i].ledger.Tick != h[j].ledger.Tick {
		return h[i].ledger.Tick > h[j].ledger.Tick
	}
	return h[i].sequence < h[j].sequence
}

func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) {
	*h = append(*h, x.(pending))
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Frontier is a priority queue of pending ledgers, highest bound first.
// Ties are broken deterministically so repeated searches match.
type Frontier struct {
	h        pendingHeap
	sequence int64
	peak     int
}

// NewFrontier creates an empty frontier
func NewFrontier() *Frontier {
	f := &Frontier{h: make(pendingHeap, 0, 64)}
	heap.Init(&f.h)
	return f
}

// Push adds a ledger with its optimistic bound
func (f *Frontier) Push(l Ledger, bound int) {
	f.sequence++
	heap.Push(&f.h, pending{ledger: l, bound: bound, sequence: f.sequence})
	if len(f.h) > f.peak {
		f.peak = len(f.h)
	}
}

// Pop removes and returns the ledger with the highest bound
func (f *Frontier) Pop() (Ledger, int) {
	p := heap.Pop(&f.h).(pending)
	return p.ledger, p.bound
}

// Empty returns true if no ledgers are pending
func (f *Frontier) Empty() bool {
	return len(f.h) == 0
}

// Len returns the number of pending ledgers
func (f *Frontier) Len() int {
	return len(f.h)
}

// Peak returns the largest size the frontier reached
func (f *Frontier) Peak() int {
	return f.peak
}
