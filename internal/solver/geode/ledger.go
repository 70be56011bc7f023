package geode

import (
	"fmt"

	"github.com/napolitain/geode-solver/internal/models"
)

// Ledger is an immutable snapshot of the economy.
// Tick counts elapsed ticks; the canonical start is tick 0.
type Ledger struct {
	Tick      int
	Stock     models.Amounts
	Producers models.Amounts
	Yield     int // terminal output already guaranteed by the deadline

	parent *Ledger
	built  models.Resource
}

// NewLedger returns the canonical initial ledger: one producer of the
// first resource kind and nothing else
func NewLedger() Ledger {
	var l Ledger
	l.Producers[models.Ore] = 1
	return l
}

// Advance returns a ledger with ticks of production accumulated.
// ticks must not be negative.
func (l Ledger) Advance(ticks int) Ledger {
	next := l
	for k := range next.Stock {
		next.Stock[k] += next.Producers[k] * ticks
	}
	next.Tick += ticks
	return next
}

// ApplyCost deducts a recipe's costs. Going negative is a logic fault
// in the caller and panics.
func (l Ledger) ApplyCost(r models.Recipe) Ledger {
	next := l
	for _, c := range r.Costs {
		next.Stock[c.Kind] -= c.Quantity
		if next.Stock[c.Kind] < 0 {
			panic(fmt.Sprintf("geode: negative %s stock %d at tick %d after %s",
				c.Kind, next.Stock[c.Kind], next.Tick, r))
		}
	}
	return next
}

// CommitProducer adds one producer of kind. A terminal producer credits
// its whole future output up to deadline immediately.
func (l Ledger) CommitProducer(kind models.Resource, deadline int) Ledger {
	next := l
	next.Producers[kind]++
	if kind == models.Terminal {
		next.Yield += deadline - next.Tick
	}
	return next
}

// Remaining returns the ticks left before deadline
func (l Ledger) Remaining(deadline int) int {
	return deadline - l.Tick
}

// Parent returns the ledger this one was derived from, or nil for a root
func (l Ledger) Parent() *Ledger {
	return l.parent
}

// Step is one construction on the path to a ledger
type Step struct {
	Kind     models.Resource
	Complete int // tick at which the new producer starts contributing
	Stock    models.Amounts
	Yield    int
}

// Plan walks the parent chain and returns the constructions oldest first
func (l Ledger) Plan() []Step {
	var steps []Step
	for cur := &l; cur.parent != nil; cur = cur.parent {
		steps = append(steps, Step{
			Kind:     cur.built,
			Complete: cur.Tick,
			Stock:    cur.Stock,
			Yield:    cur.Yield,
		})
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// String renders a compact one-line summary
func (l Ledger) String() string {
	return fmt.Sprintf("t=%d stock=%v producers=%v yield=%d", l.Tick, l.Stock, l.Producers, l.Yield)
}

// SameState reports whether two ledgers hold identical economy state,
// ignoring how they were derived
func (l Ledger) SameState(o Ledger) bool {
	return l.Tick == o.Tick && l.Stock == o.Stock && l.Producers == o.Producers && l.Yield == o.Yield
}
