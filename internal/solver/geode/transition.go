package geode

import "github.com/napolitain/geode-solver/internal/models"

// Outcome classifies the result of trying a recipe from a ledger
type Outcome int

const (
	Built       Outcome = iota
	Unreachable         // a cost kind has no producers
	Infeasible          // construction would finish after the deadline
)

// String returns a string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Built:
		return "Built"
	case Unreachable:
		return "Unreachable"
	case Infeasible:
		return "Infeasible"
	default:
		return "Unknown"
	}
}

// TimeToAfford returns the ticks of waiting before every cost of r is
// covered by stock, or -1 if some cost kind has no producers
func TimeToAfford(l Ledger, r models.Recipe) int {
	maxWait := 0
	for _, c := range r.Costs {
		have := l.Stock[c.Kind]
		if have >= c.Quantity {
			continue
		}
		rate := l.Producers[c.Kind]
		if rate <= 0 {
			return -1
		}
		// ceil(need/rate) without forming need+rate-1
		need := c.Quantity - have
		wait := (need-1)/rate + 1
		if wait > maxWait {
			maxWait = wait
		}
	}
	return maxWait
}

// Transition waits until r is affordable, spends one tick building and
// returns the derived ledger. The input ledger is never modified.
func Transition(l Ledger, r models.Recipe, deadline int) (Ledger, Outcome) {
	wait := TimeToAfford(l, r)
	if wait < 0 {
		return l, Unreachable
	}

	// The new producer only contributes from the tick after it is finished,
	// so the build needs wait+1 of the remaining ticks
	if wait >= l.Remaining(deadline) {
		return l, Infeasible
	}
	buildTime := wait + 1

	next := l.Advance(buildTime).ApplyCost(r).CommitProducer(r.Produces, deadline)
	next.parent = &l
	next.built = r.Produces
	return next, Built
}
