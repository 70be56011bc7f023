package geode

import (
	"context"
	"fmt"

	"github.com/napolitain/geode-solver/internal/models"
)

// ctxCheckInterval is how many visited ledgers pass between context checks
const ctxCheckInterval = 1024

// Strategy selects how the decision tree is explored.
// Both strategies are exact: they visit every ledger the prunes keep.
type Strategy int

const (
	// BestFirst expands the ledger with the highest optimistic bound first
	BestFirst Strategy = iota
	// DepthFirst recursively enumerates successors in catalog order
	DepthFirst
)

// String returns the config/CLI name of the strategy
func (s Strategy) String() string {
	switch s {
	case BestFirst:
		return models.StrategyBestFirst
	case DepthFirst:
		return models.StrategyDepthFirst
	default:
		return "unknown"
	}
}

// ParseStrategy converts a config/CLI name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case models.StrategyBestFirst, "bfs", "best":
		return BestFirst, nil
	case models.StrategyDepthFirst, "depth-first":
		return DepthFirst, nil
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Options configures one search.
// Deadline must lie in [0, models.MaxDeadline].
type Options struct {
	Deadline     int
	Strategy     Strategy
	NodeBudget   int  // 0 = unlimited
	DisableBound bool // keep only the demand prune
}

// Result is the outcome of one search
type Result struct {
	Best         Ledger // a ledger attaining Yield
	Yield        int
	Nodes        int
	PeakFrontier int
	Complete     bool // false when the node budget or ctx stopped the search
	Strategy     Strategy
}

// Solver searches one blueprint's decision tree
type Solver struct {
	Blueprint models.Blueprint
	Options   Options

	recipes []models.Recipe
	maxCost models.Amounts
}

// NewSolver creates a solver for a validated blueprint
func NewSolver(bp models.Blueprint, opts Options) *Solver {
	return &Solver{
		Blueprint: bp,
		Options:   opts,
		recipes:   bp.AllRecipes(),
		maxCost:   bp.MaxCosts(),
	}
}

// searchState is the mutable bookkeeping of a single Solve call
type searchState struct {
	best      Ledger
	bestYield int
	nodes     int
	halted    bool
}

func (st *searchState) visit(l Ledger) {
	st.nodes++
	if l.Yield > st.bestYield {
		st.best = l
		st.bestYield = l.Yield
	}
}

// Solve explores every ledger reachable from the canonical start
func (s *Solver) Solve(ctx context.Context) Result {
	return s.SolveFrom(ctx, NewLedger())
}

// SolveFrom explores every ledger reachable from root
func (s *Solver) SolveFrom(ctx context.Context, root Ledger) Result {
	st := &searchState{best: root, bestYield: -1}

	var peak int
	switch s.Options.Strategy {
	case DepthFirst:
		s.depthFirst(ctx, root, st)
	default:
		peak = s.bestFirst(ctx, root, st)
	}

	if st.bestYield < root.Yield {
		st.bestYield = root.Yield
	}
	return Result{
		Best:         st.best,
		Yield:        st.bestYield,
		Nodes:        st.nodes,
		PeakFrontier: peak,
		Complete:     !st.halted,
		Strategy:     s.Options.Strategy,
	}
}

// Successors returns every feasible derived ledger that survives the
// demand prune, terminal recipe first
func (s *Solver) Successors(l Ledger) []Ledger {
	deadline := s.Options.Deadline
	out := make([]Ledger, 0, len(s.recipes))
	for _, r := range s.recipes {
		if r.Produces != models.Terminal && s.Saturated(l, r.Produces) {
			continue
		}
		next, outcome := Transition(l, r, deadline)
		if outcome != Built {
			continue
		}
		out = append(out, next)
	}
	return out
}

// Saturated reports whether supply of kind already covers the largest
// possible spend for every remaining tick
func (s *Solver) Saturated(l Ledger, kind models.Resource) bool {
	rem := l.Remaining(s.Options.Deadline)
	deficit := s.maxCost[kind] - l.Producers[kind]
	if rem <= 0 || deficit <= 0 {
		return true
	}
	// stock >= rem*deficit, compared by division so huge costs cannot wrap
	return l.Stock[kind]/rem >= deficit
}

// Bound is an optimistic ceiling on the yield of any descendant of l:
// one new terminal producer finishing on every remaining tick
func (s *Solver) Bound(l Ledger) int {
	rem := l.Remaining(s.Options.Deadline)
	if rem <= 1 {
		return l.Yield
	}
	return l.Yield + rem*(rem-1)/2
}

func (s *Solver) cut(bound int, st *searchState) bool {
	return !s.Options.DisableBound && bound <= st.bestYield
}

func (s *Solver) halt(ctx context.Context, st *searchState) bool {
	if st.halted {
		return true
	}
	if s.Options.NodeBudget > 0 && st.nodes >= s.Options.NodeBudget {
		st.halted = true
	} else if st.nodes%ctxCheckInterval == 0 && ctx.Err() != nil {
		st.halted = true
	}
	return st.halted
}

func (s *Solver) depthFirst(ctx context.Context, l Ledger, st *searchState) {
	if s.halt(ctx, st) {
		return
	}
	st.visit(l)
	if s.cut(s.Bound(l), st) {
		return
	}
	for _, next := range s.Successors(l) {
		s.depthFirst(ctx, next, st)
		if st.halted {
			return
		}
	}
}

func (s *Solver) bestFirst(ctx context.Context, root Ledger, st *searchState) int {
	f := NewFrontier()
	f.Push(root, s.Bound(root))

	for !f.Empty() {
		if s.halt(ctx, st) {
			break
		}
		l, bound := f.Pop()
		// The incumbent may have improved since l was queued
		if s.cut(bound, st) {
			continue
		}
		st.visit(l)
		for _, next := range s.Successors(l) {
			b := s.Bound(next)
			if s.cut(b, st) {
				continue
			}
			f.Push(next, b)
		}
	}
	return f.Peak()
}
