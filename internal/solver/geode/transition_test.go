package geode

import (
	"math"
	"testing"

	"github.com/napolitain/geode-solver/internal/models"
)

var (
	scenarioA = models.NewBlueprint(1, 4, 2, 3, 14, 2, 7)
	scenarioB = models.NewBlueprint(2, 2, 3, 3, 8, 3, 12)
)

func TestTimeToAfford(t *testing.T) {
	tests := []struct {
		name   string
		ledger Ledger
		kind   models.Resource
		want   int
	}{
		{"already affordable", Ledger{Stock: models.Amounts{4, 0, 0, 0}, Producers: models.Amounts{1, 0, 0, 0}}, models.Ore, 0},
		{"ceil division", Ledger{Stock: models.Amounts{1, 0, 0, 0}, Producers: models.Amounts{2, 0, 0, 0}}, models.Ore, 2},
		{"exact division", Ledger{Stock: models.Amounts{0, 0, 0, 0}, Producers: models.Amounts{2, 0, 0, 0}}, models.Ore, 2},
		{"slowest cost wins", Ledger{Stock: models.Amounts{3, 4, 0, 0}, Producers: models.Amounts{1, 2, 0, 0}}, models.Obsidian, 5},
		{"no clay producer", Ledger{Stock: models.Amounts{10, 0, 0, 0}, Producers: models.Amounts{1, 0, 0, 0}}, models.Obsidian, -1},
		{"stock covers missing producer", Ledger{Stock: models.Amounts{10, 14, 0, 0}, Producers: models.Amounts{1, 0, 0, 0}}, models.Obsidian, 0},
	}

	for _, tc := range tests {
		got := TimeToAfford(tc.ledger, scenarioA.RecipeFor(tc.kind))
		if got != tc.want {
			t.Errorf("%s: TimeToAfford = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestTransitionBuildsClay(t *testing.T) {
	start := NewLedger()

	next, outcome := Transition(start, scenarioA.RecipeFor(models.Clay), 24)
	if outcome != Built {
		t.Fatalf("expected Built, got %s", outcome)
	}
	// 2 ticks to collect 2 ore, one more to build
	if next.Tick != 3 {
		t.Errorf("expected tick 3, got %d", next.Tick)
	}
	if next.Stock != (models.Amounts{1, 0, 0, 0}) {
		t.Errorf("expected 1 ore left, got %v", next.Stock)
	}
	if next.Producers != (models.Amounts{1, 1, 0, 0}) {
		t.Errorf("expected a clay producer, got %v", next.Producers)
	}
	if next.Parent() == nil || !next.Parent().SameState(start) {
		t.Error("derived ledger should link to its parent")
	}
	if !start.SameState(NewLedger()) {
		t.Error("Transition mutated its input")
	}
}

func TestTransitionNegativeOutcomes(t *testing.T) {
	start := NewLedger()

	l, outcome := Transition(start, scenarioA.RecipeFor(models.Obsidian), 24)
	if outcome != Unreachable {
		t.Errorf("obsidian without clay producers should be Unreachable, got %s", outcome)
	}
	if !l.SameState(start) {
		t.Errorf("unreachable transition should return its input, got %s", l)
	}

	// 4 ticks of collecting plus one of building cannot fit before tick 4
	_, outcome = Transition(start, scenarioA.RecipeFor(models.Ore), 4)
	if outcome != Infeasible {
		t.Errorf("expected Infeasible, got %s", outcome)
	}

	// Waits longer than the remaining ticks never wrap around
	huge := []struct {
		name   string
		ledger Ledger
		qty    int
	}{
		{"max cost, one producer", NewLedger(), math.MaxInt},
		{"max cost, two producers", Ledger{Producers: models.Amounts{2, 0, 0, 0}}, math.MaxInt},
		{"max cost minus one", Ledger{Tick: 3, Stock: models.Amounts{2, 0, 0, 0}, Producers: models.Amounts{1, 0, 0, 0}}, math.MaxInt - 1},
		{"many producers", Ledger{Producers: models.Amounts{math.MaxInt32, 0, 0, 0}}, math.MaxInt},
	}
	for _, tc := range huge {
		r := models.Recipe{Produces: models.Clay, Costs: []models.Cost{{Kind: models.Ore, Quantity: tc.qty}}}
		if wait := TimeToAfford(tc.ledger, r); wait <= 0 {
			t.Errorf("%s: TimeToAfford = %d, want a positive wait", tc.name, wait)
		}
		l, outcome := Transition(tc.ledger, r, 24)
		if outcome != Infeasible {
			t.Errorf("%s: expected Infeasible, got %s", tc.name, outcome)
		}
		if !l.SameState(tc.ledger) {
			t.Errorf("%s: infeasible transition should return its input, got %s", tc.name, l)
		}
	}

	// Finishing exactly on the deadline is allowed
	l, outcome = Transition(start, scenarioA.RecipeFor(models.Ore), 5)
	if outcome != Built || l.Tick != 5 {
		t.Errorf("expected Built at tick 5, got %s at tick %d", outcome, l.Tick)
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	choices := []models.Resource{
		models.Clay, models.Clay, models.Clay, models.Obsidian,
		models.Clay, models.Obsidian, models.Geode, models.Geode,
	}

	replay := func() Ledger {
		l := NewLedger()
		for _, kind := range choices {
			next, outcome := Transition(l, scenarioA.RecipeFor(kind), 24)
			if outcome != Built {
				t.Fatalf("choice %s was %s from %s", kind, outcome, l)
			}
			l = next
		}
		return l
	}

	first := replay()
	if first.Tick != 21 || first.Yield != 9 {
		t.Errorf("expected tick 21 with yield 9, got %s", first)
	}
	for i := 0; i < 10; i++ {
		if again := replay(); !again.SameState(first) {
			t.Fatalf("replay %d diverged: %s vs %s", i, again, first)
		}
	}

	plan := first.Plan()
	if len(plan) != len(choices) {
		t.Fatalf("expected %d plan steps, got %d", len(choices), len(plan))
	}
	for i, step := range plan {
		if step.Kind != choices[i] {
			t.Errorf("step %d built %s, want %s", i, step.Kind, choices[i])
		}
		if i > 0 && step.Complete <= plan[i-1].Complete {
			t.Errorf("step %d completes at %d, not after %d", i, step.Complete, plan[i-1].Complete)
		}
	}
}

// FuzzTransition drives random choice sequences through random blueprints
// and checks the tick and stock invariants of every feasible transition.
// Costs span the whole int range and the start may have many ore producers.
func FuzzTransition(f *testing.F) {
	f.Add(uint64(4), uint64(2), uint64(3), uint64(14), uint64(2), uint64(7), uint32(0), uint16(24), []byte{1, 1, 1, 2, 1, 2, 3, 3})
	f.Add(uint64(2), uint64(3), uint64(3), uint64(8), uint64(3), uint64(12), uint32(0), uint16(24), []byte{0, 1, 1, 2, 2, 3})
	f.Add(uint64(1), uint64(1), uint64(1), uint64(1), uint64(1), uint64(1), uint32(3), uint16(5), []byte{3, 2, 1, 0})
	f.Add(uint64(1), uint64(1), uint64(1), uint64(1), uint64(math.MaxInt), uint64(1), uint32(0), uint16(24), []byte{1, 2, 3, 3, 3})
	f.Add(uint64(1), uint64(1), uint64(1), uint64(1), uint64(math.MaxInt-1), uint64(1), uint32(1), uint16(24), []byte{1, 2, 3, 3})
	f.Add(uint64(math.MaxInt), uint64(math.MaxInt), uint64(math.MaxInt), uint64(math.MaxInt), uint64(math.MaxInt), uint64(math.MaxInt), uint32(math.MaxUint32), uint16(math.MaxUint16), []byte{0, 1, 2, 3})

	f.Fuzz(func(t *testing.T, oreOre, clayOre, obsOre, obsClay, geoOre, geoObs uint64, extraOre uint32, deadline uint16, choices []byte) {
		cost := func(v uint64) int {
			q := int(v & math.MaxInt)
			if q == 0 {
				q = 1
			}
			return q
		}
		bp := models.NewBlueprint(1, cost(oreOre), cost(clayOre), cost(obsOre), cost(obsClay), cost(geoOre), cost(geoObs))
		horizon := int(deadline) % 1000

		l := NewLedger()
		l.Producers[models.Ore] += int(extraOre)
		for _, c := range choices {
			r := bp.RecipeFor(models.Resource(int(c) % models.NumResources))
			next, outcome := Transition(l, r, horizon)
			if outcome != Built {
				if !next.SameState(l) {
					t.Fatalf("%s transition changed the ledger", outcome)
				}
				continue
			}
			if next.Tick <= l.Tick {
				t.Fatalf("tick did not advance: %d -> %d", l.Tick, next.Tick)
			}
			if next.Tick > horizon {
				t.Fatalf("tick %d passed deadline %d", next.Tick, horizon)
			}
			for _, k := range models.AllResources() {
				if next.Stock[k] < 0 {
					t.Fatalf("negative %s stock %d", k, next.Stock[k])
				}
			}
			if next.Yield < l.Yield {
				t.Fatalf("yield decreased: %d -> %d", l.Yield, next.Yield)
			}
			l = next
		}
	})
}
