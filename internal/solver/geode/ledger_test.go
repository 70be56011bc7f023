package geode

import (
	"testing"

	"github.com/napolitain/geode-solver/internal/models"
)

func TestNewLedger(t *testing.T) {
	l := NewLedger()
	if l.Tick != 0 {
		t.Errorf("initial tick should be 0, got %d", l.Tick)
	}
	if l.Producers != (models.Amounts{1, 0, 0, 0}) {
		t.Errorf("initial producers should be one ore producer, got %v", l.Producers)
	}
	if l.Stock.Total() != 0 || l.Yield != 0 {
		t.Errorf("initial ledger should be empty, got %s", l)
	}
	if l.Parent() != nil {
		t.Error("initial ledger should have no parent")
	}
	if len(l.Plan()) != 0 {
		t.Errorf("initial plan should be empty, got %v", l.Plan())
	}
}

func TestAdvanceIsPure(t *testing.T) {
	l := Ledger{Tick: 3, Stock: models.Amounts{1, 2, 3, 0}, Producers: models.Amounts{2, 1, 0, 1}}
	before := l

	next := l.Advance(4)

	if !l.SameState(before) {
		t.Fatalf("Advance mutated its receiver: %s", l)
	}
	if next.Tick != 7 {
		t.Errorf("expected tick 7, got %d", next.Tick)
	}
	want := models.Amounts{9, 6, 3, 4}
	if next.Stock != want {
		t.Errorf("expected stock %v, got %v", want, next.Stock)
	}
	if next.Producers != l.Producers {
		t.Errorf("Advance changed producers: %v", next.Producers)
	}

	if same := l.Advance(0); !same.SameState(l) {
		t.Errorf("Advance(0) should be identity, got %s", same)
	}
}

func TestApplyCost(t *testing.T) {
	bp := models.NewBlueprint(1, 4, 2, 3, 14, 2, 7)
	l := Ledger{Stock: models.Amounts{5, 20, 0, 0}}

	next := l.ApplyCost(bp.RecipeFor(models.Obsidian))
	if next.Stock != (models.Amounts{2, 6, 0, 0}) {
		t.Errorf("unexpected stock after cost: %v", next.Stock)
	}
	if l.Stock != (models.Amounts{5, 20, 0, 0}) {
		t.Errorf("ApplyCost mutated its receiver: %v", l.Stock)
	}
}

func TestApplyCostPanicsOnNegativeStock(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when stock would go negative")
		}
	}()
	bp := models.NewBlueprint(1, 4, 2, 3, 14, 2, 7)
	Ledger{Stock: models.Amounts{1, 0, 0, 0}}.ApplyCost(bp.RecipeFor(models.Ore))
}

func TestCommitProducer(t *testing.T) {
	l := Ledger{Tick: 18, Yield: 2}

	clay := l.CommitProducer(models.Clay, 24)
	if clay.Producers[models.Clay] != 1 || clay.Yield != 2 {
		t.Errorf("non-terminal commit should only add a producer, got %s", clay)
	}

	geode := l.CommitProducer(models.Geode, 24)
	if geode.Producers[models.Geode] != 1 {
		t.Errorf("expected one geode producer, got %v", geode.Producers)
	}
	if geode.Yield != 2+6 {
		t.Errorf("terminal commit at tick 18 of 24 should add 6, got yield %d", geode.Yield)
	}
	if l.Producers[models.Geode] != 0 {
		t.Error("CommitProducer mutated its receiver")
	}
}
