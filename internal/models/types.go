package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidBlueprint is returned by Blueprint.Validate
var ErrInvalidBlueprint = errors.New("invalid blueprint")

// Resource represents the different resource kinds in the economy
type Resource int

const (
	Ore Resource = iota
	Clay
	Obsidian
	Geode

	// NumResources is the size of every per-kind array
	NumResources = 4
)

// MaxQuantity is the largest accepted recipe cost
const MaxQuantity = math.MaxInt32

// Terminal is the resource whose accumulated yield is optimized.
// It is never consumed by a recipe.
const Terminal = Geode

// String returns the lowercase name used in blueprint text
func (r Resource) String() string {
	switch r {
	case Ore:
		return "ore"
	case Clay:
		return "clay"
	case Obsidian:
		return "obsidian"
	case Geode:
		return "geode"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// Valid reports whether r is one of the known kinds
func (r Resource) Valid() bool {
	return r >= Ore && r <= Geode
}

// ParseResource converts a name like "obsidian" back into a Resource
func ParseResource(name string) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ore":
		return Ore, nil
	case "clay":
		return Clay, nil
	case "obsidian":
		return Obsidian, nil
	case "geode":
		return Geode, nil
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// AllResources returns all resource kinds in deterministic order
func AllResources() []Resource {
	return []Resource{Ore, Clay, Obsidian, Geode}
}

// Amounts holds one integer per resource kind, indexed by Resource
type Amounts [NumResources]int

// Get returns the amount for a specific resource kind
func (a Amounts) Get(r Resource) int {
	return a[r]
}

// Total returns the sum across all kinds
func (a Amounts) Total() int {
	total := 0
	for _, v := range a {
		total += v
	}
	return total
}

// Cost is a single (kind, quantity) entry of a recipe
type Cost struct {
	Kind     Resource
	Quantity int
}

// Recipe is the fixed cost of instantiating one producer of a kind
type Recipe struct {
	Produces Resource
	Costs    []Cost
}

// Needs returns the quantity of kind required by this recipe (0 if none)
func (r Recipe) Needs(kind Resource) int {
	for _, c := range r.Costs {
		if c.Kind == kind {
			return c.Quantity
		}
	}
	return 0
}

// String renders the recipe like "obsidian: 3 ore + 14 clay"
func (r Recipe) String() string {
	parts := make([]string, 0, len(r.Costs))
	for _, c := range r.Costs {
		parts = append(parts, fmt.Sprintf("%d %s", c.Quantity, c.Kind))
	}
	return fmt.Sprintf("%s: %s", r.Produces, strings.Join(parts, " + "))
}

// Blueprint is one recipe catalog plus its identifying id
type Blueprint struct {
	ID      int
	Recipes [NumResources]Recipe
}

// NewBlueprint builds a blueprint from the four reference costs
func NewBlueprint(id, oreOre, clayOre, obsidianOre, obsidianClay, geodeOre, geodeObsidian int) Blueprint {
	return Blueprint{
		ID: id,
		Recipes: [NumResources]Recipe{
			Ore:      {Produces: Ore, Costs: []Cost{{Ore, oreOre}}},
			Clay:     {Produces: Clay, Costs: []Cost{{Ore, clayOre}}},
			Obsidian: {Produces: Obsidian, Costs: []Cost{{Ore, obsidianOre}, {Clay, obsidianClay}}},
			Geode:    {Produces: Geode, Costs: []Cost{{Ore, geodeOre}, {Obsidian, geodeObsidian}}},
		},
	}
}

// RecipeFor returns the recipe producing kind
func (b *Blueprint) RecipeFor(kind Resource) Recipe {
	return b.Recipes[kind]
}

// AllRecipes returns the recipes terminal-first so depth-first search
// reaches high-value branches early
func (b *Blueprint) AllRecipes() []Recipe {
	recipes := make([]Recipe, 0, NumResources)
	for k := NumResources - 1; k >= 0; k-- {
		recipes = append(recipes, b.Recipes[k])
	}
	return recipes
}

// MaxCost returns the largest quantity of kind demanded by any recipe
func (b *Blueprint) MaxCost(kind Resource) int {
	max := 0
	for _, r := range b.Recipes {
		if q := r.Needs(kind); q > max {
			max = q
		}
	}
	return max
}

// MaxCosts returns MaxCost for every kind
func (b *Blueprint) MaxCosts() Amounts {
	var out Amounts
	for _, k := range AllResources() {
		out[k] = b.MaxCost(k)
	}
	return out
}

// Validate checks the structural invariants the search relies on
func (b *Blueprint) Validate() error {
	for slot, r := range b.Recipes {
		kind := Resource(slot)
		if r.Produces != kind {
			return fmt.Errorf("%w %d: %s slot produces %s", ErrInvalidBlueprint, b.ID, kind, r.Produces)
		}
		if len(r.Costs) == 0 {
			return fmt.Errorf("%w %d: %s recipe has no costs", ErrInvalidBlueprint, b.ID, kind)
		}
		var seen [NumResources]bool
		for _, c := range r.Costs {
			if !c.Kind.Valid() {
				return fmt.Errorf("%w %d: %s recipe uses %s", ErrInvalidBlueprint, b.ID, kind, c.Kind)
			}
			if c.Kind == Terminal {
				return fmt.Errorf("%w %d: %s recipe consumes %s", ErrInvalidBlueprint, b.ID, kind, Terminal)
			}
			if seen[c.Kind] {
				return fmt.Errorf("%w %d: %s recipe lists %s twice", ErrInvalidBlueprint, b.ID, kind, c.Kind)
			}
			if c.Quantity <= 0 || c.Quantity > MaxQuantity {
				return fmt.Errorf("%w %d: %s recipe needs %d %s, want 1..%d", ErrInvalidBlueprint, b.ID, kind, c.Quantity, c.Kind, MaxQuantity)
			}
			seen[c.Kind] = true
		}
	}
	return nil
}
