package loader

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/napolitain/geode-solver/internal/models"
)

// ParseBlueprintsJSON reads either a top-level array of blueprints or an
// object with a "blueprints" array:
//
//	[{"id": 1, "recipes": {"ore": {"ore": 4}, "clay": {"ore": 2}, ...}}]
func ParseBlueprintsJSON(data []byte, opts Options) ([]models.Blueprint, []*ParseError, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, &ParseError{Field: "json", Err: malformed("invalid JSON document")}
	}

	root := gjson.ParseBytes(data)
	path := ""
	if root.IsObject() {
		root = root.Get("blueprints")
		path = "blueprints"
	}
	if !root.IsArray() {
		return nil, nil, &ParseError{Field: "json", Err: malformed("expected an array of blueprints")}
	}

	var (
		blueprints []models.Blueprint
		skipped    []*ParseError
		fatal      *ParseError
	)
	seen := make(map[int]bool)
	idx := 0
	root.ForEach(func(_, v gjson.Result) bool {
		where := fmt.Sprintf("%s[%d]", path, idx)
		if path == "" {
			where = fmt.Sprintf("[%d]", idx)
		}
		idx++

		bp, perr := parseBlueprintJSON(v)
		if perr == nil && seen[bp.ID] {
			perr = &ParseError{Field: "id", Err: malformed("id %d already used", bp.ID)}
		}
		if perr != nil {
			perr.Input = where
			if !opts.SkipInvalid {
				fatal = perr
				return false
			}
			skipped = append(skipped, perr)
			return true
		}
		seen[bp.ID] = true
		blueprints = append(blueprints, bp)
		return true
	})
	if fatal != nil {
		return nil, nil, fatal
	}
	return blueprints, skipped, nil
}

func parseBlueprintJSON(v gjson.Result) (models.Blueprint, *ParseError) {
	id := v.Get("id")
	if id.Type != gjson.Number || float64(id.Int()) != id.Num {
		return models.Blueprint{}, &ParseError{Field: "id", Err: malformed("id must be an integer, got %s", id.Raw)}
	}
	bp := models.Blueprint{ID: int(id.Int())}

	recipes := v.Get("recipes")
	if !recipes.IsObject() {
		return bp, &ParseError{Field: "recipes", Err: malformed("recipes must be an object")}
	}

	var (
		defined [models.NumResources]bool
		perr    *ParseError
	)
	recipes.ForEach(func(name, costs gjson.Result) bool {
		kind, err := models.ParseResource(name.String())
		if err != nil {
			perr = &ParseError{Field: "recipes", Err: malformed("%v", err)}
			return false
		}
		if !costs.IsObject() {
			perr = &ParseError{Field: kind.String(), Err: malformed("costs must be an object")}
			return false
		}
		recipe := models.Recipe{Produces: kind}
		costs.ForEach(func(costName, qty gjson.Result) bool {
			costKind, err := models.ParseResource(costName.String())
			if err != nil {
				perr = &ParseError{Field: kind.String(), Err: malformed("%v", err)}
				return false
			}
			if qty.Type != gjson.Number || float64(qty.Int()) != qty.Num {
				perr = &ParseError{Field: kind.String(), Err: malformed("%s quantity must be an integer, got %s", costKind, qty.Raw)}
				return false
			}
			recipe.Costs = append(recipe.Costs, models.Cost{Kind: costKind, Quantity: int(qty.Int())})
			return true
		})
		if perr != nil {
			return false
		}
		bp.Recipes[kind] = recipe
		defined[kind] = true
		return true
	})
	if perr != nil {
		return bp, perr
	}
	return bp, finish(&bp, defined)
}
