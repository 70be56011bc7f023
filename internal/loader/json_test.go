package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/geode-solver/internal/models"
)

const referenceJSON = `[
  {"id": 1, "recipes": {
    "ore": {"ore": 4},
    "clay": {"ore": 2},
    "obsidian": {"ore": 3, "clay": 14},
    "geode": {"ore": 2, "obsidian": 7}
  }},
  {"id": 2, "recipes": {
    "geode": {"obsidian": 12, "ore": 3},
    "obsidian": {"ore": 3, "clay": 8},
    "clay": {"ore": 3},
    "ore": {"ore": 2}
  }}
]`

func TestParseBlueprintsJSON(t *testing.T) {
	bps, skipped, err := ParseBlueprintsJSON([]byte(referenceJSON), Options{})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, bps, 2)
	assert.Equal(t, models.NewBlueprint(1, 4, 2, 3, 14, 2, 7), bps[0])
	assert.Equal(t, models.NewBlueprint(2, 2, 3, 3, 8, 3, 12), bps[1])
}

func TestParseBlueprintsJSONWrapped(t *testing.T) {
	doc := `{"blueprints": ` + referenceJSON + `}`
	bps, _, err := ParseBlueprintsJSON([]byte(doc), Options{})
	require.NoError(t, err)
	assert.Len(t, bps, 2)
}

func TestParseBlueprintsJSONMalformed(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"invalid document", `[{"id": 1,`, "json"},
		{"not an array", `{"id": 1}`, "json"},
		{"fractional id", `[{"id": 1.5, "recipes": {}}]`, "id"},
		{"missing recipes", `[{"id": 1}]`, "recipes"},
		{"unknown kind", `[{"id": 1, "recipes": {"gold": {"ore": 1}}}]`, "recipes"},
		{"string quantity", `[{"id": 1, "recipes": {"ore": {"ore": "4"}}}]`, "ore"},
		{"missing recipe", `[{"id": 1, "recipes": {"ore": {"ore": 4}}}]`, "clay"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseBlueprintsJSON([]byte(tc.doc), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.field, perr.Field)
			assert.Zero(t, perr.Line)
		})
	}
}

func TestParseBlueprintsJSONSkipInvalid(t *testing.T) {
	doc := `{"blueprints": [
	  {"id": 7, "recipes": {"ore": {"ore": 4}}},
	  {"id": 1, "recipes": {"ore": {"ore": 4}, "clay": {"ore": 2}, "obsidian": {"ore": 3, "clay": 14}, "geode": {"ore": 2, "obsidian": 7}}}
	]}`
	bps, skipped, err := ParseBlueprintsJSON([]byte(doc), Options{SkipInvalid: true})
	require.NoError(t, err)
	require.Len(t, bps, 1)
	assert.Equal(t, 1, bps[0].ID)
	require.Len(t, skipped, 1)
	assert.Equal(t, "blueprints[0]", skipped[0].Input)
}
