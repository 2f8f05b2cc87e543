package safety

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMealMergesConflicts(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose", "gluten"}}, Options{Labels: ptLabels()})

	res := e.CheckMeal("Sanduíche natural", []string{"pão", "queijo", "leite", "alface"})
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"gluten", "lactose"}, res.Conflicts)
	assert.Len(t, res.ConflictDetails, 2)
	assert.Equal(t, "Contém Glúten, Leite", *res.FullLabel)
}

func TestCheckMealNameFirst(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{
		Intolerances:        []string{"gluten"},
		ExcludedIngredients: []string{"Cebola"},
	}, Options{})

	res := e.CheckMeal("Torta de cebola", []string{"farinha de trigo", "cebola roxa"})
	assert.Equal(t, []string{"excluded:cebola", "gluten"}, res.Conflicts)
	assert.Equal(t, "Cebola", res.ConflictDetails[0].Label)
}

func TestCheckMealNoRestrictions(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{}, Options{})

	res := e.CheckMeal("Pão de queijo", []string{"leite", "trigo"})
	assert.False(t, res.HasConflict)
	assert.Empty(t, res.Conflicts)
}

func TestCheckMealPreferenceOnlyShortCircuits(t *testing.T) {
	for _, opts := range []Options{{}, {DietaryConflicts: true}} {
		e := NewEngine(fixtureTables(), Profile{DietaryPreference: "vegan"}, opts)

		res := e.CheckMeal("Carne assada", []string{"ovo"})
		assert.False(t, res.HasConflict)
		assert.Empty(t, res.Conflicts)
	}
}

func TestCheckBatch(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"gluten"}}, Options{})

	entries := e.CheckBatch([]string{"pão sem glúten", "pão francês", "arroz"})
	require.Len(t, entries, 3)
	assert.Equal(t, "pão sem glúten", entries[0].Name)
	assert.False(t, entries[0].Result.HasConflict)
	assert.True(t, entries[1].Result.HasConflict)
	assert.False(t, entries[2].Result.HasConflict)

	m := BatchMap(entries)
	assert.Len(t, m, 3)
	assert.True(t, m["pão francês"].Has("gluten"))
}

func TestIngredientRecords(t *testing.T) {
	raw := `["queijo", {"name": "leite"}, {"ingredient": "pão"}, {"item": "ovo"},
		42, {"foo": "bar"}, null, {"name": 5}, {"name": "  ", "item": "mel"}]`

	var records []IngredientRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 9)

	assert.Equal(t, []string{"queijo", "leite", "pão", "ovo", "mel"}, ToIngredientNames(records))
	assert.Equal(t, "sal", ToIngredientName(TextIngredient(" sal ")))
	assert.Equal(t, "", ToIngredientName(IngredientRecord{}))
}
