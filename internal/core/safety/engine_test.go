package safety

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTables() *Tables {
	return &Tables{
		Mappings: []IngredientMapping{
			{Ingredient: "leite", IntoleranceKey: "lactose", Language: "pt"},
			{Ingredient: "queijo", IntoleranceKey: "lactose", Language: "pt"},
			{Ingredient: "pão", IntoleranceKey: "gluten", Language: "pt"},
			{Ingredient: "trigo", IntoleranceKey: "gluten", Language: "pt"},
			{Ingredient: "farinha de trigo", IntoleranceKey: "gluten", Language: "pt"},
			{Ingredient: "cogumelo", IntoleranceKey: "mushroom_allergy", Language: "pt"},
		},
		SafeKeywords: []SafeKeyword{
			{IntoleranceKey: "gluten", Keyword: "sem glúten"},
			{IntoleranceKey: "lactose", Keyword: "sem lactose"},
		},
		KeyNormalizations: []KeyNormalization{
			{OnboardingKey: "lactose_intolerance", DatabaseKey: "lactose"},
			{OnboardingKey: "celiac", DatabaseKey: "gluten"},
			{OnboardingKey: "vegano", DatabaseKey: "vegan"},
		},
		DietaryForbidden: []DietaryForbidden{
			{DietaryKey: "vegan", Ingredient: "carne"},
			{DietaryKey: "vegan", Ingredient: "ovo"},
		},
	}
}

func ptLabels() *LabelCatalog {
	return NewLabelCatalog(map[string]string{"lactose": "Leite"})
}

func TestCheckFoodIntolerance(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose"}}, Options{Labels: ptLabels()})

	res := e.CheckFood("Bolo de leite condensado")
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"lactose"}, res.Conflicts)
	assert.Equal(t, []string{"Leite"}, res.Labels)
	require.NotNil(t, res.FullLabel)
	assert.Equal(t, "Contém Leite", *res.FullLabel)
	require.NotNil(t, res.BadgeLabel)
	assert.Equal(t, "Leite", *res.BadgeLabel)
	require.Len(t, res.ConflictDetails, 1)
	assert.Equal(t, TypeIntolerance, res.ConflictDetails[0].Type)
	assert.Equal(t, "Você tem intolerância a Leite", res.ConflictDetails[0].Message)
}

func TestCheckFoodExcluded(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{ExcludedIngredients: []string{"amendoim"}}, Options{})

	res := e.CheckFood("Pasta de amendoim")
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"excluded:amendoim"}, res.Conflicts)
	require.Len(t, res.ConflictDetails, 1)
	d := res.ConflictDetails[0]
	assert.Equal(t, TypeExcluded, d.Type)
	assert.Equal(t, "Amendoim", d.Label)
	assert.Equal(t, "Amendoim está na sua lista de exclusão.", d.Message)

	assert.False(t, e.CheckFood("amendoins torrados").HasConflict)
}

func TestCheckFoodSafeKeyword(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"gluten"}}, Options{})

	assert.False(t, e.CheckFood("pão sem glúten").HasConflict)
	assert.False(t, e.CheckFood("Pão SEM GLUTEN de arroz").HasConflict)

	res := e.CheckFood("pão francês")
	assert.Equal(t, []string{"gluten"}, res.Conflicts)
}

func TestCheckFoodDeduplicatesKey(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"gluten"}}, Options{})

	res := e.CheckFood("pão de farinha de trigo")
	assert.Equal(t, []string{"gluten"}, res.Conflicts)
	assert.Len(t, res.ConflictDetails, 1)
}

func TestCheckFoodOrdering(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{
		Intolerances:        []string{"gluten", "lactose"},
		ExcludedIngredients: []string{"ovo"},
	}, Options{Labels: ptLabels()})

	res := e.CheckFood("Omelete de ovo com queijo e pão")
	// 排除食材在前，不耐症依對照列順序
	assert.Equal(t, []string{"excluded:ovo", "lactose", "gluten"}, res.Conflicts)
	assert.Equal(t, []string{"Ovo", "Leite", "Glúten"}, res.Labels)
	assert.Equal(t, "Contém Ovo, Leite, Glúten", *res.FullLabel)
	assert.Equal(t, "Ovo", *res.BadgeLabel)
}

func TestCheckFoodKeyNormalization(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"Lactose Intolerance", "celiac"}}, Options{})

	assert.Equal(t, []string{"lactose", "gluten"}, e.ActiveKeys())
	assert.Equal(t, []string{"lactose"}, e.CheckFood("queijo").Conflicts)
	assert.Equal(t, []string{"gluten"}, e.CheckFood("trigo").Conflicts)
}

func TestCheckFoodUnresolvedLabel(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"mushroom_allergy"}}, Options{})

	res := e.CheckFood("risoto de cogumelo")
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"Mushroom Allergy"}, res.Labels)
}

func TestCheckFoodDietaryPreference(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{DietaryPreference: "vegano"}, Options{})

	// 預設只由分類器處理飲食偏好，不產生衝突
	assert.False(t, e.HasRestrictions())
	assert.Equal(t, []string{"vegan"}, e.ActiveKeys())
	assert.False(t, e.CheckFood("Carne assada").HasConflict)
}

func TestCheckFoodDietaryConflictsOption(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{DietaryPreference: "vegano"}, Options{DietaryConflicts: true})

	assert.False(t, e.HasRestrictions())
	assert.Equal(t, []string{"vegan"}, e.ActiveKeys())

	res := e.CheckFood("Carne assada")
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"vegan"}, res.Conflicts)
	assert.Equal(t, TypeDietary, res.ConflictDetails[0].Type)
	assert.Equal(t, "Incompatível com a sua dieta Vegana", res.ConflictDetails[0].Message)

	assert.False(t, e.CheckFood("salada verde").HasConflict)
}

func TestCheckFoodFoldsWhitespace(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"gluten"}}, Options{})

	assert.Equal(t, []string{"gluten"}, e.CheckFood("pão\tfrancês").Conflicts)
	assert.Equal(t, []string{"gluten"}, e.CheckFood("  farinha\nde   trigo ").Conflicts)
	assert.False(t, e.CheckFood("pão\tsem  glúten").HasConflict)
}

func TestCheckFoodEmptyInputs(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose"}}, Options{})

	res := e.CheckFood("   ")
	assert.False(t, res.HasConflict)
	assert.NotNil(t, res.Conflicts)
	assert.Nil(t, res.BadgeLabel)
	assert.Nil(t, res.FullLabel)

	// 參考資料尚未載入時不會回報不耐症
	empty := NewEngine(nil, Profile{Intolerances: []string{"lactose"}}, Options{})
	assert.False(t, empty.CheckFood("leite").HasConflict)
}

func TestCheckFoodLocale(t *testing.T) {
	labels := NewLabelCatalog(map[string]string{"lactose": "Milk"})
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose"}}, Options{Locale: LocaleEN, Labels: labels})

	res := e.CheckFood("leite")
	assert.Equal(t, "Contains Milk", *res.FullLabel)
	assert.Equal(t, "You have an intolerance to Milk", res.ConflictDetails[0].Message)
}

func TestEngineLabelsFrozen(t *testing.T) {
	labels := NewLabelCatalog(nil)
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose"}}, Options{Labels: labels})
	labels.SetDynamic([]IntoleranceLabel{{Key: "lactose", Label: "Laticínios"}})

	assert.Equal(t, []string{"Lactose"}, e.CheckFood("leite").Labels)
	assert.NotEqual(t, labels.Version(), e.LabelsVersion())
}

func TestCheckFoodConcurrent(t *testing.T) {
	e := NewEngine(fixtureTables(), Profile{Intolerances: []string{"lactose", "gluten"}}, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res := e.CheckFood("Pão de queijo")
				assert.Equal(t, []string{"lactose", "gluten"}, res.Conflicts)
			}
		}()
	}
	wg.Wait()
}
