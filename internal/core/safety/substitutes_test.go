package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitutesFor(t *testing.T) {
	tests := []struct {
		name     string
		original string
		keys     []string
		want     []string
	}{
		{
			name:     "dairy keeps plant milks for lactose",
			original: "leite integral",
			keys:     []string{"lactose"},
			want:     []string{"leite de amêndoas", "leite de coco", "leite de aveia", "iogurte de coco", "queijo vegano", "tofu"},
		},
		{
			name:     "original and ghee dropped",
			original: "leite de coco",
			keys:     []string{"lactose_intolerance"},
			want:     []string{"leite de amêndoas", "leite de aveia", "iogurte de coco", "queijo vegano", "tofu", "creme de castanha de caju"},
		},
		{
			name:     "vegetarian celiac",
			original: "frango grelhado",
			keys:     []string{"vegetarian", "celiac"},
			want:     []string{"proteína de soja texturizada", "grão-de-bico", "lentilha", "cogumelos", "tofu", "jaca verde"},
		},
		{
			name:     "honey",
			original: "Mel",
			keys:     nil,
			want:     []string{"melado de cana", "xarope de bordo", "xarope de agave", "açúcar mascavo"},
		},
		{
			name:     "peanut detected before pasta",
			original: "pasta de amendoim",
			keys:     []string{"amendoim"},
			want:     []string{"pasta de castanha de caju", "pasta de amêndoas", "pasta de girassol", "tahine", "sementes de abóbora", "castanha-do-pará"},
		},
		{
			name:     "no category",
			original: "quinoa",
			keys:     []string{"lactose"},
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubstitutesFor(tt.original, tt.keys))
		})
	}
}

func TestDetectCategory(t *testing.T) {
	cat, ok := DetectCategory("Pão francês")
	assert.True(t, ok)
	assert.Equal(t, CategoryGluten, cat)

	_, ok = DetectCategory("abobrinha")
	assert.False(t, ok)
}

func TestEngineGetSubstitutes(t *testing.T) {
	tables := &Tables{
		Mappings:     []IngredientMapping{{Ingredient: "leite", IntoleranceKey: "lactose"}},
		SafeKeywords: []SafeKeyword{{IntoleranceKey: "lactose", Keyword: "de coco"}},
	}
	e := NewEngine(tables, Profile{Intolerances: []string{"lactose"}}, Options{})

	assert.Equal(t,
		[]string{"leite de coco", "iogurte de coco", "queijo vegano", "tofu", "creme de castanha de caju"},
		e.GetSubstitutes("leite"))
}

func TestEngineGetSubstitutesExcluded(t *testing.T) {
	e := NewEngine(&Tables{}, Profile{ExcludedIngredients: []string{"tofu"}}, Options{})

	assert.Equal(t,
		[]string{"leite de amêndoas", "leite de coco", "leite de aveia", "iogurte de coco", "queijo vegano", "manteiga ghee"},
		e.GetSubstitutes("queijo"))
}

func TestEngineGetSubstitutesDietaryOnly(t *testing.T) {
	e := NewEngine(&Tables{}, Profile{DietaryPreference: "vegan"}, Options{})

	// 沒有禁用食材資料時仍依偏好過濾
	got := e.GetSubstitutes("ovo")
	assert.NotContains(t, got, "ovo de codorna")
	assert.Contains(t, got, "aquafaba")
}
