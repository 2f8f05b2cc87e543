package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		ingredient string
		preference string
		want       bool
	}{
		{"camarão", "vegan", false},
		{"quinoa", "vegan", true},
		{"queijo", "low_carb", true},
		{"queijo", "vegetarian", true},
		{"queijo", "vegan", false},
		{"Frango", "vegetariano", false},
		{"Mel", "vegana", false},
		{"gelatina", "vegan", false},
		{"ovo", "vegetarian", true},
		{"bacon", "ketogenic", true},
		{"bacon", "", true},
		{"bacon", "omnivore", true},
		{"bacon", "paleo", true},
		// 完整比對，不做子字串比對
		{"frango com batata", "vegan", true},
	}
	for _, tt := range tests {
		t.Run(tt.ingredient+"/"+tt.preference, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCompatible(tt.ingredient, tt.preference))
		})
	}
}

func TestFilterCompatible(t *testing.T) {
	in := []string{"tofu", "frango", "leite", "arroz", "salmão", "mel"}

	assert.Equal(t, []string{"tofu", "arroz"}, FilterCompatible(in, "vegan"))
	assert.Equal(t, []string{"tofu", "leite", "arroz", "mel"}, FilterCompatible(in, "vegetarian"))
	assert.Equal(t, in, FilterCompatible(in, ""))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []Category{CategoryDairy}, Categories("Queijo"))
	assert.Equal(t, []Category{CategoryPeanut}, Categories("pasta de amendoim"))
	assert.Empty(t, Categories("quinoa"))
}
