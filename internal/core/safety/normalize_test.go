package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pão Francês", "pao frances"},
		{"AÇÚCAR", "acucar"},
		{"camarão", "camarao"},
		{"  Leite  ", "  leite  "},
		{"piña colada", "pina colada"},
		{"arroz-doce (1kg)", "arroz-doce (1kg)"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Pão de Queijo", "CRÈME brûlée", "São João", "ñoquis", "über", "123 ÁÉÍ"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "lactose_intolerance", NormalizeKey("Lactose Intolerance"))
	assert.Equal(t, "tree_nuts", NormalizeKey(" tree-nuts "))
	assert.Equal(t, "gluten", NormalizeKey("Glúten"))
	assert.Equal(t, "low_carb", NormalizeKey("low  carb"))
	assert.Equal(t, "", NormalizeKey("   "))
}
