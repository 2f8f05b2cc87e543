package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		term     string
		want     bool
	}{
		{"partial word", "galho", "alho", false},
		{"word among decoys", Normalize("pé de galho, alho frito"), "alho", true},
		{"compound missing word", "arroz branco com feijao", "arroz doce", false},
		{"compound present", "arroz doce com canela", "arroz doce", true},
		{"compound any order", "doce de arroz", "arroz doce", true},
		{"exact", "alho", "alho", true},
		{"parentheses", "molho (alho)", "alho", true},
		{"hyphen", "alho-poro", "alho", true},
		{"slash", "leite/creme", "creme", true},
		{"suffix only", "alhos", "alho", false},
		{"empty term", "alho", "", false},
		{"blank term", "alho", "   ", false},
		{"empty haystack", "", "alho", false},
		{"regex metachar", "c++ e c", "c++", true},
		{"tab is not a boundary", "molho\talho", "alho", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsTerm(tt.haystack, tt.term))
		})
	}
}

func TestCompileTermZeroValue(t *testing.T) {
	var term Term
	assert.True(t, term.Empty())
	assert.False(t, term.MatchIn("anything"))

	compiled := CompileTerm("leite condensado")
	assert.False(t, compiled.Empty())
	assert.Equal(t, "leite condensado", compiled.Text())
	assert.True(t, compiled.MatchIn("bolo de leite condensado"))
	assert.False(t, compiled.MatchIn("bolo de leite"))
}
