package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWords() []string {
	return []string{"leite", "leite de coco", "leite de amêndoas", "queijo", "coco  ralado", "arroz", "carne", "Leite"}
}

func lactoseEngine(pref string) *safety.Engine {
	tables := &safety.Tables{Mappings: []safety.IngredientMapping{{Ingredient: "leite", IntoleranceKey: "lactose"}}}
	return safety.NewEngine(tables, safety.Profile{Intolerances: []string{"lactose"}, DietaryPreference: pref}, safety.Options{})
}

func TestAutocompleteComplete(t *testing.T) {
	a := NewAutocomplete(testWords())
	assert.Equal(t, 7, a.Size())

	assert.Equal(t, []string{"leite", "leite de amêndoas", "leite de coco"}, a.Complete("Lei", 10))
	assert.Equal(t, []string{"coco ralado", "leite de coco"}, a.Complete("coco", 10))
	assert.Equal(t, []string{"leite de amêndoas"}, a.Complete("AMENDO", 10))
	assert.Equal(t, []string{"leite"}, a.Complete("l", 1))
	assert.Equal(t, []string{}, a.Complete("  ", 10))
	assert.Equal(t, []string{}, a.Complete("xyz", 10))
}

func TestAutocompleteRebuild(t *testing.T) {
	a := NewAutocomplete(nil)
	assert.Equal(t, 0, a.Size())
	assert.Empty(t, a.Complete("a", 10))

	a.Rebuild([]string{"abacate", "abobrinha"})
	assert.Equal(t, []string{"abacate", "abobrinha"}, a.Complete("ab", 0))
}

func TestAutocompleteSuggest(t *testing.T) {
	a := NewAutocomplete(testWords())
	e := lactoseEngine("vegan")

	items := a.Suggest(e, "c", 10)
	require.Len(t, items, 2)
	assert.Equal(t, "coco ralado", items[0].Name)
	assert.False(t, items[0].Result.HasConflict)
	assert.Equal(t, "leite de coco", items[1].Name)
	assert.Equal(t, []string{"lactose"}, items[1].Result.Conflicts)
}

func newChatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func remoteFor(srv *httptest.Server) *RemoteSubstitutes {
	return NewRemoteSubstitutes(config.OpenRouterConfig{
		Enabled:   true,
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 100,
		Timeout:   2 * time.Second,
	}, "ingredient-safety-test")
}

func TestRemoteSubstitutesGenerate(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "```json\n[\"tofu\", \"leite\", \"cogumelos\", \"tofu\", \"grão-de-bico\"]\n```")

	list, err := remoteFor(srv).Generate(context.Background(), "quinoa", []string{"lactose"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tofu", "leite", "cogumelos", "tofu", "grão-de-bico"}, list)
}

func TestParseSuggestionsLines(t *testing.T) {
	assert.Equal(t, []string{"Tofu", "Grão-de-bico", "Lentilha"}, parseSuggestions("1. Tofu\n2. Grão-de-bico\n\n- Lentilha"))
}

func TestSubstitutesFor(t *testing.T) {
	ctx := context.Background()
	e := lactoseEngine("")

	srv := newChatServer(t, http.StatusOK, `["tofu", "leite", "cogumelos", "tofu", "grão-de-bico", "Quinoa"]`)
	s := NewSubstitutes(remoteFor(srv))
	assert.True(t, s.RemoteEnabled())

	list, source := s.For(ctx, e, "quinoa")
	assert.Equal(t, SourceRemote, source)
	assert.Equal(t, []string{"tofu", "cogumelos", "grão-de-bico"}, list)

	list, source = s.For(ctx, e, "leite")
	assert.Equal(t, SourceStatic, source)
	assert.NotEmpty(t, list)
	assert.NotContains(t, list, "leite de amêndoas")
}

func TestSubstitutesRemoteFailure(t *testing.T) {
	srv := newChatServer(t, http.StatusInternalServerError, "")
	s := NewSubstitutes(remoteFor(srv))

	list, source := s.For(context.Background(), lactoseEngine(""), "quinoa")
	assert.Equal(t, SourceNone, source)
	assert.Empty(t, list)

	list, source = NewSubstitutes(nil).For(context.Background(), lactoseEngine(""), "quinoa")
	assert.Equal(t, SourceNone, source)
	assert.Empty(t, list)
}
