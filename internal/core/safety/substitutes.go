package safety

import "strings"

// MaxSubstitutes 單次回傳的替代食材上限
const MaxSubstitutes = 6

type substituteGroup struct {
	category    Category
	keywords    []string
	substitutes []string
}

// 替代食材表：依序以關鍵字包含比對偵測分類，第一個命中的分類生效。
// 與飲食分類器的字彙分開維護。
var substituteTable = []substituteGroup{
	{
		category: CategoryPeanut,
		keywords: []string{"amendoim", "pacoca", "peanut", "cacahuate", "mani"},
		substitutes: []string{
			"pasta de castanha de caju", "pasta de amêndoas", "pasta de girassol", "tahine",
			"sementes de abóbora", "castanha-do-pará", "pasta de amendoim sem açúcar",
		},
	},
	{
		category: CategoryDairy,
		keywords: []string{
			"leite", "queijo", "manteiga", "iogurte", "creme de leite", "requeijao", "nata", "ricota",
			"milk", "cheese", "butter", "yogurt", "cream", "leche", "queso", "mantequilla",
		},
		substitutes: []string{
			"leite de amêndoas", "leite de coco", "leite de aveia", "iogurte de coco", "queijo vegano",
			"tofu", "manteiga ghee", "creme de castanha de caju", "leite sem lactose",
		},
	},
	{
		category: CategoryEgg,
		keywords: []string{"ovo", "ovos", "gema", "clara de ovo", "maionese", "egg", "huevo"},
		substitutes: []string{
			"linhaça hidratada", "chia hidratada", "purê de banana", "aquafaba", "tofu mexido",
			"maionese vegana", "ovo de codorna",
		},
	},
	{
		category: CategorySeafood,
		keywords: []string{
			"peixe", "salmao", "atum", "bacalhau", "tilapia", "sardinha", "camarao", "lagosta",
			"fish", "salmon", "tuna", "shrimp", "pescado", "camaron",
		},
		substitutes: []string{
			"palmito", "tofu defumado", "cogumelo shimeji", "banana-da-terra", "jaca verde", "peito de frango",
		},
	},
	{
		category: CategoryMeat,
		keywords: []string{
			"carne", "frango", "bacon", "presunto", "linguica", "salsicha", "peru", "costela", "picanha",
			"beef", "chicken", "pork", "ham", "pollo", "cerdo",
		},
		substitutes: []string{
			"proteína de soja texturizada", "grão-de-bico", "lentilha", "cogumelos", "tofu",
			"seitan", "jaca verde", "ovo cozido", "peixe grelhado",
		},
	},
	{
		category: CategoryGluten,
		keywords: []string{
			"farinha de trigo", "trigo", "pao", "macarrao", "massa", "cevada", "centeio", "biscoito",
			"wheat", "bread", "pasta", "flour", "harina", "pan",
		},
		substitutes: []string{
			"farinha de arroz", "farinha de amêndoas", "tapioca", "macarrão de arroz", "pão sem glúten",
			"quinoa", "fécula de batata", "pão de forma integral",
		},
	},
	{
		category: CategorySugar,
		keywords: []string{"acucar", "xarope", "rapadura", "sugar", "syrup", "azucar"},
		substitutes: []string{
			"xilitol", "eritritol", "estévia", "tâmaras", "banana amassada", "mel", "açúcar de coco",
		},
	},
	{
		category: CategoryHoney,
		keywords: []string{"mel", "honey", "miel"},
		substitutes: []string{
			"melado de cana", "xarope de bordo", "xarope de agave", "açúcar mascavo",
		},
	},
}

type restrictionFilter struct {
	terms []string
	// 植物性等修飾詞，出現時不視為該限制的食材，例如 "leite de amêndoas"
	safeQualifiers []string
}

var plantQualifiers = []string{
	"de amendoas", "de coco", "de aveia", "de arroz", "de soja", "de castanha", "vegano", "vegana", "vegetal",
}

var animalTerms = []string{
	"carne", "frango", "peixe", "bacon", "presunto", "linguica", "salsicha", "atum", "salmao",
	"camarao", "costela", "chicken", "beef", "pork", "fish",
}

var restrictionFilters = map[string]restrictionFilter{
	"lactose": {
		terms:          []string{"leite", "queijo", "manteiga", "iogurte", "creme de leite", "requeijao", "nata", "ghee", "milk", "cheese", "butter"},
		safeQualifiers: append(append([]string{}, plantQualifiers...), "sem lactose", "zero lactose"),
	},
	"gluten": {
		terms:          []string{"trigo", "pao", "macarrao", "massa", "cevada", "centeio", "seitan", "biscoito", "wheat", "bread"},
		safeQualifiers: []string{"sem gluten", "gluten free", "de arroz"},
	},
	"egg": {
		terms:          []string{"ovo", "ovos", "gema", "maionese", "egg"},
		safeQualifiers: []string{"sem ovo", "vegana", "vegano"},
	},
	"peanut": {
		terms:          []string{"amendoim", "peanut"},
		safeQualifiers: []string{"sem amendoim"},
	},
	"vegetarian": {
		terms: animalTerms,
	},
	"vegan": {
		terms: append(append([]string{}, animalTerms...),
			"leite", "queijo", "manteiga", "iogurte", "ovo", "mel", "gelatina", "ghee", "creme de leite",
			"milk", "cheese", "egg", "honey"),
		safeQualifiers: plantQualifiers,
	},
}

type compiledFilter struct {
	terms          []Term
	safeQualifiers []string
}

var compiledFilters = compileFilters()

func compileFilters() map[string]compiledFilter {
	out := make(map[string]compiledFilter, len(restrictionFilters))
	for name, f := range restrictionFilters {
		cf := compiledFilter{safeQualifiers: f.safeQualifiers}
		for _, t := range f.terms {
			cf.terms = append(cf.terms, CompileTerm(t))
		}
		out[name] = cf
	}
	return out
}

// 使用者鍵別名 → 替代食材過濾器
var filterAliases = map[string]string{
	"lactose":             "lactose",
	"lactose_intolerance": "lactose",
	"lactose_free":        "lactose",
	"lactosa":             "lactose",
	"dairy":               "lactose",
	"leite":               "lactose",
	"gluten":              "gluten",
	"celiac":              "gluten",
	"celiaco":             "gluten",
	"celiaca":             "gluten",
	"gluten_free":         "gluten",
	"egg":                 "egg",
	"eggs":                "egg",
	"ovo":                 "egg",
	"huevo":               "egg",
	"peanut":              "peanut",
	"peanuts":             "peanut",
	"amendoim":            "peanut",
	"vegan":               "vegan",
	"vegano":              "vegan",
	"vegana":              "vegan",
	"vegetarian":          "vegetarian",
	"vegetariano":         "vegetarian",
	"vegetariana":         "vegetarian",
}

// DetectCategory 以關鍵字包含比對偵測食材的替代分類
func DetectCategory(ingredient string) (Category, bool) {
	g := detectGroup(Normalize(collapseSpaces(ingredient)))
	if g == nil {
		return "", false
	}
	return g.category, true
}

var substituteKeywords = compileSubstituteKeywords()

func compileSubstituteKeywords() [][]Term {
	out := make([][]Term, len(substituteTable))
	for i, g := range substituteTable {
		for _, kw := range g.keywords {
			out[i] = append(out[i], CompileTerm(kw))
		}
	}
	return out
}

func detectGroup(normalized string) *substituteGroup {
	if normalized == "" {
		return nil
	}
	for i, terms := range substituteKeywords {
		for _, t := range terms {
			if t.MatchIn(normalized) {
				return &substituteTable[i]
			}
		}
	}
	return nil
}

// SubstitutesFor 依限制鍵回傳替代食材。偵測不到分類時回傳空切片，
// 由呼叫端決定是否改用遠端生成。
func SubstitutesFor(original string, restrictionKeys []string) []string {
	return substitutes(original, restrictionKeys, nil)
}

// GetSubstitutes 使用者的替代食材：除了限制過濾，也排除引擎判定衝突的項目
func (e *Engine) GetSubstitutes(original string) []string {
	return substitutes(original, e.ActiveKeys(), func(candidate string) bool {
		return e.CheckFood(candidate).HasConflict
	})
}

func substitutes(original string, restrictionKeys []string, conflicts func(string) bool) []string {
	normalizedOriginal := Normalize(collapseSpaces(original))
	group := detectGroup(normalizedOriginal)
	if group == nil {
		return []string{}
	}

	filters := make([]compiledFilter, 0, len(restrictionKeys))
	for _, key := range restrictionKeys {
		if name, ok := filterAliases[NormalizeKey(key)]; ok {
			filters = append(filters, compiledFilters[name])
		}
	}

	out := make([]string, 0, MaxSubstitutes)
	for _, candidate := range group.substitutes {
		if len(out) == MaxSubstitutes {
			break
		}
		normalized := Normalize(candidate)
		if normalized == normalizedOriginal {
			continue
		}
		if blockedByFilters(normalized, filters) {
			continue
		}
		if conflicts != nil && conflicts(candidate) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func blockedByFilters(normalized string, filters []compiledFilter) bool {
	for _, f := range filters {
		if hasAny(normalized, f.safeQualifiers) {
			continue
		}
		for _, t := range f.terms {
			if t.MatchIn(normalized) {
				return true
			}
		}
	}
	return false
}

func hasAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
