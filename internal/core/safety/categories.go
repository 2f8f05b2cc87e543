package safety

// Category 食材粗分類
type Category string

const (
	CategoryMeat    Category = "meat"
	CategorySeafood Category = "seafood"
	CategoryDairy   Category = "dairy"
	CategoryEgg     Category = "egg"
	CategoryHoney   Category = "honey"
	CategoryGelatin Category = "gelatin"
	CategoryGluten  Category = "gluten"
	CategorySugar   Category = "sugar"
	CategoryPeanut  Category = "peanut"
)

// 飲食分類器使用的字彙，必須是完整的食材名稱（比對前正規化）。
// 替代食材表（substitutes.go）另外維護，兩者目前不保證一致。
var categoryVocabulary = map[Category][]string{
	CategoryMeat: {
		"carne", "carne bovina", "carne moida", "carne de porco", "carne suina", "frango", "peito de frango",
		"coxa de frango", "peru", "bacon", "presunto", "linguica", "salsicha", "salame", "pepperoni",
		"costela", "picanha", "alcatra", "file mignon", "patinho", "cordeiro", "pato", "figado",
		"mortadela", "charque", "carne seca",
		"beef", "ground beef", "pork", "chicken", "chicken breast", "turkey", "ham", "sausage",
		"lamb", "duck", "veal", "steak", "liver",
		"res", "cerdo", "pollo", "pavo", "jamon", "chorizo", "cordero",
	},
	CategorySeafood: {
		"peixe", "salmao", "atum", "bacalhau", "tilapia", "sardinha", "merluza", "pescada", "truta",
		"camarao", "lagosta", "caranguejo", "siri", "lula", "polvo", "mexilhao", "ostra", "marisco",
		"anchova", "frutos do mar",
		"fish", "salmon", "tuna", "cod", "sardine", "trout", "shrimp", "prawn", "lobster", "crab",
		"squid", "octopus", "mussel", "oyster", "clam", "anchovy", "seafood",
		"pescado", "atun", "camaron", "langosta", "cangrejo", "pulpo", "calamar", "mariscos",
	},
	CategoryDairy: {
		"leite", "leite integral", "leite desnatado", "leite condensado", "creme de leite", "queijo",
		"queijo mussarela", "mussarela", "parmesao", "requeijao", "manteiga", "iogurte", "iogurte natural",
		"nata", "ricota", "cream cheese", "coalhada", "doce de leite", "whey", "chantilly",
		"milk", "cheese", "butter", "yogurt", "cream", "heavy cream", "sour cream", "ghee",
		"leche", "queso", "mantequilla", "yogur", "crema",
	},
	CategoryEgg: {
		"ovo", "ovos", "clara de ovo", "gema", "gema de ovo", "ovo cozido", "ovo de codorna", "maionese",
		"egg", "eggs", "egg white", "egg yolk", "mayonnaise",
		"huevo", "huevos", "clara", "yema", "mayonesa",
	},
	CategoryHoney: {
		"mel", "honey", "miel",
	},
	CategoryGelatin: {
		"gelatina", "gelatina incolor", "colageno", "gelatin", "collagen",
	},
	CategoryGluten: {
		"trigo", "farinha de trigo", "pao", "pao frances", "macarrao", "massa", "cevada", "centeio",
		"aveia", "cuscuz marroquino", "semolina", "biscoito", "bolacha",
		"wheat", "wheat flour", "bread", "pasta", "barley", "rye", "couscous", "crackers",
		"harina de trigo", "pan", "cebada", "centeno",
	},
	CategorySugar: {
		"acucar", "acucar refinado", "acucar mascavo", "acucar demerara", "xarope de milho", "rapadura",
		"sugar", "brown sugar", "corn syrup", "syrup",
		"azucar", "jarabe",
	},
	CategoryPeanut: {
		"amendoim", "pasta de amendoim", "pacoca", "peanut", "peanuts", "peanut butter", "cacahuate", "mani",
	},
}

var categoryIndex = buildCategoryIndex()

func buildCategoryIndex() map[string][]Category {
	index := make(map[string][]Category)
	// 依固定順序建立，讓 Categories 的輸出穩定
	for _, cat := range []Category{
		CategoryMeat, CategorySeafood, CategoryDairy, CategoryEgg, CategoryHoney,
		CategoryGelatin, CategoryGluten, CategorySugar, CategoryPeanut,
	} {
		for _, word := range categoryVocabulary[cat] {
			key := Normalize(collapseSpaces(word))
			index[key] = append(index[key], cat)
		}
	}
	return index
}

// Categories 回傳食材名稱（完整比對）所屬的分類
func Categories(ingredientName string) []Category {
	return categoryIndex[Normalize(collapseSpaces(ingredientName))]
}

func inCategory(ingredientName string, cats ...Category) bool {
	for _, have := range Categories(ingredientName) {
		for _, want := range cats {
			if have == want {
				return true
			}
		}
	}
	return false
}

// 偏好鍵別名 → 分類器使用的偏好
var preferenceAliases = map[string]string{
	"omnivore":    "omnivore",
	"onivoro":     "omnivore",
	"omnivoro":    "omnivore",
	"vegetarian":  "vegetarian",
	"vegetariano": "vegetarian",
	"vegetariana": "vegetarian",
	"vegan":       "vegan",
	"vegano":      "vegan",
	"vegana":      "vegan",
	"low_carb":    "low_carb",
	"lowcarb":     "low_carb",
	"ketogenic":   "ketogenic",
	"keto":        "ketogenic",
	"cetogenica":  "ketogenic",
}

// IsCompatible 判斷食材在飲食偏好下是否可用。只看偏好與分類字彙，
// 不查使用者的不耐症或排除清單；未知的偏好一律視為相容。
func IsCompatible(ingredientName, dietaryPreference string) bool {
	switch preferenceAliases[NormalizeKey(dietaryPreference)] {
	case "vegetarian":
		return !inCategory(ingredientName, CategoryMeat, CategorySeafood)
	case "vegan":
		return !inCategory(ingredientName,
			CategoryMeat, CategorySeafood, CategoryDairy, CategoryEgg, CategoryHoney, CategoryGelatin)
	default:
		// omnivore、low_carb、ketogenic 是營養目標而非禁用食材
		return true
	}
}

// FilterCompatible 過濾出與偏好相容的食材，保持原順序
func FilterCompatible(names []string, dietaryPreference string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if IsCompatible(name, dietaryPreference) {
			out = append(out, name)
		}
	}
	return out
}
