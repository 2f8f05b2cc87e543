package safety

// RestrictionType 衝突來源類型
type RestrictionType string

const (
	// TypeIntolerance 目錄內的不耐症（lactose、gluten...）
	TypeIntolerance RestrictionType = "intolerance"
	// TypeExcluded 使用者自行排除的食材
	TypeExcluded RestrictionType = "excluded"
	// TypeDietary 由飲食偏好（vegan、vegetarian）衍生的禁用食材
	TypeDietary RestrictionType = "dietary"
)

// excludedKeyPrefix 排除食材衝突鍵的前綴，例如 "excluded:amendoim"
const excludedKeyPrefix = "excluded:"

// IngredientMapping 食材 → 限制鍵對照
type IngredientMapping struct {
	Ingredient       string   `json:"ingredient"`
	IntoleranceKey   string   `json:"intolerance_key"`
	Language         string   `json:"language"`
	SeverityLevel    *int     `json:"severity_level,omitempty"`     // 保留，比對時不使用
	SafePortionGrams *float64 `json:"safe_portion_grams,omitempty"` // 保留，比對時不使用
}

// SafeKeyword 安全關鍵字：食物名稱包含此詞時，該限制鍵的比對一律略過
type SafeKeyword struct {
	IntoleranceKey string `json:"intolerance_key"`
	Keyword        string `json:"keyword"`
}

// KeyNormalization 使用者端（onboarding）鍵 → 資料庫鍵
type KeyNormalization struct {
	OnboardingKey string `json:"onboarding_key"`
	DatabaseKey   string `json:"database_key"`
}

// DietaryForbidden 飲食偏好禁用食材
type DietaryForbidden struct {
	DietaryKey string `json:"dietary_key"`
	Ingredient string `json:"ingredient"`
	Language   string `json:"language,omitempty"`
}

// IntoleranceLabel 限制鍵顯示名稱
type IntoleranceLabel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Tables 已載入的參考資料。呼叫端應只提供與使用者有關的列。
// 交給 NewEngine 之後視為唯讀。
type Tables struct {
	Mappings          []IngredientMapping `json:"mappings"`
	SafeKeywords      []SafeKeyword       `json:"safe_keywords"`
	KeyNormalizations []KeyNormalization  `json:"key_normalizations"`
	DietaryForbidden  []DietaryForbidden  `json:"dietary_forbidden"`
	Labels            []IntoleranceLabel  `json:"labels"`
	Vocabulary        []string            `json:"vocabulary,omitempty"` // 自動完成用的食材字彙
}

// Profile 使用者設定的原始飲食限制（尚未正規化）
type Profile struct {
	UserID              string   `json:"user_id"`
	Intolerances        []string `json:"intolerances"`
	ExcludedIngredients []string `json:"excluded_ingredients"`
	DietaryPreference   string   `json:"dietary_preference,omitempty"`
	Version             string   `json:"version,omitempty"`
}

// UserRestrictionState 單次比對使用的正規化限制狀態，設定變更時必須重建
type UserRestrictionState struct {
	IntoleranceKeys     []string // 正規化後的資料庫鍵，保持輸入順序、不重複
	ExcludedIngredients []string // 正規化後的排除食材
	DietaryPreference   string   // 正規化後的偏好鍵，沒有則為空字串

	excludedDisplay map[string]string
}

// HasRestrictions 是否有任何限制
func (s UserRestrictionState) HasRestrictions() bool {
	return len(s.IntoleranceKeys) > 0 || len(s.ExcludedIngredients) > 0
}

// BuildState 依鍵對照表正規化使用者設定
func BuildState(p Profile, keys *KeyNormalizer) UserRestrictionState {
	if keys == nil {
		keys = NewKeyNormalizer(nil)
	}
	state := UserRestrictionState{excludedDisplay: make(map[string]string)}

	seen := make(map[string]bool)
	for _, raw := range p.Intolerances {
		key := keys.Canonical(raw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		state.IntoleranceKeys = append(state.IntoleranceKeys, key)
	}

	if pref := keys.Canonical(p.DietaryPreference); pref != "" {
		state.DietaryPreference = pref
	}

	seenExcluded := make(map[string]bool)
	for _, raw := range p.ExcludedIngredients {
		entry := Normalize(collapseSpaces(raw))
		if entry == "" || seenExcluded[entry] {
			continue
		}
		seenExcluded[entry] = true
		state.ExcludedIngredients = append(state.ExcludedIngredients, entry)
		state.excludedDisplay[entry] = collapseSpaces(raw)
	}
	return state
}
