package safety

import (
	"strings"
)

// Options 引擎選項
type Options struct {
	Locale Locale
	Labels *LabelCatalog // nil 時只使用靜態表與 title case

	// DietaryConflicts 將飲食偏好的禁用食材也回報為衝突（type dietary）。
	// 預設關閉：飲食偏好只透過分類器過濾建議清單。
	DietaryConflicts bool
}

type compiledMapping struct {
	term Term
	key  string
	typ  RestrictionType
}

type excludedEntry struct {
	term  Term
	key   string
	label string
}

// Engine 針對單一使用者設定建構的比對引擎，建構後不再變動。
// 參考資料尚未載入（Tables 為空）時仍可安全呼叫，只會回報排除食材衝突。
type Engine struct {
	state         UserRestrictionState
	locale        Locale
	keys          *KeyNormalizer
	excluded      []excludedEntry
	mappings      []compiledMapping
	safe          map[string][]string
	labels        map[string]string
	labelsVersion uint64
}

// NewEngine 依使用者設定過濾參考資料、預先編譯比對詞並凍結顯示名稱
func NewEngine(tables *Tables, profile Profile, opts Options) *Engine {
	if tables == nil {
		tables = &Tables{}
	}
	keys := NewKeyNormalizer(tables.KeyNormalizations)
	state := BuildState(profile, keys)

	e := &Engine{
		state:         state,
		locale:        ParseLocale(string(opts.Locale)),
		keys:          keys,
		safe:          make(map[string][]string),
		labels:        make(map[string]string),
		labelsVersion: opts.Labels.Version(),
	}

	active := make(map[string]bool, len(state.IntoleranceKeys))
	for _, key := range state.IntoleranceKeys {
		active[key] = true
		e.labels[key] = opts.Labels.Resolve(key)
	}

	for _, m := range tables.Mappings {
		key := keys.Canonical(m.IntoleranceKey)
		if !active[key] {
			continue
		}
		term := CompileTerm(Normalize(collapseSpaces(m.Ingredient)))
		if term.Empty() {
			continue
		}
		e.mappings = append(e.mappings, compiledMapping{term: term, key: key, typ: TypeIntolerance})
	}

	// 飲食偏好衍生的禁用食材接在不耐症之後，且不覆蓋同名的不耐症鍵
	if pref := state.DietaryPreference; opts.DietaryConflicts && pref != "" && !active[pref] {
		for _, row := range tables.DietaryForbidden {
			if keys.Canonical(row.DietaryKey) != pref {
				continue
			}
			term := CompileTerm(Normalize(collapseSpaces(row.Ingredient)))
			if term.Empty() {
				continue
			}
			e.mappings = append(e.mappings, compiledMapping{term: term, key: pref, typ: TypeDietary})
		}
		if e.hasDietaryMappings() {
			e.labels[pref] = opts.Labels.Resolve(pref)
		}
	}

	for _, sk := range tables.SafeKeywords {
		key := keys.Canonical(sk.IntoleranceKey)
		if _, relevant := e.labels[key]; !relevant {
			continue
		}
		kw := strings.TrimSpace(Normalize(collapseSpaces(sk.Keyword)))
		if kw == "" {
			continue
		}
		e.safe[key] = append(e.safe[key], kw)
	}

	for _, entry := range state.ExcludedIngredients {
		e.excluded = append(e.excluded, excludedEntry{
			term:  CompileTerm(entry),
			key:   excludedKeyPrefix + entry,
			label: capitalizeFirst(state.excludedDisplay[entry]),
		})
	}

	return e
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (e *Engine) hasDietaryMappings() bool {
	for _, m := range e.mappings {
		if m.typ == TypeDietary {
			return true
		}
	}
	return false
}

// State 引擎使用的正規化限制狀態
func (e *Engine) State() UserRestrictionState {
	return e.state
}

// Locale 引擎語系
func (e *Engine) Locale() Locale {
	return e.locale
}

// LabelsVersion 建構時 LabelCatalog 的版本
func (e *Engine) LabelsVersion() uint64 {
	return e.labelsVersion
}

// ActiveKeys 使用者的限制鍵：不耐症在前，飲食偏好（若有）接在最後，不重複
func (e *Engine) ActiveKeys() []string {
	keys := append([]string{}, e.state.IntoleranceKeys...)
	if pref := e.state.DietaryPreference; pref != "" && !contains(keys, pref) {
		keys = append(keys, pref)
	}
	return keys
}

// HasRestrictions 使用者是否有任何不耐症或排除食材。只設定飲食偏好不算。
func (e *Engine) HasRestrictions() bool {
	return len(e.excluded) > 0 || len(e.state.IntoleranceKeys) > 0
}

// Label 限制鍵的顯示名稱
func (e *Engine) Label(key string) string {
	if v, ok := e.labels[key]; ok {
		return v
	}
	return TitleCase(key)
}

// CheckFood 判斷單一食材或菜名是否與使用者限制衝突。
// 排除食材先於不耐症；各自依資料列的順序記錄，同一限制鍵只回報一次。
func (e *Engine) CheckFood(foodName string) Result {
	if strings.TrimSpace(foodName) == "" {
		return NoConflict()
	}
	c := newCollector()
	// 定位字元、換行等空白先折成單一空格，比對器只把空格視為分隔
	e.collect(collapseSpaces(Normalize(foodName)), c)
	return c.result(e.locale)
}

func (e *Engine) collect(normalized string, c *collector) {
	for _, ex := range e.excluded {
		if !ex.term.MatchIn(normalized) {
			continue
		}
		c.add(ConflictDetail{
			RestrictionKey: ex.key,
			Type:           TypeExcluded,
			Label:          ex.label,
			Message:        formatMessage(e.locale, TypeExcluded, ex.label),
		})
	}

	if len(e.mappings) == 0 {
		return
	}
	for _, m := range e.mappings {
		if c.seen[m.key] {
			continue
		}
		if !m.term.MatchIn(normalized) {
			continue
		}
		// 安全關鍵字必須在記錄衝突之前檢查，只略過這一列對照
		if e.suppressed(m.key, normalized) {
			continue
		}
		label := e.Label(m.key)
		c.add(ConflictDetail{
			RestrictionKey: m.key,
			Type:           m.typ,
			Label:          label,
			Message:        formatMessage(e.locale, m.typ, label),
		})
	}
}

func (e *Engine) suppressed(key, normalized string) bool {
	for _, kw := range e.safe[key] {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
