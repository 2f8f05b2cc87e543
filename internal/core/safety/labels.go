package safety

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale 訊息語系
type Locale string

const (
	LocalePT Locale = "pt"
	LocaleEN Locale = "en"
	LocaleES Locale = "es"
)

type messageSet struct {
	contains    string
	intolerance string
	excluded    string
	dietary     string
}

var messages = map[Locale]messageSet{
	LocalePT: {
		contains:    "Contém %s",
		intolerance: "Você tem intolerância a %s",
		excluded:    "%s está na sua lista de exclusão.",
		dietary:     "Incompatível com a sua dieta %s",
	},
	LocaleEN: {
		contains:    "Contains %s",
		intolerance: "You have an intolerance to %s",
		excluded:    "%s is on your exclusion list.",
		dietary:     "Not compatible with your %s diet",
	},
	LocaleES: {
		contains:    "Contiene %s",
		intolerance: "Tienes intolerancia a %s",
		excluded:    "%s está en tu lista de exclusión.",
		dietary:     "No es compatible con tu dieta %s",
	},
}

func messagesFor(l Locale) messageSet {
	if m, ok := messages[l]; ok {
		return m
	}
	return messages[LocalePT]
}

// ParseLocale 解析語系字串，未知值回到預設 pt
func ParseLocale(s string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case LocaleEN:
		return LocaleEN
	case LocaleES:
		return LocaleES
	default:
		return LocalePT
	}
}

// 資料來源不可用時的靜態顯示名稱
var staticLabels = map[string]string{
	"lactose":    "Lactose",
	"gluten":     "Glúten",
	"peanut":     "Amendoim",
	"tree_nuts":  "Castanhas",
	"egg":        "Ovo",
	"soy":        "Soja",
	"seafood":    "Frutos do mar",
	"fish":       "Peixe",
	"shellfish":  "Crustáceos",
	"fructose":   "Frutose",
	"sugar":      "Açúcar",
	"sulfite":    "Sulfito",
	"histamine":  "Histamina",
	"caffeine":   "Cafeína",
	"sesame":     "Gergelim",
	"corn":       "Milho",
	"vegan":      "Vegana",
	"vegetarian": "Vegetariana",
}

// LabelCatalog 限制鍵顯示名稱設定，由呼叫端擁有並傳入 NewEngine。
// 解析順序：明確設定 → 資料庫來源 → 靜態表 → 鍵名 title case。
// 上游編輯限制資料後呼叫 Invalidate，持有 Version 的快取便知道要重建引擎。
type LabelCatalog struct {
	mu       sync.RWMutex
	explicit map[string]string
	dynamic  map[string]string
	version  uint64
}

// NewLabelCatalog 建立顯示名稱設定
func NewLabelCatalog(explicit map[string]string) *LabelCatalog {
	c := &LabelCatalog{
		explicit: make(map[string]string, len(explicit)),
		dynamic:  make(map[string]string),
	}
	for k, v := range explicit {
		if v = strings.TrimSpace(v); v != "" {
			c.explicit[NormalizeKey(k)] = v
		}
	}
	return c
}

// SetDynamic 載入資料庫來源的顯示名稱
func (c *LabelCatalog) SetDynamic(labels []IntoleranceLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range labels {
		label := strings.TrimSpace(l.Label)
		key := NormalizeKey(l.Key)
		if key == "" || label == "" {
			continue
		}
		c.dynamic[key] = label
	}
	c.version++
}

// Invalidate 清除資料庫來源的顯示名稱並遞增版本
func (c *LabelCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dynamic = make(map[string]string)
	c.version++
}

// Version 目前版本
func (c *LabelCatalog) Version() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Resolve 解析顯示名稱，永遠不回傳空字串（除非 key 為空）
func (c *LabelCatalog) Resolve(key string) string {
	k := NormalizeKey(key)
	if c != nil {
		c.mu.RLock()
		if v, ok := c.explicit[k]; ok {
			c.mu.RUnlock()
			return v
		}
		if v, ok := c.dynamic[k]; ok {
			c.mu.RUnlock()
			return v
		}
		c.mu.RUnlock()
	}
	if v, ok := staticLabels[k]; ok {
		return v
	}
	return TitleCase(key)
}

// TitleCase "tree_nuts" -> "Tree Nuts"
func TitleCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	// cases.Caser 有狀態，每次建立新的
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// capitalizeFirst 只把第一個字母大寫，用於排除食材的顯示
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func formatMessage(locale Locale, t RestrictionType, label string) string {
	m := messagesFor(locale)
	switch t {
	case TypeExcluded:
		return fmt.Sprintf(m.excluded, label)
	case TypeDietary:
		return fmt.Sprintf(m.dietary, label)
	default:
		return fmt.Sprintf(m.intolerance, label)
	}
}

func formatFullLabel(locale Locale, labels []string) string {
	return fmt.Sprintf(messagesFor(locale).contains, strings.Join(labels, ", "))
}
