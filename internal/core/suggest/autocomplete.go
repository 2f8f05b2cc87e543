// Package suggest 食材輸入建議：字首自動完成與替代食材（靜態表加遠端生成備援）。
package suggest

import (
	"sort"
	"strings"
	"sync"

	"ingredient-safety/internal/core/safety"

	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultLimit 自動完成預設筆數
const DefaultLimit = 10

// MaxLimit 自動完成最大筆數
const MaxLimit = 50

// Item 一筆建議與它對使用者的比對結果
type Item struct {
	Name   string        `json:"name"`
	Result safety.Result `json:"result"`
}

// Autocomplete 以正規化字首查詢食材字彙。每個單字開頭都會建立索引，
// 所以 "coco" 也能找到 "leite de coco"。
type Autocomplete struct {
	mu   sync.RWMutex
	trie *patricia.Trie
	size int
}

// NewAutocomplete 建立索引
func NewAutocomplete(words []string) *Autocomplete {
	a := &Autocomplete{}
	a.Rebuild(words)
	return a
}

// Rebuild 以新的字彙重建索引
func (a *Autocomplete) Rebuild(words []string) {
	trie := patricia.NewTrie()
	seen := make(map[string]bool)
	size := 0
	for _, word := range words {
		display := strings.Join(strings.Fields(word), " ")
		normalized := safety.Normalize(display)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		size++
		for _, suffix := range wordSuffixes(normalized) {
			key := patricia.Prefix(suffix)
			if existing := trie.Get(key); existing != nil {
				trie.Set(key, append(existing.([]string), display))
				continue
			}
			trie.Insert(key, []string{display})
		}
	}

	a.mu.Lock()
	a.trie = trie
	a.size = size
	a.mu.Unlock()
}

// Size 索引中的食材數
func (a *Autocomplete) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// wordSuffixes "leite de coco" -> ["leite de coco", "de coco", "coco"]
func wordSuffixes(normalized string) []string {
	out := []string{normalized}
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c == ' ' || c == '-' {
			if rest := strings.TrimLeft(normalized[i+1:], " -"); rest != "" {
				out = append(out, rest)
			}
		}
	}
	return out
}

// Complete 回傳符合字首的食材名稱。整個名稱以字首開頭的排在前面，
// 其次是中間單字符合的，各自依字母排序。
func (a *Autocomplete) Complete(prefix string, limit int) []string {
	return a.complete(prefix, limit, nil)
}

func (a *Autocomplete) complete(prefix string, limit int, keep func(string) bool) []string {
	q := safety.Normalize(strings.Join(strings.Fields(prefix), " "))
	if q == "" {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	a.mu.RLock()
	trie := a.trie
	a.mu.RUnlock()

	seen := make(map[string]bool)
	var leading, inner []string
	_ = trie.VisitSubtree(patricia.Prefix(q), func(p patricia.Prefix, item patricia.Item) error {
		for _, name := range item.([]string) {
			if seen[name] {
				continue
			}
			seen[name] = true
			if keep != nil && !keep(name) {
				continue
			}
			if strings.HasPrefix(safety.Normalize(name), q) {
				leading = append(leading, name)
			} else {
				inner = append(inner, name)
			}
		}
		return nil
	})

	sort.Strings(leading)
	sort.Strings(inner)
	out := append(leading, inner...)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Suggest 針對使用者的自動完成：先依飲食偏好過濾，再為每一筆附上衝突結果。
// 有衝突的項目仍會回傳，由 UI 決定標示或隱藏。
func (a *Autocomplete) Suggest(e *safety.Engine, prefix string, limit int) []Item {
	pref := e.State().DietaryPreference
	names := a.complete(prefix, limit, func(name string) bool {
		return safety.IsCompatible(name, pref)
	})

	items := make([]Item, 0, len(names))
	for _, name := range names {
		items = append(items, Item{Name: name, Result: e.CheckFood(name)})
	}
	return items
}
