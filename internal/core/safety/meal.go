package safety

import (
	"bytes"
	"encoding/json"
	"strings"
)

// IngredientRecord 食材清單中的一筆資料：可能是純字串，或帶有
// name / ingredient / item 欄位的物件。在邊界轉為字串後，核心只處理字串。
type IngredientRecord struct {
	Text       string `json:"-"`
	Name       string `json:"name,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
	Item       string `json:"item,omitempty"`
}

// TextIngredient 由純字串建立紀錄
func TextIngredient(s string) IngredientRecord {
	return IngredientRecord{Text: s}
}

// UnmarshalJSON 接受字串或物件；其他型別與非字串欄位視為無效紀錄，不回傳錯誤
func (r *IngredientRecord) UnmarshalJSON(data []byte) error {
	*r = IngredientRecord{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		r.Text = s
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		r.Name = rawString(fields["name"])
		r.Ingredient = rawString(fields["ingredient"])
		r.Item = rawString(fields["item"])
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ToIngredientName 取出顯示名稱，優先順序 Text → name → ingredient → item
func ToIngredientName(r IngredientRecord) string {
	for _, candidate := range []string{r.Text, r.Name, r.Ingredient, r.Item} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// ToIngredientNames 轉換整份清單，略過沒有名稱的紀錄
func ToIngredientNames(records []IngredientRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		if name := ToIngredientName(r); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// CheckMeal 檢查菜名與其食材，合併為一個依限制鍵去重的結果。
// 使用者沒有任何限制時直接回傳無衝突，不檢查內容。
func (e *Engine) CheckMeal(mealName string, ingredients []string) Result {
	if !e.HasRestrictions() {
		return NoConflict()
	}
	c := newCollector()
	c.addAll(e.CheckFood(mealName).ConflictDetails)
	for _, name := range ingredients {
		c.addAll(e.CheckFood(name).ConflictDetails)
	}
	return c.result(e.locale)
}

// BatchEntry 批次檢查的單筆結果
type BatchEntry struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// CheckBatch 各自獨立檢查每個名稱，保持輸入順序
func (e *Engine) CheckBatch(names []string) []BatchEntry {
	out := make([]BatchEntry, 0, len(names))
	for _, name := range names {
		out = append(out, BatchEntry{Name: name, Result: e.CheckFood(name)})
	}
	return out
}

// BatchMap 將批次結果轉為 名稱 → 結果
func BatchMap(entries []BatchEntry) map[string]Result {
	m := make(map[string]Result, len(entries))
	for _, entry := range entries {
		m[entry.Name] = entry.Result
	}
	return m
}
