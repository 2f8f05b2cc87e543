package safety

// ConflictDetail 單一衝突
type ConflictDetail struct {
	RestrictionKey string          `json:"restriction_key"`
	Type           RestrictionType `json:"type"`
	Label          string          `json:"label"`
	Message        string          `json:"message"`
}

// Result 對外輸出格式。BadgeLabel 為第一個顯示名稱，FullLabel 為
// "Contém X, Y" 句子；沒有衝突時兩者皆為 nil。
type Result struct {
	HasConflict     bool             `json:"has_conflict"`
	Conflicts       []string         `json:"conflicts"`
	Labels          []string         `json:"labels"`
	BadgeLabel      *string          `json:"badge_label"`
	FullLabel       *string          `json:"full_label"`
	ConflictDetails []ConflictDetail `json:"conflict_details"`
}

// NoConflict 沒有衝突的結果
func NoConflict() Result {
	return Result{
		Conflicts:       []string{},
		Labels:          []string{},
		ConflictDetails: []ConflictDetail{},
	}
}

// Has 結果是否包含指定限制鍵
func (r Result) Has(key string) bool {
	for _, k := range r.Conflicts {
		if k == key {
			return true
		}
	}
	return false
}

// collector 依首次出現順序收集衝突，同一限制鍵只保留第一筆
type collector struct {
	seen    map[string]bool
	details []ConflictDetail
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) add(d ConflictDetail) {
	if c.seen[d.RestrictionKey] {
		return
	}
	c.seen[d.RestrictionKey] = true
	c.details = append(c.details, d)
}

func (c *collector) addAll(details []ConflictDetail) {
	for _, d := range details {
		c.add(d)
	}
}

func (c *collector) result(locale Locale) Result {
	return Present(c.details, locale)
}

// Present 由衝突明細組出對外格式：labels 與 conflicts 依明細順序，
// BadgeLabel 取第一個顯示名稱，FullLabel 為語系對應的 "Contém X, Y"
func Present(details []ConflictDetail, locale Locale) Result {
	if len(details) == 0 {
		return NoConflict()
	}
	res := Result{
		HasConflict:     true,
		Conflicts:       make([]string, 0, len(details)),
		Labels:          make([]string, 0, len(details)),
		ConflictDetails: details,
	}
	for _, d := range details {
		res.Conflicts = append(res.Conflicts, d.RestrictionKey)
		res.Labels = append(res.Labels, d.Label)
	}
	badge := res.Labels[0]
	full := formatFullLabel(locale, res.Labels)
	res.BadgeLabel = &badge
	res.FullLabel = &full
	return res
}
