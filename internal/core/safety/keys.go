package safety

import "strings"

// KeyNormalizer 限制鍵別名查詢：onboarding 鍵 ↔ 資料庫鍵
type KeyNormalizer struct {
	toDatabase map[string]string
	aliases    map[string][]string
}

// NewKeyNormalizer 由對照列建立查詢表
func NewKeyNormalizer(rows []KeyNormalization) *KeyNormalizer {
	k := &KeyNormalizer{
		toDatabase: make(map[string]string, len(rows)),
		aliases:    make(map[string][]string),
	}
	for _, row := range rows {
		from := NormalizeKey(row.OnboardingKey)
		to := NormalizeKey(row.DatabaseKey)
		if from == "" || to == "" {
			continue
		}
		if _, exists := k.toDatabase[from]; exists {
			continue
		}
		k.toDatabase[from] = to
		if from != to {
			k.aliases[to] = append(k.aliases[to], from)
		}
	}
	return k
}

// Canonical 回傳資料庫鍵；沒有對照時回傳正規化後的輸入本身
func (k *KeyNormalizer) Canonical(raw string) string {
	key := NormalizeKey(raw)
	if key == "" {
		return ""
	}
	if to, ok := k.toDatabase[key]; ok {
		return to
	}
	return key
}

// Aliases 回傳資料庫鍵本身與所有對應到它的 onboarding 鍵
func (k *KeyNormalizer) Aliases(databaseKey string) []string {
	key := NormalizeKey(databaseKey)
	out := []string{key}
	return append(out, k.aliases[key]...)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
