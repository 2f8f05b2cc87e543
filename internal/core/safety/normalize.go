// Package safety 食材安全比對引擎：判斷任意食材或菜名是否與使用者的
// 不耐症、排除食材或飲食偏好衝突。所有操作皆為純函式，建構完成的 Engine
// 可以被多個 goroutine 同時使用。
package safety

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transform.Chain 帶有內部緩衝，不能跨 goroutine 共用，因此放進 pool
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// Normalize 轉小寫並移除變音符號（"Pão" -> "pao"），數字、標點與空白維持原樣
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)

	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, lower)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return lower
	}
	return out
}

// NormalizeKey 將限制鍵轉為資料庫鍵的預設格式："Lactose Intolerance" -> "lactose_intolerance"
func NormalizeKey(raw string) string {
	key := Normalize(strings.TrimSpace(raw))
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	}), "_")
	return key
}
