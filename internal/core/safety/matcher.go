package safety

import (
	"regexp"
	"strings"
)

// 單字邊界：字串開頭/結尾，或空格 , ; : ( ) [ ] - /
const boundaryClass = `[ ,;:()\[\]/-]`

// Term 預先編譯好的比對詞。多字詞的每個字都必須各自以完整單字出現，
// 但不要求相鄰或順序一致。零值 Term 不會匹配任何內容。
type Term struct {
	text  string
	words []*regexp.Regexp
}

// CompileTerm 編譯已正規化的比對詞
func CompileTerm(term string) Term {
	words := strings.Fields(term)
	if len(words) == 0 {
		return Term{}
	}
	t := Term{text: term, words: make([]*regexp.Regexp, 0, len(words))}
	for _, w := range words {
		t.words = append(t.words, wordPattern(w))
	}
	return t
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|` + boundaryClass + `)` + regexp.QuoteMeta(word) + `(?:$|` + boundaryClass + `)`)
}

// Text 回傳原始比對詞
func (t Term) Text() string {
	return t.text
}

// Empty 是否為空詞
func (t Term) Empty() bool {
	return len(t.words) == 0
}

// MatchIn 判斷已正規化的 haystack 是否包含此詞
func (t Term) MatchIn(haystack string) bool {
	if t.Empty() {
		return false
	}
	if haystack == t.text {
		return true
	}
	for _, re := range t.words {
		if !re.MatchString(haystack) {
			return false
		}
	}
	return true
}

// ContainsTerm 以單字邊界判斷 haystack 是否包含 term，兩者都必須已正規化。
// "galho" 不包含 "alho"；"arroz doce com canela" 包含 "arroz doce"。
func ContainsTerm(haystack, term string) bool {
	if strings.TrimSpace(term) == "" {
		return false
	}
	if haystack == term {
		return true
	}
	return CompileTerm(term).MatchIn(haystack)
}
