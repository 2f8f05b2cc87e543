package suggest

import (
	"context"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/pkg/common"

	"go.uber.org/zap"
)

// 替代食材來源
const (
	SourceStatic = "static"
	SourceRemote = "remote"
	SourceNone   = "none"
)

// Substitutes 替代食材服務：先查靜態表，偵測不到分類時改用遠端生成
type Substitutes struct {
	remote Generator
}

// NewSubstitutes remote 為 nil 時只使用靜態表
func NewSubstitutes(remote Generator) *Substitutes {
	return &Substitutes{remote: remote}
}

// RemoteEnabled 是否設定了遠端生成
func (s *Substitutes) RemoteEnabled() bool {
	return s.remote != nil
}

// For 回傳替代食材與其來源。遠端結果同樣經過引擎與飲食分類器過濾；
// 遠端失敗只記錄警告並回傳空清單。
func (s *Substitutes) For(ctx context.Context, e *safety.Engine, ingredient string) ([]string, string) {
	if list := e.GetSubstitutes(ingredient); len(list) > 0 {
		return list, SourceStatic
	}
	if s.remote == nil {
		return []string{}, SourceNone
	}

	candidates, err := s.remote.Generate(ctx, ingredient, e.ActiveKeys())
	if err != nil {
		common.LogWarn("遠端替代食材生成失敗", zap.String("ingredient", ingredient), zap.Error(err))
		return []string{}, SourceNone
	}

	list := filterRemote(e, ingredient, candidates)
	common.LogDebug("遠端替代食材已過濾",
		zap.String("ingredient", ingredient),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(list)),
	)
	if len(list) == 0 {
		return list, SourceNone
	}
	return list, SourceRemote
}

func filterRemote(e *safety.Engine, original string, candidates []string) []string {
	pref := e.State().DietaryPreference
	seen := map[string]bool{safety.Normalize(original): true}
	out := make([]string, 0, safety.MaxSubstitutes)
	for _, c := range candidates {
		if len(out) == safety.MaxSubstitutes {
			break
		}
		key := safety.Normalize(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !safety.IsCompatible(c, pref) || e.CheckFood(c).HasConflict {
			continue
		}
		out = append(out, c)
	}
	return out
}
