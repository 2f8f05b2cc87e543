// Package store 載入比對引擎需要的參考資料與使用者飲食限制設定。
package store

import (
	"context"
	"errors"
	"strings"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/pkg/common"
)

// Source 限制資料來源
type Source interface {
	// LoadTables 只載入與此使用者設定有關的對照列
	LoadTables(ctx context.Context, profile safety.Profile) (*safety.Tables, error)
	LoadLabels(ctx context.Context) ([]safety.IntoleranceLabel, error)
	Vocabulary(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, userID string) (safety.Profile, error)
	SaveProfile(ctx context.Context, profile safety.Profile) (safety.Profile, error)
	Ping(ctx context.Context) error
}

// Seed 種子檔格式：參考資料加上選用的使用者設定
type Seed struct {
	safety.Tables
	Profiles []safety.Profile `json:"profiles,omitempty"`
}

// FilterTables 從完整資料中挑出使用者的不耐症與飲食偏好（含所有別名）相關的列。
// language 非空時只保留該語言或未標語言的對照。
func FilterTables(all *safety.Tables, profile safety.Profile, language string) *safety.Tables {
	out := &safety.Tables{}
	if all == nil {
		return out
	}
	out.KeyNormalizations = append(out.KeyNormalizations, all.KeyNormalizations...)
	out.Labels = append(out.Labels, all.Labels...)

	keys := safety.NewKeyNormalizer(all.KeyNormalizations)
	state := safety.BuildState(profile, keys)

	wanted := make(map[string]bool)
	for _, key := range state.IntoleranceKeys {
		wanted[key] = true
	}
	if state.DietaryPreference != "" {
		wanted[state.DietaryPreference] = true
	}
	if len(wanted) == 0 {
		return out
	}

	for _, m := range all.Mappings {
		if wanted[keys.Canonical(m.IntoleranceKey)] && languageMatches(m.Language, language) {
			out.Mappings = append(out.Mappings, m)
		}
	}
	for _, sk := range all.SafeKeywords {
		if wanted[keys.Canonical(sk.IntoleranceKey)] {
			out.SafeKeywords = append(out.SafeKeywords, sk)
		}
	}
	if pref := state.DietaryPreference; pref != "" {
		for _, row := range all.DietaryForbidden {
			if keys.Canonical(row.DietaryKey) == pref && languageMatches(row.Language, language) {
				out.DietaryForbidden = append(out.DietaryForbidden, row)
			}
		}
	}
	return out
}

func languageMatches(rowLanguage, want string) bool {
	if want == "" || rowLanguage == "" {
		return true
	}
	return strings.EqualFold(rowLanguage, want)
}

// ValidateProfile 檢查使用者設定的基本格式
func ValidateProfile(p safety.Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return errInvalidProfile("user_id is required")
	}
	for _, v := range p.Intolerances {
		if strings.TrimSpace(v) == "" {
			return errInvalidProfile("intolerances must not contain empty values")
		}
	}
	return nil
}

func errInvalidProfile(msg string) error {
	return common.ErrInvalidProfile.Wrap(errors.New(msg))
}
