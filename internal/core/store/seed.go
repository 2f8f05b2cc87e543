package store

import (
	"fmt"
	"os"

	"ingredient-safety/internal/pkg/common"

	"go.uber.org/zap"
)

// LoadSeedFile 讀取 JSON 種子檔，未知欄位視為錯誤
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var seed Seed
	if err := common.DecodeJSONStrict(f, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}

	common.LogInfo("種子資料已載入",
		zap.String("path", path),
		zap.Int("mappings", len(seed.Mappings)),
		zap.Int("safe_keywords", len(seed.SafeKeywords)),
		zap.Int("key_normalizations", len(seed.KeyNormalizations)),
		zap.Int("dietary_forbidden", len(seed.DietaryForbidden)),
		zap.Int("labels", len(seed.Labels)),
		zap.Int("profiles", len(seed.Profiles)),
	)
	return &seed, nil
}
