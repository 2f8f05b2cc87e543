package store

import (
	"context"
	"sort"
	"sync"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/pkg/common"
)

// MemoryStore 記憶體內的限制資料，用於種子檔模式與測試
type MemoryStore struct {
	mu       sync.RWMutex
	tables   *safety.Tables
	profiles map[string]safety.Profile
	language string
}

// NewMemoryStore 由種子資料建立記憶體儲存
func NewMemoryStore(seed *Seed, language string) *MemoryStore {
	s := &MemoryStore{
		tables:   &safety.Tables{},
		profiles: make(map[string]safety.Profile),
		language: language,
	}
	if seed == nil {
		return s
	}
	tables := seed.Tables
	s.tables = &tables
	for _, p := range seed.Profiles {
		if p.UserID == "" {
			continue
		}
		if p.Version == "" {
			p.Version = common.GenerateUUID()
		}
		s.profiles[p.UserID] = p
	}
	return s
}

// LoadTables 實作 Source
func (s *MemoryStore) LoadTables(ctx context.Context, profile safety.Profile) (*safety.Tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterTables(s.tables, profile, s.language), nil
}

// LoadLabels 實作 Source
func (s *MemoryStore) LoadLabels(ctx context.Context) ([]safety.IntoleranceLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]safety.IntoleranceLabel{}, s.tables.Labels...), nil
}

// Vocabulary 實作 Source：明確字彙加上所有對照食材，去重並排序
func (s *MemoryStore) Vocabulary(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildVocabulary(s.tables), nil
}

// GetProfile 實作 Source
func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (safety.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return safety.Profile{}, common.ErrProfileNotFound
	}
	return p, nil
}

// SaveProfile 實作 Source，每次儲存都產生新的版本號
func (s *MemoryStore) SaveProfile(ctx context.Context, profile safety.Profile) (safety.Profile, error) {
	if err := ValidateProfile(profile); err != nil {
		return safety.Profile{}, err
	}
	profile.Version = common.GenerateUUID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return profile, nil
}

// Ping 實作 Source
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func buildVocabulary(t *safety.Tables) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(word string) {
		key := safety.Normalize(word)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, word)
	}
	for _, w := range t.Vocabulary {
		add(w)
	}
	for _, m := range t.Mappings {
		add(m.Ingredient)
	}
	for _, d := range t.DietaryForbidden {
		add(d.Ingredient)
	}
	sort.Strings(out)
	return out
}
