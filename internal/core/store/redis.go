package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore 以 Redis 保存參考資料與使用者設定。
//
// 鍵配置（prefix 預設 "safety"）：
//
//	{prefix}:keynorm           hash  onboarding 鍵 -> 資料庫鍵
//	{prefix}:labels            hash  限制鍵 -> 顯示名稱
//	{prefix}:mappings:{key}    list  IngredientMapping JSON
//	{prefix}:safe:{key}        list  安全關鍵字
//	{prefix}:dietary:{key}     list  DietaryForbidden JSON
//	{prefix}:vocabulary        set   自動完成字彙
//	{prefix}:profile:{user}    string Profile JSON
type RedisStore struct {
	client   *redis.Client
	prefix   string
	language string
}

// NewRedisStore 建立連線並測試
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, language string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 限制資料來源已連線",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("key_prefix", cfg.KeyPrefix),
	)
	return NewRedisStoreWithClient(client, cfg.KeyPrefix, language), nil
}

// NewRedisStoreWithClient 使用既有的 client
func NewRedisStoreWithClient(client *redis.Client, prefix, language string) *RedisStore {
	if prefix == "" {
		prefix = "safety"
	}
	return &RedisStore{client: client, prefix: prefix, language: language}
}

func (s *RedisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping 實作 Source
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// LoadTables 實作 Source：先讀鍵對照，再只讀使用者相關鍵（含別名）的列表
func (s *RedisStore) LoadTables(ctx context.Context, profile safety.Profile) (*safety.Tables, error) {
	start := time.Now()

	normRows, err := s.keyNormalizations(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := s.LoadLabels(ctx)
	if err != nil {
		return nil, err
	}

	tables := &safety.Tables{KeyNormalizations: normRows, Labels: labels}
	keys := safety.NewKeyNormalizer(normRows)
	state := safety.BuildState(profile, keys)

	wanted := append([]string{}, state.IntoleranceKeys...)
	if pref := state.DietaryPreference; pref != "" && !contains(wanted, pref) {
		wanted = append(wanted, pref)
	}
	if len(wanted) == 0 {
		return tables, nil
	}

	type lookup struct {
		alias    string
		mappings *redis.StringSliceCmd
		safe     *redis.StringSliceCmd
		dietary  *redis.StringSliceCmd
	}
	var lookups []lookup

	pipe := s.client.Pipeline()
	for _, key := range wanted {
		for _, alias := range keys.Aliases(key) {
			lookups = append(lookups, lookup{
				alias:    alias,
				mappings: pipe.LRange(ctx, s.key("mappings", alias), 0, -1),
				safe:     pipe.LRange(ctx, s.key("safe", alias), 0, -1),
				dietary:  pipe.LRange(ctx, s.key("dietary", alias), 0, -1),
			})
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to load tables: %w", err))
	}

	for _, l := range lookups {
		for _, raw := range l.mappings.Val() {
			var m safety.IngredientMapping
			if err := json.Unmarshal([]byte(raw), &m); err != nil {
				common.LogWarn("略過無法解析的對照列", zap.String("key", l.alias), zap.Error(err))
				continue
			}
			if languageMatches(m.Language, s.language) {
				tables.Mappings = append(tables.Mappings, m)
			}
		}
		for _, kw := range l.safe.Val() {
			tables.SafeKeywords = append(tables.SafeKeywords, safety.SafeKeyword{IntoleranceKey: l.alias, Keyword: kw})
		}
		for _, raw := range l.dietary.Val() {
			var d safety.DietaryForbidden
			if err := json.Unmarshal([]byte(raw), &d); err != nil {
				common.LogWarn("略過無法解析的飲食禁用列", zap.String("key", l.alias), zap.Error(err))
				continue
			}
			if languageMatches(d.Language, s.language) {
				tables.DietaryForbidden = append(tables.DietaryForbidden, d)
			}
		}
	}

	common.LogDebug("限制資料已載入",
		zap.String("user_id", profile.UserID),
		zap.Int("mappings", len(tables.Mappings)),
		zap.Int("safe_keywords", len(tables.SafeKeywords)),
		zap.Int("dietary_forbidden", len(tables.DietaryForbidden)),
		zap.Duration("duration", time.Since(start)),
	)
	return tables, nil
}

func (s *RedisStore) keyNormalizations(ctx context.Context) ([]safety.KeyNormalization, error) {
	raw, err := s.client.HGetAll(ctx, s.key("keynorm")).Result()
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to load key normalizations: %w", err))
	}
	rows := make([]safety.KeyNormalization, 0, len(raw))
	for from, to := range raw {
		rows = append(rows, safety.KeyNormalization{OnboardingKey: from, DatabaseKey: to})
	}
	// hash 沒有順序，排序讓結果穩定
	sort.Slice(rows, func(i, j int) bool { return rows[i].OnboardingKey < rows[j].OnboardingKey })
	return rows, nil
}

// LoadLabels 實作 Source
func (s *RedisStore) LoadLabels(ctx context.Context) ([]safety.IntoleranceLabel, error) {
	raw, err := s.client.HGetAll(ctx, s.key("labels")).Result()
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to load labels: %w", err))
	}
	labels := make([]safety.IntoleranceLabel, 0, len(raw))
	for key, label := range raw {
		labels = append(labels, safety.IntoleranceLabel{Key: key, Label: label})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Key < labels[j].Key })
	return labels, nil
}

// Vocabulary 實作 Source
func (s *RedisStore) Vocabulary(ctx context.Context) ([]string, error) {
	words, err := s.client.SMembers(ctx, s.key("vocabulary")).Result()
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to load vocabulary: %w", err))
	}
	sort.Strings(words)
	return words, nil
}

// GetProfile 實作 Source
func (s *RedisStore) GetProfile(ctx context.Context, userID string) (safety.Profile, error) {
	data, err := s.client.Get(ctx, s.key("profile", userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return safety.Profile{}, common.ErrProfileNotFound
		}
		return safety.Profile{}, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to get profile: %w", err))
	}

	var p safety.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return safety.Profile{}, common.ErrInvalidProfile.Wrap(fmt.Errorf("failed to unmarshal profile: %w", err))
	}
	return p, nil
}

// SaveProfile 實作 Source，每次儲存都產生新的版本號
func (s *RedisStore) SaveProfile(ctx context.Context, profile safety.Profile) (safety.Profile, error) {
	if err := ValidateProfile(profile); err != nil {
		return safety.Profile{}, err
	}
	profile.Version = common.GenerateUUID()

	data, err := json.Marshal(profile)
	if err != nil {
		return safety.Profile{}, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, s.key("profile", profile.UserID), data, 0).Err(); err != nil {
		return safety.Profile{}, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to save profile: %w", err))
	}
	return profile, nil
}

// Import 以交易覆寫參考資料與種子使用者設定。
// 列表以資料列原始的限制鍵（只做格式正規化，不套用別名）分組，讀取時再以 Aliases 展開。
func (s *RedisStore) Import(ctx context.Context, seed *Seed) error {
	if seed == nil {
		return nil
	}

	mappings := make(map[string][]interface{})
	for _, m := range seed.Mappings {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal mapping: %w", err)
		}
		k := safety.NormalizeKey(m.IntoleranceKey)
		mappings[k] = append(mappings[k], string(data))
	}
	safe := make(map[string][]interface{})
	for _, sk := range seed.SafeKeywords {
		k := safety.NormalizeKey(sk.IntoleranceKey)
		safe[k] = append(safe[k], sk.Keyword)
	}
	dietary := make(map[string][]interface{})
	for _, d := range seed.DietaryForbidden {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal dietary row: %w", err)
		}
		k := safety.NormalizeKey(d.DietaryKey)
		dietary[k] = append(dietary[k], string(data))
	}

	// 先清除舊的列表，避免重複匯入時資料累加
	stale, err := s.scanKeys(ctx, s.key("mappings", "*"), s.key("safe", "*"), s.key("dietary", "*"))
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	stale = append(stale, s.key("keynorm"), s.key("labels"), s.key("vocabulary"))
	pipe.Del(ctx, stale...)

	if len(seed.KeyNormalizations) > 0 {
		values := make(map[string]interface{}, len(seed.KeyNormalizations))
		for _, row := range seed.KeyNormalizations {
			values[row.OnboardingKey] = row.DatabaseKey
		}
		pipe.HSet(ctx, s.key("keynorm"), values)
	}
	if len(seed.Labels) > 0 {
		values := make(map[string]interface{}, len(seed.Labels))
		for _, l := range seed.Labels {
			values[l.Key] = l.Label
		}
		pipe.HSet(ctx, s.key("labels"), values)
	}
	for k, rows := range mappings {
		pipe.RPush(ctx, s.key("mappings", k), rows...)
	}
	for k, rows := range safe {
		pipe.RPush(ctx, s.key("safe", k), rows...)
	}
	for k, rows := range dietary {
		pipe.RPush(ctx, s.key("dietary", k), rows...)
	}
	if vocabulary := buildVocabulary(&seed.Tables); len(vocabulary) > 0 {
		words := make([]interface{}, 0, len(vocabulary))
		for _, w := range vocabulary {
			words = append(words, w)
		}
		pipe.SAdd(ctx, s.key("vocabulary"), words...)
	}
	for _, p := range seed.Profiles {
		if p.UserID == "" {
			continue
		}
		if p.Version == "" {
			p.Version = common.GenerateUUID()
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		pipe.Set(ctx, s.key("profile", p.UserID), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to import seed: %w", err))
	}

	common.LogInfo("種子資料已匯入 Redis",
		zap.Int("mapping_keys", len(mappings)),
		zap.Int("safe_keys", len(safe)),
		zap.Int("dietary_keys", len(dietary)),
		zap.Int("profiles", len(seed.Profiles)),
	)
	return nil
}

func (s *RedisStore) scanKeys(ctx context.Context, patterns ...string) ([]string, error) {
	var keys []string
	for _, pattern := range patterns {
		iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to scan keys: %w", err))
		}
	}
	return keys, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
