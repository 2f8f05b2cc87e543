// Package engine 管理每位使用者的比對引擎：從資料來源載入設定與參考資料，
// 建構後快取，使用者設定或顯示名稱變更時重建。
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache 使用者比對引擎快取
type Cache struct {
	source store.Source
	labels *safety.LabelCatalog
	locale safety.Locale
	config config.EngineCacheConfig

	entries *lru.Cache[string, cacheEntry]
	group   singleflight.Group
	stats   cacheStats

	// 失效世代：建構開始前記下，寫入快取時仍一致才寫入，
	// 避免建構期間被更新的設定又被舊引擎覆蓋
	genMu       sync.Mutex
	epoch       uint64
	generations map[string]uint64

	stop      chan struct{}
	closeOnce sync.Once
}

// cacheEntry 快取條目
type cacheEntry struct {
	engine         *safety.Engine
	profileVersion string
	expiresAt      time.Time
}

// cacheStats 快取統計
type cacheStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	builds    atomic.Int64
	fallbacks atomic.Int64
}

// NewCache 建立引擎快取；設定停用時每次請求都重新建構
func NewCache(source store.Source, labels *safety.LabelCatalog, locale safety.Locale, cfg config.EngineCacheConfig) (*Cache, error) {
	if labels == nil {
		labels = safety.NewLabelCatalog(nil)
	}
	c := &Cache{
		source: source,
		labels: labels,
		locale: locale,
		config: cfg,
		stop:   make(chan struct{}),

		generations: make(map[string]uint64),
	}
	if !cfg.Enabled {
		common.LogInfo("Engine cache disabled")
		return c, nil
	}

	entries, err := lru.NewWithEvict[string, cacheEntry](cfg.MaxSize, func(string, cacheEntry) {
		c.stats.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries

	// 啟動清理過期條目的協程
	go c.startCleanup()

	common.LogInfo("引擎快取已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return c, nil
}

// Labels 引擎使用的顯示名稱設定
func (c *Cache) Labels() *safety.LabelCatalog {
	return c.labels
}

// ForUser 取得使用者的引擎，快取未命中時從資料來源建構
func (c *Cache) ForUser(ctx context.Context, userID string) (*safety.Engine, error) {
	if c.entries != nil {
		if entry, ok := c.entries.Get(userID); ok && c.fresh(entry) {
			c.stats.hits.Add(1)
			common.LogCacheHit("engine", userID+"@"+entry.profileVersion)
			return entry.engine, nil
		}
	}
	c.stats.misses.Add(1)
	common.LogCacheMiss("engine", userID)

	// 同一使用者同時間只建構一次
	v, err, _ := c.group.Do(userID, func() (interface{}, error) {
		epoch, gen := c.generation(userID)
		profile, err := c.source.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		e := c.Build(ctx, profile)
		c.store(userID, epoch, gen, cacheEntry{
			engine:         e,
			profileVersion: profile.Version,
			expiresAt:      time.Now().Add(c.config.TTL),
		})
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*safety.Engine), nil
}

func (c *Cache) generation(userID string) (uint64, uint64) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.epoch, c.generations[userID]
}

// store 只在建構期間沒有發生失效時寫入快取
func (c *Cache) store(userID string, epoch, gen uint64, entry cacheEntry) bool {
	if c.entries == nil {
		return false
	}
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.epoch != epoch || c.generations[userID] != gen {
		common.LogDebug("設定已在建構期間變更，不寫入快取",
			zap.String("user_id", userID),
			zap.String("version", entry.profileVersion),
		)
		return false
	}
	c.entries.Add(userID, entry)
	return true
}

// Build 為任意使用者設定建構引擎，不寫入快取。
// 參考資料無法載入時以空資料建構，只會回報排除食材衝突。
func (c *Cache) Build(ctx context.Context, profile safety.Profile) *safety.Engine {
	start := time.Now()
	tables, err := c.source.LoadTables(ctx, profile)
	if err != nil {
		c.stats.fallbacks.Add(1)
		common.LogWarn("限制資料載入失敗，使用空資料建構引擎",
			zap.String("user_id", profile.UserID),
			zap.Error(err),
		)
		tables = &safety.Tables{}
	}

	e := safety.NewEngine(tables, profile, safety.Options{
		Locale:           c.locale,
		Labels:           c.labels,
		DietaryConflicts: c.config.DietaryConflicts,
	})
	c.stats.builds.Add(1)
	common.LogDebug("引擎已建構",
		zap.String("user_id", profile.UserID),
		zap.Strings("active_keys", e.ActiveKeys()),
		zap.Int("mappings", len(tables.Mappings)),
		zap.Duration("duration", time.Since(start)),
	)
	return e
}

// fresh 條目未過期且顯示名稱版本一致
func (c *Cache) fresh(entry cacheEntry) bool {
	if time.Now().After(entry.expiresAt) {
		return false
	}
	return entry.engine.LabelsVersion() == c.labels.Version()
}

// UpdateProfile 儲存使用者設定並丟棄其快取引擎
func (c *Cache) UpdateProfile(ctx context.Context, profile safety.Profile) (safety.Profile, error) {
	saved, err := c.source.SaveProfile(ctx, profile)
	if err != nil {
		return safety.Profile{}, err
	}
	c.Invalidate(profile.UserID)
	common.LogInfo("使用者限制已更新",
		zap.String("user_id", saved.UserID),
		zap.String("version", saved.Version),
	)
	return saved, nil
}

// Invalidate 丟棄單一使用者的快取引擎；進行中的建構結果也不會再寫入
func (c *Cache) Invalidate(userID string) {
	if c.entries == nil {
		return
	}
	c.genMu.Lock()
	c.generations[userID]++
	c.entries.Remove(userID)
	c.genMu.Unlock()
	c.group.Forget(userID)
}

// InvalidateAll 丟棄所有快取引擎
func (c *Cache) InvalidateAll() {
	if c.entries == nil {
		return
	}
	c.genMu.Lock()
	c.epoch++
	c.generations = make(map[string]uint64)
	c.entries.Purge()
	c.genMu.Unlock()
}

// RefreshLabels 清除並重新載入資料庫來源的顯示名稱，已快取的引擎會在下次取用時重建
func (c *Cache) RefreshLabels(ctx context.Context) error {
	c.labels.Invalidate()
	labels, err := c.source.LoadLabels(ctx)
	if err != nil {
		common.LogWarn("顯示名稱載入失敗，使用靜態表", zap.Error(err))
		return err
	}
	c.labels.SetDynamic(labels)
	common.LogInfo("顯示名稱已重新載入",
		zap.Int("count", len(labels)),
		zap.Uint64("version", c.labels.Version()),
	)
	return nil
}

// startCleanup 定期清理過期條目
func (c *Cache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup 清理過期或顯示名稱版本過舊的條目
func (c *Cache) cleanup() int {
	if c.entries == nil {
		return 0
	}
	count := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && !c.fresh(entry) {
			c.entries.Remove(key)
			count++
		}
	}
	if count > 0 {
		common.LogInfo("Cleaned up expired engines",
			zap.Int("count", count),
			zap.Int("remaining_size", c.entries.Len()),
		)
	}
	return count
}

// GetStats 快取統計資訊
func (c *Cache) GetStats() map[string]interface{} {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()
	size := 0
	if c.entries != nil {
		size = c.entries.Len()
	}
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"enabled":        c.entries != nil,
		"size":           size,
		"max_size":       c.config.MaxSize,
		"hits":           hits,
		"misses":         misses,
		"evictions":      c.stats.evictions.Load(),
		"builds":         c.stats.builds.Load(),
		"fallbacks":      c.stats.fallbacks.Load(),
		"hit_ratio":      ratio,
		"labels_version": c.labels.Version(),
	}
}

// Close 停止清理協程並清空快取
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		if c.entries != nil {
			c.entries.Purge()
		}
		common.LogInfo("引擎快取已關閉",
			zap.Int64("命中次數", c.stats.hits.Load()),
			zap.Int64("未命中次數", c.stats.misses.Load()),
			zap.Int64("建構次數", c.stats.builds.Load()),
		)
	})
	return nil
}
