package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() *store.Seed {
	return &store.Seed{
		Tables: safety.Tables{
			Mappings: []safety.IngredientMapping{
				{Ingredient: "leite", IntoleranceKey: "lactose"},
				{Ingredient: "pão", IntoleranceKey: "gluten"},
			},
			Labels: []safety.IntoleranceLabel{{Key: "lactose", Label: "Leite"}},
		},
		Profiles: []safety.Profile{
			{UserID: "u1", Intolerances: []string{"lactose"}},
		},
	}
}

func testConfig() config.EngineCacheConfig {
	return config.EngineCacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute, CleanupInterval: time.Minute}
}

func newTestCache(t *testing.T, source store.Source, cfg config.EngineCacheConfig) *Cache {
	t.Helper()
	c, err := NewCache(source, safety.NewLabelCatalog(nil), safety.LocalePT, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type failingTables struct {
	*store.MemoryStore
}

func (f failingTables) LoadTables(ctx context.Context, profile safety.Profile) (*safety.Tables, error) {
	return nil, common.ErrStoreUnavailable
}

func TestForUserCaches(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), testConfig())

	e1, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	e2, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)

	assert.Same(t, e1, e2)
	assert.True(t, e1.CheckFood("leite").HasConflict)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, int64(1), stats["builds"])
	assert.Equal(t, 1, stats["size"])
}

func TestForUserNotFound(t *testing.T) {
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), testConfig())

	_, err := c.ForUser(context.Background(), "ghost")
	assert.True(t, errors.Is(err, common.ErrProfileNotFound))
}

func TestUpdateProfileInvalidates(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), testConfig())

	e, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, e.CheckFood("pão").HasConflict)

	_, err = c.UpdateProfile(ctx, safety.Profile{UserID: "u1", Intolerances: []string{"gluten"}})
	require.NoError(t, err)

	e, err = c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, e.CheckFood("pão").HasConflict)
	assert.False(t, e.CheckFood("leite").HasConflict)
}

func TestRefreshLabelsRebuilds(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), testConfig())

	e, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lactose"}, e.CheckFood("leite").Labels)

	require.NoError(t, c.RefreshLabels(ctx))

	e, err = c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Leite"}, e.CheckFood("leite").Labels)
	assert.Equal(t, int64(2), c.GetStats()["builds"])
}

func TestBuildFallsBackToEmptyTables(t *testing.T) {
	source := failingTables{store.NewMemoryStore(testSeed(), "")}
	c := newTestCache(t, source, testConfig())

	e := c.Build(context.Background(), safety.Profile{
		Intolerances:        []string{"lactose"},
		ExcludedIngredients: []string{"amendoim"},
	})
	assert.False(t, e.CheckFood("leite").HasConflict)
	assert.True(t, e.CheckFood("amendoim torrado").HasConflict)
	assert.Equal(t, int64(1), c.GetStats()["fallbacks"])
}

func TestExpiredEntriesCleanedUp(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.TTL = time.Millisecond
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), cfg)

	_, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, c.cleanup())
	assert.Equal(t, 0, c.GetStats()["size"])
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Enabled = false
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), cfg)

	_, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	_, err = c.ForUser(ctx, "u1")
	require.NoError(t, err)

	stats := c.GetStats()
	assert.Equal(t, false, stats["enabled"])
	assert.Equal(t, int64(2), stats["builds"])
	c.Invalidate("u1")
	c.InvalidateAll()
}

func TestForUserConcurrent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, store.NewMemoryStore(testSeed(), ""), testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.ForUser(ctx, "u1")
			if assert.NoError(t, err) {
				assert.True(t, e.CheckFood("leite com café").HasConflict)
			}
		}()
	}
	wg.Wait()
}

// blockingProfiles 第一次讀取設定後停住，直到測試放行
type blockingProfiles struct {
	*store.MemoryStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newBlockingProfiles() *blockingProfiles {
	return &blockingProfiles{
		MemoryStore: store.NewMemoryStore(testSeed(), ""),
		read:        make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (b *blockingProfiles) GetProfile(ctx context.Context, userID string) (safety.Profile, error) {
	p, err := b.MemoryStore.GetProfile(ctx, userID)
	b.once.Do(func() {
		close(b.read)
		<-b.release
	})
	return p, err
}

func buildInBackground(c *Cache, userID string) <-chan *safety.Engine {
	done := make(chan *safety.Engine, 1)
	go func() {
		e, _ := c.ForUser(context.Background(), userID)
		done <- e
	}()
	return done
}

func TestUpdateProfileDuringBuild(t *testing.T) {
	ctx := context.Background()
	src := newBlockingProfiles()
	c := newTestCache(t, src, testConfig())

	done := buildInBackground(c, "u1")
	<-src.read

	_, err := c.UpdateProfile(ctx, safety.Profile{UserID: "u1", Intolerances: []string{"gluten"}})
	require.NoError(t, err)
	close(src.release)

	// 進行中的建構仍回傳舊設定的引擎，但不能留在快取裡
	stale := <-done
	require.NotNil(t, stale)
	assert.True(t, stale.CheckFood("leite").HasConflict)
	assert.Equal(t, 0, c.GetStats()["size"])

	e, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotSame(t, stale, e)
	assert.True(t, e.CheckFood("pão").HasConflict)
	assert.False(t, e.CheckFood("leite").HasConflict)
}

func TestInvalidateAllDuringBuild(t *testing.T) {
	ctx := context.Background()
	src := newBlockingProfiles()
	c := newTestCache(t, src, testConfig())

	done := buildInBackground(c, "u1")
	<-src.read

	c.InvalidateAll()
	close(src.release)

	require.NotNil(t, <-done)
	assert.Equal(t, 0, c.GetStats()["size"])

	_, err := c.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.GetStats()["size"])
	assert.Equal(t, int64(2), c.GetStats()["builds"])
}
