package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ingredient-safety/internal/api"
	"ingredient-safety/internal/core/engine"
	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/core/suggest"
	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（內含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.App.Name); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	ctx := context.Background()

	// 限制資料來源
	source, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to open restriction store", zap.Error(err))
	}
	defer closeStore()

	// 引擎快取
	engines, err := engine.NewCache(source, safety.NewLabelCatalog(nil), safety.ParseLocale(cfg.App.Locale), cfg.EngineCache)
	if err != nil {
		common.LogFatal("Failed to initialize engine cache", zap.Error(err))
	}
	defer engines.Close()

	// 資料來源不可用時仍可啟動，顯示名稱退回靜態表
	if err := engines.RefreshLabels(ctx); err != nil {
		common.LogWarn("Initial label load failed", zap.Error(err))
	}

	words, err := source.Vocabulary(ctx)
	if err != nil {
		common.LogWarn("Vocabulary load failed, autocomplete starts empty", zap.Error(err))
	}
	autocomplete := suggest.NewAutocomplete(words)

	var remote suggest.Generator
	if cfg.OpenRouter.Enabled {
		remote = suggest.NewRemoteSubstitutes(cfg.OpenRouter, cfg.App.Name)
	}

	common.LogInfo("服務已初始化",
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Int("vocabulary", autocomplete.Size()),
		zap.Bool("remote_substitutes", remote != nil),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
	)

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Store:        source,
		Engines:      engines,
		Autocomplete: autocomplete,
		Substitutes:  suggest.NewSubstitutes(remote),
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// openStore Redis 啟用時使用 Redis（可選擇以種子檔覆寫），否則把種子檔載入記憶體
func openStore(ctx context.Context, cfg *config.Config) (store.Source, func(), error) {
	if !cfg.Redis.Enabled {
		seed, err := store.LoadSeedFile(cfg.Data.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMemoryStore(seed, cfg.Data.Language), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rs, err := store.NewRedisStore(connectCtx, &cfg.Redis, cfg.Data.Language)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := rs.Close(); err != nil {
			common.LogWarn("Failed to close Redis store", zap.Error(err))
		}
	}

	if cfg.Data.SeedOnBoot && cfg.Data.SeedFile != "" {
		seed, err := store.LoadSeedFile(cfg.Data.SeedFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		if err := rs.Import(ctx, seed); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to import seed into Redis: %w", err)
		}
	}
	return rs, closeFn, nil
}
