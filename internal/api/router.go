package api

import (
	"context"
	"fmt"
	"time"

	"ingredient-safety/internal/api/handlers/health"
	safetyHandler "ingredient-safety/internal/api/handlers/safety"
	"ingredient-safety/internal/api/handlers/users"
	"ingredient-safety/internal/api/middleware"
	"ingredient-safety/internal/core/engine"
	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/core/suggest"
	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 未設定時的預設值
	defaultTimeout = 15 * time.Second
	defaultMaxBody = 1 << 20
)

// Dependencies 路由使用的服務
type Dependencies struct {
	Store        store.Source
	Engines      *engine.Cache
	Autocomplete *suggest.Autocomplete
	Substitutes  *suggest.Substitutes
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Store == nil || deps.Engines == nil {
		return nil, fmt.Errorf("store and engine cache are required")
	}
	if deps.Autocomplete == nil {
		deps.Autocomplete = suggest.NewAutocomplete(nil)
	}
	if deps.Substitutes == nil {
		deps.Substitutes = suggest.NewSubstitutes(nil)
	}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBody))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestID(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(common.ErrGatewayTimeout.Status, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: common.ErrGatewayTimeout.Message,
			})
		}
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Store, deps.Engines)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	safetyHandlerInstance := safetyHandler.NewHandler(
		deps.Engines,
		deps.Autocomplete,
		deps.Substitutes,
		safety.ParseLocale(cfg.App.Locale),
		cfg.App.Debug,
	)
	usersHandler := users.NewHandler(deps.Store, deps.Engines, cfg.App.Debug)

	// API 路由組
	api := router.Group("/api/v1")
	{
		safetyGroup := api.Group("/safety")
		{
			// 自動完成不經過去重
			safetyGroup.GET("/autocomplete", safetyHandlerInstance.HandleAutocomplete)

			checks := safetyGroup.Group("")
			if cfg.DedupWindow > 0 {
				checks.Use(middleware.Deduplication(cfg.DedupWindow))
			}
			checks.POST("/food", safetyHandlerInstance.HandleFood)
			checks.POST("/meal", safetyHandlerInstance.HandleMeal)
			checks.POST("/batch", safetyHandlerInstance.HandleBatch)
			checks.POST("/compatible", safetyHandlerInstance.HandleCompatible)
			checks.POST("/substitutes", safetyHandlerInstance.HandleSubstitutes)
			checks.POST("/alerts", safetyHandlerInstance.HandleAlerts)
		}

		userGroup := api.Group("/users")
		{
			userGroup.GET("/:id/restrictions", usersHandler.HandleGetRestrictions)
			userGroup.PUT("/:id/restrictions", usersHandler.HandlePutRestrictions)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/labels/invalidate", safetyHandlerInstance.HandleInvalidateLabels)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("locale", cfg.App.Locale),
		zap.Int("vocabulary_size", deps.Autocomplete.Size()),
		zap.Bool("remote_substitutes", deps.Substitutes.RemoteEnabled()),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBody),
	)

	return router, nil
}
