package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ingredient-safety/internal/core/engine"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// pingTimeout 就緒檢查等待資料來源的上限
const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Store     string                 `json:"store"`
	Engines   map[string]interface{} `json:"engines,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version string
	source  store.Source
	engines *engine.Cache
}

// NewHandler 創建健康檢查處理程序
func NewHandler(version string, source store.Source, engines *engine.Cache) *Handler {
	return &Handler{version: version, source: source, engines: engines}
}

func (h *Handler) storeStatus(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := h.source.Ping(ctx); err != nil {
		return "unavailable", err
	}
	return "ok", nil
}

// HealthCheck 健康檢查處理器。資料來源不可用時引擎仍會回答（無衝突），
// 所以狀態標為 degraded 而不是失敗。
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	storeStatus, err := h.storeStatus(c.Request.Context())
	status := "ok"
	if err != nil {
		status = "degraded"
		common.LogWarn("Restriction store unavailable", zap.Error(err))
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Store: storeStatus,
	}
	if h.engines != nil {
		response.Engines = h.engines.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", status),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if _, err := h.storeStatus(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"store":  "unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
