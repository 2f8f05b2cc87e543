package common

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-contrib/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得請求 ID，middleware 未設置時補一個新的
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	id := GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// RespondError 將錯誤寫成統一的 JSON 錯誤響應並中止請求
func RespondError(c *gin.Context, err error, debug bool) {
	status, resp := ToErrorResponse(err, debug)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("code", resp.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", RequestID(c)),
	}
	if status >= 500 {
		LogError("請求處理失敗", fields...)
	} else {
		LogWarn("請求處理失敗", fields...)
	}
	c.AbortWithStatusJSON(status, resp)
}
