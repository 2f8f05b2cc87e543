package users

import (
	"net/http"
	"strings"

	"ingredient-safety/internal/core/engine"
	"ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/store"
	"ingredient-safety/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RestrictionsRequest 使用者飲食限制設定
type RestrictionsRequest struct {
	Intolerances        []string `json:"intolerances"`
	ExcludedIngredients []string `json:"excluded_ingredients"`
	DietaryPreference   string   `json:"dietary_preference"`
}

// Handler 使用者設定處理程序
type Handler struct {
	source  store.Source
	engines *engine.Cache
	debug   bool
}

// NewHandler 創建使用者設定處理程序
func NewHandler(source store.Source, engines *engine.Cache, debug bool) *Handler {
	return &Handler{source: source, engines: engines, debug: debug}
}

// HandleGetRestrictions GET /users/:id/restrictions
func (h *Handler) HandleGetRestrictions(c *gin.Context) {
	profile, err := h.source.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandlePutRestrictions PUT /users/:id/restrictions，儲存後該使用者的引擎會重建
func (h *Handler) HandlePutRestrictions(c *gin.Context) {
	var req RestrictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}

	profile := safety.Profile{
		UserID:              strings.TrimSpace(c.Param("id")),
		Intolerances:        nonNil(req.Intolerances),
		ExcludedIngredients: nonNil(req.ExcludedIngredients),
		DietaryPreference:   strings.TrimSpace(req.DietaryPreference),
	}
	saved, err := h.engines.UpdateProfile(c.Request.Context(), profile)
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}

	common.LogDebug("使用者限制已儲存",
		zap.String("request_id", common.RequestID(c)),
		zap.String("user_id", saved.UserID),
		zap.Int("intolerances", len(saved.Intolerances)),
		zap.Int("excluded", len(saved.ExcludedIngredients)),
	)
	c.JSON(http.StatusOK, saved)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
