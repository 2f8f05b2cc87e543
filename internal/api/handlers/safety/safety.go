// Package safety 食材安全比對 API：單一食物、餐點、批次、替代食材與自動完成。
package safety

import (
	"net/http"
	"strconv"
	"strings"

	"ingredient-safety/internal/core/engine"
	core "ingredient-safety/internal/core/safety"
	"ingredient-safety/internal/core/suggest"
	"ingredient-safety/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserRef 指定比對對象：已儲存的使用者，或請求內直接附上的設定
type UserRef struct {
	UserID  string        `json:"user_id"`
	Profile *core.Profile `json:"profile,omitempty"`
}

// FoodRequest 單一食物比對
type FoodRequest struct {
	UserRef
	FoodName string `json:"food_name" binding:"required"`
}

// MealRequest 餐點比對，ingredients 可以是字串或 {name|ingredient|item} 物件
type MealRequest struct {
	UserRef
	MealName    string                  `json:"meal_name"`
	Ingredients []core.IngredientRecord `json:"ingredients"`
}

// BatchRequest 批次比對
type BatchRequest struct {
	UserRef
	Foods []string `json:"foods" binding:"required"`
}

// BatchResponse 批次比對結果，順序與請求相同
type BatchResponse struct {
	Results []core.BatchEntry `json:"results"`
}

// CompatibleRequest 飲食偏好相容性過濾
type CompatibleRequest struct {
	DietaryPreference string   `json:"dietary_preference"`
	Ingredients       []string `json:"ingredients" binding:"required"`
}

// CompatibleResponse 相容與不相容的食材
type CompatibleResponse struct {
	Compatible   []string `json:"compatible"`
	Incompatible []string `json:"incompatible"`
}

// SubstitutesRequest 替代食材請求
type SubstitutesRequest struct {
	UserRef
	Ingredient string `json:"ingredient" binding:"required"`
}

// SubstitutesResponse 替代食材與其來源（static / remote / none）
type SubstitutesResponse struct {
	Ingredient  string   `json:"ingredient"`
	Substitutes []string `json:"substitutes"`
	Source      string   `json:"source"`
}

// AutocompleteResponse 自動完成結果
type AutocompleteResponse struct {
	Items []suggest.Item `json:"items"`
}

// AlertsRequest 後端分析回傳的警示
type AlertsRequest struct {
	Alerts []core.BackendAlert `json:"alerts"`
	Locale string              `json:"locale,omitempty"`
}

// Handler 比對處理程序
type Handler struct {
	engines      *engine.Cache
	autocomplete *suggest.Autocomplete
	substitutes  *suggest.Substitutes
	locale       core.Locale
	debug        bool
}

// NewHandler 創建比對處理程序
func NewHandler(engines *engine.Cache, autocomplete *suggest.Autocomplete, substitutes *suggest.Substitutes, locale core.Locale, debug bool) *Handler {
	return &Handler{
		engines:      engines,
		autocomplete: autocomplete,
		substitutes:  substitutes,
		locale:       locale,
		debug:        debug,
	}
}

// engineFor 附上的設定優先；否則以 user_id 取快取的引擎。兩者皆無時使用空設定。
func (h *Handler) engineFor(c *gin.Context, ref UserRef) (*core.Engine, error) {
	if ref.Profile != nil {
		return h.engines.Build(c.Request.Context(), *ref.Profile), nil
	}
	userID := strings.TrimSpace(ref.UserID)
	if userID == "" {
		return h.engines.Build(c.Request.Context(), core.Profile{}), nil
	}
	return h.engines.ForUser(c.Request.Context(), userID)
}

// bind 解析 JSON，失敗時寫入 400
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.RespondError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return false
	}
	return true
}

// HandleFood 單一食物比對
func (h *Handler) HandleFood(c *gin.Context) {
	var req FoodRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.engineFor(c, req.UserRef)
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, e.CheckFood(req.FoodName))
}

// HandleMeal 餐點比對：菜名與每一個食材的衝突合併
func (h *Handler) HandleMeal(c *gin.Context) {
	var req MealRequest
	if !h.bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.MealName) == "" && len(req.Ingredients) == 0 {
		common.RespondError(c, common.NewValidationError("meal_name or ingredients is required"), h.debug)
		return
	}
	e, err := h.engineFor(c, req.UserRef)
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	ingredients := core.ToIngredientNames(req.Ingredients)
	result := e.CheckMeal(req.MealName, ingredients)

	common.LogDebug("餐點比對完成",
		zap.String("request_id", common.RequestID(c)),
		zap.String("user_id", req.UserID),
		zap.Int("ingredients", len(ingredients)),
		zap.Bool("has_conflict", result.HasConflict),
	)
	c.JSON(http.StatusOK, result)
}

// HandleBatch 批次比對
func (h *Handler) HandleBatch(c *gin.Context) {
	var req BatchRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.engineFor(c, req.UserRef)
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Results: e.CheckBatch(req.Foods)})
}

// HandleCompatible 依飲食偏好過濾食材，不需要使用者設定
func (h *Handler) HandleCompatible(c *gin.Context) {
	var req CompatibleRequest
	if !h.bind(c, &req) {
		return
	}
	resp := CompatibleResponse{
		Compatible:   core.FilterCompatible(req.Ingredients, req.DietaryPreference),
		Incompatible: []string{},
	}
	for _, name := range req.Ingredients {
		if !core.IsCompatible(name, req.DietaryPreference) {
			resp.Incompatible = append(resp.Incompatible, name)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSubstitutes 替代食材
func (h *Handler) HandleSubstitutes(c *gin.Context) {
	var req SubstitutesRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.engineFor(c, req.UserRef)
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	list, source := h.substitutes.For(c.Request.Context(), e, req.Ingredient)
	c.JSON(http.StatusOK, SubstitutesResponse{
		Ingredient:  req.Ingredient,
		Substitutes: list,
		Source:      source,
	})
}

// HandleAutocomplete 自動完成：GET ?user_id=&q=&limit=
func (h *Handler) HandleAutocomplete(c *gin.Context) {
	limit := suggest.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.RespondError(c, common.NewValidationError("limit must be a positive integer"), h.debug)
			return
		}
		limit = n
	}
	e, err := h.engineFor(c, UserRef{UserID: c.Query("user_id")})
	if err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, AutocompleteResponse{Items: h.autocomplete.Suggest(e, c.Query("q"), limit)})
}

// HandleAlerts 將後端分析的警示轉成一般比對結果
func (h *Handler) HandleAlerts(c *gin.Context) {
	var req AlertsRequest
	if !h.bind(c, &req) {
		return
	}
	locale := h.locale
	if req.Locale != "" {
		locale = core.ParseLocale(req.Locale)
	}
	c.JSON(http.StatusOK, core.FromBackendAlerts(req.Alerts, h.engines.Labels(), locale))
}

// HandleInvalidateLabels 上游編輯限制資料後呼叫：重新載入顯示名稱並清空引擎快取
func (h *Handler) HandleInvalidateLabels(c *gin.Context) {
	if err := h.engines.RefreshLabels(c.Request.Context()); err != nil {
		common.RespondError(c, err, h.debug)
		return
	}
	h.engines.InvalidateAll()

	common.LogInfo("引擎快取已清空",
		zap.String("request_id", common.RequestID(c)),
		zap.Uint64("labels_version", h.engines.Labels().Version()),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":         "invalidated",
		"labels_version": h.engines.Labels().Version(),
	})
}
