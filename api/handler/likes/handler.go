package likes

import (
	"net/http"
	"strconv"

	"github.com/anoixa/photo-gallery/api/common"
	"github.com/anoixa/photo-gallery/api/middleware"
	"github.com/anoixa/photo-gallery/internal/engagement"
	"github.com/gin-gonic/gin"
)

// Handler 点赞与排行榜接口处理器
type Handler struct {
	engagement *engagement.Service
}

// NewHandler 创建点赞接口处理器
func NewHandler(engagementService *engagement.Service) *Handler {
	return &Handler{engagement: engagementService}
}

// Toggle 切换点赞状态
func (h *Handler) Toggle(c *gin.Context) {
	result, err := h.engagement.ToggleLike(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// Leaderboard 月度排行榜
func (h *Handler) Leaderboard(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid month")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.engagement.MonthlyLeaderboard(c.Request.Context(), year, month, limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, entries)
}

// PhotoOfMonth 指定月份的月度之星
func (h *Handler) PhotoOfMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid month")
		return
	}

	entry, err := h.engagement.PhotoOfMonth(c.Request.Context(), year, month)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if entry == nil {
		common.RespondError(c, http.StatusNotFound, "no likes recorded for this month")
		return
	}

	common.RespondSuccess(c, entry)
}

// CurrentPhotoOfMonth 当前日历月的月度之星
func (h *Handler) CurrentPhotoOfMonth(c *gin.Context) {
	entry, err := h.engagement.CurrentPhotoOfMonth(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if entry == nil {
		common.RespondError(c, http.StatusNotFound, "no likes recorded for this month")
		return
	}

	common.RespondSuccess(c, entry)
}
