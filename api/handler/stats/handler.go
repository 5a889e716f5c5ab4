package stats

import (
	"github.com/anoixa/photo-gallery/api/common"
	"github.com/anoixa/photo-gallery/internal/stats"
	"github.com/gin-gonic/gin"
)

// Handler 公开统计接口处理器
type Handler struct {
	stats *stats.Service
}

// NewHandler 创建统计接口处理器
func NewHandler(statsService *stats.Service) *Handler {
	return &Handler{stats: statsService}
}

// Public 公开统计：照片总数、点赞总数、参与用户数
func (h *Handler) Public(c *gin.Context) {
	result, err := h.stats.PublicStats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}
