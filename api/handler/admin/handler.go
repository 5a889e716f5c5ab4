package admin

import (
	"net/http"
	"strconv"

	"github.com/anoixa/photo-gallery/api/common"
	"github.com/anoixa/photo-gallery/internal/admin"
	"github.com/gin-gonic/gin"
)

// Handler 管理端接口处理器，全部路由要求管理员角色
type Handler struct {
	admin *admin.Service
}

// NewHandler 创建管理端接口处理器
func NewHandler(adminService *admin.Service) *Handler {
	return &Handler{admin: adminService}
}

// ChangeRoleRequest 角色变更请求
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetEnabledRequest 账户启用状态变更请求
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ListUsers 分页获取用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.admin.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// DeleteUser 级联删除用户及其全部图片
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "user deleted", nil)
}

// ChangeRole 变更用户角色
func (h *Handler) ChangeRole(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "field 'role' is required")
		return
	}

	view, err := h.admin.ChangeRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, view)
}

// SetEnabled 启用或禁用账户
func (h *Handler) SetEnabled(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		common.RespondError(c, http.StatusBadRequest, "field 'enabled' is required")
		return
	}

	view, err := h.admin.SetEnabled(c.Request.Context(), userID, *req.Enabled)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, view)
}

// SystemStats 系统统计汇总
func (h *Handler) SystemStats(c *gin.Context) {
	stats, err := h.admin.SystemStats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, stats)
}

func parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
