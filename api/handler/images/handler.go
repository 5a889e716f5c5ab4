package images

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/anoixa/photo-gallery/api/common"
	"github.com/anoixa/photo-gallery/api/middleware"
	"github.com/anoixa/photo-gallery/database/repo/images"
	"github.com/anoixa/photo-gallery/internal/content"
	"github.com/gin-gonic/gin"
)

// Handler 图片接口处理器
type Handler struct {
	content *content.Service
}

// NewHandler 创建图片接口处理器
func NewHandler(contentService *content.Service) *Handler {
	return &Handler{content: contentService}
}

// parsePaging 解析分页参数
func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// parseTagNames 解析标签参数：重复的 tags 字段或逗号分隔
func parseTagNames(values []string) []string {
	var names []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			names = append(names, name)
		}
	}
	return names
}

// Upload 处理图片上传
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	input := &content.UploadInput{
		File:         file,
		Size:         fileHeader.Size,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		OriginalName: fileHeader.Filename,
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Tags:         parseTagNames(c.PostFormArray("tags")),
		OwnerID:      middleware.CurrentUserID(c),
	}

	view, err := h.content.Upload(c.Request.Context(), input)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, view)
}

// Get 获取单张图片
func (h *Handler) Get(c *gin.Context) {
	view, err := h.content.GetByID(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, view)
}

// List 分页浏览图片
func (h *Handler) List(c *gin.Context) {
	page, pageSize := parsePaging(c)

	result, err := h.content.List(c.Request.Context(), page, pageSize, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// SearchByText 标题或描述搜索
func (h *Handler) SearchByText(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		common.RespondError(c, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	page, pageSize := parsePaging(c)
	result, err := h.content.SearchByText(c.Request.Context(), query, page, pageSize, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// SearchByTags 多标签搜索，mode 为 ANY（交集）或 ALL（超集）
func (h *Handler) SearchByTags(c *gin.Context) {
	names := parseTagNames(c.QueryArray("tags"))
	if len(names) == 0 {
		common.RespondError(c, http.StatusBadRequest, "query parameter 'tags' is required")
		return
	}

	mode := images.MatchAny
	if strings.EqualFold(c.DefaultQuery("mode", "ANY"), string(images.MatchAll)) {
		mode = images.MatchAll
	}

	page, pageSize := parsePaging(c)
	result, err := h.content.SearchByTags(c.Request.Context(), names, mode, page, pageSize, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// Delete 删除图片（所有者或管理员）
func (h *Handler) Delete(c *gin.Context) {
	err := h.content.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), middleware.IsAdmin(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "image deleted", nil)
}
