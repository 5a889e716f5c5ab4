package content

import (
	"time"

	"github.com/anoixa/photo-gallery/database/models"
)

// ImageView 面向调用方的图片投影。
// imageUrl 在每次响应时重新签发，likedByCurrentUser 随查看者变化，
// 两者都不落库。
type ImageView struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	BlobKey            string    `json:"blobKey"`
	OriginalFileName   string    `json:"originalFileName,omitempty"`
	ContentType        string    `json:"contentType"`
	Size               int64     `json:"size"`
	ImageURL           string    `json:"imageUrl"`
	Tags               []string  `json:"tags"`
	UploaderUsername   string    `json:"uploaderUsername"`
	UploadedAt         time.Time `json:"uploadedAt"`
	LikeCount          int64     `json:"likeCount"`
	LikedByCurrentUser bool      `json:"likedByCurrentUser"`
}

// ImagePage 分页结果
type ImagePage struct {
	Items      []*ImageView `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalItems int64        `json:"totalItems"`
	TotalPages int          `json:"totalPages"`
}

// newView 从图片行构造投影（标签已按名称升序预加载）
func newView(image *models.Image) *ImageView {
	tags := image.TagNames()
	if tags == nil {
		tags = []string{}
	}

	return &ImageView{
		ID:               image.ID,
		Title:            image.Title,
		Description:      image.Description,
		BlobKey:          image.Identifier,
		OriginalFileName: image.OriginalName,
		ContentType:      image.MimeType,
		Size:             image.FileSize,
		Tags:             tags,
		UploaderUsername: image.User.Username,
		UploadedAt:       image.UploadedAt,
	}
}

// totalPages 计算总页数
func totalPages(totalItems int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := totalItems / int64(pageSize)
	if totalItems%int64(pageSize) != 0 {
		pages++
	}
	return int(pages)
}
