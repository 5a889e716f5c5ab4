package content

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	// 注册标准库之外的图片解码器，上传时用于读取像素尺寸
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/anoixa/photo-gallery/config"
	"github.com/anoixa/photo-gallery/database/models"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	tagsSvc "github.com/anoixa/photo-gallery/internal/tags"
	"github.com/anoixa/photo-gallery/storage"
	"github.com/anoixa/photo-gallery/utils"
	"github.com/anoixa/photo-gallery/utils/generator"
	"github.com/anoixa/photo-gallery/utils/validator"
	"gorm.io/gorm"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

// Service 内容管理服务。
// 编排对象存储、标签规范化器和元数据仓库，保证两边的一致性：
// 上传先写 blob 再原子写元数据，失败即中止；删除时 blob 删除尽力而为，
// 元数据删除总是继续。
type Service struct {
	images     *imagesRepo.Repository
	likes      *likesRepo.Repository
	normalizer *tagsSvc.Normalizer
	store      storage.Provider
	cfg        *config.Config
}

// NewService 创建内容管理服务
func NewService(
	images *imagesRepo.Repository,
	likes *likesRepo.Repository,
	normalizer *tagsSvc.Normalizer,
	store storage.Provider,
	cfg *config.Config,
) *Service {
	return &Service{
		images:     images,
		likes:      likes,
		normalizer: normalizer,
		store:      store,
		cfg:        cfg,
	}
}

// UploadInput 上传请求
type UploadInput struct {
	File         io.ReadSeeker
	Size         int64
	ContentType  string
	OriginalName string
	Title        string
	Description  string
	Tags         []string
	OwnerID      uint
}

// Upload 上传图片。
// 校验 → 存 blob（失败即中止，不写任何元数据）→ 解析标签 →
// 单事务写入图片行和标签关联。返回带新签发 URL 的初始投影。
func (s *Service) Upload(ctx context.Context, input *UploadInput) (*ImageView, error) {
	if err := s.validateUpload(input); err != nil {
		return nil, err
	}

	width, height := decodeDimensions(input.File)

	identifier := generator.GenerateBlobKey(input.OriginalName)
	if err := s.store.SaveWithContext(ctx, identifier, input.File, input.Size, input.ContentType); err != nil {
		return nil, apperrors.NewStorageError("save", identifier, err)
	}

	tags, err := s.normalizer.Resolve(ctx, input.Tags)
	if err != nil {
		s.cleanupBlob(ctx, identifier)
		return nil, err
	}

	img := &models.Image{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Identifier:   identifier,
		OriginalName: input.OriginalName,
		MimeType:     input.ContentType,
		FileSize:     input.Size,
		Width:        width,
		Height:       height,
		UserID:       input.OwnerID,
		Tags:         tags,
	}

	if err := s.images.Create(ctx, img); err != nil {
		s.cleanupBlob(ctx, identifier)
		return nil, err
	}

	// 重新读取以带出上传者信息
	created, err := s.images.GetByID(ctx, img.ID)
	if err != nil {
		return nil, err
	}

	view := newView(created)
	view.ImageURL = s.presign(ctx, created.Identifier)
	return view, nil
}

// validateUpload 校验上传请求
func (s *Service) validateUpload(input *UploadInput) error {
	if input.File == nil || input.Size <= 0 {
		return apperrors.Validationf("file is required")
	}
	if !validator.IsAllowedContentType(input.ContentType) {
		return apperrors.Validationf("unsupported file type '%s', supported types: %s",
			input.ContentType, strings.Join(validator.AllowedContentTypes(), ", "))
	}
	// 声明的类型不可信，嗅探实际内容
	isImage, err := validator.IsImage(input.File)
	if err != nil {
		return apperrors.Validationf("unable to read uploaded file")
	}
	if !isImage {
		return apperrors.Validationf("file content is not a supported image format")
	}
	if input.Size > s.cfg.MaxUploadBytes() {
		return apperrors.Validationf("file size exceeds maximum limit of %dMB", s.cfg.UploadMaxSizeMB)
	}
	if strings.TrimSpace(input.Title) == "" {
		return apperrors.Validationf("title is required")
	}
	// 长度限制按字符数而非字节数
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return apperrors.Validationf("title must not exceed %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(input.Description) > maxDescriptionLength {
		return apperrors.Validationf("description must not exceed %d characters", maxDescriptionLength)
	}
	return nil
}

// decodeDimensions 读取像素尺寸，失败不阻塞上传
func decodeDimensions(file io.ReadSeeker) (int, int) {
	cfg, _, err := image.DecodeConfig(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return 0, 0
	}
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// cleanupBlob 元数据写入失败后的 blob 清理，尽力而为
func (s *Service) cleanupBlob(ctx context.Context, identifier string) {
	if err := s.store.DeleteWithContext(ctx, identifier); err != nil {
		log.Printf("[Content] Failed to clean up orphaned blob '%s': %v", identifier, err)
	}
}

// GetByID 获取单张图片的投影
func (s *Service) GetByID(ctx context.Context, id string, viewerID uint) (*ImageView, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("image %s", id)
		}
		return nil, err
	}

	views, err := s.buildViews(ctx, []*models.Image{img}, viewerID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// List 分页浏览图片，按上传时间降序
func (s *Service) List(ctx context.Context, page, pageSize int, viewerID uint) (*ImagePage, error) {
	page, pageSize = normalizePaging(page, pageSize)

	items, total, err := s.images.ListPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, items, total, page, pageSize, viewerID)
}

// SearchByText 标题或描述的大小写不敏感子串搜索
func (s *Service) SearchByText(ctx context.Context, query string, page, pageSize int, viewerID uint) (*ImagePage, error) {
	page, pageSize = normalizePaging(page, pageSize)

	items, total, err := s.images.SearchByText(ctx, query, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, items, total, page, pageSize, viewerID)
}

// SearchByTags 多标签搜索。标签名先走规范化，匹配存储的规范形式。
func (s *Service) SearchByTags(ctx context.Context, tagNames []string, mode imagesRepo.TagMatchMode, page, pageSize int, viewerID uint) (*ImagePage, error) {
	page, pageSize = normalizePaging(page, pageSize)

	names := tagsSvc.NormalizeNames(tagNames)
	items, total, err := s.images.SearchByTags(ctx, names, mode, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, items, total, page, pageSize, viewerID)
}

// Delete 删除图片。仅图片所有者或管理员可删。
// blob 删除失败记录日志后继续（接受可能的孤儿对象），
// 元数据删除级联清理点赞行和标签关联。
func (s *Service) Delete(ctx context.Context, imageID string, requesterID uint, requesterIsAdmin bool) error {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("image %s", imageID)
		}
		return err
	}

	if img.UserID != requesterID && !requesterIsAdmin {
		return apperrors.Forbiddenf("you can only delete your own images")
	}

	if err := s.store.DeleteWithContext(ctx, img.Identifier); err != nil {
		log.Printf("[Content] Failed to delete blob '%s', proceeding with metadata deletion: %v", img.Identifier, err)
	}

	return s.images.DeleteCascade(ctx, imageID)
}

// buildPage 构造分页结果
func (s *Service) buildPage(ctx context.Context, items []*models.Image, total int64, page, pageSize int, viewerID uint) (*ImagePage, error) {
	views, err := s.buildViews(ctx, items, viewerID)
	if err != nil {
		return nil, err
	}

	return &ImagePage{
		Items:      views,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// buildViews 批量构造投影：一次取回点赞数和查看者点赞集合，
// 并为每个条目新签发访问 URL。
func (s *Service) buildViews(ctx context.Context, items []*models.Image, viewerID uint) ([]*ImageView, error) {
	ids := make([]string, 0, len(items))
	for _, img := range items {
		ids = append(ids, img.ID)
	}

	counts, err := s.likes.CountByImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	likedSet, err := s.likes.LikedSet(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]*ImageView, 0, len(items))
	for _, img := range items {
		view := newView(img)
		view.LikeCount = counts[img.ID]
		view.LikedByCurrentUser = likedSet[img.ID]
		view.ImageURL = s.presign(ctx, img.Identifier)
		views = append(views, view)
	}
	return views, nil
}

// presign 签发访问 URL。签名失败返回空串而非错误，
// 元数据仍然可用，调用方可以稍后重试。
func (s *Service) presign(ctx context.Context, identifier string) string {
	url, err := s.store.PresignedURL(ctx, identifier, s.cfg.PresignExpiry())
	if err != nil {
		log.Printf("[Content] Failed to presign URL for '%s': %v", utils.SanitizeLogMessage(identifier), err)
		return ""
	}
	return url
}

// normalizePaging 页码从 1 开始，页大小限制在 [1, 100]
func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
