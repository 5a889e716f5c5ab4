package images

import (
	"context"
	"strings"

	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	"gorm.io/gorm"
)

// TagMatchMode 多标签搜索的匹配模式
type TagMatchMode string

const (
	// MatchAny 图片标签与给定集合有交集
	MatchAny TagMatchMode = "ANY"
	// MatchAll 图片标签是给定集合的超集
	MatchAll TagMatchMode = "ALL"
)

// Repository 图片仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的图片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// preloadTags 预加载排序后的标签和上传者
func preloadTags(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC")
		}).
		Preload("User")
}

// Create 在单个事务中写入图片行及其标签关联。
// 标签行必须已存在（Omit 跳过标签 upsert，只写关联表）。
func (r *Repository) Create(ctx context.Context, image *models.Image) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		return tx.Omit("Tags.*").Create(image).Error
	})
}

// GetByID 通过 ID 获取图片（带标签和上传者）
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	err := preloadTags(r.db.WithContext(ctx)).First(&image, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListPage 分页获取图片列表。按上传时间降序，ID 升序保证排序确定。
func (r *Repository) ListPage(ctx context.Context, page, pageSize int) ([]*models.Image, int64, error) {
	var images []*models.Image
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Image{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := preloadTags(r.db.WithContext(ctx)).
		Order("uploaded_at DESC, id ASC").
		Offset(offset).Limit(pageSize).
		Find(&images).Error
	return images, total, err
}

// SearchByText 标题或描述的大小写不敏感子串搜索
func (r *Repository) SearchByText(ctx context.Context, query string, page, pageSize int) ([]*models.Image, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	condition := "LOWER(title) LIKE ? OR LOWER(description) LIKE ?"

	var total int64
	db := r.db.WithContext(ctx).Model(&models.Image{}).Where(condition, pattern, pattern)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var images []*models.Image
	offset := (page - 1) * pageSize
	err := preloadTags(r.db.WithContext(ctx)).
		Where(condition, pattern, pattern).
		Order("uploaded_at DESC, id ASC").
		Offset(offset).Limit(pageSize).
		Find(&images).Error
	return images, total, err
}

// SearchByTags 多标签搜索。
// ANY 模式命中任一标签即可；ALL 模式要求命中数等于请求的不同标签数，
// 拒绝部分匹配（仅有交集不足以构成超集）。
func (r *Repository) SearchByTags(ctx context.Context, names []string, mode TagMatchMode, page, pageSize int) ([]*models.Image, int64, error) {
	if len(names) == 0 {
		return []*models.Image{}, 0, nil
	}

	matched := r.db.WithContext(ctx).
		Table("images").
		Select("images.id").
		Joins("JOIN image_tags ON image_tags.image_id = images.id").
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Where("tags.name IN ?", names).
		Group("images.id")

	if mode == MatchAll {
		matched = matched.Having("COUNT(DISTINCT tags.id) = ?", len(names))
	}

	var total int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id IN (?)", matched).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var images []*models.Image
	offset := (page - 1) * pageSize
	err = preloadTags(r.db.WithContext(ctx)).
		Where("id IN (?)", matched).
		Order("uploaded_at DESC, id ASC").
		Offset(offset).Limit(pageSize).
		Find(&images).Error
	return images, total, err
}

// ListByUser 获取用户全部图片（不分页，供级联删除使用）
func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]*models.Image, error) {
	var images []*models.Image
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC, id ASC").
		Find(&images).Error
	return images, err
}

// CountByUser 统计用户图片数
func (r *Repository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// DeleteCascade 在单个事务中删除图片行、点赞行和标签关联。
// 图片已不存在时返回 nil，保证级联删除可安全重跑。
func (r *Repository) DeleteCascade(ctx context.Context, imageID string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", imageID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM image_tags WHERE image_id = ?", imageID).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", imageID).Delete(&models.Image{}).Error
	})
}

// TotalCount 图片总数
func (r *Repository) TotalCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&total).Error
	return total, err
}

// TotalSize 图片总字节数
func (r *Repository) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&total).Error
	return total, err
}
