package likes

import (
	"context"
	"time"

	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 点赞仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的点赞仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Toggle 切换 (imageID, userID) 的点赞状态，返回切换后是否为已点赞。
// 先删后插：删除命中即为取消点赞；否则插入新行。
// 并发正确性由 (image_id, user_id) 唯一索引仲裁，插入冲突被吞并，
// 此时该用户已处于点赞状态，结果仍然成立。
func (r *Repository) Toggle(ctx context.Context, imageID string, userID uint) (bool, error) {
	var liked bool
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		res := tx.Where("image_id = ? AND user_id = ?", imageID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := &models.Like{
			ImageID: imageID,
			UserID:  userID,
			LikedAt: time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

// CountByImage 统计图片点赞数。始终从点赞行重新计算，不维护计数器。
func (r *Repository) CountByImage(ctx context.Context, imageID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("image_id = ?", imageID).
		Count(&count).Error
	return count, err
}

// CountByImages 批量统计多张图片的点赞数
func (r *Repository) CountByImages(ctx context.Context, imageIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(imageIDs))
	if len(imageIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ImageID string
		Count   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("image_id, COUNT(id) AS count").
		Where("image_id IN ?", imageIDs).
		Group("image_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.ImageID] = r.Count
	}
	return counts, nil
}

// Exists 判断用户是否已点赞图片
func (r *Repository) Exists(ctx context.Context, imageID string, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Count(&count).Error
	return count > 0, err
}

// LikedSet 批量查询用户对多张图片的点赞集合
func (r *Repository) LikedSet(ctx context.Context, imageIDs []string, userID uint) (map[string]bool, error) {
	liked := make(map[string]bool, len(imageIDs))
	if len(imageIDs) == 0 || userID == 0 {
		return liked, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("image_id IN ? AND user_id = ?", imageIDs, userID).
		Pluck("image_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// TotalCount 点赞总数
func (r *Repository) TotalCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Count(&total).Error
	return total, err
}

// LeaderboardRow 排行榜聚合行
type LeaderboardRow struct {
	ImageID    string
	Title      string
	Identifier string
	Username   string
	LikeCount  int64
}

// Leaderboard 统计 [start, end) 时间窗内的点赞并按数量降序排序。
// 平局按图片上传时间最早优先，再按图片 ID，保证多实例间排序确定。
func (r *Repository) Leaderboard(ctx context.Context, start, end time.Time, limit int) ([]*LeaderboardRow, error) {
	var rows []*LeaderboardRow

	query := r.db.WithContext(ctx).
		Table("likes").
		Select("likes.image_id AS image_id, images.title AS title, images.identifier AS identifier, users.username AS username, COUNT(likes.id) AS like_count").
		Joins("JOIN images ON images.id = likes.image_id").
		Joins("JOIN users ON users.id = images.user_id").
		Where("likes.liked_at >= ? AND likes.liked_at < ?", start, end).
		Group("likes.image_id, images.title, images.identifier, users.username, images.uploaded_at").
		Order("like_count DESC").
		Order("images.uploaded_at ASC").
		Order("likes.image_id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Scan(&rows).Error
	return rows, err
}
