package engagement

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anoixa/photo-gallery/config"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	"github.com/anoixa/photo-gallery/storage"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// presignConcurrency 排行榜 URL 签发的并发上限
const presignConcurrency = 8

// LikeResult 点赞切换结果
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	ImageID          string `json:"imageId"`
	Title            string `json:"title"`
	ImageURL         string `json:"imageUrl"`
	UploaderUsername string `json:"uploaderUsername"`
	LikeCount        int64  `json:"likeCount"`
}

// Service 互动服务：点赞切换、计数查询和月度排行榜。
// 点赞切换的并发正确性完全由存储层唯一约束保证，服务层不持锁。
type Service struct {
	likes  *likesRepo.Repository
	images *imagesRepo.Repository
	store  storage.Provider
	cfg    *config.Config
}

// NewService 创建互动服务
func NewService(likes *likesRepo.Repository, images *imagesRepo.Repository, store storage.Provider, cfg *config.Config) *Service {
	return &Service{
		likes:  likes,
		images: images,
		store:  store,
		cfg:    cfg,
	}
}

// ToggleLike 切换用户对图片的点赞状态。
// 返回切换后的状态和从点赞行重新计算的总数。
func (s *Service) ToggleLike(ctx context.Context, imageID string, userID uint) (*LikeResult, error) {
	if _, err := s.images.GetByID(ctx, imageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("image %s", imageID)
		}
		return nil, err
	}

	liked, err := s.likes.Toggle(ctx, imageID, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.likes.CountByImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// LikeCount 获取图片点赞数，始终重新计算
func (s *Service) LikeCount(ctx context.Context, imageID string) (int64, error) {
	return s.likes.CountByImage(ctx, imageID)
}

// IsLiked 判断用户是否已点赞图片
func (s *Service) IsLiked(ctx context.Context, imageID string, userID uint) (bool, error) {
	return s.likes.Exists(ctx, imageID, userID)
}

// monthWindow 计算日历月的时间窗 [当月第一刻, 次月第一刻)
func monthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// MonthlyLeaderboard 月度排行榜：只统计 likedAt 落在该日历月内的点赞，
// 按数量降序，平局按最早上传时间。条目 URL 并发签发。
func (s *Service) MonthlyLeaderboard(ctx context.Context, year, month, limit int) ([]*LeaderboardEntry, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.Validationf("month must be between 1 and 12, got %d", month)
	}

	start, end := monthWindow(year, month)
	rows, err := s.likes.Leaderboard(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			entry := &LeaderboardEntry{
				ImageID:          row.ImageID,
				Title:            row.Title,
				UploaderUsername: row.Username,
				LikeCount:        row.LikeCount,
			}

			url, err := s.store.PresignedURL(gctx, row.Identifier, s.cfg.PresignExpiry())
			if err != nil {
				// 签名失败不拉掉整个榜单
				log.Printf("[Engagement] Failed to presign URL for '%s': %v", row.Identifier, err)
			} else {
				entry.ImageURL = url
			}

			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// PhotoOfMonth 月度之星：排行榜首位。当月没有任何点赞时返回 nil。
func (s *Service) PhotoOfMonth(ctx context.Context, year, month int) (*LeaderboardEntry, error) {
	entries, err := s.MonthlyLeaderboard(ctx, year, month, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// CurrentPhotoOfMonth 当前日历月的月度之星
func (s *Service) CurrentPhotoOfMonth(ctx context.Context) (*LeaderboardEntry, error) {
	now := time.Now().UTC()
	return s.PhotoOfMonth(ctx, now.Year(), int(now.Month()))
}
