package stats

import (
	"context"
	"log"

	"github.com/anoixa/photo-gallery/cache"
	"github.com/anoixa/photo-gallery/config"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	usersRepo "github.com/anoixa/photo-gallery/database/repo/users"
)

const publicStatsCacheKey = "stats:public"

// PublicStats 公开统计，无需认证即可访问
type PublicStats struct {
	TotalPhotos       int64 `json:"totalPhotos"`
	TotalLikes        int64 `json:"totalLikes"`
	TotalParticipants int64 `json:"totalParticipants"`
}

// Service 公开统计服务。统计走短 TTL 缓存，容忍轻微滞后。
type Service struct {
	users  *usersRepo.Repository
	images *imagesRepo.Repository
	likes  *likesRepo.Repository
	cache  cache.Provider
	cfg    *config.Config
}

// NewService 创建公开统计服务
func NewService(users *usersRepo.Repository, images *imagesRepo.Repository, likes *likesRepo.Repository, cacheProvider cache.Provider, cfg *config.Config) *Service {
	return &Service{
		users:  users,
		images: images,
		likes:  likes,
		cache:  cacheProvider,
		cfg:    cfg,
	}
}

// PublicStats 公开统计：照片总数、点赞总数、启用用户数
func (s *Service) PublicStats(ctx context.Context) (*PublicStats, error) {
	if s.cache != nil {
		var cached PublicStats
		if err := s.cache.Get(ctx, publicStatsCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !cache.IsCacheMiss(err) {
			log.Printf("[Stats] Cache read failed, recomputing: %v", err)
		}
	}

	stats := &PublicStats{}
	var err error
	if stats.TotalPhotos, err = s.images.TotalCount(ctx); err != nil {
		return nil, err
	}
	if stats.TotalLikes, err = s.likes.TotalCount(ctx); err != nil {
		return nil, err
	}
	if stats.TotalParticipants, err = s.users.CountByEnabled(ctx, true); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, publicStatsCacheKey, *stats, s.cfg.StatsCacheTTL); err != nil {
			log.Printf("[Stats] Cache write failed: %v", err)
		}
	}

	return stats, nil
}
