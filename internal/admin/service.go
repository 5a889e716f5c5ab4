package admin

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anoixa/photo-gallery/database/models"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	usersRepo "github.com/anoixa/photo-gallery/database/repo/users"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	"github.com/anoixa/photo-gallery/storage"
	"github.com/anoixa/photo-gallery/utils"
	"gorm.io/gorm"
)

// UserView 面向管理端的用户投影
type UserView struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
	ImageCount int64     `json:"imageCount"`
}

// UserPage 用户分页结果
type UserPage struct {
	Items      []*UserView `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int64       `json:"totalItems"`
}

// UserStats 用户统计
type UserStats struct {
	Total    int64 `json:"total"`
	Admins   int64 `json:"admins"`
	Regular  int64 `json:"regularUsers"`
	Enabled  int64 `json:"enabled"`
	Disabled int64 `json:"disabled"`
}

// ImageStats 图片统计
type ImageStats struct {
	Total          int64 `json:"total"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
}

// LikeStats 点赞统计
type LikeStats struct {
	Total int64 `json:"total"`
}

// SystemStats 系统统计汇总
type SystemStats struct {
	Users  UserStats  `json:"users"`
	Images ImageStats `json:"images"`
	Likes  LikeStats  `json:"likes"`
}

// Service 管理服务：用户级联删除、角色与状态变更、系统统计。
type Service struct {
	users  *usersRepo.Repository
	images *imagesRepo.Repository
	likes  *likesRepo.Repository
	store  storage.Provider
}

// NewService 创建管理服务
func NewService(users *usersRepo.Repository, images *imagesRepo.Repository, likes *likesRepo.Repository, store storage.Provider) *Service {
	return &Service{
		users:  users,
		images: images,
		likes:  likes,
		store:  store,
	}
}

// ListUsers 分页获取用户列表（含图片数）
func (s *Service) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := s.users.ListPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	views := make([]*UserView, 0, len(users))
	for _, user := range users {
		view, err := s.userView(ctx, user)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &UserPage{
		Items:      views,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
	}, nil
}

// DeleteUser 级联删除用户：先逐张删除其全部图片（blob 删除尽力而为，
// 单张失败不阻断其余），最后删除用户行。
// 已删除的图片重跑时不会报错，部分失败后可以安全重试。
func (s *Service) DeleteUser(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("user %d", userID)
		}
		return err
	}

	images, err := s.images.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, img := range images {
		if err := s.store.DeleteWithContext(ctx, img.Identifier); err != nil {
			log.Printf("[Admin] Failed to delete blob '%s' during user deletion, continuing: %v", img.Identifier, err)
		}

		if err := s.images.DeleteCascade(ctx, img.ID); err != nil {
			log.Printf("[Admin] Failed to delete image %s during user deletion, continuing: %v", img.ID, err)
			continue
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	log.Printf("[Admin] User %s and %d associated images deleted", utils.SanitizeLogUsername(user.Username), len(images))
	return nil
}

// ChangeRole 变更用户角色
func (s *Service) ChangeRole(ctx context.Context, userID uint, role string) (*UserView, error) {
	if !models.ValidRole(role) {
		return nil, apperrors.Validationf("invalid role '%s', valid roles are: %s, %s", role, models.RoleUser, models.RoleAdmin)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.userView(ctx, user)
}

// SetEnabled 启用或禁用用户
func (s *Service) SetEnabled(ctx context.Context, userID uint, enabled bool) (*UserView, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Enabled = enabled
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.userView(ctx, user)
}

// SystemStats 系统统计：用户按角色与状态、图片总数与总字节数、点赞总数
func (s *Service) SystemStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{}

	var err error
	if stats.Users.Total, err = s.users.TotalCount(ctx); err != nil {
		return nil, err
	}
	if stats.Users.Admins, err = s.users.CountByRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if stats.Users.Regular, err = s.users.CountByRole(ctx, models.RoleUser); err != nil {
		return nil, err
	}
	if stats.Users.Enabled, err = s.users.CountByEnabled(ctx, true); err != nil {
		return nil, err
	}
	if stats.Users.Disabled, err = s.users.CountByEnabled(ctx, false); err != nil {
		return nil, err
	}
	if stats.Images.Total, err = s.images.TotalCount(ctx); err != nil {
		return nil, err
	}
	if stats.Images.TotalSizeBytes, err = s.images.TotalSize(ctx); err != nil {
		return nil, err
	}
	if stats.Likes.Total, err = s.likes.TotalCount(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Service) getUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("user %d", userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) userView(ctx context.Context, user *models.User) (*UserView, error) {
	count, err := s.images.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &UserView{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Enabled:    user.Enabled,
		CreatedAt:  user.CreatedAt,
		ImageCount: count,
	}, nil
}
