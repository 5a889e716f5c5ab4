package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/anoixa/photo-gallery/database/models"
	usersRepo "github.com/anoixa/photo-gallery/database/repo/users"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	"github.com/anoixa/photo-gallery/utils"
	"github.com/anoixa/photo-gallery/utils/crypto"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 用户名或密码错误（对外不区分具体原因）
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrAccountDisabled 账户被禁用
var ErrAccountDisabled = errors.New("account is disabled")

// LoginService 登录与注册服务
type LoginService struct {
	users *usersRepo.Repository
	jwt   *JWTService
}

// NewLoginService 创建登录服务
func NewLoginService(users *usersRepo.Repository, jwt *JWTService) *LoginService {
	return &LoginService{users: users, jwt: jwt}
}

// Register 注册新用户。第一个注册的账户自动成为管理员。
func (s *LoginService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Validationf("username is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.Validationf("email is required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validationf("password must be at least 8 characters")
	}

	hash, err := crypto.GenerateFromPassword(password)
	if err != nil {
		return nil, err
	}

	total, err := s.users.TotalCount(ctx)
	if err != nil {
		return nil, err
	}

	role := models.RoleUser
	if total == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: hash,
		Role:     role,
		Enabled:  true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// 用户名或邮箱唯一约束冲突
		return nil, apperrors.Validationf("username or email already taken")
	}

	log.Printf("[Auth] Registered new user: %s", utils.SanitizeLogUsername(username))
	return user, nil
}

// Login 校验凭证并签发令牌对
func (s *LoginService) Login(ctx context.Context, username, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	match, err := crypto.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Refresh 用刷新令牌换发新的令牌对
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidCredentials
	}

	// 重新加载用户，令牌签发后被禁用或改权的账户立即失效
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	return s.jwt.GenerateTokenPair(user.ID, user.Username, user.Role)
}
