package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/photo-gallery/config"
	"github.com/golang-jwt/jwt/v5"
)

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair 包含访问令牌和刷新令牌
type TokenPair struct {
	AccessToken        string    `json:"accessToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiry"`
	RefreshToken       string    `json:"refreshToken"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
}

// TokenClaims JWT 令牌声明
type TokenClaims struct {
	UserID   uint
	Username string
	Role     string
	Type     string
}

// JWTService JWT 令牌服务
type JWTService struct {
	secret           []byte
	expiresIn        time.Duration
	refreshExpiresIn time.Duration
}

// NewJWTService 创建新的 JWT 服务
func NewJWTService(cfg *config.Config) (*JWTService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret is not configured")
	}

	return &JWTService{
		secret:           []byte(cfg.JWTSecret),
		expiresIn:        cfg.JWTExpiresIn,
		refreshExpiresIn: cfg.JWTRefreshExpiresIn,
	}, nil
}

// GenerateTokenPair 为用户签发访问令牌和刷新令牌
func (s *JWTService) GenerateTokenPair(userID uint, username, role string) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.expiresIn)
	refreshExpiry := now.Add(s.refreshExpiresIn)

	accessToken, err := s.signToken(userID, username, role, TokenTypeAccess, now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.signToken(userID, username, role, TokenTypeRefresh, now, refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:        accessToken,
		AccessTokenExpiry:  accessExpiry,
		RefreshToken:       refreshToken,
		RefreshTokenExpiry: refreshExpiry,
	}, nil
}

func (s *JWTService) signToken(userID uint, username, role, tokenType string, issuedAt, expiry time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"type":     tokenType,
		"iat":      issuedAt.Unix(),
		"exp":      expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken 解析并校验令牌
func (s *JWTService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("invalid user_id claim")
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	tokenType, _ := claims["type"].(string)

	return &TokenClaims{
		UserID:   uint(userID),
		Username: username,
		Role:     role,
		Type:     tokenType,
	}, nil
}
