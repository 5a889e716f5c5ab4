package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/photo-gallery/api/common"
	"github.com/anoixa/photo-gallery/database/models"
	"github.com/anoixa/photo-gallery/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// JWTAuth 强制 JWT 认证。核心服务不读取任何环境态身份，
// 处理器从上下文取出身份后作为显式参数传入。
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtService)
		if !ok {
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalJWTAuth 可选认证：匿名请求继续放行，身份字段留空。
// 用于公共浏览接口，登录用户能看到自己的点赞状态。
func OptionalJWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if claims, ok := parseBearer(c, jwtService); ok {
			c.Set(ContextUserIDKey, claims.UserID)
			c.Set(ContextUsernameKey, claims.Username)
			c.Set(ContextRoleKey, claims.Role)
		}
		c.Next()
	}
}

// RequireAdmin 仅管理员可访问，必须在 JWTAuth 之后挂载
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRoleKey) != models.RoleAdmin {
			common.RespondError(c, http.StatusForbidden, "admin privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtService *auth.JWTService) (*auth.TokenClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		common.RespondError(c, http.StatusUnauthorized, "No Authorization request header")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		common.RespondError(c, http.StatusUnauthorized, "Authorization field format error")
		return nil, false
	}

	claims, err := jwtService.ParseToken(parts[1])
	if err != nil || claims.Type != auth.TokenTypeAccess {
		common.RespondError(c, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}

	return claims, true
}

// CurrentUserID 从上下文取当前用户 ID，匿名时为 0
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserIDKey)
}

// IsAdmin 当前请求者是否为管理员
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextRoleKey) == models.RoleAdmin
}
