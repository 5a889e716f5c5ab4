package core

import (
	"net/http"
	"time"

	"github.com/anoixa/photo-gallery/api/common"
	handlerAdmin "github.com/anoixa/photo-gallery/api/handler/admin"
	handlerAuth "github.com/anoixa/photo-gallery/api/handler/auth"
	handlerImages "github.com/anoixa/photo-gallery/api/handler/images"
	handlerLikes "github.com/anoixa/photo-gallery/api/handler/likes"
	handlerStats "github.com/anoixa/photo-gallery/api/handler/stats"
	"github.com/anoixa/photo-gallery/api/middleware"
	"github.com/anoixa/photo-gallery/cache"
	"github.com/anoixa/photo-gallery/config"
	"github.com/anoixa/photo-gallery/database"
	svcAdmin "github.com/anoixa/photo-gallery/internal/admin"
	svcAuth "github.com/anoixa/photo-gallery/internal/auth"
	svcContent "github.com/anoixa/photo-gallery/internal/content"
	svcEngagement "github.com/anoixa/photo-gallery/internal/engagement"
	svcStats "github.com/anoixa/photo-gallery/internal/stats"
	"github.com/anoixa/photo-gallery/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DBProvider    database.Provider
	Storage       storage.Provider
	CacheProvider cache.Provider

	JWTService        *svcAuth.JWTService
	LoginService      *svcAuth.LoginService
	ContentService    *svcContent.Service
	EngagementService *svcEngagement.Service
	AdminService      *svcAdmin.Service
	StatsService      *svcStats.Service
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.CommitHash != "n/a" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	// 速率限制
	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, 10*time.Minute)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, 10*time.Minute)
	cleanup := func() {
		authRateLimiter.StopCleanup()
		apiRateLimiter.StopCleanup()
	}

	router.GET("/health", func(context *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DBProvider),
				"cache":    checkCacheHealth(deps.CacheProvider),
				"storage":  checkStorageHealth(deps.Storage),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		context.JSON(httpStatus, health)
	})
	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	// 创建处理器（依赖注入）
	imageHandler := handlerImages.NewHandler(deps.ContentService)
	likeHandler := handlerLikes.NewHandler(deps.EngagementService)
	adminHandler := handlerAdmin.NewHandler(deps.AdminService)
	authHandler := handlerAuth.NewHandler(deps.LoginService)
	statsHandler := handlerStats.NewHandler(deps.StatsService)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(authRateLimiter.Middleware())
		{
			authGroup.POST("/register", authHandler.Register) // POST /api/auth/register
			authGroup.POST("/login", authHandler.Login)       // POST /api/auth/login
			authGroup.POST("/refresh", authHandler.Refresh)   // POST /api/auth/refresh
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(apiRateLimiter.Middleware())
		{
			// 公共浏览接口，登录用户额外获得自己的点赞状态
			browseGroup := v1.Group("/images")
			browseGroup.Use(middleware.OptionalJWTAuth(deps.JWTService))
			{
				browseGroup.GET("", imageHandler.List)                    // GET /api/v1/images
				browseGroup.GET("/search", imageHandler.SearchByText)     // GET /api/v1/images/search?q=
				browseGroup.GET("/search/tags", imageHandler.SearchByTags) // GET /api/v1/images/search/tags?tags=a,b&mode=ALL
				browseGroup.GET("/:id", imageHandler.Get)                 // GET /api/v1/images/{id}
			}

			// 需要登录的图片操作
			imagesGroup := v1.Group("/images")
			imagesGroup.Use(middleware.JWTAuth(deps.JWTService))
			{
				imagesGroup.POST("/upload", imageHandler.Upload)     // POST /api/v1/images/upload
				imagesGroup.DELETE("/:id", imageHandler.Delete)      // DELETE /api/v1/images/{id}
				imagesGroup.POST("/:id/like", likeHandler.Toggle)    // POST /api/v1/images/{id}/like
			}

			// 排行榜与月度之星
			leaderboardGroup := v1.Group("/leaderboard")
			{
				leaderboardGroup.GET("/:year/:month", likeHandler.Leaderboard)                // GET /api/v1/leaderboard/{year}/{month}
				leaderboardGroup.GET("/:year/:month/photo-of-month", likeHandler.PhotoOfMonth) // GET /api/v1/leaderboard/{year}/{month}/photo-of-month
			}
			v1.GET("/photo-of-month", likeHandler.CurrentPhotoOfMonth) // GET /api/v1/photo-of-month

			// 公开统计
			v1.GET("/stats", statsHandler.Public) // GET /api/v1/stats

			// 管理端
			adminGroup := v1.Group("/admin")
			adminGroup.Use(middleware.JWTAuth(deps.JWTService))
			adminGroup.Use(middleware.RequireAdmin())
			{
				adminGroup.GET("/users", adminHandler.ListUsers)             // GET /api/v1/admin/users
				adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)     // DELETE /api/v1/admin/users/{id}
				adminGroup.PUT("/users/:id/role", adminHandler.ChangeRole)   // PUT /api/v1/admin/users/{id}/role
				adminGroup.PUT("/users/:id/status", adminHandler.SetEnabled) // PUT /api/v1/admin/users/{id}/status
				adminGroup.GET("/stats", adminHandler.SystemStats)           // GET /api/v1/admin/stats
			}
		}
	}

	return router, cleanup
}

// corsConfig 配置了域名时只放行该来源并允许携带凭证，
// 否则放行所有来源但不允许凭证
func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}

	if cfg.ServerDomain != "" {
		corsCfg.AllowOrigins = []string{cfg.ServerDomain}
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}

	return corsCfg
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
