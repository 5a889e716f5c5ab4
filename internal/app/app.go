package app

import (
	"fmt"
	"log"

	"github.com/anoixa/photo-gallery/cache"
	"github.com/anoixa/photo-gallery/config"
	"github.com/anoixa/photo-gallery/database"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	tagsRepo "github.com/anoixa/photo-gallery/database/repo/tags"
	usersRepo "github.com/anoixa/photo-gallery/database/repo/users"
	"github.com/anoixa/photo-gallery/internal/admin"
	"github.com/anoixa/photo-gallery/internal/auth"
	"github.com/anoixa/photo-gallery/internal/content"
	"github.com/anoixa/photo-gallery/internal/engagement"
	"github.com/anoixa/photo-gallery/internal/stats"
	"github.com/anoixa/photo-gallery/internal/tags"
	"github.com/anoixa/photo-gallery/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config         *config.Config
	dbProvider     database.Provider
	storageFactory *storage.Factory
	cacheProvider  cache.Provider

	UsersRepo  *usersRepo.Repository
	ImagesRepo *imagesRepo.Repository
	TagsRepo   *tagsRepo.Repository
	LikesRepo  *likesRepo.Repository

	JWTService        *auth.JWTService
	LoginService      *auth.LoginService
	ContentService    *content.Service
	EngagementService *engagement.Service
	AdminService      *admin.Service
	StatsService      *stats.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase 初始化数据库与仓库
func (c *Container) InitDatabase() error {
	provider, err := database.NewGormProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database provider: %w", err)
	}
	c.dbProvider = provider

	c.UsersRepo = usersRepo.NewRepository(provider)
	c.ImagesRepo = imagesRepo.NewRepository(provider)
	c.TagsRepo = tagsRepo.NewRepository(provider)
	c.LikesRepo = likesRepo.NewRepository(provider)

	return nil
}

// InitServices 初始化存储、缓存与领域服务
func (c *Container) InitServices() error {
	storageFactory, err := storage.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage factory: %w", err)
	}
	c.storageFactory = storageFactory

	cacheProvider, err := cache.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache provider: %w", err)
	}
	c.cacheProvider = cacheProvider

	jwtService, err := auth.NewJWTService(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	c.JWTService = jwtService
	c.LoginService = auth.NewLoginService(c.UsersRepo, jwtService)

	store := storageFactory.GetDefault()
	normalizer := tags.NewNormalizer(c.TagsRepo)

	c.ContentService = content.NewService(c.ImagesRepo, c.LikesRepo, normalizer, store, c.config)
	c.EngagementService = engagement.NewService(c.LikesRepo, c.ImagesRepo, store, c.config)
	c.AdminService = admin.NewService(c.UsersRepo, c.ImagesRepo, c.LikesRepo, store)
	c.StatsService = stats.NewService(c.UsersRepo, c.ImagesRepo, c.LikesRepo, cacheProvider, c.config)

	return nil
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	return c.dbProvider
}

// GetStorageFactory 获取存储工厂
func (c *Container) GetStorageFactory() *storage.Factory {
	return c.storageFactory
}

// GetCacheProvider 获取缓存提供者
func (c *Container) GetCacheProvider() cache.Provider {
	return c.cacheProvider
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			log.Printf("Error closing cache provider: %v", err)
		}
	}

	if c.dbProvider != nil {
		if err := c.dbProvider.Close(); err != nil {
			return err
		}
	}

	return nil
}
