package cache

import (
	"fmt"
	"log"

	"github.com/anoixa/photo-gallery/config"
)

// NewProvider 根据配置创建缓存提供者。
// Redis 不可用时回退到内存缓存，缓存只是加速层，不应阻止启动。
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "redis":
		provider, err := NewRedisCache(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
		if err != nil {
			log.Printf("[Cache] Redis unavailable (%v), falling back to memory cache", err)
			return NewMemoryCache(DefaultMemoryConfig())
		}
		log.Printf("[Cache] Using redis cache at %s", cfg.CacheRedisAddr)
		return provider, nil

	case "memory", "":
		return NewMemoryCache(DefaultMemoryConfig())

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
