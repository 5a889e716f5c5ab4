package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/mitchellh/mapstructure"
)

// memoryCache 基于 Ristretto 的进程内缓存
type memoryCache struct {
	client *ristretto.Cache
}

// MemoryConfig 内存缓存配置
type MemoryConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultMemoryConfig 默认内存缓存配置
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		NumCounters: 100000,
		MaxCost:     64 * 1024 * 1024, // 64MB
		BufferItems: 64,
	}
}

// NewMemoryCache 创建内存缓存提供者
func NewMemoryCache(cfg MemoryConfig) (Provider, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &memoryCache{client: client}, nil
}

// Set 设置缓存项
func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	cost := int64(1)
	if data, ok := value.([]byte); ok {
		cost = int64(len(data))
	}

	if set := m.client.SetWithTTL(key, value, cost, expiration); set {
		// 等待值被实际写入
		m.client.Wait()
	}
	return nil
}

// Get 获取缓存项。存储的是原生 Go 值，通过 mapstructure 解码到目标类型。
func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	value, found := m.client.Get(key)
	if !found {
		return ErrCacheMiss
	}

	if err := mapstructure.Decode(value, dest); err != nil {
		return ErrCacheMiss
	}
	return nil
}

// Delete 删除缓存项
func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.client.Del(key)
	return nil
}

// Exists 检查缓存项是否存在
func (m *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found := m.client.Get(key)
	return found, nil
}

// Close 关闭缓存
func (m *memoryCache) Close() error {
	m.client.Close()
	return nil
}

// Name 返回缓存提供者名称
func (m *memoryCache) Name() string {
	return "memory"
}
