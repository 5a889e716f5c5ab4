package cache

import (
	"context"
	"errors"
	"time"
)

// Provider 缓存提供者，内存和 redis 实现共用同一接口
type Provider interface {
	// Set 写入缓存项，expiration 为存活时长
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get 读取缓存项并解码到 dest，未命中返回 ErrCacheMiss
	Get(ctx context.Context, key string, dest interface{}) error

	// Delete 删除缓存项，键不存在不算错误
	Delete(ctx context.Context, key string) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Close 释放底层资源
	Close() error

	// Name 提供者名称，用于日志
	Name() string
}

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss 判断错误是否为缓存未命中
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
