package storage

import (
	"context"
	"io"
	"time"
)

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了对象存储的基本操作，所有存储实现必须遵循此接口
type Provider interface {
	// SaveWithContext 保存对象到存储
	SaveWithContext(ctx context.Context, identifier string, file io.Reader, size int64, contentType string) error

	// DeleteWithContext 从存储删除对象。对不存在的键调用是安全的，
	// 只有真实 I/O 错误才返回失败。
	DeleteWithContext(ctx context.Context, identifier string) error

	// PresignedURL 签发限时只读访问 URL
	PresignedURL(ctx context.Context, identifier string, expiry time.Duration) (string, error)

	// Exists 检查对象是否存在
	Exists(ctx context.Context, identifier string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
