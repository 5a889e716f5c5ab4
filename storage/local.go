package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// validIdentifier 标识符白名单：uuid + 扩展名形式
var validIdentifier = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// localStorage 本地文件存储实现，用于开发和单机部署。
type localStorage struct {
	absBasePath string
	baseURL     string
}

// NewLocalStorage 创建本地存储提供者
func NewLocalStorage(basePath, baseURL string) (Provider, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	return &localStorage{
		absBasePath: absPath + string(os.PathSeparator),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}, nil
}

// resolve 解析标识符到磁盘路径并防御目录穿越
func (s *localStorage) resolve(identifier string) (string, error) {
	if identifier == "" || !validIdentifier.MatchString(identifier) {
		return "", fmt.Errorf("invalid file identifier: %s", identifier)
	}

	fullPath := filepath.Join(s.absBasePath, identifier)
	if !strings.HasPrefix(fullPath, s.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", identifier)
	}
	return fullPath, nil
}

// SaveWithContext 保存对象到本地存储
func (s *localStorage) SaveWithContext(ctx context.Context, identifier string, file io.Reader, size int64, contentType string) error {
	dstPath, err := s.resolve(identifier)
	if err != nil {
		return err
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file '%s': %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("failed to copy file content to '%s': %w", dstPath, err)
	}

	return nil
}

// DeleteWithContext 从本地存储删除对象。对不存在的键返回成功。
func (s *localStorage) DeleteWithContext(ctx context.Context, identifier string) error {
	fullPath, err := s.resolve(identifier)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file '%s': %w", identifier, err)
	}

	return nil
}

// PresignedURL 本地存储无法真正签名，返回服务自身的公共访问 URL。
// URL 不会过期，仅适用于开发环境。
func (s *localStorage) PresignedURL(ctx context.Context, identifier string, expiry time.Duration) (string, error) {
	if _, err := s.resolve(identifier); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/images/%s", s.baseURL, identifier), nil
}

// Exists 检查对象是否存在
func (s *localStorage) Exists(ctx context.Context, identifier string) (bool, error) {
	fullPath, err := s.resolve(identifier)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Health 检查存储健康状态
func (s *localStorage) Health(ctx context.Context) error {
	if _, err := os.Stat(s.absBasePath); err != nil {
		return fmt.Errorf("local storage health check failed: %w", err)
	}
	return nil
}

// Name 返回存储名称
func (s *localStorage) Name() string {
	return "local"
}
