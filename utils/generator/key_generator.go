package generator

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// defaultExtension 源文件名缺失扩展名时的默认值
const defaultExtension = ".jpg"

// GenerateBlobKey 生成防碰撞的对象存储键：随机 UUID 加原始扩展名。
// 扩展名统一小写，源文件名没有扩展名时使用默认值。
func GenerateBlobKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || ext == "." {
		ext = defaultExtension
	}
	return uuid.NewString() + ext
}
