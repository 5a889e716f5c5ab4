package validator

import (
	"io"
	"net/http"
)

// allowedImageMimeTypes 允许上传的图片类型
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedContentType 校验声明的 Content-Type 是否在允许集合内
func IsAllowedContentType(contentType string) bool {
	return allowedImageMimeTypes[contentType]
}

// AllowedContentTypes 返回允许的类型列表（用于错误提示）
func AllowedContentTypes() []string {
	types := make([]string, 0, len(allowedImageMimeTypes))
	for t := range allowedImageMimeTypes {
		types = append(types, t)
	}
	return types
}

// IsImage 嗅探文件头部判断实际内容是否为允许的图片类型。
// 读完把读取位置复位，调用方可以继续消费整个文件。
func IsImage(file io.ReadSeeker) (bool, error) {
	header := make([]byte, 512)
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		return false, err
	}

	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return false, err
	}

	mimeType := http.DetectContentType(header[:n])
	return allowedImageMimeTypes[mimeType], nil
}
