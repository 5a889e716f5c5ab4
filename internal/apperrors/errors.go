package apperrors

import (
	"errors"
	"fmt"
)

// 哨兵错误，调用方通过 errors.Is 区分响应类别。
var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")

	// ErrForbidden 无权执行该操作
	ErrForbidden = errors.New("forbidden")
)

// ValidationError 输入校验失败，携带面向调用方的描述。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf 构造校验错误
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StorageError 对象存储操作失败。
// 上传路径视为致命错误（不写任何元数据）；删除路径仅记录日志后继续。
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for object '%s': %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError 构造存储错误
func NewStorageError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsStorage 判断是否为存储错误
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// NotFoundf 构造带上下文的 NotFound 错误
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbiddenf 构造带上下文的 Forbidden 错误
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
