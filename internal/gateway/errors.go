package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType 网关错误分类
type ErrorType string

const (
	// ErrorTypeTransient 网络层或 5xx 类瞬时失败,可重试
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypeUpstream 上游以完整错误信封报告的失败,不重试
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeNormalization 响应形状不匹配任何已知信封模式
	ErrorTypeNormalization ErrorType = "normalization"
	// ErrorTypeValidation 调用方参数越界,在任何网络调用之前拒绝
	ErrorTypeValidation ErrorType = "validation"
)

// Error 带分类的网关错误
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is 按错误分类比较
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

// NewTransientError 创建瞬时错误
func NewTransientError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeTransient, Message: message, Cause: cause}
}

// NewUpstreamError 创建上游报告的永久失败
func NewUpstreamError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeUpstream, Message: message, Cause: cause}
}

// NewNormalizationError 创建规范化失败
func NewNormalizationError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeNormalization, Message: message, Cause: cause}
}

// NewValidationError 创建参数校验失败
func NewValidationError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// IsTransient 判断错误是否可重试
// 网络错误与 5xx 类失败可重试;上游信封报告的失败与参数错误不可重试
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// 超时与取消由调用方处理,不在重试范围内
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Type == ErrorTypeTransient
	}

	// 未分类的错误按瞬时处理,交给重试上限兜底
	return true
}
