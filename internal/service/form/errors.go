// Package form 实现表单层级（分类→类型→模板→实例）的核心引擎：
// 模板版本管理、条件可见性求值、到期时间计算、实例状态机与层级删除保护。
// HTTP、鉴权、审计等由外围调用方负责，这里只通过 Store / Directory / Clock 端口协作。
package form

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类，调用方据此映射传输层状态码
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindIntegrity  ErrorKind = "integrity_violation"
	KindValidation ErrorKind = "validation"
	KindTransient  ErrorKind = "transient"
)

// 错误码
const (
	CodeCategoryNotFound = "CATEGORY_NOT_FOUND"
	CodeTypeNotFound     = "TYPE_NOT_FOUND"
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeInstanceNotFound = "INSTANCE_NOT_FOUND"

	CodeCategoryExists    = "CATEGORY_EXISTS"
	CodeTypeExists        = "TYPE_EXISTS"
	CodeDuplicateInstance = "DUPLICATE_INSTANCE"

	CodeCategoryHasActiveTypes     = "CATEGORY_HAS_ACTIVE_TYPES"
	CodeTypeHasActiveTemplates     = "TYPE_HAS_ACTIVE_TEMPLATES"
	CodeTemplateHasActiveInstances = "TEMPLATE_HAS_ACTIVE_INSTANCES"
	CodeInstanceCannotDelete       = "INSTANCE_CANNOT_DELETE"

	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"

	CodeTransient = "TRANSIENT_ERROR"
)

// Error 带分类和错误码的错误值，所有公开操作都返回它而不是裸 error
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError 实体不存在或租户不匹配
func NotFoundError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ConflictError 唯一性/业务规则冲突
func ConflictError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// IntegrityError 破坏性操作被层级保护拦截
func IntegrityError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindIntegrity, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationError 输入形状错误，在任何持久化调用之前拦截
func ValidationError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransientError 持久化/事务失败，调用方可重试，引擎内部不重试
func TransientError(err error) *Error {
	return &Error{Kind: KindTransient, Code: CodeTransient, Message: "storage operation failed", Err: err}
}

// AsError 取出带分类的错误值
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code string) bool {
	if fe, ok := AsError(err); ok {
		return fe.Code == code
	}
	return false
}
