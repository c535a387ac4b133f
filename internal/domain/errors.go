package domain

import "errors"

// Kind 业务错误分类，贯穿 server/client 两端
type Kind string

const (
	KindValidation Kind = "validation" // 字段级错误，可由用户修正
	KindAuth       Kind = "auth"       // 凭证缺失/失效
	KindForbidden  Kind = "forbidden"  // 已认证但无权限，终态
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict" // 唯一约束冲突（email 已注册等）
	KindNetwork    Kind = "network"  // 仅客户端：传输层失败
	KindInternal   Kind = "internal"
)

type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // 仅 validation 携带
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func NewAuth(msg string) *Error      { return &Error{Kind: KindAuth, Message: msg} }
func NewForbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }
func NewNotFound(msg string) *Error  { return &Error{Kind: KindNotFound, Message: msg} }
func NewConflict(msg string) *Error  { return &Error{Kind: KindConflict, Message: msg} }

func NewNetwork(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "network error", Err: err}
}

func NewInternal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf 取错误分类；非 *Error 一律按 internal 处理
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
