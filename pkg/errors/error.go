package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/iceymoss/og-prank/pkg/xerr"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息，校验错误时直接展示给用户
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s, err=%v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，配合下面的哨兵错误使用 errors.Is(err, ErrNotFound)
func (e *CodeMsg) Is(target error) bool {
	t, ok := target.(*CodeMsg)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus 错误码到 HTTP 状态码的映射
func (e *CodeMsg) HTTPStatus() int {
	switch e.Code {
	case xerr.ErrBadRequest, xerr.ErrInvalidInput, xerr.ErrMissingParameter, xerr.REQUEST_PARAM_ERROR:
		return http.StatusBadRequest
	case xerr.ErrNotFound, xerr.ErrResourceNotFound:
		return http.StatusNotFound
	case xerr.STORAGE_ERROR:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 哨兵错误，只用于 errors.Is 判断
var (
	ErrValidation = &CodeMsg{Code: xerr.ErrInvalidInput}
	ErrNotFound   = &CodeMsg{Code: xerr.ErrResourceNotFound}
	ErrStorage    = &CodeMsg{Code: xerr.STORAGE_ERROR}
)

// New 构造函数
func New(code int, msg string) error {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 携带原始错误
func Wrap(code int, msg string, err error) error {
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

func NewValidation(msg string) error {
	return New(xerr.ErrInvalidInput, msg)
}

func NewNotFound(msg string) error {
	return New(xerr.ErrResourceNotFound, msg)
}

func NewStorage(msg string, err error) error {
	return Wrap(xerr.STORAGE_ERROR, msg, err)
}

// Message 取出可展示给用户的消息，非 CodeMsg 返回空串
func Message(err error) string {
	var cm *CodeMsg
	if stderrors.As(err, &cm) {
		return cm.Msg
	}
	return ""
}

// Status 取出 HTTP 状态码，非 CodeMsg 一律 500
func Status(err error) int {
	var cm *CodeMsg
	if stderrors.As(err, &cm) {
		return cm.HTTPStatus()
	}
	return http.StatusInternalServerError
}
