package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/domain"
)

// ErrPayload 错误响应体，两端共用的线格式
type ErrPayload struct {
	Kind    domain.Kind       `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrBody struct {
	Error ErrPayload `json:"error"`
}

// WriteError 统一错误出口：结构化 kind/message/fields，真实 HTTP 状态码。
// 非 *domain.Error 一律 500，不向外泄露内部细节。
func WriteError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.NewInternal(err)
	}
	if de.Kind == domain.KindInternal {
		_ = c.Error(err) // 进访问日志
	}
	msg := de.Message
	if de.Kind == domain.KindInternal {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(StatusOf(de.Kind), ErrBody{Error: ErrPayload{
		Kind:    de.Kind,
		Message: msg,
		Fields:  de.Fields,
	}})
}
