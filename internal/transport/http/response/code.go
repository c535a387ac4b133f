package response

import (
	"net/http"

	"go-classifieds/internal/domain"
)

// KindStatusMap 集中管理 kind - HTTP status
var KindStatusMap = map[domain.Kind]int{
	domain.KindValidation: http.StatusBadRequest,
	domain.KindAuth:       http.StatusUnauthorized,
	domain.KindForbidden:  http.StatusForbidden,
	domain.KindNotFound:   http.StatusNotFound,
	domain.KindConflict:   http.StatusConflict,
	domain.KindInternal:   http.StatusInternalServerError,
}

func StatusOf(k domain.Kind) int {
	if s, ok := KindStatusMap[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}
