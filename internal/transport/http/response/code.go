package response

import (
	"net/http"

	"go-library-service/internal/domain"
)

// StatusOf Kind → 状态码的唯一映射点
func StatusOf(k domain.ErrorKind) int {
	switch k {
	case domain.KindUserNotFound, domain.KindBookNotFound:
		return http.StatusNotFound
	case domain.KindUserAlreadyExists:
		return http.StatusConflict
	case domain.KindBookAlreadyBorrowed, domain.KindInvalidScore:
		return http.StatusBadRequest
	case domain.KindBookNotBorrowed:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
