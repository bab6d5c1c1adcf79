package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-library-service/internal/domain"
)

type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type Body struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func Fail(code, message string) Body {
	return Body{Success: false, Error: ErrorBody{Code: code, Message: message}}
}

// Abort 业务错误按 Kind 映射状态码；其余一律 500，不外泄内部细节
func Abort(c *gin.Context, err error) {
	if de, ok := domain.AsError(err); ok {
		c.AbortWithStatusJSON(StatusOf(de.Kind), Fail(de.Code, de.Message))
		return
	}
	_ = c.Error(err) // 留给访问日志
	c.AbortWithStatusJSON(http.StatusInternalServerError, Fail("", "Internal server error"))
}
