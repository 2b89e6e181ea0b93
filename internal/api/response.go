package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/middleware"
)

// SuccessResponse 通用成功响应
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondError 按错误码输出错误响应，调用栈不返回给客户端
func respondError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}
	_ = c.Error(err)

	body := &errors.AppError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	c.JSON(appErr.HTTPStatus(), errors.NewErrorResponse(body, middleware.GetRequestID(c)))
}

// respondBadRequest 请求参数绑定失败
func respondBadRequest(c *gin.Context, err error) {
	respondError(c, errors.Wrap(err, errors.ErrInvalidParam))
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
