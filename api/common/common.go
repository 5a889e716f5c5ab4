package common

import (
	"errors"
	"net/http"

	"github.com/anoixa/photo-gallery/internal/apperrors"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondAppError 把核心错误分类映射为 HTTP 状态码。
// 未识别的错误一律 500，不向外泄露存储层细节。
func RespondAppError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		RespondError(c, http.StatusForbidden, err.Error())
	case apperrors.IsStorage(err):
		RespondError(c, http.StatusBadGateway, "storage operation failed")
	default:
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
