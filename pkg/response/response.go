package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewOKResp returns a new OK response with the given data.
func NewOKResp(data any) Resp {
	return Resp{
		ErrorCode: 0,
		Message:   MessageSuccess,
		Data:      data,
	}
}

// OK sends 200 JSON with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, NewOKResp(data))
}

// Accepted sends 202 JSON with data for work that completes asynchronously.
func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, NewOKResp(data))
}

// Error sends 400 with the error message.
func Error(c *gin.Context, err error, data map[string]interface{}) {
	ErrorWithStatus(c, http.StatusBadRequest, err, data)
}

// ErrorWithStatus sends an error response with the given HTTP status.
func ErrorWithStatus(c *gin.Context, status int, err error, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}

	code := ErrorCodeBadRequest
	if status != http.StatusBadRequest {
		code = status
	}
	c.JSON(status, Resp{
		ErrorCode: code,
		Message:   err.Error(),
		Data:      data,
	})
}

// NotFound sends 404 with the error message.
func NotFound(c *gin.Context, err error) {
	ErrorWithStatus(c, http.StatusNotFound, err, nil)
}

// InternalError sends 500 internal server error.
func InternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Resp{
		ErrorCode: InternalServerErrorCode,
		Message:   DefaultErrorMessage,
	})
}

// Unauthorized sends 401 response.
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Resp{
		ErrorCode: 401,
		Message:   "Unauthorized",
	})
}

// Forbidden sends 403 response.
func Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, Resp{
		ErrorCode: 403,
		Message:   "Forbidden",
	})
}
