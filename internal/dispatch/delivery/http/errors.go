package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/pkg/response"
)

// mapError translates use-case errors into an HTTP status and response data.
// ok is false for unexpected errors.
func (h *handler) mapError(err error) (status int, data map[string]interface{}, ok bool) {
	var inProgress *dispatch.AlreadyInProgressError
	switch {
	case errors.As(err, &inProgress):
		return http.StatusConflict, map[string]interface{}{"existing_run_id": inProgress.ExistingRunID}, true
	case errors.Is(err, dispatch.ErrInvalidTrigger):
		return http.StatusBadRequest, nil, true
	case errors.Is(err, dispatch.ErrRunNotFound):
		return http.StatusNotFound, nil, true
	case errors.Is(err, dispatch.ErrClosed):
		return http.StatusServiceUnavailable, nil, true
	default:
		return http.StatusInternalServerError, nil, false
	}
}

func (h *handler) respondError(c *gin.Context, err error) {
	status, data, ok := h.mapError(err)
	if !ok {
		response.InternalError(c, err)
		return
	}
	response.ErrorWithStatus(c, status, err, data)
}
