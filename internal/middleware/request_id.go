package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"intelligent-scheduler/pkg/log"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id and attaches it to the
// request context for logging.
func (mw Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
