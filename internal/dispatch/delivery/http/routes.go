package http

import (
	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/middleware"
)

// RegisterRoutes maps the dispatch endpoints. Trigger routes pass the full
// ingress chain; status polling only the IP allow list.
func RegisterRoutes(rg *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	triggers := rg.Group("", mw.AllowIPs(), mw.VerifySignature(), mw.RateLimit())
	{
		triggers.POST("/triggers", h.SubmitTrigger)
		triggers.POST("/voice", h.SubmitVoice)
		triggers.POST("/email-sync", h.SubmitEmailSync)
	}
	rg.GET("/runs/:run_id", mw.AllowIPs(), h.GetRun)
}
