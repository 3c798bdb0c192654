package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"

	dispatchHTTP "intelligent-scheduler/internal/dispatch/delivery/http"
	"intelligent-scheduler/internal/middleware"
)

// setupDispatchDomain registers /api/v1/dispatch. The use case is built and
// started by the caller, which also owns its shutdown.
func (srv HTTPServer) setupDispatchDomain(ctx context.Context, api *gin.RouterGroup, mw middleware.Middleware) error {
	h := dispatchHTTP.New(srv.l, srv.dispatchUC)
	dispatchHTTP.RegisterRoutes(api.Group("/dispatch"), h, mw)

	srv.l.Infof(ctx, "Dispatch domain registered")
	return nil
}
