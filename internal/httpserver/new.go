package httpserver

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/middleware"
	"intelligent-scheduler/pkg/log"
)

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin         *gin.Engine
	l           log.Logger
	port        int
	mode        string
	environment string
	readiness   func(ctx context.Context) error

	// Ingress
	middlewareConfig middleware.Config

	// Dispatch domain
	dispatchUC dispatch.UseCase
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string
	// ReadinessCheck backs /ready; nil reports ready unconditionally.
	ReadinessCheck func(ctx context.Context) error

	// Ingress
	Middleware middleware.Config

	// Dispatch domain
	DispatchUC dispatch.UseCase
}

// New creates a new HTTPServer instance.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:                logger,
		gin:              gin.New(),
		port:             cfg.Port,
		mode:             cfg.Mode,
		environment:      cfg.Environment,
		readiness:        cfg.ReadinessCheck,
		middlewareConfig: cfg.Middleware,
		dispatchUC:       cfg.DispatchUC,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	return srv, nil
}

func (srv HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.dispatchUC == nil {
		return errors.New("dispatch usecase is required")
	}
	return nil
}
