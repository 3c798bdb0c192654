package http

import (
	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/pkg/log"
)

type handler struct {
	l  log.Logger
	uc dispatch.UseCase
}

// New creates the HTTP handler for the dispatch domain.
func New(l log.Logger, uc dispatch.UseCase) *handler {
	return &handler{
		l:  l,
		uc: uc,
	}
}
