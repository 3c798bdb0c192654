package usecase

import (
	"context"
	"time"

	"intelligent-scheduler/internal/extraction"
	"intelligent-scheduler/pkg/datemath"
	"intelligent-scheduler/pkg/llmprovider"
	pkgLog "intelligent-scheduler/pkg/log"
)

// Generator is the part of llmprovider.Manager the extractor uses.
type Generator interface {
	GenerateContent(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error)
}

type implUseCase struct {
	l        pkgLog.Logger
	llm      Generator
	dateMath *datemath.Parser
	maxTasks int
	now      func() time.Time
}

// Options tunes the extractor. Zero values use defaults.
type Options struct {
	MaxTasks int
	Now      func() time.Time
}

// New creates a new extraction UseCase instance.
func New(l pkgLog.Logger, llm Generator, dateMath *datemath.Parser, opt Options) extraction.UseCase {
	if opt.MaxTasks <= 0 {
		opt.MaxTasks = defaultMaxTasks
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &implUseCase{
		l:        l,
		llm:      llm,
		dateMath: dateMath,
		maxTasks: opt.MaxTasks,
		now:      opt.Now,
	}
}
