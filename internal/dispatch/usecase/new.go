package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"intelligent-scheduler/internal/allocator"
	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/committer"
	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/extraction"
	"intelligent-scheduler/internal/mailbox"
	"intelligent-scheduler/internal/model"
	pkgLog "intelligent-scheduler/pkg/log"
)

// Committer persists one reserved slot and settles its reservation.
type Committer interface {
	Commit(ctx context.Context, req committer.Request, res committer.Reservations) (model.ScheduledSlot, error)
}

type admissionKey struct {
	userID string
	source model.Source
}

type implUseCase struct {
	l         pkgLog.Logger
	repo      repository.Repository
	extractor extraction.UseCase
	reader    calendar.Reader
	alloc     *allocator.Allocator
	committer Committer
	mailbox   mailbox.Source
	cfg       dispatch.Config

	now      func() time.Time
	newRunID func() string

	baseCtx context.Context
	cancel  context.CancelFunc
	cron    *cron.Cron
	wg      sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	runs      map[string]*model.DispatchRun
	admission map[admissionKey]string
	sessions  map[string]*session
}

// New creates the dispatcher. mailbox may be nil, in which case email_sync
// triggers need an explicit payload.
func New(
	l pkgLog.Logger,
	repo repository.Repository,
	extractor extraction.UseCase,
	reader calendar.Reader,
	alloc *allocator.Allocator,
	committer Committer,
	mailbox mailbox.Source,
	cfg dispatch.Config,
) *implUseCase {
	ctx, cancel := context.WithCancel(context.Background())
	return &implUseCase{
		l:         l,
		repo:      repo,
		extractor: extractor,
		reader:    reader,
		alloc:     alloc,
		committer: committer,
		mailbox:   mailbox,
		cfg:       cfg.WithDefaults(),
		now:       time.Now,
		newRunID:  func() string { return "run_" + uuid.NewString() },
		baseCtx:   ctx,
		cancel:    cancel,
		cron:      cron.New(cron.WithLocation(alloc.Config().Location)),
		runs:      make(map[string]*model.DispatchRun),
		admission: make(map[admissionKey]string),
		sessions:  make(map[string]*session),
	}
}
