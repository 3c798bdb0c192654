package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intelligent-scheduler/config"
	_ "intelligent-scheduler/docs" // Swagger docs
	"intelligent-scheduler/internal/allocator"
	calendarGoogle "intelligent-scheduler/internal/calendar/google"
	"intelligent-scheduler/internal/committer"
	"intelligent-scheduler/internal/dispatch"
	dispatchRepo "intelligent-scheduler/internal/dispatch/repository/sqlite"
	dispatchUC "intelligent-scheduler/internal/dispatch/usecase"
	extractionUC "intelligent-scheduler/internal/extraction/usecase"
	"intelligent-scheduler/internal/httpserver"
	"intelligent-scheduler/internal/mailbox"
	mailboxGmail "intelligent-scheduler/internal/mailbox/gmail"
	mailboxRepo "intelligent-scheduler/internal/mailbox/repository/sqlite"
	"intelligent-scheduler/internal/middleware"
	"intelligent-scheduler/pkg/datemath"
	"intelligent-scheduler/pkg/gauth"
	"intelligent-scheduler/pkg/gcalendar"
	"intelligent-scheduler/pkg/gmail"
	"intelligent-scheduler/pkg/llmprovider"
	"intelligent-scheduler/pkg/log"
	"intelligent-scheduler/pkg/sqlite"
)

const closeTimeout = 30 * time.Second

// @title       Intelligent Scheduler API
// @description Turns voice transcripts and emails into calendar events placed in free working time.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Intelligent Scheduler...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "Server stopped with error: ", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	// 3. Storage
	db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo, err := dispatchRepo.New(ctx, logger, db)
	if err != nil {
		return fmt.Errorf("dispatch repository: %w", err)
	}
	ledgerRepo, err := mailboxRepo.New(ctx, logger, db)
	if err != nil {
		return fmt.Errorf("mailbox repository: %w", err)
	}

	// 4. Scheduling policy
	allocCfg, err := schedulingConfig(cfg.Scheduling)
	if err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}
	alloc, err := allocator.New(allocCfg)
	if err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}
	policy := alloc.Config()
	logger.Infof(ctx, "Working hours %s-%s (%s)", allocator.FormatClock(policy.WorkStart), allocator.FormatClock(policy.WorkEnd), policy.Location)

	// 5. Google APIs
	scopes := []string{gcalendar.Scope}
	if cfg.Gmail.Enabled {
		scopes = append(scopes, gmail.Scope)
	}
	resolver, err := gauth.NewResolverFromFile(cfg.GoogleCalendar.CredentialsPath, gauth.Options{
		TokenDir:    cfg.GoogleCalendar.TokenDir,
		Impersonate: cfg.GoogleCalendar.Impersonate,
		Scopes:      scopes,
	})
	if err != nil {
		logger.Warn(ctx, "→ Run `go run scripts/google-auth/main.go <user_id>` to store a user token")
		return fmt.Errorf("google credentials: %w", err)
	}

	timezone := cfg.GoogleCalendar.Timezone
	if timezone == "" {
		timezone = policy.Location.String()
	}
	cal := calendarGoogle.New(logger, resolver, calendarGoogle.Options{
		CalendarID: cfg.GoogleCalendar.CalendarID,
		Timezone:   timezone,
	})

	var source mailbox.Source
	if cfg.Gmail.Enabled {
		source = mailboxGmail.New(logger, resolver, ledgerRepo, mailboxGmail.Options{
			Query:       cfg.Gmail.Query,
			MaxMessages: cfg.Gmail.MaxMessages,
		})
		logger.Info(ctx, "✅ Gmail mailbox initialized")
	} else {
		logger.Warn(ctx, "Gmail disabled: email_sync triggers need an explicit body")
	}

	// 6. LLM extraction
	providers, err := llmprovider.InitializeProviders(&cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("llm providers: %w", err)
	}
	managerCfg, err := llmprovider.NewManagerConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	manager := llmprovider.NewManager(providers, managerCfg, logger)
	extractor := extractionUC.New(logger, manager, datemath.NewParserIn(policy.Location), extractionUC.Options{})
	logger.Infof(ctx, "✅ %d LLM provider(s) initialized", len(providers))

	// 7. Dispatcher
	commit := committer.New(logger, cal, committer.Config{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	})
	uc := dispatchUC.New(logger, runRepo, extractor, cal, alloc, commit, source, dispatch.Config{
		RunTimeout:        cfg.Dispatcher.RunTimeout,
		Retention:         cfg.Dispatcher.Retention,
		CommitConcurrency: cfg.Dispatcher.CommitConcurrency,
		GCSchedule:        cfg.Dispatcher.GCSchedule,
	})
	if err := uc.Start(ctx); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := uc.Close(closeCtx); err != nil {
			logger.Warnf(closeCtx, "dispatcher close: %v", err)
		}
	}()

	// 8. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:         logger,
		Port:           cfg.HTTPServer.Port,
		Mode:           cfg.HTTPServer.Mode,
		Environment:    cfg.Environment.Name,
		ReadinessCheck: db.PingContext,
		Middleware: middleware.Config{
			Secret:          cfg.Ingress.Secret,
			AllowedIPs:      cfg.Ingress.AllowedIPs,
			RateLimitPerMin: cfg.Ingress.RateLimitPerMin,
		},
		DispatchUC: uc,
	})
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	// 9. Run
	return httpServer.Run(ctx)
}

// schedulingConfig converts the viper section into the allocator policy.
func schedulingConfig(sc config.SchedulingConfig) (allocator.Config, error) {
	out := allocator.Config{
		LookaheadDays:   sc.LookaheadDays,
		DefaultDuration: sc.DefaultDuration,
		MinDuration:     sc.MinDuration,
		Granularity:     sc.Granularity,
	}

	var err error
	if out.WorkStart, err = allocator.ParseClock(sc.WorkStart); err != nil {
		return out, fmt.Errorf("work_start: %w", err)
	}
	if out.WorkEnd, err = allocator.ParseClock(sc.WorkEnd); err != nil {
		return out, fmt.Errorf("work_end: %w", err)
	}
	for _, raw := range sc.Breaks {
		w, err := allocator.ParseWindow(raw)
		if err != nil {
			return out, fmt.Errorf("breaks: %w", err)
		}
		out.Breaks = append(out.Breaks, w)
	}
	for _, raw := range sc.WorkDays {
		d, err := allocator.ParseWeekday(raw)
		if err != nil {
			return out, fmt.Errorf("work_days: %w", err)
		}
		out.WorkDays = append(out.WorkDays, d)
	}

	tz := sc.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if out.Location, err = time.LoadLocation(tz); err != nil {
		return out, fmt.Errorf("timezone %q: %w", tz, err)
	}
	return out, nil
}
