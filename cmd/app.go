package main

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/bootstrap"
	"tradeidea/internal/config"
	cronpkg "tradeidea/internal/cron"
	"tradeidea/internal/generator"
	"tradeidea/internal/handler/api"
	"tradeidea/internal/lock"
	"tradeidea/internal/notify"
	"tradeidea/internal/repository"
	"tradeidea/internal/router"
)

// app holds the wired service graph shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB

	schedules     *repository.ScheduleRepository
	notifications *repository.NotificationRepository
	profiles      *repository.ProfileRepository
	sweepRuns     *repository.SweepRunRepository

	dispatcher   *notify.Dispatcher
	publisher    *notify.NATSPublisher
	orchestrator *autogen.Orchestrator
	sweeper      *autogen.Sweeper
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Server.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// openDatabase connects and migrates.
func openDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := config.NewDatabase(&cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database connection established")
	return db, nil
}

func newApp(cfg *config.Config, logger *zap.Logger, db *gorm.DB) *app {
	a := &app{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		schedules:     repository.NewScheduleRepository(db),
		notifications: repository.NewNotificationRepository(db),
		profiles:      repository.NewProfileRepository(db),
		sweepRuns:     repository.NewSweepRunRepository(db),
	}

	// --- Lease (Redis with in-memory fallback) ---
	locker, lockErr := lock.NewLocker(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB)
	if lockErr != nil {
		logger.Warn("Redis unavailable for schedule leases, using in-memory fallback", zap.Error(lockErr))
	}

	// --- Notification channels ---
	var channels []notify.Channel
	if email := notify.NewEmailChannel(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.AppURL, logger); email != nil {
		channels = append(channels, email)
	} else {
		logger.Info("Email notifications disabled (RESEND_API_KEY not set)")
	}
	telegram, err := notify.NewTelegramChannel(cfg.Telegram.Token, logger)
	switch {
	case err != nil:
		logger.Warn("Telegram notifications disabled", zap.Error(err))
	case telegram != nil:
		channels = append(channels, telegram)
	}
	a.dispatcher = notify.NewDispatcher(a.notifications, a.profiles, logger, channels...)

	// --- Event bus ---
	publisher, err := notify.NewNATSPublisher(cfg.NATS.URL, logger)
	switch {
	case err != nil:
		logger.Warn("NATS unavailable, events are not published", zap.Error(err))
	case publisher != nil:
		a.publisher = publisher
		a.dispatcher.WithPublisher(publisher)
	}

	// --- Auto-generation ---
	policy := autogen.DefaultRetryPolicy()
	policy.MaxRetries = cfg.AutoGen.MaxRetries
	policy.RetryDelay = cfg.AutoGen.RetryDelay

	gen := generator.New(cfg.Generator.URL, cfg.Generator.Token, cfg.Generator.Timeout, logger)
	a.orchestrator = autogen.NewOrchestrator(a.schedules, gen, a.dispatcher, locker, autogen.Options{
		Policy:   policy,
		LeaseTTL: cfg.AutoGen.LeaseTTL,
	}, logger)
	a.sweeper = autogen.NewSweeper(a.schedules, a.orchestrator, logger).WithRecorder(a.sweepRuns)

	return a
}

func (a *app) routes(e *echo.Echo) {
	router.Setup(e, router.Handlers{
		AutoGeneration: api.NewAutoGenerationHandler(a.orchestrator, a.logger),
		Notification:   api.NewNotificationHandler(a.notifications, a.dispatcher, a.logger),
		Profile:        api.NewProfileHandler(a.profiles, a.logger),
		Cron:           api.NewCronHandler(a.sweeper, a.sweepRuns, a.logger),
	}, a.logger, a.cfg.API.Key, a.cfg.Cron.Secret)
}

func (a *app) scheduler() *cronpkg.Scheduler {
	return cronpkg.New(a.sweeper, a.cfg.Cron.Spec, a.cfg.Cron.Retention, map[string]cronpkg.PurgeFunc{
		"notifications": a.notifications.DeleteReadBefore,
		"sweep_runs":    a.sweepRuns.DeleteFinishedBefore,
	}, a.logger)
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
