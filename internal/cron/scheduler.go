package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
)

const retentionSpec = "0 30 3 * * *"

// Sweeper runs one pass over due schedules.
type Sweeper interface {
	SweepFrom(ctx context.Context, source string) (autogen.SweepResult, error)
}

// PurgeFunc deletes rows older than cutoff and reports how many went.
type PurgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// Scheduler drives the auto-generation sweep and daily housekeeping.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   Sweeper
	spec      string
	retention time.Duration
	purges    map[string]PurgeFunc
	logger    *zap.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new cron scheduler. spec accepts six-field expressions and
// descriptors such as "@every 1m".
func New(sweeper Sweeper, spec string, retention time.Duration, purges map[string]PurgeFunc, logger *zap.Logger) *Scheduler {
	logger = logger.Named("cron")
	ctx, cancel := context.WithCancel(context.Background())
	cl := zapCronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper:   sweeper,
		spec:      spec,
		retention: retention,
		purges:    purges,
		logger:    logger,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...", zap.String("spec", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.runSweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.spec, err)
	}
	if s.retention > 0 && len(s.purges) > 0 {
		if _, err := s.cron.AddFunc(retentionSpec, s.runRetention); err != nil {
			return fmt.Errorf("register retention job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
	return nil
}

// Stop cancels in-flight jobs and returns a context done once they exit.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	defer s.recoverFromPanic("auto-generation sweep")
	s.logger.Debug("Running: auto-generation sweep")

	if _, err := s.sweeper.SweepFrom(s.ctx, autogen.SourceCron); err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runRetention() {
	defer s.recoverFromPanic("retention")
	cutoff := s.now().Add(-s.retention)

	for name, purge := range s.purges {
		n, err := purge(s.ctx, cutoff)
		if err != nil {
			s.logger.Error("Retention purge failed", zap.String("table", name), zap.Error(err))
			continue
		}
		if n > 0 {
			s.logger.Info("Purged old rows", zap.String("table", name), zap.Int64("deleted", n))
		}
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	l *zap.SugaredLogger
}

func (z zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	z.l.Debugw(msg, keysAndValues...)
}

func (z zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	z.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
