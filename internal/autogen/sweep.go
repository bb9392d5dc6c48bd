package autogen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SweepResult aggregates one sweep. Skipped counts users that were leased by
// another run or advanced since the query.
type SweepResult struct {
	Processed int           `json:"processed"`
	Errors    int           `json:"errors"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Per-user outcomes written to a SweepRecorder.
const (
	ItemProcessed = "processed"
	ItemFailed    = "failed"
	ItemSkipped   = "skipped"
	ItemError     = "error"
)

// Sweep sources.
const (
	SourceCron = "cron"
	SourceHTTP = "http"
	SourceCLI  = "cli"
)

// SweepRecorder keeps a history of sweeps. Recording failures are logged and
// never affect the sweep itself.
type SweepRecorder interface {
	Begin(ctx context.Context, source string, due int, startedAt time.Time) (runID uint, err error)
	RecordItem(ctx context.Context, runID uint, userID, outcome, errMsg string) error
	Finish(ctx context.Context, runID uint, res SweepResult, errMsg string) error
}

// Sweeper runs every due schedule through the orchestrator.
type Sweeper struct {
	store        Store
	orchestrator *Orchestrator
	recorder     SweepRecorder
	clock        Clock
	logger       *zap.Logger
}

func NewSweeper(store Store, orchestrator *Orchestrator, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:        store,
		orchestrator: orchestrator,
		clock:        orchestrator.clock,
		logger:       logger.Named("sweep"),
	}
}

// WithRecorder attaches a sweep history recorder.
func (s *Sweeper) WithRecorder(r SweepRecorder) *Sweeper {
	s.recorder = r
	return s
}

// Sweep processes the due schedules sequentially in query order. Only a
// failing due query is returned as an error; per-user failures are counted.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	return s.SweepFrom(ctx, SourceHTTP)
}

// SweepFrom is Sweep with the caller recorded as source.
func (s *Sweeper) SweepFrom(ctx context.Context, source string) (SweepResult, error) {
	started := s.clock.Now()
	var res SweepResult

	due, err := s.store.QueryDue(ctx, started)
	if err != nil {
		runID, ok := s.begin(ctx, source, 0, started)
		s.finish(ctx, runID, ok, res, err)
		return res, fmt.Errorf("query due schedules: %w", err)
	}

	runID, recording := s.begin(ctx, source, len(due), started)
	for i, sched := range due {
		if ctx.Err() != nil {
			s.logger.Warn("sweep interrupted", zap.Error(ctx.Err()), zap.Int("remaining", len(due)-i))
			break
		}

		var outcome, errMsg string
		result, err := s.runOne(ctx, sched.UserID)
		switch {
		case errors.Is(err, ErrBusy), errors.Is(err, ErrNotDue), errors.Is(err, ErrPaused), errors.Is(err, ErrNotEnabled):
			res.Skipped++
			outcome, errMsg = ItemSkipped, err.Error()
			s.logger.Debug("schedule skipped", zap.String("user_id", sched.UserID), zap.Error(err))
		case err != nil:
			res.Errors++
			outcome, errMsg = ItemError, err.Error()
			s.logger.Error("auto-generation run failed", zap.String("user_id", sched.UserID), zap.Error(err))
		case !result.Success:
			res.Errors++
			outcome, errMsg = ItemFailed, result.Error
		default:
			res.Processed++
			outcome = ItemProcessed
		}

		if recording {
			if err := s.recorder.RecordItem(context.WithoutCancel(ctx), runID, sched.UserID, outcome, errMsg); err != nil {
				s.logger.Warn("failed to record sweep item", zap.Uint("run_id", runID), zap.String("user_id", sched.UserID), zap.Error(err))
			}
		}
	}

	res.Duration = s.clock.Now().Sub(started)
	s.finish(ctx, runID, recording, res, nil)
	s.logger.Info("sweep finished",
		zap.String("source", source),
		zap.Int("due", len(due)),
		zap.Int("processed", res.Processed),
		zap.Int("errors", res.Errors),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *Sweeper) runOne(ctx context.Context, userID string) (result *RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.orchestrator.run(ctx, userID, true)
}

func (s *Sweeper) begin(ctx context.Context, source string, due int, started time.Time) (uint, bool) {
	if s.recorder == nil {
		return 0, false
	}
	runID, err := s.recorder.Begin(context.WithoutCancel(ctx), source, due, started)
	if err != nil {
		s.logger.Warn("failed to record sweep", zap.Error(err))
		return 0, false
	}
	return runID, true
}

func (s *Sweeper) finish(ctx context.Context, runID uint, recording bool, res SweepResult, sweepErr error) {
	if !recording {
		return
	}
	errMsg := ""
	if sweepErr != nil {
		errMsg = sweepErr.Error()
	}
	if err := s.recorder.Finish(context.WithoutCancel(ctx), runID, res, errMsg); err != nil {
		s.logger.Warn("failed to finish sweep record", zap.Uint("run_id", runID), zap.Error(err))
	}
}
