package autogen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradeidea/internal/models"
)

const DefaultLeaseTTL = 10 * time.Minute

// RunResult is the outcome of one attempt. Generation failures are reported
// here rather than as an error.
type RunResult struct {
	UserID      string    `json:"user_id"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Retrying    bool      `json:"retrying"`
	RetryCount  int       `json:"retry_count"`
	NextTrigger time.Time `json:"next_trigger"`
	Idea        *Idea     `json:"idea,omitempty"`
}

// Options tunes an Orchestrator. Zero values take the defaults.
type Options struct {
	Policy   RetryPolicy
	LeaseTTL time.Duration
	Clock    Clock
	Resolver *Resolver
}

// Orchestrator drives a single user's schedule through one generation attempt.
type Orchestrator struct {
	store     Store
	generator Generator
	notifier  Notifier
	locker    Locker
	policy    RetryPolicy
	trigger   *TriggerCalculator
	resolver  *Resolver
	leaseTTL  time.Duration
	clock     Clock
	logger    *zap.Logger
}

// NewOrchestrator wires the collaborators. notifier and locker may be nil.
func NewOrchestrator(store Store, generator Generator, notifier Notifier, locker Locker, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = defaultResolver
	}
	trigger := NewTriggerCalculator(resolver)

	// A zero Policy means defaults; an explicit MaxRetries of 0 disables retries.
	policy := opts.Policy
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy()
		policy.Trigger = nil
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = DefaultMaxRetries
	}
	if policy.RetryDelay <= 0 {
		policy.RetryDelay = DefaultRetryDelay
	}
	if policy.Trigger == nil {
		policy.Trigger = trigger
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	ttl := opts.LeaseTTL
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}

	return &Orchestrator{
		store:     store,
		generator: generator,
		notifier:  notifier,
		locker:    locker,
		policy:    policy,
		trigger:   trigger,
		resolver:  resolver,
		leaseTTL:  ttl,
		clock:     clock,
		logger:    logger.Named("autogen"),
	}
}

// RunForUser runs one generation attempt for userID. It returns ErrNotEnabled,
// ErrPaused or ErrBusy without side effects, a *PersistenceError when the
// schedule could not be written back, and otherwise a RunResult whose Success
// reports how the generator fared.
func (o *Orchestrator) RunForUser(ctx context.Context, userID string) (*RunResult, error) {
	return o.run(ctx, userID, false)
}

func (o *Orchestrator) run(ctx context.Context, userID string, requireDue bool) (*RunResult, error) {
	log := o.logger.With(zap.String("user_id", userID))

	sched, err := o.loadRunnable(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := o.acquire(ctx, userID, log)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload under the lease: a run that finished between the first load and
	// the acquire has already moved the version and next trigger.
	sched, err = o.loadRunnable(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requireDue && !sched.Due(o.clock.Now()) {
		return nil, ErrNotDue
	}

	idea, genErr := o.generate(ctx, userID)
	now := o.clock.Now()

	// The attempt is spent once the generator returns; its outcome must be
	// written back even if the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	if genErr == nil {
		update := o.policy.OnSuccess(sched, now)
		if err := o.store.Save(ctx, sched.ID, sched.Version, update); err != nil {
			return nil, &PersistenceError{UserID: userID, Err: err}
		}
		log.Info("trade idea generated", zap.Time("next_trigger", update.NextTrigger))
		o.notify(ctx, userID, SuccessEvent(idea), log)
		return &RunResult{
			UserID:      userID,
			Success:     true,
			NextTrigger: update.NextTrigger,
			Idea:        idea,
		}, nil
	}

	decision := o.policy.OnFailure(sched, genErr.Error(), now)
	if err := o.store.Save(ctx, sched.ID, sched.Version, decision.Update); err != nil {
		return nil, &PersistenceError{UserID: userID, Err: err}
	}
	log.Warn("trade idea generation failed",
		zap.Error(genErr),
		zap.Int("retry_count", decision.Update.RetryCount),
		zap.Bool("retrying", decision.Outcome == OutcomeRetry),
		zap.Time("next_trigger", decision.Update.NextTrigger),
	)
	o.notify(ctx, userID, decision.Event, log)

	return &RunResult{
		UserID:      userID,
		Success:     false,
		Error:       genErr.Error(),
		Retrying:    decision.Outcome == OutcomeRetry,
		RetryCount:  decision.Update.RetryCount,
		NextTrigger: decision.Update.NextTrigger,
	}, nil
}

func (o *Orchestrator) loadRunnable(ctx context.Context, userID string) (*models.AutoGenerationSchedule, error) {
	sched, err := o.store.LoadActive(ctx, userID)
	if errors.Is(err, ErrScheduleNotFound) {
		return nil, ErrNotEnabled
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if !sched.IsActive {
		return nil, ErrNotEnabled
	}
	if sched.IsPaused {
		return nil, ErrPaused
	}
	return sched, nil
}

// acquire takes the per-user lease. A broken lock backend is logged and the
// run proceeds; the versioned Save still rejects a concurrent writer.
func (o *Orchestrator) acquire(ctx context.Context, userID string, log *zap.Logger) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	lease, ok, err := o.locker.Acquire(ctx, "autogen:user:"+userID, o.leaseTTL)
	if err != nil {
		log.Warn("lease unavailable, running unlocked", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		// ctx may already be cancelled; the lease must still go.
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release lease", zap.Error(err))
		}
	}, nil
}

func (o *Orchestrator) generate(ctx context.Context, userID string) (idea *Idea, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("generator panicked", zap.String("user_id", userID), zap.Any("error", r))
			idea, err = nil, fmt.Errorf("generator panic: %v", r)
		}
	}()
	if o.generator == nil {
		return nil, errors.New("no generator configured")
	}
	return o.generator.Generate(ctx, userID)
}

func (o *Orchestrator) notify(ctx context.Context, userID string, event Event, log *zap.Logger) {
	if o.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("notifier panicked", zap.String("event", string(event.Kind)), zap.Any("error", r))
		}
	}()
	if err := o.notifier.Notify(ctx, userID, event); err != nil {
		log.Warn("failed to send notification", zap.String("event", string(event.Kind)), zap.Error(err))
	}
}
