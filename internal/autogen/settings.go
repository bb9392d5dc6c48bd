package autogen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradeidea/internal/models"
)

// Settings is the user-editable auto-generation configuration.
type Settings struct {
	Enabled  bool          `json:"enabled"`
	Interval string        `json:"interval"`
	Time     string        `json:"time,omitempty"`
	Timezone string        `json:"timezone"`
	Paused   bool          `json:"paused"`
	Weekday  *time.Weekday `json:"weekday,omitempty"`
}

// StatusView is the read model shown to the user. It is derived from the
// latest schedule row and never stored separately.
type StatusView struct {
	Enabled        bool       `json:"enabled"`
	Interval       string     `json:"interval"`
	Time           string     `json:"time,omitempty"`
	Timezone       string     `json:"timezone"`
	Weekday        *int       `json:"weekday,omitempty"`
	Paused         bool       `json:"paused"`
	NextGeneration *time.Time `json:"next_generation,omitempty"`
	LastGeneration *time.Time `json:"last_generation,omitempty"`
	RetryCount     int        `json:"retry_count"`
	LastError      string     `json:"last_error,omitempty"`
}

// Status returns the user's current auto-generation state. Users who never
// configured it get a disabled weekly/UTC view.
func (o *Orchestrator) Status(ctx context.Context, userID string) (*StatusView, error) {
	sched, err := o.store.LoadLatest(ctx, userID)
	if errors.Is(err, ErrScheduleNotFound) {
		return &StatusView{Interval: IntervalWeekly, Timezone: "UTC"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return statusFromSchedule(sched), nil
}

func statusFromSchedule(s *models.AutoGenerationSchedule) *StatusView {
	v := &StatusView{
		Enabled:    s.IsActive,
		Interval:   s.IntervalType,
		Timezone:   s.Timezone,
		Paused:     s.IsPaused,
		RetryCount: s.RetryCount,
	}
	if s.ScheduledTime.Valid {
		v.Time = s.ScheduledTime.String
	}
	if s.Weekday.Valid {
		wd := int(s.Weekday.Int16)
		v.Weekday = &wd
	}
	if s.IsActive {
		next := s.NextTrigger
		v.NextGeneration = &next
	}
	if s.LastTriggered.Valid {
		last := s.LastTriggered.Time
		v.LastGeneration = &last
	}
	if s.LastError.Valid {
		v.LastError = s.LastError.String
	}
	return v
}

// UpdateSettings validates and applies new settings. Enabling replaces any
// previous schedule with a fresh one whose first trigger is computed from
// now; disabling retires the active schedule.
func (o *Orchestrator) UpdateSettings(ctx context.Context, userID string, in Settings) (*StatusView, error) {
	if !in.Enabled {
		if err := o.store.DeactivateAll(ctx, userID); err != nil {
			return nil, fmt.Errorf("disable schedules: %w", err)
		}
		o.logger.Info("auto-generation disabled", zap.String("user_id", userID))
		return o.Status(ctx, userID)
	}

	if in.Timezone == "" {
		in.Timezone = "UTC"
	}
	spec, err := ParseIntervalSpec(in.Interval, in.Time, in.Timezone)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now()
	sched := &models.AutoGenerationSchedule{
		UserID:       userID,
		IntervalType: in.Interval,
		Timezone:     in.Timezone,
		IsActive:     true,
		IsPaused:     in.Paused,
		Version:      1,
	}
	if spec.At != nil {
		sched.ScheduledTime = sql.NullString{String: spec.At.String(), Valid: true}
	}

	if in.Weekday != nil {
		if *in.Weekday < time.Sunday || *in.Weekday > time.Saturday {
			return nil, fmt.Errorf("%w: weekday %d", ErrInvalidInterval, *in.Weekday)
		}
		if spec.Recurrence != Weekly || spec.At == nil {
			return nil, fmt.Errorf("%w: weekday requires a weekly interval with a time", ErrInvalidInterval)
		}
		spec.Weekday = in.Weekday
	}

	if spec.Recurrence == Weekly && spec.At != nil {
		sched.NextTrigger = o.trigger.Next(spec, now)
		// Pin the weekday of the first trigger so later recomputations keep it.
		local, err := o.resolver.Local(sched.NextTrigger, in.Timezone)
		if err != nil {
			return nil, err
		}
		sched.Weekday = sql.NullInt16{Int16: int16(local.Weekday), Valid: true}
	} else {
		sched.NextTrigger = o.trigger.Next(spec, now)
	}

	if err := o.store.Replace(ctx, sched); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	o.logger.Info("auto-generation enabled",
		zap.String("user_id", userID),
		zap.String("interval", in.Interval),
		zap.String("timezone", in.Timezone),
		zap.Time("next_trigger", sched.NextTrigger),
	)
	return statusFromSchedule(sched), nil
}

// SetPaused freezes or resumes the active schedule. next_trigger is kept, so
// an overdue schedule fires on the first sweep after resuming.
func (o *Orchestrator) SetPaused(ctx context.Context, userID string, paused bool) (*StatusView, error) {
	if err := o.store.SetPaused(ctx, userID, paused); err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil, ErrNotEnabled
		}
		return nil, fmt.Errorf("set paused: %w", err)
	}
	o.logger.Info("auto-generation pause toggled", zap.String("user_id", userID), zap.Bool("paused", paused))
	return o.Status(ctx, userID)
}
