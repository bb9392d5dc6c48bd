package autogen

import (
	"fmt"
	"math"
	"time"

	"tradeidea/internal/models"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Hour
)

// EventKind is the notification type emitted after an attempt.
type EventKind string

const (
	EventSuccess EventKind = "auto_generation_success"
	EventRetry   EventKind = "auto_generation_retry"
	EventFailure EventKind = "auto_generation_error"
)

// Event is what the orchestrator hands to the Notifier.
type Event struct {
	Kind     EventKind
	Title    string
	Message  string
	Metadata map[string]interface{}
}

// Outcome of a failed attempt.
type Outcome int

const (
	OutcomeRetry Outcome = iota + 1
	OutcomeExhausted
)

// Decision is the result of RetryPolicy.OnFailure.
type Decision struct {
	Update  models.ScheduleUpdate
	Event   Event
	Outcome Outcome
}

// RetryPolicy decides how a schedule advances after an attempt.
type RetryPolicy struct {
	MaxRetries int
	RetryDelay time.Duration
	Trigger    *TriggerCalculator
}

// DefaultRetryPolicy allows two retries one hour apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Trigger:    NewTriggerCalculator(nil),
	}
}

func (p RetryPolicy) trigger() *TriggerCalculator {
	if p.Trigger == nil {
		return NewTriggerCalculator(nil)
	}
	return p.Trigger
}

// OnSuccess resets the retry state and advances from now, not from the
// previous trigger, so late sweeps do not accumulate drift.
func (p RetryPolicy) OnSuccess(s *models.AutoGenerationSchedule, now time.Time) models.ScheduleUpdate {
	completed := now.UTC()
	return models.ScheduleUpdate{
		NextTrigger:   p.trigger().Next(SpecFromSchedule(s), now),
		RetryCount:    0,
		LastError:     nil,
		LastTriggered: &completed,
	}
}

// OnFailure schedules a short retry while retries remain and otherwise
// resumes the normal interval with a reset counter.
func (p RetryPolicy) OnFailure(s *models.AutoGenerationSchedule, errMsg string, now time.Time) Decision {
	if s.RetryCount < p.MaxRetries {
		attempt := s.RetryCount + 1
		msg := errMsg
		return Decision{
			Outcome: OutcomeRetry,
			Update: models.ScheduleUpdate{
				NextTrigger: now.Add(p.RetryDelay).UTC(),
				RetryCount:  attempt,
				LastError:   &msg,
			},
			Event: Event{
				Kind:  EventRetry,
				Title: "Auto-Generation Retry",
				Message: fmt.Sprintf("Auto-generation failed but will retry in %s. (Attempt %d/%d)",
					humanDuration(p.RetryDelay), attempt, p.MaxRetries),
				Metadata: map[string]interface{}{
					"attempt":     attempt,
					"max_retries": p.MaxRetries,
					"error":       errMsg,
				},
			},
		}
	}

	completed := now.UTC()
	return Decision{
		Outcome: OutcomeExhausted,
		Update: models.ScheduleUpdate{
			NextTrigger:   p.trigger().Next(SpecFromSchedule(s), now),
			RetryCount:    0,
			LastError:     nil,
			LastTriggered: &completed,
		},
		Event: Event{
			Kind:    EventFailure,
			Title:   "Auto-Generation Failed",
			Message: fmt.Sprintf("Auto-generation failed after %d retries. Next attempt scheduled for the next interval.", p.MaxRetries),
			Metadata: map[string]interface{}{
				"max_retries": p.MaxRetries,
				"error":       errMsg,
			},
		},
	}
}

// SuccessEvent builds the notification for a generated idea. Missing fields
// fall back to placeholders.
func SuccessEvent(idea *Idea) Event {
	direction, pair, confidence, id := "N/A", "USD/CHF", 0.0, ""
	if idea != nil {
		if idea.Direction != "" {
			direction = idea.Direction
		}
		if idea.CurrencyPair != "" {
			pair = idea.CurrencyPair
		}
		if !math.IsNaN(idea.Confidence) {
			confidence = idea.Confidence
		}
		id = idea.ID
	}
	meta := map[string]interface{}{
		"direction":    direction,
		"confidence":   confidence,
		"currencyPair": pair,
	}
	if id != "" {
		meta["tradeIdeaId"] = id
	}
	return Event{
		Kind:     EventSuccess,
		Title:    "New Trade Idea Generated",
		Message:  fmt.Sprintf("%s %s with %d%% confidence", direction, pair, int(math.Round(confidence))),
		Metadata: meta,
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d > time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Minute:
		return "1 minute"
	case d > time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
