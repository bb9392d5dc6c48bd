package autogen

import (
	"context"
	"time"

	"tradeidea/internal/models"
)

// Idea is the subset of a generated trade idea the scheduler reports on.
type Idea struct {
	ID           string  `json:"id"`
	Direction    string  `json:"direction"`
	CurrencyPair string  `json:"currency_pair"`
	Confidence   float64 `json:"confidence"`
}

// Generator produces a trade idea for a user. Business refusals (quota
// reached and the like) are returned as errors.
type Generator interface {
	Generate(ctx context.Context, userID string) (*Idea, error)
}

// Notifier delivers an event to a user. Failures are logged by the caller
// and never fail an attempt.
type Notifier interface {
	Notify(ctx context.Context, userID string, event Event) error
}

// Store persists schedules.
type Store interface {
	// LoadActive returns the user's active schedule or ErrScheduleNotFound.
	LoadActive(ctx context.Context, userID string) (*models.AutoGenerationSchedule, error)
	// LoadLatest returns the most recently created schedule, active or not,
	// or ErrScheduleNotFound.
	LoadLatest(ctx context.Context, userID string) (*models.AutoGenerationSchedule, error)
	// Save applies update when the row still has version and bumps the
	// version. It returns ErrVersionConflict otherwise.
	Save(ctx context.Context, id uint, version int64, update models.ScheduleUpdate) error
	// QueryDue returns active, unpaused schedules with next_trigger <= now.
	QueryDue(ctx context.Context, now time.Time) ([]models.AutoGenerationSchedule, error)
	// Replace deactivates the user's schedules and inserts s as the active one.
	Replace(ctx context.Context, s *models.AutoGenerationSchedule) error
	// DeactivateAll retires every active schedule of the user.
	DeactivateAll(ctx context.Context, userID string) error
	// SetPaused flips the pause flag of the active schedule.
	SetPaused(ctx context.Context, userID string, paused bool) error
}

// Lease is a held per-user lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out per-user leases. ok is false when another holder has it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, ok bool, err error)
}
