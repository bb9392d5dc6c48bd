package autogen

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEnabled is returned when the user has no active schedule.
	ErrNotEnabled = errors.New("auto-generation is not enabled")

	// ErrPaused is returned when the active schedule is paused.
	ErrPaused = errors.New("auto-generation is paused")

	// ErrBusy is returned when another run holds the user's lease.
	ErrBusy = errors.New("auto-generation already running for user")

	// ErrNotDue is returned to the sweep when a schedule was advanced by
	// another run after it was queried.
	ErrNotDue = errors.New("schedule is no longer due")

	// ErrScheduleNotFound is returned by a Store when no active schedule exists.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrVersionConflict is returned by a Store when the row changed since it was loaded.
	ErrVersionConflict = errors.New("schedule was modified concurrently")

	// ErrInvalidInterval is returned for an unknown interval option.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrInvalidTime is returned for a malformed HH:MM value.
	ErrInvalidTime = errors.New("invalid time of day")

	// ErrInvalidTimezone is returned for an unknown IANA timezone.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// PersistenceError wraps a failed schedule write. It is the only failure that
// RunForUser returns after the generator has been called.
type PersistenceError struct {
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist schedule for user %s: %v", e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
