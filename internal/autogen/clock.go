package autogen

import (
	"fmt"
	"sync"
	"time"
)

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// LocalTime is an instant as observed on a wall clock in some timezone.
type LocalTime struct {
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Minute  int
	Weekday time.Weekday
	Loc     *time.Location
}

// MinuteOfDay returns hour*60+minute.
func (l LocalTime) MinuteOfDay() int {
	return l.Hour*60 + l.Minute
}

// Resolver converts between absolute instants and timezone-local wall-clock
// values using the system tz database. Loaded locations are cached by name.
type Resolver struct {
	locations sync.Map // name -> *time.Location
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

var defaultResolver = NewResolver()

// Location loads an IANA timezone. An empty name resolves to UTC.
func (r *Resolver) Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	if loc, ok := r.locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	r.locations.Store(name, loc)
	return loc, nil
}

// Local returns the wall-clock components of t in timezone tz.
func (r *Resolver) Local(t time.Time, tz string) (LocalTime, error) {
	loc, err := r.Location(tz)
	if err != nil {
		return LocalTime{}, err
	}
	lt := t.In(loc)
	return LocalTime{
		Year:    lt.Year(),
		Month:   lt.Month(),
		Day:     lt.Day(),
		Hour:    lt.Hour(),
		Minute:  lt.Minute(),
		Weekday: lt.Weekday(),
		Loc:     loc,
	}, nil
}

// Instant converts a local date and time of day in tz to an absolute instant.
// Out-of-range days roll over (day 32 becomes the next month). A wall time that
// falls in a DST gap is normalized forward by the tz database.
func (r *Resolver) Instant(year int, month time.Month, day, hour, minute int, tz string) (time.Time, error) {
	loc, err := r.Location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc).UTC(), nil
}
