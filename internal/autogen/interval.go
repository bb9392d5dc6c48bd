package autogen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradeidea/internal/models"
)

// Interval options accepted from the settings surface.
const (
	IntervalHourly  = "hourly"
	Interval4Hours  = "4hours"
	Interval6Hours  = "6hours"
	Interval8Hours  = "8hours"
	Interval12Hours = "12hours"
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
)

var fixedPeriods = map[string]time.Duration{
	IntervalHourly:  time.Hour,
	Interval4Hours:  4 * time.Hour,
	Interval6Hours:  6 * time.Hour,
	Interval8Hours:  8 * time.Hour,
	Interval12Hours: 12 * time.Hour,
}

// Kind tags an IntervalSpec.
type Kind int

const (
	KindUnknown Kind = iota
	KindFixedPeriod
	KindTimeOfDay
)

// Recurrence of a time-of-day spec.
type Recurrence int

const (
	Daily Recurrence = iota + 1
	Weekly
)

func (r Recurrence) nominal() time.Duration {
	if r == Daily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// TimeOfDay is a local wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// IntervalSpec describes when generation fires: either every Period, or at a
// local time of day in Timezone on a daily or weekly recurrence.
type IntervalSpec struct {
	Kind       Kind
	Period     time.Duration
	At         *TimeOfDay
	Timezone   string
	Recurrence Recurrence
	// Weekday pins a weekly recurrence. When nil the weekday of the
	// reference instant in Timezone is used.
	Weekday *time.Weekday
}

// Fixed returns a fixed-period spec.
func Fixed(d time.Duration) IntervalSpec {
	return IntervalSpec{Kind: KindFixedPeriod, Period: d}
}

// DailyAt returns a daily time-of-day spec.
func DailyAt(hour, minute int, tz string) IntervalSpec {
	return IntervalSpec{Kind: KindTimeOfDay, At: &TimeOfDay{Hour: hour, Minute: minute}, Timezone: tz, Recurrence: Daily}
}

// WeeklyAt returns a weekly time-of-day spec. A nil weekday follows the
// reference instant's weekday.
func WeeklyAt(hour, minute int, tz string, weekday *time.Weekday) IntervalSpec {
	return IntervalSpec{Kind: KindTimeOfDay, At: &TimeOfDay{Hour: hour, Minute: minute}, Timezone: tz, Recurrence: Weekly, Weekday: weekday}
}

// ParseIntervalSpec maps a settings option to an IntervalSpec. timeStr is
// only honoured for daily and weekly; an empty timeStr yields a time-of-day
// spec without At, which the calculator treats as the nominal period.
func ParseIntervalSpec(option, timeStr, tz string) (IntervalSpec, error) {
	if d, ok := fixedPeriods[option]; ok {
		return Fixed(d), nil
	}

	var rec Recurrence
	switch option {
	case IntervalDaily:
		rec = Daily
	case IntervalWeekly:
		rec = Weekly
	default:
		return IntervalSpec{}, fmt.Errorf("%w: %q", ErrInvalidInterval, option)
	}

	if tz == "" {
		tz = "UTC"
	}
	if _, err := defaultResolver.Location(tz); err != nil {
		return IntervalSpec{}, err
	}

	spec := IntervalSpec{Kind: KindTimeOfDay, Timezone: tz, Recurrence: rec}
	if strings.TrimSpace(timeStr) != "" {
		at, err := ParseTimeOfDay(timeStr)
		if err != nil {
			return IntervalSpec{}, err
		}
		spec.At = &at
	}
	return spec, nil
}

// SpecFromSchedule rebuilds the IntervalSpec stored on a schedule row.
// Unknown interval types produce a KindUnknown spec that still carries the
// stored time and timezone. A timezone that no longer loads keeps the
// interval kind.
func SpecFromSchedule(s *models.AutoGenerationSchedule) IntervalSpec {
	timeStr := ""
	if s.ScheduledTime.Valid {
		timeStr = s.ScheduledTime.String
	}
	spec, err := ParseIntervalSpec(s.IntervalType, timeStr, s.Timezone)
	if errors.Is(err, ErrInvalidTimezone) {
		// Keep the interval; the calculator evaluates an unloadable zone in UTC.
		if spec, err = ParseIntervalSpec(s.IntervalType, timeStr, "UTC"); err == nil {
			spec.Timezone = s.Timezone
		}
	}
	if err != nil {
		spec = IntervalSpec{Kind: KindUnknown, Timezone: s.Timezone}
		if at, perr := ParseTimeOfDay(timeStr); perr == nil {
			spec.At = &at
		}
	}
	if s.Weekday.Valid && s.Weekday.Int16 >= 0 && s.Weekday.Int16 <= 6 {
		wd := time.Weekday(s.Weekday.Int16)
		spec.Weekday = &wd
	}
	return spec
}
