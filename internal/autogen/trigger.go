package autogen

import "time"

// TriggerCalculator computes the next instant at which generation fires.
// It never fails: an unloadable timezone is treated as UTC and an
// unrecognised kind as a weekly recurrence.
type TriggerCalculator struct {
	resolver *Resolver
}

// NewTriggerCalculator creates a calculator. A nil resolver uses a shared one.
func NewTriggerCalculator(resolver *Resolver) *TriggerCalculator {
	if resolver == nil {
		resolver = defaultResolver
	}
	return &TriggerCalculator{resolver: resolver}
}

// NextTrigger computes the next trigger with the shared resolver.
func NextTrigger(spec IntervalSpec, now time.Time) time.Time {
	return NewTriggerCalculator(nil).Next(spec, now)
}

// Next returns the next trigger instant (UTC) for spec relative to now.
func (c *TriggerCalculator) Next(spec IntervalSpec, now time.Time) time.Time {
	switch spec.Kind {
	case KindFixedPeriod:
		return now.Add(spec.Period).UTC()
	case KindTimeOfDay:
		return c.timeOfDay(spec, now)
	default:
		spec.Recurrence = Weekly
		return c.timeOfDay(spec, now)
	}
}

func (c *TriggerCalculator) timeOfDay(spec IntervalSpec, now time.Time) time.Time {
	rec := spec.Recurrence
	if rec != Daily {
		rec = Weekly
	}
	if spec.At == nil {
		return now.Add(rec.nominal()).UTC()
	}

	tz := spec.Timezone
	local, err := c.resolver.Local(now, tz)
	if err != nil {
		tz = "UTC"
		local, _ = c.resolver.Local(now, tz)
	}

	step := 1
	if rec == Weekly {
		step = 7
	}

	day := local.Day
	// "Passed" is decided on the local wall clock so DST shifts in tz do not
	// move the configured hour.
	passed := spec.At.Hour*60+spec.At.Minute <= local.MinuteOfDay()

	if rec == Weekly && spec.Weekday != nil {
		offset := (int(*spec.Weekday) - int(local.Weekday) + 7) % 7
		day += offset
		if offset == 0 && passed {
			day += step
		}
	} else if passed {
		day += step
	}

	candidate := c.instant(local, day, *spec.At, tz)
	// Repeated wall times on a fall-back day can resolve to the earlier
	// occurrence, which may already be behind now.
	for !candidate.After(now) {
		day += step
		candidate = c.instant(local, day, *spec.At, tz)
	}
	return candidate
}

func (c *TriggerCalculator) instant(local LocalTime, day int, at TimeOfDay, tz string) time.Time {
	t, err := c.resolver.Instant(local.Year, local.Month, day, at.Hour, at.Minute, tz)
	if err != nil {
		return time.Date(local.Year, local.Month, day, at.Hour, at.Minute, 0, 0, time.UTC)
	}
	return t
}
