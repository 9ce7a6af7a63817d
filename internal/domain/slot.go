package domain

import (
	"time"
)

// Interval represents a half-open busy interval [Start, End) of a master
type Interval struct {
	Start time.Time
	End   time.Time
}

// GenerateSlots returns every candidate start time for an offering of the given duration
// over cfg.Days calendar days starting from the day of now (in cfg.Location).
//
// For each day the grid starts at the opening time and ends at closing time minus duration
// (inclusive), stepping by cfg.Interval. On the first day the start is clamped to now,
// floored to the grid. The result is sorted ascending and depends only on its arguments.
func GenerateSlots(duration time.Duration, now time.Time, cfg SlotsConfig) []time.Time {
	if cfg.Interval <= 0 || cfg.Days <= 0 {
		return []time.Time{}
	}

	loc := cfg.location()
	localNow := now.In(loc)
	year, month, day := localNow.Date()

	slots := make([]time.Time, 0)

	for d := 0; d < cfg.Days; d++ {
		date := time.Date(year, month, day+d, 0, 0, 0, 0, loc)

		dayStart := cfg.Open.On(date, loc)
		if d == 0 && localNow.After(dayStart) {
			// Сдвигаем начало на текущий момент, округлённый вниз до сетки
			elapsed := localNow.Sub(dayStart).Truncate(cfg.Interval)
			dayStart = dayStart.Add(elapsed)
		}

		dayEnd := cfg.Close.On(date, loc).Add(-duration)

		for slot := dayStart; !slot.After(dayEnd); slot = slot.Add(cfg.Interval) {
			slots = append(slots, slot)
		}
	}

	return slots
}

// IsBusy reports whether an appointment of the given duration starting at candidate
// would overlap any busy interval: bs - duration < candidate < be.
// Touching intervals are not a collision.
func IsBusy(candidate time.Time, duration time.Duration, busy []Interval) bool {
	for _, b := range busy {
		if b.Start.Add(-duration).Before(candidate) && candidate.Before(b.End) {
			return true
		}
	}
	return false
}

// FilterFreeSlots keeps the candidates that do not collide with busy intervals, preserving order
func FilterFreeSlots(candidates []time.Time, duration time.Duration, busy []Interval) []time.Time {
	free := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if !IsBusy(c, duration, busy) {
			free = append(free, c)
		}
	}
	return free
}

// ContainsSlot reports whether t is exactly one of the generated slots
func ContainsSlot(slots []time.Time, t time.Time) bool {
	for _, s := range slots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}
