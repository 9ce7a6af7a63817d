package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// SlotsConfig describes the slot grid shared by every master
type SlotsConfig struct {
	Days     int              // how many calendar days ahead, including today
	Open     types.TimeString // first possible start, e.g. "09:00"
	Close    types.TimeString // every appointment must end by this time
	Interval time.Duration    // grid step
	Location *time.Location   // server-local clock; nil means time.Local
}

// DefaultSlotsConfig returns the grid used when nothing is configured
func DefaultSlotsConfig() SlotsConfig {
	return SlotsConfig{
		Days:     DefaultSlotsDays,
		Open:     DefaultOpenTime,
		Close:    DefaultCloseTime,
		Interval: DefaultSlotIntervalMinutes * time.Minute,
		Location: time.Local,
	}
}

func (c SlotsConfig) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// DayStart returns midnight of the calendar day of t in the grid location
func (c SlotsConfig) DayStart(t time.Time) time.Time {
	loc := c.location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
