package domain

import "time"

// Appointment is a reservation of an offering awaiting or holding confirmation
type Appointment struct {
	ID           int64
	Name         string
	CustomerID   int64
	OfferingID   int64
	OccupationID int64
	Confirmed    bool
	SecretCode   string
	Attempts     int // remaining wrong-code attempts, never increases
	CreatedAt    time.Time
}

// IsPending returns true while the appointment waits for the code
func (a *Appointment) IsPending() bool {
	return !a.Confirmed
}

// AppointmentDetails appointment with the data shown to clients and admins
type AppointmentDetails struct {
	Appointment
	Customer Customer
	Offering Offering
	Slot     Occupation
}

// Occupation is a reserved [Start, End) window of a master
type Occupation struct {
	ID       int64
	MasterID int64
	Start    time.Time
	End      time.Time
}

// Interval returns the busy interval held by the occupation
func (o *Occupation) Interval() Interval {
	return Interval{Start: o.Start, End: o.End}
}

// BusyIntervals converts occupations to busy intervals
func BusyIntervals(occupations []*Occupation) []Interval {
	intervals := make([]Interval, 0, len(occupations))
	for _, o := range occupations {
		intervals = append(intervals, o.Interval())
	}
	return intervals
}

// AppointmentsFilter фильтр списка записей для администратора
type AppointmentsFilter struct {
	Date      *time.Time // календарный день начала слота (опционально)
	Confirmed *bool      // статус подтверждения (опционально)
}
