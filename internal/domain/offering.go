package domain

import "time"

// Master performs offerings
type Master struct {
	ID   int64
	Name string
}

// Service is a catalog entry offered by masters
type Service struct {
	ID   int64
	Name string
}

// Offering binds a master to a service with a price and a duration
type Offering struct {
	ID              int64
	MasterID        int64
	ServiceID       int64
	Price           float64
	DurationMinutes int
	Master          Master
	Service         Service
}

// Duration returns the length of one appointment for this offering
func (o *Offering) Duration() time.Duration {
	return time.Duration(o.DurationMinutes) * time.Minute
}
