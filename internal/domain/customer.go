package domain

// CustomerStatus represents whether a customer may book
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "active"
	CustomerStatusBlocked CustomerStatus = "blocked"
)

// Customer is identified by phone number
type Customer struct {
	ID     int64
	Phone  string
	Name   string
	Status CustomerStatus
}

// IsBlocked returns true if the customer is not allowed to book or confirm
func (c *Customer) IsBlocked() bool {
	return c.Status == CustomerStatusBlocked
}
