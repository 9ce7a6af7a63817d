package domain

import (
	"errors"
	"fmt"
)

// ErrIncorrectCode matches any IncorrectCodeError via errors.Is
var ErrIncorrectCode = errors.New("domain: confirmation code incorrect")

// IncorrectCodeError is returned when a submitted code does not match.
// Deleted is true when the last attempt was spent and the appointment no longer exists.
type IncorrectCodeError struct {
	AttemptsLeft int
	Deleted      bool
}

func (e *IncorrectCodeError) Error() string {
	if e.Deleted {
		return "confirmation code incorrect, appointment was deleted"
	}
	return fmt.Sprintf("confirmation code incorrect, %d attempts left", e.AttemptsLeft)
}

func (e *IncorrectCodeError) Is(target error) bool {
	return target == ErrIncorrectCode
}
