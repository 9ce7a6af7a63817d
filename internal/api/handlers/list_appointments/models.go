package list_appointments

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// ErrInvalidConfirmed возвращается, если confirmed не является bool
var ErrInvalidConfirmed = errors.New("invalid confirmed, expected true or false")

// ParseQuery читает фильтры date и confirmed из query string
func ParseQuery(query url.Values) (*models.ListRequest, error) {
	req := &models.ListRequest{}

	if date := query.Get("date"); date != "" {
		req.Date = &date
	}

	if raw := query.Get("confirmed"); raw != "" {
		confirmed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, ErrInvalidConfirmed
		}
		req.Confirmed = &confirmed
	}

	return req, nil
}
