package create_appointment

import (
	"fmt"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var phoneReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// normalizePhone убирает пробелы, дефисы и скобки
func normalizePhone(phone string) string {
	return phoneReplacer.Replace(strings.TrimSpace(phone))
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if len([]rune(req.Name)) > 100 {
		return fmt.Errorf("%w: name is too long", ErrInvalidInput)
	}

	if !phonePattern.MatchString(normalizePhone(req.Phone)) {
		return fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
	}

	if req.OfferingID <= 0 {
		return fmt.Errorf("%w: offeringID must be positive", ErrInvalidInput)
	}

	if req.Start.IsZero() {
		return fmt.Errorf("%w: datetime is required", ErrInvalidInput)
	}

	return nil
}
