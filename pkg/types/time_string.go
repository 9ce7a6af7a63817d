package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeString = errors.New("types: invalid time string, expected HH:MM")

const minutesInDay = 24 * 60

// TimeString время суток в формате "HH:MM" (например, "09:00")
type TimeString string

// NewTimeString создает TimeString из часов и минут переданного времени
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format("15:04"))
}

// NewTimeStringFromString парсит и нормализует строку "HH:MM"
func NewTimeStringFromString(s string) (TimeString, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	return NewTimeString(t), nil
}

// Validate проверяет формат значения
func (ts TimeString) Validate() error {
	_, err := time.Parse("15:04", string(ts))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	return nil
}

func (ts TimeString) String() string {
	return string(ts)
}

// Minutes возвращает количество минут от начала суток
func (ts TimeString) Minutes() int {
	t, err := time.Parse("15:04", string(ts))
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

func (ts TimeString) Hour() int {
	return ts.Minutes() / 60
}

func (ts TimeString) Minute() int {
	return ts.Minutes() % 60
}

// AddMinutes сдвигает время на n минут, не выходя за пределы суток
func (ts TimeString) AddMinutes(n int) (TimeString, error) {
	if err := ts.Validate(); err != nil {
		return "", err
	}
	total := ts.Minutes() + n
	if total < 0 || total >= minutesInDay {
		return "", fmt.Errorf("%w: %s %+d min is out of day", ErrInvalidTimeString, ts, n)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

func (ts TimeString) IsBefore(other TimeString) bool {
	return ts.Minutes() < other.Minutes()
}

func (ts TimeString) IsAfter(other TimeString) bool {
	return ts.Minutes() > other.Minutes()
}

// On возвращает момент времени ts в календарный день date в зоне loc
func (ts TimeString) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, ts.Hour(), ts.Minute(), 0, 0, loc)
}

// UnmarshalText позволяет читать значение из TOML/JSON строк с проверкой формата
func (ts *TimeString) UnmarshalText(text []byte) error {
	parsed, err := NewTimeStringFromString(string(text))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Value реализует driver.Valuer
func (ts TimeString) Value() (driver.Value, error) {
	return string(ts), nil
}

// Scan реализует sql.Scanner
func (ts *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*ts = TimeString(v)
	case []byte:
		*ts = TimeString(v)
	case time.Time:
		*ts = NewTimeString(v)
	case nil:
		*ts = ""
	default:
		return fmt.Errorf("types: cannot scan %T into TimeString", src)
	}
	if len(*ts) > 5 {
		*ts = (*ts)[:5]
	}
	return nil
}
