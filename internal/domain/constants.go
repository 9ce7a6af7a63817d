package domain

// Slot grid defaults
const (
	DefaultSlotsDays           = 14
	DefaultOpenTime            = "09:00"
	DefaultCloseTime           = "21:00"
	DefaultSlotIntervalMinutes = 30
)

// Confirmation defaults
const (
	DefaultConfirmationAttempts = 5
	DefaultCodeLength           = 5
)

// Time format constants
const (
	DateFormat          = "2006-01-02"          // YYYY-MM-DD
	LocalDateTimeFormat = "2006-01-02T15:04:05" // datetime without zone, read in server location
)
