package confirm_appointment

import "context"

type AppointmentService interface {
	Confirm(ctx context.Context, id int64, code string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
