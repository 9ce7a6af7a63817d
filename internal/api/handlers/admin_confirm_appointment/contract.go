package admin_confirm_appointment

import "context"

type AppointmentService interface {
	AdminConfirm(ctx context.Context, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
