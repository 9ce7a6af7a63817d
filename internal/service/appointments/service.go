package appointments

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// Результаты подтверждения для метрик
const (
	resultConfirmed        = "confirmed"
	resultAlreadyConfirmed = "already_confirmed"
	resultAdminConfirmed   = "admin_confirmed"
	resultIncorrect        = "incorrect"
	resultExhausted        = "exhausted"
	resultBlocked          = "blocked"
	resultNotFound         = "not_found"
	resultInvalidInput     = "invalid_input"
	resultError            = "error"
)

const (
	notificationChannel = "confirmation_code"

	reasonAdmin             = "admin"
	reasonAttemptsExhausted = "attempts_exhausted"
)

// Service сервис подтверждения и администрирования записей
type Service struct {
	appointmentRepo AppointmentRepository
	customerRepo    CustomerRepository
	txManager       TransactionManager
	notifier        Notifier
	publisher       EventPublisher
	metrics         Metrics
	location        *time.Location
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	customerRepo CustomerRepository,
	txManager TransactionManager,
	notifier Notifier,
	publisher EventPublisher,
	metrics Metrics,
	location *time.Location,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		customerRepo:    customerRepo,
		txManager:       txManager,
		notifier:        notifier,
		publisher:       publisher,
		metrics:         metrics,
		location:        location,
		logger:          logger,
	}
}

// Refresh возвращает текущий код подтверждения и повторно отправляет его клиенту.
// Код не меняется, счётчик попыток не трогается.
func (s *Service) Refresh(ctx context.Context, id int64) (*models.ConfirmationCodeResponse, error) {
	s.logger.Info("Refresh: appointment id=%d", id)

	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("Refresh: appointment id=%d not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("Refresh: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Refresh - repository error: %v", ErrInternal, err)
	}

	resp := &models.ConfirmationCodeResponse{ConfirmationCode: appointment.SecretCode}

	customer, err := s.customerRepo.GetByID(ctx, appointment.CustomerID)
	if err != nil {
		s.logger.Error("Refresh: failed to get customer id=%d: %v", appointment.CustomerID, err)
		return resp, nil
	}

	resp.CodeSent = s.dispatchCode(ctx, customer.Phone, appointment.SecretCode, id)
	return resp, nil
}

// Confirm проверяет код и подтверждает запись.
// Неверный код уменьшает счётчик попыток; на последней попытке запись удаляется вместе с интервалом.
func (s *Service) Confirm(ctx context.Context, id int64, code string) error {
	s.logger.Info("Confirm: appointment id=%d", id)

	var (
		outcome error
		result  string
		details *domain.AppointmentDetails
	)

	// Уменьшение счётчика должно закоммититься, поэтому ошибку неверного кода
	// возвращаем после транзакции, а не из неё
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		appointment, err := s.appointmentRepo.GetForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("%w: Confirm - get appointment: %v", ErrInternal, err)
		}

		if code == "" {
			return fmt.Errorf("%w: confirmation_code is required", ErrInvalidInput)
		}

		if appointment.Confirmed {
			result = resultAlreadyConfirmed
			return nil
		}

		customer, err := s.customerRepo.GetByID(txCtx, appointment.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: Confirm - get customer: %v", ErrInternal, err)
		}
		if customer.IsBlocked() {
			return ErrCustomerBlocked
		}

		if subtle.ConstantTimeCompare([]byte(appointment.SecretCode), []byte(code)) == 1 {
			if err := s.appointmentRepo.SetConfirmed(txCtx, id); err != nil {
				return fmt.Errorf("%w: Confirm - set confirmed: %v", ErrInternal, err)
			}
			if details, err = s.appointmentRepo.GetDetailedByID(txCtx, id); err != nil {
				return fmt.Errorf("%w: Confirm - get details: %v", ErrInternal, err)
			}
			result = resultConfirmed
			return nil
		}

		attempts := appointment.Attempts - 1
		if attempts <= 0 {
			// Детали читаем до удаления: после него слот и мастер уже недоступны
			if details, err = s.appointmentRepo.GetDetailedByID(txCtx, id); err != nil {
				return fmt.Errorf("%w: Confirm - get details: %v", ErrInternal, err)
			}
			if err := s.appointmentRepo.Delete(txCtx, id); err != nil {
				return fmt.Errorf("%w: Confirm - delete appointment: %v", ErrInternal, err)
			}
			result = resultExhausted
			outcome = &domain.IncorrectCodeError{AttemptsLeft: 0, Deleted: true}
			return nil
		}

		if err := s.appointmentRepo.UpdateAttempts(txCtx, id, attempts); err != nil {
			return fmt.Errorf("%w: Confirm - update attempts: %v", ErrInternal, err)
		}
		result = resultIncorrect
		outcome = &domain.IncorrectCodeError{AttemptsLeft: attempts}
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			s.logger.Warn("Confirm: appointment id=%d not found", id)
			s.countConfirmation(resultNotFound)
		case errors.Is(err, ErrInvalidInput):
			s.logger.Warn("Confirm: empty code for appointment id=%d", id)
			s.countConfirmation(resultInvalidInput)
		case errors.Is(err, ErrCustomerBlocked):
			s.logger.Warn("Confirm: customer of appointment id=%d is blocked", id)
			s.countConfirmation(resultBlocked)
		default:
			s.logger.Error("Confirm: failed for appointment id=%d: %v", id, err)
			s.countConfirmation(resultError)
			if !errors.Is(err, ErrInternal) {
				err = fmt.Errorf("%w: Confirm - transaction: %v", ErrInternal, err)
			}
		}
		return err
	}

	s.countConfirmation(result)

	switch result {
	case resultConfirmed:
		s.logger.Info("Confirm: appointment id=%d confirmed", id)
		s.publish(ctx, domain.EventAppointmentConfirmed, details, "")
	case resultAlreadyConfirmed:
		s.logger.Info("Confirm: appointment id=%d already confirmed", id)
	case resultExhausted:
		s.logger.Warn("Confirm: attempts exhausted, appointment id=%d deleted", id)
		s.publish(ctx, domain.EventAppointmentDeleted, details, reasonAttemptsExhausted)
	case resultIncorrect:
		s.logger.Warn("Confirm: incorrect code for appointment id=%d: %v", id, outcome)
	}

	return outcome
}

// AdminConfirm подтверждает запись без проверки кода.
// Повторное подтверждение не меняет запись и не публикует событие.
func (s *Service) AdminConfirm(ctx context.Context, id int64) error {
	s.logger.Info("AdminConfirm: appointment id=%d", id)

	details, err := s.appointmentRepo.GetDetailedByID(ctx, id)
	if err == nil && !details.Confirmed {
		err = s.appointmentRepo.SetConfirmed(ctx, id)
	}
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("AdminConfirm: appointment id=%d not found", id)
			s.countConfirmation(resultNotFound)
			return ErrAppointmentNotFound
		}
		s.logger.Error("AdminConfirm: repository error for appointment id=%d: %v", id, err)
		s.countConfirmation(resultError)
		return fmt.Errorf("%w: AdminConfirm - repository error: %v", ErrInternal, err)
	}

	if details.Confirmed {
		s.countConfirmation(resultAlreadyConfirmed)
		s.logger.Info("AdminConfirm: appointment id=%d already confirmed", id)
		return nil
	}

	s.countConfirmation(resultAdminConfirmed)
	s.logger.Info("AdminConfirm: appointment id=%d confirmed", id)
	s.publish(ctx, domain.EventAppointmentConfirmed, details, reasonAdmin)
	return nil
}

// Delete удаляет запись вместе с занятым интервалом мастера
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: appointment id=%d", id)

	var details *domain.AppointmentDetails

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		if details, err = s.appointmentRepo.GetDetailedByID(txCtx, id); err != nil {
			return err
		}
		return s.appointmentRepo.Delete(txCtx, id)
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("Delete: appointment id=%d not found", id)
			return ErrAppointmentNotFound
		}
		s.logger.Error("Delete: repository error for appointment id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Delete: appointment id=%d deleted", id)
	s.publish(ctx, domain.EventAppointmentDeleted, details, reasonAdmin)
	return nil
}

// List возвращает записи с фильтрацией по дате и статусу подтверждения
func (s *Service) List(ctx context.Context, req *models.ListRequest) ([]models.AppointmentResponse, error) {
	filter, err := req.ToDomainFilter(s.location)
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d appointments", len(appointments))
	return models.FromDomainAppointmentList(appointments), nil
}

// dispatchCode отправляет код, ошибка доставки только логируется
func (s *Service) dispatchCode(ctx context.Context, phone, code string, id int64) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.SendConfirmationCode(ctx, phone, code); err != nil {
		s.logger.Error("Refresh: failed to send code for appointment id=%d: %v", id, err)
		if s.metrics != nil {
			s.metrics.IncNotificationFailure(notificationChannel)
		}
		return false
	}
	return true
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, d *domain.AppointmentDetails, reason string) {
	if s.publisher == nil || d == nil {
		return
	}
	event := domain.AppointmentEvent{
		Type:          eventType,
		AppointmentID: d.ID,
		OfferingID:    d.OfferingID,
		MasterID:      d.Offering.MasterID,
		Start:         d.Slot.Start,
		Reason:        reason,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish %s for appointment id=%d: %v", eventType, d.ID, err)
	}
}

func (s *Service) countConfirmation(result string) {
	if s.metrics != nil {
		s.metrics.IncConfirmation(result)
	}
}
