package create_appointment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	occupationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/occupation"
	offeringRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/offering"
	"github.com/m04kA/SMC-AppointmentService/pkg/confirmcode"
	"github.com/m04kA/SMC-AppointmentService/pkg/tracing"
)

// Результаты бронирования для метрик
const (
	resultCreated          = "created"
	resultInvalidInput     = "invalid_input"
	resultBlocked          = "blocked"
	resultOfferingNotFound = "offering_not_found"
	resultInvalidTime      = "invalid_time"
	resultNotAvailable     = "not_available"
	resultError            = "error"
)

const notificationChannel = "confirmation_code"

// UseCase use case для создания записи на приём
type UseCase struct {
	customerRepo    CustomerRepository
	offeringRepo    OfferingRepository
	occupationRepo  OccupationRepository
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	notifier        Notifier
	publisher       EventPublisher
	metrics         Metrics
	options         Options
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	customerRepo CustomerRepository,
	offeringRepo OfferingRepository,
	occupationRepo OccupationRepository,
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	notifier Notifier,
	publisher EventPublisher,
	metrics Metrics,
	options Options,
	logger Logger,
) *UseCase {
	return &UseCase{
		customerRepo:    customerRepo,
		offeringRepo:    offeringRepo,
		occupationRepo:  occupationRepo,
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		notifier:        notifier,
		publisher:       publisher,
		metrics:         metrics,
		options:         options,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник текущего времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания записи.
// Проверка слота и вставка выполняются в одной транзакции под блокировкой строки мастера;
// exclusion constraint на occupations страхует от пересечений на уровне БД.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	ctx, span := tracing.Tracer("create_appointment").Start(ctx, "CreateAppointment.Execute")
	span.SetAttributes(attribute.Int64("offering.id", req.OfferingID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	uc.logger.Info("CreateAppointment: offering=%d, datetime=%s", req.OfferingID, req.Start.Format(domain.LocalDateTimeFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		uc.countReservation(resultInvalidInput)
		return nil, err
	}
	phone := normalizePhone(req.Phone)

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	var result *domain.AppointmentDetails
	var code string

	// 3. Выполняем операции с БД в одной транзакции
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 3.1. Ищем клиента по телефону, создаём при отсутствии
		customer, err := uc.getOrCreateCustomer(txCtx, phone, req.Name)
		if err != nil {
			return err
		}

		// 3.2. Заблокированный клиент не может записываться
		if customer.IsBlocked() {
			uc.logger.Warn("CreateAppointment: customer id=%d is blocked", customer.ID)
			return ErrCustomerBlocked
		}

		// 3.3. Получаем услугу мастера
		offering, err := uc.offeringRepo.GetByID(txCtx, req.OfferingID)
		if err != nil {
			if errors.Is(err, offeringRepo.ErrOfferingNotFound) {
				uc.logger.Warn("CreateAppointment: offering id=%d not found", req.OfferingID)
				return ErrOfferingNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get offering id=%d: %v", req.OfferingID, err)
			return fmt.Errorf("%w: failed to get offering: %v", ErrInternal, err)
		}
		duration := offering.Duration()

		// 3.4. Блокируем мастера, чтобы параллельные брони к нему шли последовательно
		if err := uc.occupationRepo.LockMaster(txCtx, offering.MasterID); err != nil {
			uc.logger.Error("CreateAppointment: failed to lock master id=%d: %v", offering.MasterID, err)
			return fmt.Errorf("%w: failed to lock master: %v", ErrInternal, err)
		}

		// 3.5. Время должно совпадать со слотом сетки
		if !domain.ContainsSlot(domain.GenerateSlots(duration, now, uc.options.Slots), req.Start) {
			uc.logger.Warn("CreateAppointment: time %s is not on the slot grid", req.Start.Format(domain.LocalDateTimeFormat))
			return ErrIncorrectTime
		}

		// 3.6. Получаем занятость мастера и проверяем пересечения
		occupations, err := uc.occupationRepo.GetByMasterID(txCtx, offering.MasterID, uc.options.Slots.DayStart(now))
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to get occupations for master=%d: %v", offering.MasterID, err)
			return fmt.Errorf("%w: failed to get occupations: %v", ErrInternal, err)
		}

		if domain.IsBusy(req.Start, duration, domain.BusyIntervals(occupations)) {
			uc.logger.Warn("CreateAppointment: time %s is busy for master=%d",
				req.Start.Format(domain.LocalDateTimeFormat), offering.MasterID)
			return ErrTimeNotAvailable
		}

		// 3.7. Занимаем интервал мастера
		occupation, err := uc.occupationRepo.Create(txCtx, &domain.Occupation{
			MasterID: offering.MasterID,
			Start:    req.Start,
			End:      req.Start.Add(duration),
		})
		if err != nil {
			if errors.Is(err, occupationRepo.ErrSlotConflict) {
				uc.logger.Warn("CreateAppointment: exclusion constraint rejected interval for master=%d", offering.MasterID)
				return ErrTimeNotAvailable
			}
			uc.logger.Error("CreateAppointment: failed to create occupation: %v", err)
			return fmt.Errorf("%w: failed to create occupation: %v", ErrInternal, err)
		}

		// 3.8. Генерируем код подтверждения
		code, err = confirmcode.Generate(uc.options.CodeLength)
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to generate code: %v", err)
			return fmt.Errorf("%w: failed to generate code: %v", ErrInternal, err)
		}

		// 3.9. Создаём запись в статусе ожидания подтверждения
		appointment, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			Name:         req.Name,
			CustomerID:   customer.ID,
			OfferingID:   offering.ID,
			OccupationID: occupation.ID,
			Confirmed:    false,
			SecretCode:   code,
			Attempts:     uc.options.Attempts,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrOccupationTaken) {
				uc.logger.Warn("CreateAppointment: occupation=%d already has an appointment", occupation.ID)
				return ErrTimeNotAvailable
			}
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
		}

		result = &domain.AppointmentDetails{
			Appointment: *appointment,
			Customer:    *customer,
			Offering:    *offering,
			Slot:        *occupation,
		}
		return nil
	})

	if err != nil {
		result := reservationResult(err)
		uc.countReservation(result)
		if result == resultError && !errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateAppointment: transaction failed: %v", err)
			return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
		}
		return nil, err
	}

	uc.countReservation(resultCreated)
	uc.logger.Info("CreateAppointment: created appointment id=%d for master=%d at %s",
		result.ID, result.Offering.MasterID, result.Slot.Start.Format(domain.LocalDateTimeFormat))

	// 4. Отправляем код клиенту после коммита
	codeSent := uc.dispatchCode(ctx, phone, code, result.ID)

	// 5. Публикуем событие
	uc.publish(ctx, domain.AppointmentEvent{
		Type:          domain.EventAppointmentCreated,
		AppointmentID: result.ID,
		OfferingID:    result.Offering.ID,
		MasterID:      result.Offering.MasterID,
		Start:         result.Slot.Start,
		OccurredAt:    now,
	})

	result.SecretCode = ""
	return &Response{
		Appointment: *result,
		CodeSent:    codeSent,
	}, nil
}

// getOrCreateCustomer ищет клиента по телефону или регистрирует нового
func (uc *UseCase) getOrCreateCustomer(ctx context.Context, phone, name string) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
		uc.logger.Error("CreateAppointment: failed to get customer: %v", err)
		return nil, fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
	}

	customer, err = uc.customerRepo.Create(ctx, &domain.Customer{
		Phone:  phone,
		Name:   name,
		Status: domain.CustomerStatusActive,
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to create customer: %v", err)
		return nil, fmt.Errorf("%w: failed to create customer: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateAppointment: registered customer id=%d", customer.ID)
	return customer, nil
}

// dispatchCode отправляет код, ошибка доставки не отменяет запись
func (uc *UseCase) dispatchCode(ctx context.Context, phone, code string, appointmentID int64) bool {
	if uc.notifier == nil {
		return false
	}

	if err := uc.notifier.SendConfirmationCode(ctx, phone, code); err != nil {
		uc.logger.Error("CreateAppointment: failed to send code for appointment id=%d: %v", appointmentID, err)
		if uc.metrics != nil {
			uc.metrics.IncNotificationFailure(notificationChannel)
		}
		return false
	}
	return true
}

func (uc *UseCase) publish(ctx context.Context, event domain.AppointmentEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateAppointment: failed to publish %s for appointment id=%d: %v",
			event.Type, event.AppointmentID, err)
	}
}

func (uc *UseCase) countReservation(result string) {
	if uc.metrics != nil {
		uc.metrics.IncReservation(result)
	}
}

func reservationResult(err error) string {
	switch {
	case errors.Is(err, ErrCustomerBlocked):
		return resultBlocked
	case errors.Is(err, ErrOfferingNotFound):
		return resultOfferingNotFound
	case errors.Is(err, ErrIncorrectTime):
		return resultInvalidTime
	case errors.Is(err, ErrTimeNotAvailable):
		return resultNotAvailable
	default:
		return resultError
	}
}
