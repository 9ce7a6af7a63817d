package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	offeringRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/offering"
)

// UseCase use case для получения свободных слотов услуги мастера
type UseCase struct {
	offeringRepo   OfferingRepository
	occupationRepo OccupationRepository
	slotsConfig    domain.SlotsConfig
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	offeringRepo OfferingRepository,
	occupationRepo OccupationRepository,
	slotsConfig domain.SlotsConfig,
	logger Logger,
) *UseCase {
	return &UseCase{
		offeringRepo:   offeringRepo,
		occupationRepo: occupationRepo,
		slotsConfig:    slotsConfig,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// WithTimeProvider подменяет источник текущего времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения свободных слотов.
// Чтение идёт без блокировок: результат может устареть к моменту бронирования,
// окончательная проверка выполняется при создании записи.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: offering=%d", req.OfferingID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем услугу мастера
	offering, err := uc.offeringRepo.GetByID(ctx, req.OfferingID)
	if err != nil {
		if errors.Is(err, offeringRepo.ErrOfferingNotFound) {
			uc.logger.Warn("GetAvailableSlots: offering id=%d not found", req.OfferingID)
			return nil, ErrOfferingNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get offering id=%d: %v", req.OfferingID, err)
		return nil, fmt.Errorf("%w: failed to get offering: %v", ErrInternal, err)
	}

	// 4. Генерируем все возможные слоты
	candidates := domain.GenerateSlots(offering.Duration(), now, uc.slotsConfig)

	// 5. Получаем занятость мастера начиная с сегодняшнего дня
	occupations, err := uc.occupationRepo.GetByMasterID(ctx, offering.MasterID, uc.slotsConfig.DayStart(now))
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get occupations for master=%d: %v", offering.MasterID, err)
		return nil, fmt.Errorf("%w: failed to get occupations: %v", ErrInternal, err)
	}

	// 6. Убираем слоты, пересекающиеся с занятыми интервалами
	free := domain.FilterFreeSlots(candidates, offering.Duration(), domain.BusyIntervals(occupations))

	uc.logger.Info("GetAvailableSlots: offering=%d master=%d, %d of %d slots free",
		offering.ID, offering.MasterID, len(free), len(candidates))

	return &Response{
		OfferingID:      offering.ID,
		MasterID:        offering.MasterID,
		DurationMinutes: offering.DurationMinutes,
		Slots:           free,
	}, nil
}
