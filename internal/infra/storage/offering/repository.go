package offering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий услуг мастеров (только чтение, каталог ведётся отдельно)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория услуг мастеров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает услугу мастера вместе с именами мастера и услуги
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Offering, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"o.id",
		"o.master_id",
		"o.service_id",
		"o.price",
		"o.duration_minutes",
		"m.name",
		"s.name",
	).
		From("offerings o").
		Join("masters m ON m.id = o.master_id").
		Join("services s ON s.id = o.service_id").
		Where(squirrel.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var offering domain.Offering
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&offering.ID,
		&offering.MasterID,
		&offering.ServiceID,
		&offering.Price,
		&offering.DurationMinutes,
		&offering.Master.Name,
		&offering.Service.Name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan offering: %v", ErrScanRow, err)
	}

	offering.Master.ID = offering.MasterID
	offering.Service.ID = offering.ServiceID

	return &offering, nil
}
