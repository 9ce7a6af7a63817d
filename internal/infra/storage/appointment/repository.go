package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const pqUniqueViolation = "23505"

var appointmentColumns = []string{
	"id",
	"name",
	"customer_id",
	"offering_id",
	"occupation_id",
	"confirmed",
	"secret_code",
	"attempts",
	"created_at",
}

// detailedColumns колонки записи вместе с клиентом, услугой и слотом.
// Секретный код не выбирается: детальное представление уходит наружу.
var detailedColumns = []string{
	"a.id",
	"a.name",
	"a.customer_id",
	"a.offering_id",
	"a.occupation_id",
	"a.confirmed",
	"a.attempts",
	"a.created_at",
	"c.phone",
	"c.name",
	"c.status",
	"f.master_id",
	"f.service_id",
	"f.price",
	"f.duration_minutes",
	"m.name",
	"s.name",
	"o.master_id",
	"o.start_at",
	"o.end_at",
}

// Repository репозиторий записей на приём
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает неподтверждённую запись для уже занятого интервала
func (r *Repository) Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"name",
			"customer_id",
			"offering_id",
			"occupation_id",
			"confirmed",
			"secret_code",
			"attempts",
		).
		Values(
			appointment.Name,
			appointment.CustomerID,
			appointment.OfferingID,
			appointment.OccupationID,
			appointment.Confirmed,
			appointment.SecretCode,
			appointment.Attempts,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&appointment.ID, &appointment.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrOccupationTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return appointment, nil
}

// GetByID получает запись по ID (включая секретный код)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.get(ctx, "GetByID", id, false)
}

// GetForUpdate получает запись по ID и блокирует её строку до конца транзакции.
// Вне транзакции работает как GetByID.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.get(ctx, "GetForUpdate", id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) get(ctx context.Context, op string, id int64, lock bool) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id})

	if lock {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var a domain.Appointment
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.Name,
		&a.CustomerID,
		&a.OfferingID,
		&a.OccupationID,
		&a.Confirmed,
		&a.SecretCode,
		&a.Attempts,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan appointment: %v", ErrScanRow, op, err)
	}

	return &a, nil
}

// GetDetailedByID получает запись вместе с клиентом, услугой мастера и слотом
func (r *Repository) GetDetailedByID(ctx context.Context, id int64) (*domain.AppointmentDetails, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := detailedSelect().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDetailedByID - build select query: %v", ErrBuildQuery, err)
	}

	details, err := scanDetails(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDetailedByID - scan appointment: %v", ErrScanRow, err)
	}

	return details, nil
}

// List получает записи с фильтрами по дню начала слота и статусу подтверждения.
// Записи упорядочены по началу слота.
//
// Примеры:
//
// 1. Все записи:
//    filter := domain.AppointmentsFilter{}
//
// 2. Неподтверждённые записи на день:
//    day := time.Date(2025, 10, 15, 0, 0, 0, 0, loc)
//    confirmed := false
//    filter := domain.AppointmentsFilter{Date: &day, Confirmed: &confirmed}
func (r *Repository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.AppointmentDetails, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := detailedSelect()

	if filter.Confirmed != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"a.confirmed": *filter.Confirmed})
	}

	if filter.Date != nil {
		dayStart := *filter.Date
		selectBuilder = selectBuilder.
			Where(squirrel.GtOrEq{"o.start_at": dayStart}).
			Where(squirrel.Lt{"o.start_at": dayStart.AddDate(0, 0, 1)})
	}

	query, args, err := selectBuilder.OrderBy("o.start_at ASC", "a.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.AppointmentDetails, 0)
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		result = append(result, details)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// SetConfirmed помечает запись подтверждённой
func (r *Repository) SetConfirmed(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("confirmed", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetConfirmed - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "SetConfirmed", query, args)
}

// UpdateAttempts сохраняет оставшееся число попыток ввода кода
func (r *Repository) UpdateAttempts(ctx context.Context, id int64, attempts int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("attempts", attempts).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateAttempts - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "UpdateAttempts", query, args)
}

// Delete удаляет запись вместе с её интервалом.
// Удаляется интервал, запись уходит по ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("occupations").
		Where("id = (SELECT occupation_id FROM appointments WHERE id = ?)", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Delete", query, args)
}

func (r *Repository) execAffectingOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

func detailedSelect() squirrel.SelectBuilder {
	return psqlbuilder.Select(detailedColumns...).
		From("appointments a").
		Join("customers c ON c.id = a.customer_id").
		Join("offerings f ON f.id = a.offering_id").
		Join("masters m ON m.id = f.master_id").
		Join("services s ON s.id = f.service_id").
		Join("occupations o ON o.id = a.occupation_id")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetails(row rowScanner) (*domain.AppointmentDetails, error) {
	var d domain.AppointmentDetails

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.CustomerID,
		&d.OfferingID,
		&d.OccupationID,
		&d.Confirmed,
		&d.Attempts,
		&d.CreatedAt,
		&d.Customer.Phone,
		&d.Customer.Name,
		&d.Customer.Status,
		&d.Offering.MasterID,
		&d.Offering.ServiceID,
		&d.Offering.Price,
		&d.Offering.DurationMinutes,
		&d.Offering.Master.Name,
		&d.Offering.Service.Name,
		&d.Slot.MasterID,
		&d.Slot.Start,
		&d.Slot.End,
	)
	if err != nil {
		return nil, err
	}

	d.Customer.ID = d.CustomerID
	d.Offering.ID = d.OfferingID
	d.Offering.Master.ID = d.Offering.MasterID
	d.Offering.Service.ID = d.Offering.ServiceID
	d.Slot.ID = d.OccupationID

	return &d, nil
}
