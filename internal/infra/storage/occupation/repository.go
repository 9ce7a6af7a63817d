package occupation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const (
	pqExclusionViolation = "23P01"
	pqCheckViolation     = "23514"
)

// Repository репозиторий занятых интервалов мастеров
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория занятости
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockMaster блокирует строку мастера до конца текущей транзакции.
// Все проверки и вставки интервалов одного мастера выполняются под этой блокировкой,
// поэтому параллельные бронирования к одному мастеру выполняются последовательно.
func (r *Repository) LockMaster(ctx context.Context, masterID int64) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return ErrTransactionRequired
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("masters").
		Where(squirrel.Eq{"id": masterID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: LockMaster - build select query: %v", ErrBuildQuery, err)
	}

	var id int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMasterNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: LockMaster - lock master: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByMasterID возвращает интервалы мастера, заканчивающиеся позже from, по возрастанию начала
func (r *Repository) GetByMasterID(ctx context.Context, masterID int64, from time.Time) ([]*domain.Occupation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "master_id", "start_at", "end_at").
		From("occupations").
		Where(squirrel.Eq{"master_id": masterID}).
		Where(squirrel.Gt{"end_at": from}).
		OrderBy("start_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByMasterID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByMasterID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	occupations := make([]*domain.Occupation, 0)
	for rows.Next() {
		var o domain.Occupation
		if err := rows.Scan(&o.ID, &o.MasterID, &o.Start, &o.End); err != nil {
			return nil, fmt.Errorf("%w: GetByMasterID - scan row: %v", ErrScanRow, err)
		}
		occupations = append(occupations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByMasterID - rows error: %v", ErrScanRow, err)
	}

	return occupations, nil
}

// Create занимает интервал [Start, End) у мастера
func (r *Repository) Create(ctx context.Context, occupation *domain.Occupation) (*domain.Occupation, error) {
	if !occupation.Start.Before(occupation.End) {
		return nil, ErrInvalidInterval
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("occupations").
		Columns("master_id", "start_at", "end_at").
		Values(occupation.MasterID, occupation.Start, occupation.End).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&occupation.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqExclusionViolation:
				return nil, ErrSlotConflict
			case pqCheckViolation:
				return nil, ErrInvalidInterval
			}
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return occupation, nil
}
