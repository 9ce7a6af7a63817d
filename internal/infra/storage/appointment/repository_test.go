package appointment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

var (
	testCreatedAt = time.Date(2024, 5, 9, 18, 0, 0, 0, time.UTC)
	testSlotStart = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
)

func newTestRepository(t *testing.T) (*Repository, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	wrapped := dbmetrics.Wrap(db, nil)
	return NewRepository(wrapped), wrapped, mock
}

func appointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows(appointmentColumns)
}

func detailedRows() *sqlmock.Rows {
	return sqlmock.NewRows(detailedColumns)
}

func TestRepository_Create(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO appointments (.+) RETURNING id, created_at").
		WithArgs("Анна", int64(3), int64(4), int64(15), false, "01234", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(21, testCreatedAt))

	created, err := repo.Create(context.Background(), &domain.Appointment{
		Name:         "Анна",
		CustomerID:   3,
		OfferingID:   4,
		OccupationID: 15,
		SecretCode:   "01234",
		Attempts:     5,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(21), created.ID)
	assert.Equal(t, testCreatedAt, created.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_OccupationTaken(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &domain.Appointment{OccupationID: 15})

	assert.ErrorIs(t, err, ErrOccupationTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, customer_id, offering_id, occupation_id, confirmed, secret_code, attempts, created_at FROM appointments WHERE id = $1")).
		WithArgs(int64(21)).
		WillReturnRows(appointmentRows().AddRow(21, "Анна", 3, 4, 15, false, "01234", 4, testCreatedAt))

	a, err := repo.GetByID(context.Background(), 21)

	require.NoError(t, err)
	assert.Equal(t, "01234", a.SecretCode)
	assert.Equal(t, 4, a.Attempts)
	assert.True(t, a.IsPending())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments").WillReturnRows(appointmentRows())

	_, err := repo.GetByID(context.Background(), 404)

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdate_LocksInsideTransaction(t *testing.T) {
	repo, db, mock := newTestRepository(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(21)).
		WillReturnRows(appointmentRows().AddRow(21, "Анна", 3, 4, 15, false, "01234", 5, testCreatedAt))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	a, err := repo.GetForUpdate(dbmetrics.WithTx(ctx, tx), 21)

	require.NoError(t, err)
	assert.Equal(t, int64(21), a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetDetailedByID(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments a JOIN customers c (.+) JOIN occupations o ON o.id = a.occupation_id WHERE a.id = \\$1").
		WithArgs(int64(21)).
		WillReturnRows(detailedRows().AddRow(
			21, "Анна", 3, 4, 15, true, 5, testCreatedAt,
			"+79990001122", "Анна", "active",
			2, 9, 1500.0, 30, "Ольга", "Стрижка",
			2, testSlotStart, testSlotStart.Add(30*time.Minute),
		))

	d, err := repo.GetDetailedByID(context.Background(), 21)

	require.NoError(t, err)
	assert.True(t, d.Confirmed)
	assert.Empty(t, d.SecretCode)
	assert.Equal(t, int64(3), d.Customer.ID)
	assert.Equal(t, "+79990001122", d.Customer.Phone)
	assert.Equal(t, int64(4), d.Offering.ID)
	assert.Equal(t, "Ольга", d.Offering.Master.Name)
	assert.Equal(t, int64(15), d.Slot.ID)
	assert.Equal(t, testSlotStart, d.Slot.Start)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_Filters(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	confirmed := false

	mock.ExpectQuery("WHERE a.confirmed = \\$1 AND o.start_at >= \\$2 AND o.start_at < \\$3 ORDER BY o.start_at ASC, a.id ASC").
		WithArgs(false, day, day.AddDate(0, 0, 1)).
		WillReturnRows(detailedRows().AddRow(
			21, "Анна", 3, 4, 15, false, 5, testCreatedAt,
			"+79990001122", "Анна", "active",
			2, 9, 1500.0, 30, "Ольга", "Стрижка",
			2, testSlotStart, testSlotStart.Add(30*time.Minute),
		))

	list, err := repo.List(context.Background(), domain.AppointmentsFilter{Date: &day, Confirmed: &confirmed})

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(21), list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_NoFilters(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("FROM appointments a (.+) ORDER BY o.start_at ASC").
		WithArgs().
		WillReturnRows(detailedRows())

	list, err := repo.List(context.Background(), domain.AppointmentsFilter{})

	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetConfirmedAndAttempts(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectExec("UPDATE appointments SET confirmed = \\$1 WHERE id = \\$2").
		WithArgs(true, int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE appointments SET attempts = \\$1 WHERE id = \\$2").
		WithArgs(3, int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetConfirmed(context.Background(), 21))
	assert.ErrorIs(t, repo.UpdateAttempts(context.Background(), 21, 3), ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete_RemovesOccupation(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occupations WHERE id = (SELECT occupation_id FROM appointments WHERE id = $1)")).
		WithArgs(int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM occupations").
		WithArgs(int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 21))
	assert.ErrorIs(t, repo.Delete(context.Background(), 21), ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
