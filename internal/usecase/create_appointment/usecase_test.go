package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	occupationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/occupation"
	offeringRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/offering"
)

var testLoc = time.FixedZone("MSK", 3*60*60)

func at(hour, min int) time.Time {
	return time.Date(2024, 5, 10, hour, min, 0, 0, testLoc)
}

// store общее состояние фейковых репозиториев.
// mu защищает только данные; сериализацию броней даёт блокировка мастера, как в БД.
type store struct {
	mu           sync.Mutex
	customers    map[string]*domain.Customer
	offerings    map[int64]*domain.Offering
	occupations  []*domain.Occupation
	appointments []*domain.Appointment
	nextID       int64
	lockedMaster []int64
	calls        []string
	masterLocks  map[int64]*sync.Mutex

	offeringErr      error
	occupationErr    error
	createOccErr     error
	createAppointErr error
}

func newStore() *store {
	return &store{
		customers: map[string]*domain.Customer{},
		offerings: map[int64]*domain.Offering{
			4: {ID: 4, MasterID: 2, ServiceID: 9, Price: 1500, DurationMinutes: 30},
		},
		masterLocks: map[int64]*sync.Mutex{},
	}
}

// id вызывается под s.mu
func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) record(call string) {
	s.calls = append(s.calls, call)
}

type fakeCustomers struct{ s *store }

func (f fakeCustomers) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.customers[phone]
	if !ok {
		return nil, customerRepo.ErrCustomerNotFound
	}
	return c, nil
}

func (f fakeCustomers) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	created := *c
	created.ID = f.s.id()
	f.s.customers[c.Phone] = &created
	return &created, nil
}

type fakeOfferings struct{ s *store }

func (f fakeOfferings) GetByID(ctx context.Context, id int64) (*domain.Offering, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.offeringErr != nil {
		return nil, f.s.offeringErr
	}
	o, ok := f.s.offerings[id]
	if !ok {
		return nil, offeringRepo.ErrOfferingNotFound
	}
	return o, nil
}

type fakeOccupations struct{ s *store }

// LockMaster держит блокировку мастера до конца транзакции, как SELECT ... FOR UPDATE
func (f fakeOccupations) LockMaster(ctx context.Context, masterID int64) error {
	tx, ok := ctx.Value(txKey{}).(*fakeTx)
	if !ok {
		return errors.New("LockMaster called outside of transaction")
	}

	f.s.mu.Lock()
	lock, ok := f.s.masterLocks[masterID]
	if !ok {
		lock = &sync.Mutex{}
		f.s.masterLocks[masterID] = lock
	}
	f.s.lockedMaster = append(f.s.lockedMaster, masterID)
	f.s.record("lock_master")
	f.s.mu.Unlock()

	lock.Lock()
	tx.hold(lock)
	return nil
}

func (f fakeOccupations) GetByMasterID(ctx context.Context, masterID int64, from time.Time) ([]*domain.Occupation, error) {
	f.s.mu.Lock()
	f.s.record("get_occupations")
	if f.s.occupationErr != nil {
		f.s.mu.Unlock()
		return nil, f.s.occupationErr
	}
	var result []*domain.Occupation
	for _, o := range f.s.occupations {
		if o.MasterID == masterID && o.End.After(from) {
			result = append(result, o)
		}
	}
	f.s.mu.Unlock()

	// Окно между чтением занятости и вставкой: без блокировки мастера параллельные брони в него попадают
	time.Sleep(time.Millisecond)
	return result, nil
}

func (f fakeOccupations) Create(ctx context.Context, o *domain.Occupation) (*domain.Occupation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.record("create_occupation")
	if f.s.createOccErr != nil {
		return nil, f.s.createOccErr
	}
	created := *o
	created.ID = f.s.id()
	f.s.occupations = append(f.s.occupations, &created)
	return &created, nil
}

type fakeAppointments struct{ s *store }

func (f fakeAppointments) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createAppointErr != nil {
		return nil, f.s.createAppointErr
	}
	created := *a
	created.ID = f.s.id()
	created.CreatedAt = at(9, 0)
	f.s.appointments = append(f.s.appointments, &created)
	return &created, nil
}

type txKey struct{}

// fakeTx блокировки строк, взятые внутри транзакции
type fakeTx struct {
	held []*sync.Mutex
}

func (tx *fakeTx) hold(lock *sync.Mutex) {
	tx.held = append(tx.held, lock)
}

func (tx *fakeTx) release() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
}

// fakeTxManager не сериализует транзакции сам: блокировки отпускаются на коммите или откате
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &fakeTx{}
	defer tx.release()
	return fn(context.WithValue(ctx, txKey{}, tx))
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	sent  map[string]string
	calls int
}

func (n *fakeNotifier) SendConfirmationCode(ctx context.Context, phone, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = map[string]string{}
	}
	n.sent[phone] = code
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.AppointmentEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event domain.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeMetrics struct {
	mu           sync.Mutex
	reservations map[string]int
	failures     int
}

func (m *fakeMetrics) IncReservation(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reservations == nil {
		m.reservations = map[string]int{}
	}
	m.reservations[result]++
}

func (m *fakeMetrics) IncNotificationFailure(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	store     *store
	notifier  *fakeNotifier
	publisher *fakePublisher
	metrics   *fakeMetrics
	uc        *UseCase
}

func newFixture() *fixture {
	s := newStore()
	f := &fixture{
		store:     s,
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{},
	}

	options := Options{
		Slots: domain.SlotsConfig{
			Days:     2,
			Open:     "09:00",
			Close:    "21:00",
			Interval: 30 * time.Minute,
			Location: testLoc,
		},
		CodeLength: 5,
		Attempts:   5,
	}

	f.uc = NewUseCase(
		fakeCustomers{s}, fakeOfferings{s}, fakeOccupations{s}, fakeAppointments{s},
		fakeTxManager{}, f.notifier, f.publisher, f.metrics, options, nopLogger{},
	).WithTimeProvider(fixedTime{at(9, 10)})

	return f
}

func validRequest() *Request {
	return &Request{
		Name:       "Анна",
		Phone:      "+7 (999) 000-11-22",
		OfferingID: 4,
		Start:      at(10, 0),
	}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.True(t, resp.CodeSent)
	assert.False(t, resp.Appointment.Confirmed)
	assert.Equal(t, 5, resp.Appointment.Attempts)
	assert.Equal(t, "Анна", resp.Appointment.Name)
	assert.Empty(t, resp.Appointment.SecretCode)
	assert.Equal(t, at(10, 0), resp.Appointment.Slot.Start)
	assert.Equal(t, at(10, 30), resp.Appointment.Slot.End)
	assert.Equal(t, int64(2), resp.Appointment.Offering.MasterID)
	assert.Equal(t, "+79990001122", resp.Appointment.Customer.Phone)
	assert.Equal(t, domain.CustomerStatusActive, resp.Appointment.Customer.Status)

	require.Len(t, f.store.appointments, 1)
	stored := f.store.appointments[0]
	assert.Len(t, stored.SecretCode, 5)
	assert.Equal(t, stored.SecretCode, f.notifier.sent["+79990001122"])
	assert.Equal(t, []int64{2}, f.store.lockedMaster)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventAppointmentCreated, f.publisher.events[0].Type)
	assert.Equal(t, 1, f.metrics.reservations[resultCreated])
}

func TestExecute_ExistingCustomerReused(t *testing.T) {
	f := newFixture()
	f.store.customers["+79990001122"] = &domain.Customer{ID: 77, Phone: "+79990001122", Name: "Аня", Status: domain.CustomerStatusActive}

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(77), resp.Appointment.CustomerID)
	assert.Len(t, f.store.customers, 1)
}

func TestExecute_BlockedCustomerRejectedBeforeSlotChecks(t *testing.T) {
	f := newFixture()
	f.store.customers["+79990001122"] = &domain.Customer{ID: 77, Phone: "+79990001122", Status: domain.CustomerStatusBlocked}

	req := validRequest()
	req.OfferingID = 404 // несуществующая услуга не должна проверяться

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrCustomerBlocked)
	assert.Empty(t, f.store.occupations)
	assert.Empty(t, f.store.lockedMaster)
	assert.Zero(t, f.notifier.calls)
	assert.Equal(t, 1, f.metrics.reservations[resultBlocked])
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *store, req *Request)
		wantErr error
	}{
		{
			name:    "empty name",
			prepare: func(s *store, req *Request) { req.Name = "  " },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "bad phone",
			prepare: func(s *store, req *Request) { req.Phone = "call me" },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "offering not found",
			prepare: func(s *store, req *Request) { req.OfferingID = 404 },
			wantErr: ErrOfferingNotFound,
		},
		{
			name:    "off grid",
			prepare: func(s *store, req *Request) { req.Start = at(10, 15) },
			wantErr: ErrIncorrectTime,
		},
		{
			name:    "before now",
			prepare: func(s *store, req *Request) { req.Start = time.Date(2024, 5, 9, 10, 0, 0, 0, testLoc) },
			wantErr: ErrIncorrectTime,
		},
		{
			name:    "past closing",
			prepare: func(s *store, req *Request) { req.Start = at(21, 0) },
			wantErr: ErrIncorrectTime,
		},
		{
			name: "overlapping occupation",
			prepare: func(s *store, req *Request) {
				s.occupations = append(s.occupations, &domain.Occupation{ID: 100, MasterID: 2, Start: at(9, 45), End: at(10, 15)})
			},
			wantErr: ErrTimeNotAvailable,
		},
		{
			name:    "exclusion constraint",
			prepare: func(s *store, req *Request) { s.createOccErr = occupationRepo.ErrSlotConflict },
			wantErr: ErrTimeNotAvailable,
		},
		{
			name:    "occupation already bound",
			prepare: func(s *store, req *Request) { s.createAppointErr = appointmentRepo.ErrOccupationTaken },
			wantErr: ErrTimeNotAvailable,
		},
		{
			name:    "offering storage failure",
			prepare: func(s *store, req *Request) { s.offeringErr = errors.New("db down") },
			wantErr: ErrInternal,
		},
		{
			name:    "occupation storage failure",
			prepare: func(s *store, req *Request) { s.occupationErr = errors.New("db down") },
			wantErr: ErrInternal,
		},
		{
			name:    "appointment insert failure",
			prepare: func(s *store, req *Request) { s.createAppointErr = errors.New("db down") },
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			tt.prepare(f.store, req)

			resp, err := f.uc.Execute(context.Background(), req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.notifier.calls)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestExecute_AdjacentSlotsAllowed(t *testing.T) {
	f := newFixture()
	f.store.occupations = append(f.store.occupations, &domain.Occupation{ID: 100, MasterID: 2, Start: at(10, 0), End: at(10, 30)})

	for _, start := range []time.Time{at(9, 30), at(10, 30)} {
		req := validRequest()
		req.Start = start
		_, err := f.uc.Execute(context.Background(), req)
		require.NoError(t, err, start)
	}
}

func TestExecute_NotificationFailureKeepsAppointment(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("broker unavailable")

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.False(t, resp.CodeSent)
	assert.Len(t, f.store.appointments, 1)
	assert.Equal(t, 1, f.metrics.failures)
}

func TestExecute_ConcurrentReservationsOfSameSlot(t *testing.T) {
	f := newFixture()
	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Phone = fmt.Sprintf("+7999000110%d", i)
			_, err := f.uc.Execute(context.Background(), req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrTimeNotAvailable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.Len(t, f.store.occupations, 1)
	assert.Len(t, f.store.appointments, 1)
}

func TestExecute_LocksMasterBeforeReadingOccupations(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, []string{"lock_master", "get_occupations", "create_occupation"}, f.store.calls)
}

func TestExecute_ReservationsOfDifferentMastersDoNotBlock(t *testing.T) {
	f := newFixture()
	f.store.offerings[5] = &domain.Offering{ID: 5, MasterID: 3, ServiceID: 9, DurationMinutes: 30}

	// Мастер 2 занят чужой транзакцией
	lock := &sync.Mutex{}
	lock.Lock()
	f.store.masterLocks[2] = lock
	defer lock.Unlock()

	req := validRequest()
	req.OfferingID = 5

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Execute(context.Background(), req)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reservation for another master waited for a foreign lock")
	}
}
