package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) Window(ctx context.Context, id string, limit int) ([]domain.Schedule, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListDepartingFrom(ctx context.Context, hhmm string, limit int) ([]domain.Schedule, error) {
	args := m.Called(ctx, hhmm, limit)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) GetTrainModel(ctx context.Context, name string) (*domain.TrainModel, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainModel), args.Error(1)
}

func (m *MockScheduleRepository) ListTrainModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockScheduleRepository) CreateTrain(ctx context.Context, train *domain.Train, schedules []domain.Schedule) error {
	args := m.Called(ctx, train, schedules)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Capture(ctx context.Context, userID string, amount int) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, userID string, amount int) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type fakeWorld struct {
	mu  sync.Mutex
	now string
	err error
}

func (w *fakeWorld) Current(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now, w.err
}

func (w *fakeWorld) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *fakeWorld) set(now string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// memReservations keeps reservations in process with the same status
// transition rules as the Postgres repository.
type memReservations struct {
	mu        sync.Mutex
	clock     clock.Clock
	createErr error
	byID      map[string]domain.Reservation
	payments  map[string]domain.Payment
	entries   map[string]time.Time
}

func newMemReservations(c clock.Clock) *memReservations {
	return &memReservations{
		clock:    c,
		byID:     make(map[string]domain.Reservation),
		payments: make(map[string]domain.Payment),
		entries:  make(map[string]time.Time),
	}
}

func (m *memReservations) Create(_ context.Context, r *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	r.CreatedAt = m.clock.Now()
	r.UpdatedAt = r.CreatedAt
	m.byID[r.ID] = *r
	m.payments[r.ID] = domain.Payment{ReservationID: r.ID, UserID: r.UserID, Amount: r.TotalPrice}
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return &r, nil
}

func (m *memReservations) GetByEntryToken(_ context.Context, token string) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.EntryToken == token {
			return &r, nil
		}
	}
	return nil, domain.ErrReservationNotFound
}

func (m *memReservations) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return &p, nil
}

func (m *memReservations) Transition(_ context.Context, id string, from, to domain.ReservationStatus, at time.Time) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	if r.Status != from {
		return nil, domain.ErrInvalidState
	}

	p := m.payments[id]
	switch to {
	case domain.ReservationStatusCaptured:
		p.Captured = true
	case domain.ReservationStatusRefunded:
		p.Captured, p.Refunded = false, true
	case domain.ReservationStatusEntered:
		if _, done := m.entries[id]; done {
			return nil, domain.ErrAlreadyEntered
		}
		m.entries[id] = at
	}
	m.payments[id] = p
	r.Status = to
	r.UpdatedAt = at
	m.byID[id] = r
	return &r, nil
}

func (m *memReservations) ListPurchased(_ context.Context, userID string) ([]domain.Reservation, error) {
	return m.filter(func(r domain.Reservation) bool {
		return r.UserID == userID && (r.Status == domain.ReservationStatusCaptured || r.Status == domain.ReservationStatusEntered)
	}), nil
}

func (m *memReservations) ListStale(_ context.Context, status domain.ReservationStatus, before time.Time, limit int) ([]domain.Reservation, error) {
	out := m.filter(func(r domain.Reservation) bool {
		return r.Status == status && r.CreatedAt.Before(before)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReservations) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memReservations) status(t *testing.T, id string) domain.ReservationStatus {
	t.Helper()
	r, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r.Status
}

// newSchedule builds a schedule whose legs depart every ten minutes from
// first.
func newSchedule(t *testing.T, id, first string, rows, columns int) domain.Schedule {
	t.Helper()
	s := domain.Schedule{
		ID: id,
		Train: domain.Train{
			ID:    1,
			Name:  "T",
			Model: domain.TrainModel{Name: fmt.Sprintf("m%dx%d", rows, columns), SeatRows: rows, SeatColumns: columns},
		},
	}
	for i := range s.Departures {
		at, err := clock.AddMinutes(first, 10*i)
		require.NoError(t, err)
		s.Departures[i] = at
	}
	return s
}
