package schedules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/inventory"
	"github.com/Domenick1991/railseat/internal/lock"
	"github.com/stretchr/testify/assert"
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

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) InitializedAt(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockSettingsRepository) Reset(ctx context.Context, at time.Time) error {
	args := m.Called(ctx, at)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSchedules(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) SetSchedules(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type fixedWorld string

func (w fixedWorld) Current(context.Context) (string, error) {
	return string(w), nil
}

func schedule(id, first string) domain.Schedule {
	s := domain.Schedule{ID: id, Train: domain.Train{Name: "T1", Model: domain.TrainModel{SeatRows: 2, SeatColumns: 5}}}
	for i := range s.Departures {
		s.Departures[i], _ = clock.AddMinutes(first, 10*i)
	}
	return s
}

func TestListUpcoming_CacheMiss(t *testing.T) {
	repo := &MockScheduleRepository{}
	cache := &MockCache{}
	store := inventory.NewMemoryStore()
	require.NoError(t, store.Put("T1-0", 2, 5))
	inv := inventory.New(store)
	_, err := inv.Reserve(context.Background(), "T1-0", 9)
	require.NoError(t, err)

	svc := NewScheduleService(repo, nil, inv, nil, cache, fixedWorld("06:30"), clock.NewSystem())

	repo.On("ListDepartingFrom", mock.Anything, "08:30", ListLimit).Return([]domain.Schedule{schedule("T1-0", "09:00")}, nil).Once()
	cache.On("GetSchedules", mock.Anything, "08:30", mock.Anything).Return(false, nil).Once()
	cache.On("SetSchedules", mock.Anything, "08:30", mock.Anything).Return(nil).Once()

	views, err := svc.ListUpcoming(context.Background())

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "T1-0", views[0].ID)
	require.Len(t, views[0].Legs, domain.LegCount)
	assert.Equal(t, "A->B", views[0].Legs[0].Leg)
	assert.Equal(t, "09:00", views[0].Legs[0].DepartureAt)
	assert.Equal(t, "E->D", views[0].Legs[4].Leg)
	assert.Equal(t, "09:40", views[0].Legs[4].DepartureAt)
	for _, leg := range views[0].Legs {
		assert.Equal(t, inventory.SignageFew, leg.Availability)
	}
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestListUpcoming_CacheHit(t *testing.T) {
	repo := &MockScheduleRepository{}
	cache := &MockCache{}
	svc := NewScheduleService(repo, nil, nil, nil, cache, fixedWorld("10:00"), clock.NewSystem())

	cache.On("GetSchedules", mock.Anything, "12:00", mock.Anything).
		Run(func(args mock.Arguments) {
			dst := args.Get(2).(*[]ScheduleView)
			*dst = []ScheduleView{{ID: "cached"}}
		}).
		Return(true, nil).Once()

	views, err := svc.ListUpcoming(context.Background())

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "cached", views[0].ID)
	repo.AssertNotCalled(t, "ListDepartingFrom", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUpcoming_RepositoryError(t *testing.T) {
	repo := &MockScheduleRepository{}
	svc := NewScheduleService(repo, nil, nil, nil, nil, fixedWorld("10:00"), clock.NewSystem())

	repo.On("ListDepartingFrom", mock.Anything, "12:00", ListLimit).Return([]domain.Schedule(nil), errors.New("db down"))

	_, err := svc.ListUpcoming(context.Background())
	assert.Error(t, err)
}

func TestInitialize(t *testing.T) {
	settings := &MockSettingsRepository{}
	store := lock.NewMemoryStore()
	locks := lock.NewManager(store, lock.WithMaxAttempts(1))
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewScheduleService(nil, settings, nil, locks, nil, fixedWorld("00:00"), clock.NewFixed(now))

	ctx := context.Background()
	require.NoError(t, locks.Acquire(ctx, "T1-1"))
	settings.On("Reset", mock.Anything, now).Return(nil).Once()

	at, err := svc.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, at)
	assert.False(t, store.Held("T1-1"))
	require.NoError(t, locks.Acquire(ctx, "T1-1"))
	settings.AssertExpectations(t)
}

func TestInitialize_ResetFailureKeepsLocks(t *testing.T) {
	settings := &MockSettingsRepository{}
	store := lock.NewMemoryStore()
	locks := lock.NewManager(store, lock.WithMaxAttempts(1))
	svc := NewScheduleService(nil, settings, nil, locks, nil, fixedWorld("00:00"), clock.NewSystem())

	ctx := context.Background()
	require.NoError(t, locks.Acquire(ctx, "T1-1"))
	settings.On("Reset", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := svc.Initialize(ctx)
	assert.Error(t, err)
	assert.True(t, store.Held("T1-1"))
}

func TestTrainModels(t *testing.T) {
	repo := &MockScheduleRepository{}
	svc := NewScheduleService(repo, nil, nil, nil, nil, fixedWorld("00:00"), clock.NewSystem())

	repo.On("ListTrainModels", mock.Anything).Return([]string{"express", "local"}, nil).Once()

	names, err := svc.TrainModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"express", "local"}, names)
}

func TestAddTrain(t *testing.T) {
	repo := &MockScheduleRepository{}
	svc := NewScheduleService(repo, nil, nil, nil, nil, fixedWorld("00:00"), clock.NewSystem())

	model := &domain.TrainModel{Name: "local", SeatRows: 10, SeatColumns: 4}
	repo.On("GetTrainModel", mock.Anything, "local").Return(model, nil).Once()
	repo.On("CreateTrain", mock.Anything, mock.AnythingOfType("*domain.Train"), mock.AnythingOfType("[]domain.Schedule")).Return(nil).Once()

	train, schedules, err := svc.AddTrain(context.Background(), AddTrainInput{
		TrainName:      "R7",
		ModelName:      "local",
		DepartureTimes: []string{"08:00", "12:55"},
	})

	require.NoError(t, err)
	assert.Equal(t, "R7", train.Name)
	require.Len(t, schedules, 2)
	assert.Equal(t, "R7-1", schedules[0].ID)
	assert.Equal(t, "R7-2", schedules[1].ID)
	assert.Equal(t, "08:00", schedules[0].Departures[0])
	assert.Equal(t, "09:10", schedules[0].Departures[7])
	assert.Equal(t, "14:05", schedules[1].Departures[7])
	repo.AssertExpectations(t)
}

func TestAddTrain_Validation(t *testing.T) {
	repo := &MockScheduleRepository{}
	svc := NewScheduleService(repo, nil, nil, nil, nil, fixedWorld("00:00"), clock.NewSystem())

	_, _, err := svc.AddTrain(context.Background(), AddTrainInput{ModelName: "local", DepartureTimes: []string{"08:00"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTrain)

	_, _, err = svc.AddTrain(context.Background(), AddTrainInput{TrainName: "R1", ModelName: "local"})
	assert.ErrorIs(t, err, domain.ErrInvalidTime)

	repo.On("GetTrainModel", mock.Anything, "maglev").Return(nil, domain.ErrTrainModelNotFound).Once()
	_, _, err = svc.AddTrain(context.Background(), AddTrainInput{TrainName: "R1", ModelName: "maglev", DepartureTimes: []string{"08:00"}})
	assert.ErrorIs(t, err, domain.ErrTrainModelNotFound)

	repo.On("GetTrainModel", mock.Anything, "local").Return(&domain.TrainModel{Name: "local", SeatRows: 1, SeatColumns: 1}, nil).Once()
	_, _, err = svc.AddTrain(context.Background(), AddTrainInput{TrainName: "R1", ModelName: "local", DepartureTimes: []string{"8am"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTime)
}

func TestStations(t *testing.T) {
	svc := NewScheduleService(nil, nil, nil, nil, nil, fixedWorld("00:00"), clock.NewSystem())
	stations := svc.Stations()
	require.Len(t, stations, 5)
	assert.Equal(t, "A", stations[0].ID)
}
