package schedules

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/inventory"
	"github.com/Domenick1991/railseat/internal/repository"
	"github.com/Domenick1991/railseat/internal/route"
)

const (
	// BookingHorizon is how far ahead of the world clock a schedule must
	// depart to be listed.
	BookingHorizon = 2 * time.Hour
	ListLimit      = 10
	legInterval    = 10
)

type UseCase interface {
	ListUpcoming(ctx context.Context) ([]ScheduleView, error)
	Stations() []domain.Station
	CurrentTime(ctx context.Context) (string, error)
	Initialize(ctx context.Context) (time.Time, error)
	AddTrain(ctx context.Context, input AddTrainInput) (*domain.Train, []domain.Schedule, error)
	TrainModels(ctx context.Context) ([]string, error)
}

type Occupancy interface {
	Occupancy(ctx context.Context, scheduleID, from, to string) (available, total int, err error)
}

// Locks drops every schedule lock when the reservation state is reset.
type Locks interface {
	ReleaseAll(ctx context.Context) error
}

type Cache interface {
	GetSchedules(ctx context.Context, key string, dst any) (bool, error)
	SetSchedules(ctx context.Context, key string, value any) error
}

type WorldClock interface {
	Current(ctx context.Context) (string, error)
}

type LegView struct {
	Leg          string            `json:"leg"`
	DepartureAt  string            `json:"departure_at"`
	Availability inventory.Signage `json:"availability"`
}

type ScheduleView struct {
	ID        string    `json:"id"`
	TrainName string    `json:"train_name"`
	Legs      []LegView `json:"legs"`
}

type AddTrainInput struct {
	TrainName      string   `json:"train_name"`
	ModelName      string   `json:"model_name"`
	DepartureTimes []string `json:"departure_times"`
}

type ScheduleService struct {
	schedules repository.ScheduleRepository
	settings  repository.SettingsRepository
	occupancy Occupancy
	locks     Locks
	cache     Cache
	world     WorldClock
	clock     clock.Clock
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	settings repository.SettingsRepository,
	occupancy Occupancy,
	locks Locks,
	cache Cache,
	world WorldClock,
	c clock.Clock,
) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		settings:  settings,
		occupancy: occupancy,
		locks:     locks,
		cache:     cache,
		world:     world,
		clock:     c,
	}
}

// ListUpcoming returns the next schedules that still accept bookings with
// the availability sign of every leg.
func (s *ScheduleService) ListUpcoming(ctx context.Context) ([]ScheduleView, error) {
	now, err := s.world.Current(ctx)
	if err != nil {
		return nil, err
	}
	from, err := clock.AddMinutes(now, int(BookingHorizon/time.Minute))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached []ScheduleView
		if ok, err := s.cache.GetSchedules(ctx, from, &cached); err == nil && ok {
			return cached, nil
		}
	}

	schedules, err := s.schedules.ListDepartingFrom(ctx, from, ListLimit)
	if err != nil {
		return nil, err
	}

	views := make([]ScheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		view, err := s.view(ctx, schedule)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	if s.cache != nil {
		if err := s.cache.SetSchedules(ctx, from, views); err != nil {
			log.Printf("schedules: cache listing: %v", err)
		}
	}
	return views, nil
}

func (s *ScheduleService) view(ctx context.Context, schedule domain.Schedule) (ScheduleView, error) {
	view := ScheduleView{ID: schedule.ID, TrainName: schedule.Train.Name}
	for _, leg := range route.Legs() {
		available, total, err := s.occupancy.Occupancy(ctx, schedule.ID, leg.From, leg.To)
		if err != nil {
			return ScheduleView{}, err
		}
		view.Legs = append(view.Legs, LegView{
			Leg:          leg.String(),
			DepartureAt:  schedule.Departures[leg.Index],
			Availability: inventory.Sign(available, total),
		})
	}
	return view, nil
}

func (s *ScheduleService) Stations() []domain.Station {
	return route.Stations()
}

func (s *ScheduleService) CurrentTime(ctx context.Context) (string, error) {
	return s.world.Current(ctx)
}

// Initialize restarts the world clock and clears all bookings together
// with the schedule locks they held.
func (s *ScheduleService) Initialize(ctx context.Context) (time.Time, error) {
	at := s.clock.Now()
	if err := s.settings.Reset(ctx, at); err != nil {
		return time.Time{}, err
	}
	if err := s.locks.ReleaseAll(ctx); err != nil {
		return time.Time{}, err
	}
	log.Printf("schedules: world clock restarted at %s", at.Format(time.RFC3339))
	return at, nil
}

func (s *ScheduleService) TrainModels(ctx context.Context) ([]string, error) {
	return s.schedules.ListTrainModels(ctx)
}

// AddTrain creates a train and one schedule per departure time. The i-th
// departure time becomes schedule "<train>-<i>", counting from 1, and its
// legs leave ten minutes apart.
func (s *ScheduleService) AddTrain(ctx context.Context, input AddTrainInput) (*domain.Train, []domain.Schedule, error) {
	name := strings.TrimSpace(input.TrainName)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", domain.ErrInvalidTrain)
	}
	if len(input.DepartureTimes) == 0 {
		return nil, nil, fmt.Errorf("%w: no departure times", domain.ErrInvalidTime)
	}

	model, err := s.schedules.GetTrainModel(ctx, input.ModelName)
	if err != nil {
		return nil, nil, err
	}

	train := &domain.Train{Name: name, Model: *model}
	schedules := make([]domain.Schedule, 0, len(input.DepartureTimes))
	for i, first := range input.DepartureTimes {
		schedule := domain.Schedule{ID: fmt.Sprintf("%s-%d", name, i+1), Train: *train}
		for leg := range schedule.Departures {
			at, err := clock.AddMinutes(first, leg*legInterval)
			if err != nil {
				return nil, nil, err
			}
			schedule.Departures[leg] = at
		}
		schedules = append(schedules, schedule)
	}

	if err := s.schedules.CreateTrain(ctx, train, schedules); err != nil {
		return nil, nil, err
	}
	return train, schedules, nil
}

var _ UseCase = (*ScheduleService)(nil)
