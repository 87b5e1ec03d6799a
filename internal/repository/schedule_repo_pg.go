package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/seatmap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Schedule, error)
	// Window returns the schedule id followed by at most limit schedules
	// whose first departure is strictly later, in chronological order.
	Window(ctx context.Context, id string, limit int) ([]domain.Schedule, error)
	ListDepartingFrom(ctx context.Context, hhmm string, limit int) ([]domain.Schedule, error)
	GetTrainModel(ctx context.Context, name string) (*domain.TrainModel, error)
	ListTrainModels(ctx context.Context) ([]string, error)
	CreateTrain(ctx context.Context, train *domain.Train, schedules []domain.Schedule) error
}

type PGScheduleRepository struct {
	pgBase
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &PGScheduleRepository{pgBase{db: db}}
}

const scheduleColumns = `s.id, s.departures, t.id, t.name, m.name, m.seat_rows, m.seat_columns
FROM train_schedules s
JOIN trains t ON t.id = s.train_id
JOIN train_models m ON m.name = t.model_name`

func scanSchedule(row pgx.Row) (domain.Schedule, error) {
	var (
		s          domain.Schedule
		departures []string
	)
	if err := row.Scan(&s.ID, &departures, &s.Train.ID, &s.Train.Name, &s.Train.Model.Name, &s.Train.Model.SeatRows, &s.Train.Model.SeatColumns); err != nil {
		return domain.Schedule{}, err
	}
	if len(departures) != domain.LegCount {
		return domain.Schedule{}, fmt.Errorf("schedule %s has %d departures", s.ID, len(departures))
	}
	copy(s.Departures[:], departures)
	return s, nil
}

func (r *PGScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	s, err := scanSchedule(r.queryRow(ctx, `SELECT `+scheduleColumns+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &s, nil
}

func (r *PGScheduleRepository) Window(ctx context.Context, id string, limit int) ([]domain.Schedule, error) {
	first, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	window := []domain.Schedule{*first}
	if limit <= 0 {
		return window, nil
	}

	later, err := r.list(ctx, `SELECT `+scheduleColumns+`
WHERE s.first_departure > $1
ORDER BY s.first_departure, s.id
LIMIT $2`, first.FirstDeparture(), limit)
	if err != nil {
		return nil, fmt.Errorf("schedule window: %w", err)
	}
	return append(window, later...), nil
}

func (r *PGScheduleRepository) ListDepartingFrom(ctx context.Context, hhmm string, limit int) ([]domain.Schedule, error) {
	schedules, err := r.list(ctx, `SELECT `+scheduleColumns+`
WHERE s.first_departure >= $1
ORDER BY s.first_departure, s.id
LIMIT $2`, hhmm, limit)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

func (r *PGScheduleRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Schedule, error) {
	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *PGScheduleRepository) GetTrainModel(ctx context.Context, name string) (*domain.TrainModel, error) {
	var m domain.TrainModel
	err := r.queryRow(ctx, `SELECT name, seat_rows, seat_columns FROM train_models WHERE name = $1`, name).
		Scan(&m.Name, &m.SeatRows, &m.SeatColumns)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTrainModelNotFound
		}
		return nil, fmt.Errorf("get train model: %w", err)
	}
	return &m, nil
}

func (r *PGScheduleRepository) ListTrainModels(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, `SELECT name FROM train_models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list train models: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list train models: %w", err)
	}
	return names, nil
}

// CreateTrain stores the train, its schedules and an all-free seat bitmap
// for every schedule in one transaction.
func (r *PGScheduleRepository) CreateTrain(ctx context.Context, train *domain.Train, schedules []domain.Schedule) error {
	empty, err := seatmap.New(train.Model.SeatRows, train.Model.SeatColumns)
	if err != nil {
		return err
	}

	return r.WithTx(ctx, func(ctx context.Context) error {
		err := r.queryRow(ctx, `INSERT INTO trains (name, model_name) VALUES ($1, $2) RETURNING id`, train.Name, train.Model.Name).
			Scan(&train.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrTrainExists
			}
			return fmt.Errorf("insert train: %w", err)
		}

		for i := range schedules {
			schedules[i].Train = *train
			s := schedules[i]
			if _, err := r.exec(ctx, `INSERT INTO train_schedules (id, train_id, first_departure, departures) VALUES ($1, $2, $3, $4)`,
				s.ID, train.ID, s.FirstDeparture(), s.Departures[:]); err != nil {
				if isUniqueViolation(err) {
					return domain.ErrTrainExists
				}
				return fmt.Errorf("insert schedule %s: %w", s.ID, err)
			}
			if _, err := r.exec(ctx, `INSERT INTO schedule_inventory (schedule_id, seat_rows, seat_columns, bitmap) VALUES ($1, $2, $3, $4)`,
				s.ID, empty.Rows(), empty.Columns(), empty.Bytes()); err != nil {
				return fmt.Errorf("insert inventory %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

var _ ScheduleRepository = (*PGScheduleRepository)(nil)
