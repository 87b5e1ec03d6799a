package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository interface {
	// Create stores the reservation, its seats and a pending payment.
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByEntryToken(ctx context.Context, token string) (*domain.Reservation, error)
	GetPayment(ctx context.Context, reservationID string) (*domain.Payment, error)
	// Transition moves the reservation from one status to another and
	// applies the matching payment or entry change. It fails with
	// ErrInvalidState when the stored status is no longer from.
	Transition(ctx context.Context, id string, from, to domain.ReservationStatus, at time.Time) (*domain.Reservation, error)
	ListPurchased(ctx context.Context, userID string) ([]domain.Reservation, error)
	ListStale(ctx context.Context, status domain.ReservationStatus, before time.Time, limit int) ([]domain.Reservation, error)
}

type PGReservationRepository struct {
	pgBase
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{pgBase{db: db}}
}

const reservationColumns = `id, user_id, schedule_id, requested_schedule_id, from_station_id, to_station_id,
departure_at, entry_token, total_price, discounted, status, created_at, updated_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.ScheduleID, &r.RequestedScheduleID, &r.FromStationID, &r.ToStationID,
		&r.DepartureAt, &r.EntryToken, &r.TotalPrice, &r.Discounted, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *PGReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		err := r.queryRow(ctx, `INSERT INTO reservations (id, user_id, schedule_id, requested_schedule_id, from_station_id, to_station_id,
	departure_at, entry_token, total_price, discounted, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`,
			reservation.ID, reservation.UserID, reservation.ScheduleID, reservation.RequestedScheduleID,
			reservation.FromStationID, reservation.ToStationID, reservation.DepartureAt, reservation.EntryToken,
			reservation.TotalPrice, reservation.Discounted, reservation.Status).
			Scan(&reservation.CreatedAt, &reservation.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		for _, seat := range reservation.Seats {
			if _, err := r.exec(ctx, `INSERT INTO reservation_seats (reservation_id, seat_row, seat_column) VALUES ($1, $2, $3)`,
				reservation.ID, seat.Row, string(seat.Column)); err != nil {
				return fmt.Errorf("insert seat %s: %w", seat, err)
			}
		}

		if _, err := r.exec(ctx, `INSERT INTO payments (reservation_id, user_id, amount) VALUES ($1, $2, $3)`,
			reservation.ID, reservation.UserID, reservation.TotalPrice); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *PGReservationRepository) GetByEntryToken(ctx context.Context, token string) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE entry_token = $1`, token)
}

func (r *PGReservationRepository) getOne(ctx context.Context, sql string, arg any) (*domain.Reservation, error) {
	res, err := scanReservation(r.queryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res.Seats, err = r.seats(ctx, res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *PGReservationRepository) seats(ctx context.Context, reservationID string) ([]domain.SeatID, error) {
	rows, err := r.query(ctx, `SELECT seat_row, seat_column FROM reservation_seats WHERE reservation_id = $1 ORDER BY seat_row, seat_column`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []domain.SeatID
	for rows.Next() {
		var (
			row    int
			column string
		)
		if err := rows.Scan(&row, &column); err != nil {
			return nil, err
		}
		if len(column) != 1 {
			return nil, fmt.Errorf("%w: column %q", domain.ErrInvalidSeat, column)
		}
		seats = append(seats, domain.SeatID{Row: row, Column: column[0]})
	}
	return seats, rows.Err()
}

func (r *PGReservationRepository) GetPayment(ctx context.Context, reservationID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.queryRow(ctx, `SELECT reservation_id, user_id, amount, captured, refunded, created_at, updated_at FROM payments WHERE reservation_id = $1`, reservationID).
		Scan(&p.ReservationID, &p.UserID, &p.Amount, &p.Captured, &p.Refunded, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *PGReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus, at time.Time) (*domain.Reservation, error) {
	var updated *domain.Reservation
	err := r.WithTx(ctx, func(ctx context.Context) error {
		res, err := scanReservation(r.queryRow(ctx, `UPDATE reservations SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
RETURNING `+reservationColumns, id, from, to, at))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.transitionMiss(ctx, id)
			}
			return fmt.Errorf("update reservation status: %w", err)
		}

		switch to {
		case domain.ReservationStatusCaptured:
			_, err = r.exec(ctx, `UPDATE payments SET captured = TRUE, updated_at = $2 WHERE reservation_id = $1`, id, at)
		case domain.ReservationStatusRefunded:
			_, err = r.exec(ctx, `UPDATE payments SET captured = FALSE, refunded = TRUE, updated_at = $2 WHERE reservation_id = $1`, id, at)
		case domain.ReservationStatusEntered:
			_, err = r.exec(ctx, `INSERT INTO entries (reservation_id, entered_at) VALUES ($1, $2)`, id, at)
			if isUniqueViolation(err) {
				return domain.ErrAlreadyEntered
			}
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", to, err)
		}

		if res.Seats, err = r.seats(ctx, res.ID); err != nil {
			return err
		}
		updated = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGReservationRepository) transitionMiss(ctx context.Context, id string) error {
	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check reservation: %w", err)
	}
	if !exists {
		return domain.ErrReservationNotFound
	}
	return domain.ErrInvalidState
}

func (r *PGReservationRepository) ListPurchased(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
WHERE user_id = $1 AND status IN ('CAPTURED', 'ENTERED')
ORDER BY created_at, id`, userID)
}

func (r *PGReservationRepository) ListStale(ctx context.Context, status domain.ReservationStatus, before time.Time, limit int) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
WHERE status = $1 AND created_at < $2
ORDER BY created_at, id
LIMIT $3`, status, before, limit)
}

func (r *PGReservationRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reservations = append(reservations, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reservations {
		if reservations[i].Seats, err = r.seats(ctx, reservations[i].ID); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
