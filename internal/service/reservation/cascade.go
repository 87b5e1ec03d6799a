package reservation

import (
	"context"
	"errors"
	"log"

	"github.com/Domenick1991/railseat/internal/domain"
)

type allocation struct {
	schedule domain.Schedule
	seats    []domain.SeatID
}

// cascade walks the window in order and returns the first schedule that
// can seat count passengers, with its lock still held. A lock timeout ends
// the walk at once; a full schedule hands over to the next one.
func (s *Service) cascade(ctx context.Context, window []domain.Schedule, count int) (*allocation, error) {
	for _, schedule := range window {
		if err := s.locks.Acquire(ctx, schedule.ID); err != nil {
			return nil, err
		}

		seats, err := s.inventory.Reserve(ctx, schedule.ID, count)
		if err == nil {
			return &allocation{schedule: schedule, seats: seats}, nil
		}

		s.releaseLock(ctx, schedule.ID)
		if !errors.Is(err, domain.ErrInsufficientSeats) {
			return nil, err
		}
		log.Printf("reservation: schedule %s cannot seat %d, trying next", schedule.ID, count)
	}
	return nil, domain.ErrNoSeatAvailable
}
