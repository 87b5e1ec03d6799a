// Package inventory allocates and releases seats of a schedule. The seat
// bitmap lives in a Store and every change is written with a
// compare-and-set on the row version, so concurrent reserves on one schedule
// can never hand out the same seat even when the schedule lock is bypassed.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/route"
	"github.com/Domenick1991/railseat/internal/seatmap"
)

// Snapshot is one persisted version of a schedule's seat bitmap.
type Snapshot struct {
	Rows    int
	Columns int
	Bitmap  []byte
	Version int64
}

type Store interface {
	Load(ctx context.Context, scheduleID string) (Snapshot, error)
	// CompareAndSwap writes bitmap only if the stored version still equals
	// version, and reports whether it did.
	CompareAndSwap(ctx context.Context, scheduleID string, version int64, bitmap []byte) (bool, error)
}

const defaultMaxAttempts = 32

type Inventory struct {
	store       Store
	maxAttempts int
}

type Option func(*Inventory)

// WithMaxAttempts bounds how many lost compare-and-set races a single call
// tolerates before giving up with ErrInventoryContention.
func WithMaxAttempts(n int) Option {
	return func(i *Inventory) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

func New(store Store, opts ...Option) *Inventory {
	inv := &Inventory{store: store, maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Reserve takes count seats from the schedule using the greedy picker.
// A party larger than the train is reported as insufficiency so that the
// caller may try a bigger train later on.
func (i *Inventory) Reserve(ctx context.Context, scheduleID string, count int) ([]domain.SeatID, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPartySize, count)
	}

	var picked []domain.SeatID
	err := i.update(ctx, scheduleID, func(g *seatmap.Grid) error {
		if count > g.Capacity() {
			return fmt.Errorf("%w: party of %d exceeds capacity %d", domain.ErrInsufficientSeats, count, g.Capacity())
		}
		seats, err := g.Pick(count)
		if err != nil {
			return err
		}
		if err := g.Occupy(seats); err != nil {
			return err
		}
		picked = seats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return picked, nil
}

// Release returns seats to the free pool. An empty list is a no-op. Seats
// that are not currently taken are rejected and nothing is released.
func (i *Inventory) Release(ctx context.Context, scheduleID string, seats []domain.SeatID) error {
	if len(seats) == 0 {
		return nil
	}
	err := i.update(ctx, scheduleID, func(g *seatmap.Grid) error {
		return g.Vacate(seats)
	})
	if errors.Is(err, domain.ErrSeatNotReserved) {
		log.Printf("inventory: refusing release on schedule %s: %v", scheduleID, err)
	}
	return err
}

// Available returns the free and total seat counts of a schedule.
func (i *Inventory) Available(ctx context.Context, scheduleID string) (available, total int, err error) {
	g, _, err := i.load(ctx, scheduleID)
	if err != nil {
		return 0, 0, err
	}
	return g.Free(), g.Capacity(), nil
}

// Occupancy reports availability between two stations. A seat is booked
// for the whole loop, so every leg has the schedule-wide free count; the
// trip is only resolved to reject invalid station pairs.
func (i *Inventory) Occupancy(ctx context.Context, scheduleID, from, to string) (available, total int, err error) {
	if _, err := route.LegsBetween(from, to); err != nil {
		return 0, 0, err
	}
	return i.Available(ctx, scheduleID)
}

func (i *Inventory) load(ctx context.Context, scheduleID string) (*seatmap.Grid, int64, error) {
	snap, err := i.store.Load(ctx, scheduleID)
	if err != nil {
		return nil, 0, err
	}
	g, err := seatmap.FromBytes(snap.Rows, snap.Columns, snap.Bitmap)
	if err != nil {
		return nil, 0, fmt.Errorf("schedule %s: %w", scheduleID, err)
	}
	return g, snap.Version, nil
}

func (i *Inventory) update(ctx context.Context, scheduleID string, mutate func(*seatmap.Grid) error) error {
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		g, version, err := i.load(ctx, scheduleID)
		if err != nil {
			return err
		}
		if err := mutate(g); err != nil {
			return err
		}
		ok, err := i.store.CompareAndSwap(ctx, scheduleID, version, g.Bytes())
		if err != nil {
			return fmt.Errorf("write seats of schedule %s: %w", scheduleID, err)
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: schedule %s after %d attempts", domain.ErrInventoryContention, scheduleID, i.maxAttempts)
}
