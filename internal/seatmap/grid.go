// Package seatmap holds the per-schedule seat bitmap. One bit per physical
// seat is shared by every leg of the schedule; a set bit means the seat is
// taken.
package seatmap

import (
	"fmt"

	"github.com/Domenick1991/railseat/internal/domain"
)

// MaxColumns is the widest supported seat row (A..E).
const MaxColumns = len(domain.SeatColumnLabels)

type Grid struct {
	rows    int
	columns int
	bits    []byte
}

// New returns an empty grid with every seat free.
func New(rows, columns int) (*Grid, error) {
	if rows <= 0 || columns <= 0 || columns > MaxColumns {
		return nil, fmt.Errorf("invalid seat grid %dx%d", rows, columns)
	}
	return &Grid{rows: rows, columns: columns, bits: make([]byte, byteLen(rows*columns))}, nil
}

// FromBytes wraps a persisted bitmap. The slice is copied.
func FromBytes(rows, columns int, bitmap []byte) (*Grid, error) {
	g, err := New(rows, columns)
	if err != nil {
		return nil, err
	}
	if len(bitmap) != len(g.bits) {
		return nil, fmt.Errorf("seat bitmap has %d bytes, want %d for %dx%d", len(bitmap), len(g.bits), rows, columns)
	}
	copy(g.bits, bitmap)
	return g, nil
}

func byteLen(seats int) int {
	return (seats + 7) / 8
}

// Bytes returns a copy of the bitmap for persistence.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.bits))
	copy(out, g.bits)
	return out
}

func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) Columns() int  { return g.columns }
func (g *Grid) Capacity() int { return g.rows * g.columns }

// Free counts the seats that are not taken.
func (g *Grid) Free() int {
	free := 0
	for i := 0; i < g.Capacity(); i++ {
		if !g.taken(i) {
			free++
		}
	}
	return free
}

func (g *Grid) index(seat domain.SeatID) (int, error) {
	col := seat.ColumnIndex()
	if seat.Row < 1 || seat.Row > g.rows || col < 0 || col >= g.columns {
		return 0, fmt.Errorf("%w: %s outside %dx%d", domain.ErrInvalidSeat, seat, g.rows, g.columns)
	}
	return (seat.Row-1)*g.columns + col, nil
}

func (g *Grid) seatAt(i int) domain.SeatID {
	return domain.SeatID{Row: i/g.columns + 1, Column: domain.SeatColumnLabels[i%g.columns]}
}

func (g *Grid) taken(i int) bool {
	return g.bits[i/8]&(1<<(i%8)) != 0
}

func (g *Grid) set(i int, taken bool) {
	if taken {
		g.bits[i/8] |= 1 << (i % 8)
		return
	}
	g.bits[i/8] &^= 1 << (i % 8)
}

// IsFree reports whether the seat is available.
func (g *Grid) IsFree(seat domain.SeatID) (bool, error) {
	i, err := g.index(seat)
	if err != nil {
		return false, err
	}
	return !g.taken(i), nil
}

// Pick selects the first count free seats scanning rows in ascending order
// and columns A..E within a row. It does not modify the grid. Seats may be
// split across rows or leave gaps. A shortfall yields ErrInsufficientSeats,
// never a partial set.
func (g *Grid) Pick(count int) ([]domain.SeatID, error) {
	if count <= 0 || count > g.Capacity() {
		return nil, fmt.Errorf("%w: %d for capacity %d", domain.ErrInvalidPartySize, count, g.Capacity())
	}
	picked := make([]domain.SeatID, 0, count)
	for i := 0; i < g.Capacity() && len(picked) < count; i++ {
		if !g.taken(i) {
			picked = append(picked, g.seatAt(i))
		}
	}
	if len(picked) < count {
		return nil, fmt.Errorf("%w: want %d, %d free", domain.ErrInsufficientSeats, count, len(picked))
	}
	return picked, nil
}

// Occupy marks seats as taken. Either all seats are marked or none are.
func (g *Grid) Occupy(seats []domain.SeatID) error {
	idx, err := g.indexes(seats)
	if err != nil {
		return err
	}
	for k, i := range idx {
		if g.taken(i) {
			return fmt.Errorf("%w: %s", domain.ErrSeatTaken, seats[k])
		}
	}
	for _, i := range idx {
		g.set(i, true)
	}
	return nil
}

// Vacate frees seats. Freeing a seat that is not taken is rejected and
// leaves the grid unchanged.
func (g *Grid) Vacate(seats []domain.SeatID) error {
	idx, err := g.indexes(seats)
	if err != nil {
		return err
	}
	for k, i := range idx {
		if !g.taken(i) {
			return fmt.Errorf("%w: %s", domain.ErrSeatNotReserved, seats[k])
		}
	}
	for _, i := range idx {
		g.set(i, false)
	}
	return nil
}

func (g *Grid) indexes(seats []domain.SeatID) ([]int, error) {
	idx := make([]int, 0, len(seats))
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		i, err := g.index(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[i]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", domain.ErrInvalidSeat, s)
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	return idx, nil
}
