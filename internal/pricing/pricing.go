package pricing

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/railseat/internal/domain"
)

// DefaultBasePrice is the fare of one seat over one leg.
const DefaultBasePrice = 1000

type Quote struct {
	Total      int
	FullPrice  int
	Discounted bool
}

type Calculator struct {
	basePrice int
}

func NewCalculator(basePrice int) Calculator {
	if basePrice <= 0 {
		basePrice = DefaultBasePrice
	}
	return Calculator{basePrice: basePrice}
}

// Quote prices a party. A single seat always pays full price. A larger
// party pays half when the picker could not seat it together: either the
// seats use more rows than ceil(n/columns), or a row has a column gap.
func (c Calculator) Quote(seats []domain.SeatID, columns, distance int) (Quote, error) {
	n := len(seats)
	if n == 0 {
		return Quote{}, errors.New("no seats to price")
	}
	if columns <= 0 {
		return Quote{}, fmt.Errorf("invalid seat column count %d", columns)
	}
	if distance <= 0 {
		return Quote{}, fmt.Errorf("%w: distance %d", domain.ErrInvalidRoute, distance)
	}

	full := c.basePrice * distance * n
	if n == 1 || !scattered(seats, columns) {
		return Quote{Total: full, FullPrice: full}, nil
	}
	return Quote{Total: full / 2, FullPrice: full, Discounted: true}, nil
}

func scattered(seats []domain.SeatID, columns int) bool {
	sorted := make([]domain.SeatID, len(seats))
	copy(sorted, seats)
	domain.SortSeats(sorted)

	allowedGroups := (len(sorted) + columns - 1) / columns
	rows := make(map[int]struct{}, len(sorted))
	for _, s := range sorted {
		rows[s.Row] = struct{}{}
	}
	if len(rows) > allowedGroups {
		return true
	}

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Row == cur.Row && cur.ColumnIndex() != prev.ColumnIndex()+1 {
			return true
		}
	}
	return false
}
