package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SeatColumnLabels lists the column labels in scan order.
const SeatColumnLabels = "ABCDE"

// SeatID identifies a seat inside a schedule, e.g. "3-B".
type SeatID struct {
	Row    int
	Column byte
}

// ColumnIndex returns the zero-based position of the column label.
func (s SeatID) ColumnIndex() int {
	return strings.IndexByte(SeatColumnLabels, s.Column)
}

func (s SeatID) String() string {
	return fmt.Sprintf("%d-%c", s.Row, s.Column)
}

func (s SeatID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SeatID) UnmarshalText(text []byte) error {
	parsed, err := ParseSeatID(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSeatID(raw string) (SeatID, error) {
	rowPart, colPart, ok := strings.Cut(raw, "-")
	if !ok || len(colPart) != 1 {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	row, err := strconv.Atoi(rowPart)
	if err != nil || row < 1 {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	seat := SeatID{Row: row, Column: colPart[0]}
	if seat.ColumnIndex() < 0 {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	return seat, nil
}

// SortSeats orders seats by row, then by column.
func SortSeats(seats []SeatID) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].ColumnIndex() < seats[j].ColumnIndex()
	})
}

func SeatStrings(seats []SeatID) []string {
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.String())
	}
	return out
}
