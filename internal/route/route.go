// Package route describes the fixed loop A-B-C-D-E-D-C-B-A that every train
// runs, and answers hop-distance and leg lookups over it.
package route

import (
	"fmt"

	"github.com/Domenick1991/railseat/internal/domain"
)

var stations = []domain.Station{
	{ID: "A", Name: "Arena"},
	{ID: "B", Name: "Bridge"},
	{ID: "C", Name: "Cave"},
	{ID: "D", Name: "Dock"},
	{ID: "E", Name: "Edge"},
}

// slots is the loop unrolled once; positions after E are the return twins.
var slots = [domain.LegCount + 1]string{"A", "B", "C", "D", "E", "D", "C", "B", "A"}

const turnaround = 4

// Leg is one directional segment between adjacent stations. Leg i runs from
// slot i to slot i+1, so its index is also the index into
// domain.Schedule.Departures.
type Leg struct {
	Index int
	From  string
	To    string
}

func (l Leg) String() string {
	return l.From + "->" + l.To
}

// Stations returns the reference station list.
func Stations() []domain.Station {
	out := make([]domain.Station, len(stations))
	copy(out, stations)
	return out
}

func Station(id string) (domain.Station, error) {
	for _, s := range stations {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Station{}, fmt.Errorf("%w: %q", domain.ErrInvalidStation, id)
}

// Legs returns all legs in loop order.
func Legs() []Leg {
	legs := make([]Leg, domain.LegCount)
	for i := range legs {
		legs[i] = Leg{Index: i, From: slots[i], To: slots[i+1]}
	}
	return legs
}

// span resolves a trip onto the unrolled loop. When the origin sorts after
// the destination the trip is on the return half, so both ends are mapped to
// their return twins (E has none; it is the turnaround).
func span(from, to string) (start, end int, err error) {
	if _, err := Station(from); err != nil {
		return 0, 0, err
	}
	if _, err := Station(to); err != nil {
		return 0, 0, err
	}
	if from == to {
		return 0, 0, fmt.Errorf("%w: %s->%s", domain.ErrInvalidRoute, from, to)
	}

	start = forwardIndex(from)
	end = forwardIndex(to)
	if from > to {
		start = returnIndex(from)
		end = returnIndex(to)
	}
	return start, end, nil
}

func forwardIndex(id string) int {
	for i := 0; i <= turnaround; i++ {
		if slots[i] == id {
			return i
		}
	}
	return -1
}

func returnIndex(id string) int {
	for i := len(slots) - 1; i >= turnaround; i-- {
		if slots[i] == id {
			return i
		}
	}
	return -1
}

// Distance is the number of legs ridden between two stations.
func Distance(from, to string) (int, error) {
	start, end, err := span(from, to)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// LegsBetween returns the legs ridden between two stations in travel order.
func LegsBetween(from, to string) ([]Leg, error) {
	start, end, err := span(from, to)
	if err != nil {
		return nil, err
	}
	return Legs()[start:end], nil
}

// DepartureLeg is the leg the passenger boards on.
func DepartureLeg(from, to string) (Leg, error) {
	legs, err := LegsBetween(from, to)
	if err != nil {
		return Leg{}, err
	}
	return legs[0], nil
}

// DepartureAt returns the departure time of the boarding leg on a schedule.
func DepartureAt(s domain.Schedule, from, to string) (string, error) {
	leg, err := DepartureLeg(from, to)
	if err != nil {
		return "", err
	}
	return s.Departures[leg.Index], nil
}
