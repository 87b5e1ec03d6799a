package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "RESERVED"
	ReservationStatusCaptured ReservationStatus = "CAPTURED"
	ReservationStatusEntered  ReservationStatus = "ENTERED"
	ReservationStatusRefunded ReservationStatus = "REFUNDED"
	ReservationStatusVoided   ReservationStatus = "VOIDED"
)

// Holds reports whether seats of a reservation in this status are still
// counted as taken in the inventory.
func (s ReservationStatus) Holds() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusCaptured, ReservationStatusEntered:
		return true
	}
	return false
}

// Reservation is a set of seats on the schedule that actually serves the
// trip. RequestedScheduleID differs from ScheduleID when the request was
// redirected to a later departure.
type Reservation struct {
	ID                  string
	UserID              string
	ScheduleID          string
	RequestedScheduleID string
	FromStationID       string
	ToStationID         string
	DepartureAt         string
	EntryToken          string
	Seats               []SeatID
	TotalPrice          int
	Discounted          bool
	Status              ReservationStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Recommended reports whether the reservation landed on a later schedule
// than the one asked for.
func (r Reservation) Recommended() bool {
	return r.RequestedScheduleID != "" && r.RequestedScheduleID != r.ScheduleID
}

type Payment struct {
	ReservationID string
	UserID        string
	Amount        int
	Captured      bool
	Refunded      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Entry struct {
	ReservationID string
	EnteredAt     time.Time
}
