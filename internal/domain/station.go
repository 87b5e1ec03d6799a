package domain

import "time"

type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrainModel struct {
	Name        string `json:"name"`
	SeatRows    int    `json:"seat_rows"`
	SeatColumns int    `json:"seat_columns"`
}

// Capacity is the number of seats in one schedule of a train of this model.
func (m TrainModel) Capacity() int {
	return m.SeatRows * m.SeatColumns
}

type Train struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Model TrainModel `json:"model"`
}

// LegCount is the number of directional legs on the loop A-B-C-D-E-D-C-B-A.
const LegCount = 8

// Schedule is one run of a train around the loop. Departures holds the
// "HH:MM" departure time of each leg in loop order.
type Schedule struct {
	ID         string           `json:"id"`
	Train      Train            `json:"train"`
	Departures [LegCount]string `json:"departures"`
}

// FirstDeparture orders schedules chronologically.
func (s Schedule) FirstDeparture() string {
	return s.Departures[0]
}

type User struct {
	ID      string
	Name    string
	IsAdmin bool
	// LastActivityAt is nil until the user first reserves, pays or polls
	// the waiting room.
	LastActivityAt *time.Time
}
