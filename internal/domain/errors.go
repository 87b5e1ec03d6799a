package domain

import "errors"

var (
	// contention
	ErrLockTimeout         = errors.New("lock timeout")
	ErrInventoryContention = errors.New("inventory contention")

	// capacity
	ErrInsufficientSeats = errors.New("insufficient seats")
	ErrNoSeatAvailable   = errors.New("no seat available")

	// input
	ErrInvalidPartySize = errors.New("invalid party size")
	ErrInvalidSeat      = errors.New("invalid seat")
	ErrInvalidStation   = errors.New("invalid station")
	ErrInvalidRoute     = errors.New("invalid route")
	ErrInvalidTime      = errors.New("invalid time")
	ErrInvalidTrain     = errors.New("invalid train")

	// lookups
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrTrainModelNotFound  = errors.New("train model not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTrainExists         = errors.New("train already exists")

	// lifecycle
	ErrNotOwner           = errors.New("reservation belongs to another user")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrInvalidState       = errors.New("reservation is not in the expected state")
	ErrNotCaptured        = errors.New("payment not captured")
	ErrAlreadyEntered     = errors.New("already entered")

	// consistency
	ErrSeatNotReserved = errors.New("seat is not reserved")
	ErrSeatTaken       = errors.New("seat is already taken")
)
