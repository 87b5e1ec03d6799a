package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	CodeLockTimeout        = "LOCK_TIMEOUT"
	CodeNoSeatAvailable    = "NO_SEAT_AVAILABLE"
	CodeInvalidReservation = "INVALID_RESERVATION"
	CodeNotCaptured        = "NOT_CAPTURED"
	CodeAlreadyEntered     = "ALREADY_ENTERED"
)

type failResponse struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
}

// failCodes are business outcomes reported with 200 and status "fail".
var failCodes = []struct {
	err  error
	code string
}{
	{domain.ErrLockTimeout, CodeLockTimeout},
	{domain.ErrNoSeatAvailable, CodeNoSeatAvailable},
	{domain.ErrInvalidReservation, CodeInvalidReservation},
	{domain.ErrNotCaptured, CodeNotCaptured},
	{domain.ErrAlreadyEntered, CodeAlreadyEntered},
}

func writeError(c *gin.Context, err error) {
	for _, fc := range failCodes {
		if errors.Is(err, fc.err) {
			c.JSON(http.StatusOK, failResponse{Status: "fail", ErrorCode: fc.code})
			return
		}
	}
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPartySize),
		errors.Is(err, domain.ErrInvalidStation),
		errors.Is(err, domain.ErrInvalidRoute),
		errors.Is(err, domain.ErrInvalidSeat),
		errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrInvalidTrain),
		errors.Is(err, domain.ErrTrainModelNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScheduleNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrTrainExists),
		errors.Is(err, domain.ErrInventoryContention):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
