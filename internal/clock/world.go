package clock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
)

const (
	// WorldSpeed is how many in-world minutes pass per real second.
	WorldSpeed = 10
	// EndOfDay is the terminal value of the departure clock.
	EndOfDay = "24:00"
)

// EpochSource returns the instant the in-world clock started at.
type EpochSource interface {
	InitializedAt(ctx context.Context) (time.Time, error)
}

// World maps real elapsed time since the epoch to the accelerated departure
// clock used for schedule eligibility, formatted as "HH:MM".
type World struct {
	base  Clock
	epoch EpochSource
}

func NewWorld(base Clock, epoch EpochSource) *World {
	return &World{base: base, epoch: epoch}
}

// Current returns the departure clock reading.
func (w *World) Current(ctx context.Context) (string, error) {
	start, err := w.epoch.InitializedAt(ctx)
	if err != nil {
		return "", fmt.Errorf("load clock epoch: %w", err)
	}
	return WorldTime(w.base.Now().Sub(start)), nil
}

// WorldTime converts real elapsed time into the departure clock. One real
// second is ten in-world minutes and the clock stops at 24:00.
func WorldTime(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	worldMinutes := int64(elapsed * WorldSpeed / time.Second)
	hours := worldMinutes / 60
	if hours >= 24 {
		return EndOfDay
	}
	return fmt.Sprintf("%02d:%02d", hours, worldMinutes%60)
}

// ParseHHMM returns the number of minutes since 00:00.
func ParseHHMM(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, value)
	}
	return h*60 + m, nil
}

// AddMinutes shifts an "HH:MM" value. Hours are not wrapped at 24 so that
// values keep sorting lexically.
func AddMinutes(value string, minutes int) (string, error) {
	total, err := ParseHHMM(value)
	if err != nil {
		return "", err
	}
	total += minutes
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}
