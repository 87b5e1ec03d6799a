package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Domenick1991/railseat/internal/kafka"
)

// Notifier turns lifecycle events into passenger notices.
type Notifier struct {
	logger *log.Logger
}

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{logger: log.New(w, "notify: ", log.LstdFlags)}
}

func (n *Notifier) Send(ctx context.Context, event kafka.ReservationEvent) error {
	if event.ReservationID == "" {
		return fmt.Errorf("event %q has no reservation id", event.Type)
	}
	n.logger.Printf("user %s: %s", event.UserID, Message(event))
	return nil
}

func Message(event kafka.ReservationEvent) string {
	seats := strings.Join(event.Seats, ", ")
	switch event.Type {
	case kafka.EventReservationCreated:
		return fmt.Sprintf("reservation %s held on %s seats [%s], %d to pay", event.ReservationID, event.ScheduleID, seats, event.Amount)
	case kafka.EventReservationPurchased:
		return fmt.Sprintf("reservation %s paid, have a nice trip on %s", event.ReservationID, event.ScheduleID)
	case kafka.EventReservationVoided:
		return fmt.Sprintf("reservation %s was cancelled, payment declined", event.ReservationID)
	case kafka.EventReservationExpired:
		return fmt.Sprintf("reservation %s expired before payment", event.ReservationID)
	case kafka.EventReservationEntered:
		return fmt.Sprintf("welcome aboard %s", event.ScheduleID)
	case kafka.EventReservationRefunded:
		return fmt.Sprintf("reservation %s refunded, %d returned", event.ReservationID, event.Amount)
	default:
		return fmt.Sprintf("reservation %s: %s", event.ReservationID, event.Type)
	}
}
