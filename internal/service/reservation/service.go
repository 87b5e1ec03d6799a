package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/kafka"
	"github.com/Domenick1991/railseat/internal/pricing"
	"github.com/Domenick1991/railseat/internal/repository"
	"github.com/Domenick1991/railseat/internal/route"
	"github.com/google/uuid"
)

type UseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error)
	Purchase(ctx context.Context, userID, reservationID string) (*PurchaseResult, error)
	Entry(ctx context.Context, entryToken string) (EntryStatus, error)
	Refund(ctx context.Context, userID, reservationID string) error
	ListPurchased(ctx context.Context, userID string) ([]domain.Reservation, error)
	ExpireStale(ctx context.Context) ([]domain.Reservation, error)
}

type Inventory interface {
	Reserve(ctx context.Context, scheduleID string, count int) ([]domain.SeatID, error)
	Release(ctx context.Context, scheduleID string, seats []domain.SeatID) error
}

type Locker interface {
	Acquire(ctx context.Context, scheduleID string) error
	Release(ctx context.Context, scheduleID string) error
}

type PaymentGateway interface {
	Capture(ctx context.Context, userID string, amount int) (bool, error)
	Refund(ctx context.Context, userID string, amount int) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// WorldClock reports the in-world "HH:MM" time.
type WorldClock interface {
	Current(ctx context.Context) (string, error)
}

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRecommend Outcome = "recommend"
)

type PurchaseStatus string

const (
	PurchaseSuccess PurchaseStatus = "success"
	PurchaseFailed  PurchaseStatus = "failed"
)

type EntryStatus string

const (
	EntrySuccess       EntryStatus = "success"
	EntryTrainDeparted EntryStatus = "train_departed"
)

const (
	DefaultMaxLookahead = 10
	DefaultHoldTTL      = 10 * time.Minute
	staleBatchSize      = 100
)

type ReserveInput struct {
	UserID        string
	ScheduleID    string `json:"schedule_id"`
	FromStationID string `json:"from_station_id"`
	ToStationID   string `json:"to_station_id"`
	NumPeople     int    `json:"num_people"`
}

type ReserveResult struct {
	Outcome     Outcome
	Reservation *domain.Reservation
}

type PurchaseResult struct {
	Status     PurchaseStatus
	EntryToken string
	Message    string
}

type Service struct {
	schedules          repository.ScheduleRepository
	reservations       repository.ReservationRepository
	inventory          Inventory
	locks              Locker
	payments           PaymentGateway
	producer           Producer
	world              WorldClock
	clock              clock.Clock
	pricing            pricing.Calculator
	reservationTopic   string
	notificationsTopic string
	maxLookahead       int
	holdTTL            time.Duration
}

type Option func(*Service)

// WithMaxLookahead sets how many later schedules the cascade may try.
func WithMaxLookahead(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxLookahead = n
		}
	}
}

// WithHoldTTL sets how long an unpaid reservation keeps its seats.
func WithHoldTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.holdTTL = ttl
		}
	}
}

func WithNotificationsTopic(topic string) Option {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

func WithPricing(calc pricing.Calculator) Option {
	return func(s *Service) {
		s.pricing = calc
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func NewService(
	schedules repository.ScheduleRepository,
	reservations repository.ReservationRepository,
	inventory Inventory,
	locks Locker,
	payments PaymentGateway,
	producer Producer,
	world WorldClock,
	reservationTopic string,
	opts ...Option,
) *Service {
	s := &Service{
		schedules:        schedules,
		reservations:     reservations,
		inventory:        inventory,
		locks:            locks,
		payments:         payments,
		producer:         producer,
		world:            world,
		clock:            clock.NewSystem(),
		pricing:          pricing.NewCalculator(pricing.DefaultBasePrice),
		reservationTopic: reservationTopic,
		maxLookahead:     DefaultMaxLookahead,
		holdTTL:          DefaultHoldTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve seats num_people on the requested schedule or, when it is full,
// on the first later schedule that has room. The schedule lock stays held
// until the reservation is purchased, voided or expired.
func (s *Service) Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	if input.NumPeople <= 0 {
		return nil, domain.ErrInvalidPartySize
	}
	distance, err := route.Distance(input.FromStationID, input.ToStationID)
	if err != nil {
		return nil, err
	}

	window, err := s.schedules.Window(ctx, input.ScheduleID, s.maxLookahead)
	if err != nil {
		return nil, err
	}

	alloc, err := s.cascade(ctx, window, input.NumPeople)
	if err != nil {
		return nil, err
	}
	schedule := alloc.schedule

	res, err := s.build(input, alloc, distance)
	if err != nil {
		s.rollback(ctx, schedule.ID, alloc.seats)
		return nil, err
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		s.rollback(ctx, schedule.ID, alloc.seats)
		return nil, fmt.Errorf("persist reservation: %w", err)
	}

	s.publish(ctx, kafka.EventReservationCreated, res)

	outcome := OutcomeSuccess
	if res.Recommended() {
		outcome = OutcomeRecommend
		log.Printf("reservation: %s redirected from %s to %s", res.ID, input.ScheduleID, schedule.ID)
	}
	return &ReserveResult{Outcome: outcome, Reservation: res}, nil
}

func (s *Service) build(input ReserveInput, alloc *allocation, distance int) (*domain.Reservation, error) {
	schedule := alloc.schedule
	departureAt, err := route.DepartureAt(schedule, input.FromStationID, input.ToStationID)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.Quote(alloc.seats, schedule.Train.Model.SeatColumns, distance)
	if err != nil {
		return nil, fmt.Errorf("price reservation: %w", err)
	}

	seats := append([]domain.SeatID(nil), alloc.seats...)
	domain.SortSeats(seats)
	return &domain.Reservation{
		ID:                  uuid.NewString(),
		UserID:              input.UserID,
		ScheduleID:          schedule.ID,
		RequestedScheduleID: input.ScheduleID,
		FromStationID:       input.FromStationID,
		ToStationID:         input.ToStationID,
		DepartureAt:         departureAt,
		EntryToken:          uuid.NewString(),
		Seats:               seats,
		TotalPrice:          quote.Total,
		Discounted:          quote.Discounted,
		Status:              domain.ReservationStatusReserved,
	}, nil
}

// rollback frees what a failed Reserve took.
func (s *Service) rollback(ctx context.Context, scheduleID string, seats []domain.SeatID) {
	if err := s.inventory.Release(context.WithoutCancel(ctx), scheduleID, seats); err != nil {
		log.Printf("reservation: release seats of schedule %s: %v", scheduleID, err)
	}
	s.releaseLock(ctx, scheduleID)
}

func (s *Service) releaseLock(ctx context.Context, scheduleID string) {
	if err := s.locks.Release(context.WithoutCancel(ctx), scheduleID); err != nil {
		log.Printf("reservation: %v", err)
	}
}

func (s *Service) releaseSeats(ctx context.Context, res *domain.Reservation) error {
	if err := s.inventory.Release(context.WithoutCancel(ctx), res.ScheduleID, res.Seats); err != nil {
		return fmt.Errorf("release seats of reservation %s: %w", res.ID, err)
	}
	return nil
}

// Purchase captures the payment of a held reservation. Whoever moves the
// reservation out of RESERVED also releases its schedule lock.
func (s *Service) Purchase(ctx context.Context, userID, reservationID string) (*PurchaseResult, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	if res.Status != domain.ReservationStatusReserved {
		return nil, domain.ErrInvalidState
	}

	payment, err := s.reservations.GetPayment(ctx, res.ID)
	if err != nil {
		return nil, err
	}

	accepted, captureErr := s.payments.Capture(ctx, userID, payment.Amount)
	if captureErr == nil && accepted {
		captured, err := s.reservations.Transition(ctx, res.ID, domain.ReservationStatusReserved, domain.ReservationStatusCaptured, s.clock.Now())
		if err != nil {
			if refundErr := s.payments.Refund(context.WithoutCancel(ctx), userID, payment.Amount); refundErr != nil {
				log.Printf("reservation: refund of lost capture %s: %v", res.ID, refundErr)
			}
			return nil, err
		}
		s.releaseLock(ctx, res.ScheduleID)
		s.publish(ctx, kafka.EventReservationPurchased, captured)
		return &PurchaseResult{Status: PurchaseSuccess, EntryToken: captured.EntryToken}, nil
	}

	voided, err := s.void(ctx, res)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventReservationVoided, voided)
	if captureErr != nil {
		return nil, fmt.Errorf("capture payment: %w", captureErr)
	}
	return &PurchaseResult{Status: PurchaseFailed, Message: "payment was declined"}, nil
}

// void cancels a RESERVED reservation and frees its seats and lock.
func (s *Service) void(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	voided, err := s.reservations.Transition(ctx, res.ID, domain.ReservationStatusReserved, domain.ReservationStatusVoided, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.releaseSeats(ctx, voided); err != nil {
		log.Printf("reservation: %v", err)
	}
	s.releaseLock(ctx, voided.ScheduleID)
	return voided, nil
}

func (s *Service) Entry(ctx context.Context, entryToken string) (EntryStatus, error) {
	res, err := s.reservations.GetByEntryToken(ctx, entryToken)
	if err != nil {
		return "", err
	}

	now, err := s.world.Current(ctx)
	if err != nil {
		return "", err
	}
	if res.DepartureAt < now {
		return EntryTrainDeparted, nil
	}

	if err := s.checkCaptured(ctx, res); err != nil {
		return "", err
	}

	entered, err := s.reservations.Transition(ctx, res.ID, domain.ReservationStatusCaptured, domain.ReservationStatusEntered, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return "", s.stateError(ctx, res.ID)
		}
		return "", err
	}
	s.publish(ctx, kafka.EventReservationEntered, entered)
	return EntrySuccess, nil
}

func (s *Service) Refund(ctx context.Context, userID, reservationID string) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return domain.ErrInvalidReservation
		}
		return err
	}
	if res.UserID != userID {
		return domain.ErrInvalidReservation
	}
	if err := s.checkCaptured(ctx, res); err != nil {
		return err
	}

	// Everything that can fail runs before the status change, so a failed
	// refund leaves the reservation CAPTURED and retryable.
	now, err := s.world.Current(ctx)
	if err != nil {
		return err
	}
	if err := s.payments.Refund(ctx, userID, res.TotalPrice); err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}

	refunded, err := s.reservations.Transition(ctx, res.ID, domain.ReservationStatusCaptured, domain.ReservationStatusRefunded, s.clock.Now())
	if err != nil {
		if _, captureErr := s.payments.Capture(context.WithoutCancel(ctx), userID, res.TotalPrice); captureErr != nil {
			log.Printf("reservation: recapture of unfinished refund %s: %v", res.ID, captureErr)
		}
		if errors.Is(err, domain.ErrInvalidState) {
			return s.stateError(ctx, res.ID)
		}
		return err
	}

	if refunded.DepartureAt > now {
		if err := s.releaseSeats(ctx, refunded); err != nil {
			log.Printf("reservation: %v", err)
		}
	}

	s.publish(ctx, kafka.EventReservationRefunded, refunded)
	return nil
}

// checkCaptured requires a captured payment on a reservation nobody has
// boarded with yet.
func (s *Service) checkCaptured(ctx context.Context, res *domain.Reservation) error {
	payment, err := s.reservations.GetPayment(ctx, res.ID)
	if err != nil {
		return err
	}
	if !payment.Captured {
		return domain.ErrNotCaptured
	}
	if res.Status == domain.ReservationStatusEntered {
		return domain.ErrAlreadyEntered
	}
	if res.Status != domain.ReservationStatusCaptured {
		return domain.ErrNotCaptured
	}
	return nil
}

// stateError explains a lost status transition from the current row.
func (s *Service) stateError(ctx context.Context, reservationID string) error {
	current, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if current.Status == domain.ReservationStatusEntered {
		return domain.ErrAlreadyEntered
	}
	return domain.ErrNotCaptured
}

func (s *Service) ListPurchased(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return s.reservations.ListPurchased(ctx, userID)
}

// ExpireStale voids reservations that stayed unpaid longer than the hold
// TTL, returning their seats and schedule locks.
func (s *Service) ExpireStale(ctx context.Context) ([]domain.Reservation, error) {
	before := s.clock.Now().Add(-s.holdTTL)
	stale, err := s.reservations.ListStale(ctx, domain.ReservationStatusReserved, before, staleBatchSize)
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Reservation, 0, len(stale))
	for i := range stale {
		voided, err := s.void(ctx, &stale[i])
		if err != nil {
			if errors.Is(err, domain.ErrInvalidState) {
				continue
			}
			return expired, err
		}
		s.publish(ctx, kafka.EventReservationExpired, voided)
		expired = append(expired, *voided)
	}
	return expired, nil
}

func (s *Service) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.producer == nil || s.reservationTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		UserID:        res.UserID,
		ScheduleID:    res.ScheduleID,
		Seats:         domain.SeatStrings(res.Seats),
		Amount:        res.TotalPrice,
		Status:        string(res.Status),
		OccurredAt:    s.clock.Now(),
	}
	if err := s.producer.Publish(ctx, s.reservationTopic, res.ID, event); err != nil {
		log.Printf("WARNING: failed to publish %s for reservation %s: %v", eventType, res.ID, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, res.ID, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for reservation %s: %v", eventType, res.ID, err)
		}
	}
}

var _ UseCase = (*Service)(nil)
