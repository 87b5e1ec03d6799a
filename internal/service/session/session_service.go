// Package session tracks passenger activity for the waiting room and the
// idle logout check.
package session

import (
	"context"
	"time"

	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/domain"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "session_expired"
	StatusWaiting Status = "waiting"
	StatusReady   Status = "ready"
)

const (
	DefaultIdleTimeout     = 10 * time.Second
	DefaultPollingInterval = 500 * time.Millisecond
	DefaultMaxActiveUsers  = 5
)

type UseCase interface {
	Touch(ctx context.Context, userID string) error
	Check(ctx context.Context, user *domain.User) Result
	WaitingStatus(ctx context.Context, userID string) (Result, error)
}

type Users interface {
	TouchActivity(ctx context.Context, userID string, at time.Time) error
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

// Result tells the client what it is and when to poll again.
type Result struct {
	Status    Status
	NextCheck time.Duration
}

type Service struct {
	users           Users
	clock           clock.Clock
	idleTimeout     time.Duration
	pollingInterval time.Duration
	maxActiveUsers  int
}

type Option func(*Service)

func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

func WithPollingInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollingInterval = d
		}
	}
}

func WithMaxActiveUsers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxActiveUsers = n
		}
	}
}

func NewService(users Users, c clock.Clock, opts ...Option) *Service {
	s := &Service{
		users:           users,
		clock:           c,
		idleTimeout:     DefaultIdleTimeout,
		pollingInterval: DefaultPollingInterval,
		maxActiveUsers:  DefaultMaxActiveUsers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Touch records that the user just did something.
func (s *Service) Touch(ctx context.Context, userID string) error {
	return s.users.TouchActivity(ctx, userID, s.clock.Now())
}

// Check expires a session idle for longer than the idle timeout. A user
// who has never been active is not expired.
func (s *Service) Check(_ context.Context, user *domain.User) Result {
	status := StatusActive
	if user.LastActivityAt != nil && user.LastActivityAt.Before(s.clock.Now().Add(-s.idleTimeout)) {
		status = StatusExpired
	}
	return Result{Status: status, NextCheck: s.pollingInterval}
}

// WaitingStatus admits the user while fewer than maxActiveUsers have been
// active within the idle timeout. Admission counts as activity.
func (s *Service) WaitingStatus(ctx context.Context, userID string) (Result, error) {
	now := s.clock.Now()
	active, err := s.users.CountActiveSince(ctx, now.Add(-s.idleTimeout))
	if err != nil {
		return Result{}, err
	}
	if active >= s.maxActiveUsers {
		return Result{Status: StatusWaiting, NextCheck: s.pollingInterval}, nil
	}
	if err := s.users.TouchActivity(ctx, userID, now); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusReady, NextCheck: s.pollingInterval}, nil
}

var _ UseCase = (*Service)(nil)
