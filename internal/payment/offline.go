package payment

import (
	"context"
	"fmt"
	"sync"
)

// Offline accepts captures locally, optionally against a per-user credit
// limit. A zero limit accepts any positive amount.
type Offline struct {
	mu     sync.Mutex
	limit  int
	credit map[string]int
}

func NewOffline(limit int) *Offline {
	return &Offline{limit: limit, credit: make(map[string]int)}
}

// Capture reports whether the payment was accepted.
func (o *Offline) Capture(_ context.Context, userID string, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("invalid amount %d", amount)
	}
	if o.limit == 0 {
		return true, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.credit[userID]+amount > o.limit {
		return false, nil
	}
	o.credit[userID] += amount
	return true, nil
}

func (o *Offline) Refund(_ context.Context, userID string, amount int) error {
	if o.limit == 0 {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.credit[userID] -= amount
	if o.credit[userID] < 0 {
		o.credit[userID] = 0
	}
	return nil
}
