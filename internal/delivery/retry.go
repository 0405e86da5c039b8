package delivery

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Retry defaults for delivery failures.
const (
	DefaultAttempts = 3
	DefaultBaseWait = 2 * time.Second
)

// Retrier wraps a Gateway with bounded exponential-backoff retry.
// Exhausted retries surface as a terminal error; nothing is dropped
// silently.
type Retrier struct {
	gateway  Gateway
	attempts int
	baseWait time.Duration
	sleep    func(context.Context, time.Duration) error
}

// NewRetrier wraps gw. attempts < 1 falls back to the default budget.
func NewRetrier(gw Gateway, attempts int, baseWait time.Duration) *Retrier {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if baseWait <= 0 {
		baseWait = DefaultBaseWait
	}
	return &Retrier{
		gateway:  gw,
		attempts: attempts,
		baseWait: baseWait,
		sleep:    sleepCtx,
	}
}

// Deliver attempts the delivery with exponential backoff between
// failures: baseWait, 2*baseWait, 4*baseWait, ...
func (r *Retrier) Deliver(ctx context.Context, b *Bundle) error {
	var lastErr error
	wait := r.baseWait
	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = r.gateway.Deliver(ctx, b)
		if lastErr == nil {
			return nil
		}
		log.Printf("delivery attempt %d/%d failed: %v", attempt, r.attempts, lastErr)
		if attempt < r.attempts {
			if err := r.sleep(ctx, wait); err != nil {
				return fmt.Errorf("delivery cancelled: %w", err)
			}
			wait *= 2
		}
	}
	return fmt.Errorf("delivery failed after %d attempts: %w", r.attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
