package notify

import (
	"context"
	"fmt"
	"time"
)

const (
	retryGrowth   = 1.5
	retryMaxDelay = 30 * time.Second
)

// RetryPolicy retries failed deliveries with a growing pause between
// attempts.
type RetryPolicy struct {
	attempts int
	delay    time.Duration
}

// NewRetryPolicy allows up to attempts tries (at least one), pausing delay
// after the first failure.
func NewRetryPolicy(attempts int, delay time.Duration) *RetryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryPolicy{attempts: attempts, delay: delay}
}

// Execute calls send until it succeeds or the attempts are used up. Each
// pause is half again as long as the previous one, capped at 30s. A
// cancelled ctx ends the pause and is returned with the last send error.
func (p *RetryPolicy) Execute(ctx context.Context, send func() error) error {
	var err error
	pause := p.delay

	for attempt := 1; ; attempt++ {
		if err = send(); err == nil {
			return nil
		}
		if attempt == p.attempts {
			return fmt.Errorf("telegram send failed after %d attempts: %w", attempt, err)
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("telegram send abandoned after %d attempts: %w (last error: %v)", attempt, ctx.Err(), err)
		case <-timer.C:
		}

		pause = min(time.Duration(float64(pause)*retryGrowth), retryMaxDelay)
	}
}
