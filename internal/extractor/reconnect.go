package extractor

import (
	"context"
	"math"
	"time"
)

// ReconnectPolicy bounds session re-creation after a session-dead error.
// Retry behavior lives here, not in inline sleeps, so it is testable and
// swappable.
type ReconnectPolicy struct {
	// MaxAttempts caps re-creation attempts before the run turns fatal.
	MaxAttempts int
	// BaseDelay is waited before the first attempt.
	BaseDelay time.Duration
	// Growth multiplies the delay between attempts.
	Growth float64
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultReconnectPolicy mirrors the production defaults: three attempts,
// five seconds before the first, doubling after.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		Growth:      2.0,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait before attempt (0-based).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	growth := p.Growth
	if growth < 1 {
		growth = 1
	}
	d := float64(p.BaseDelay) * math.Pow(growth, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
