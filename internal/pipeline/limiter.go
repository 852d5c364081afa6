package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces calls against the external vision services. The orchestrator
// waits on it between frames; implementations decide the policy.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewFrameLimiter returns the default limiter: a single-slot token bucket
// that refills once per delay, which spaces frames by a fixed interval
// without penalizing the first one.
func NewFrameLimiter(delay time.Duration) Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}
