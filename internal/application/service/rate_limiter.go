package service

import (
	"context"
	"time"

	"pulse/internal/application/port"
)

// RateLimiter enforces a flat inter-request delay per source class. No token
// bucket, no burst allowance. Each outbound call pays the full delay.
type RateLimiter struct {
	delays map[port.SourceClass]time.Duration
}

func NewRateLimiter(delays map[port.SourceClass]time.Duration) *RateLimiter {
	d := make(map[port.SourceClass]time.Duration, len(delays))
	for class, delay := range delays {
		if delay > 0 {
			d[class] = delay
		}
	}
	return &RateLimiter{delays: d}
}

func (l *RateLimiter) Wait(ctx context.Context, class port.SourceClass) error {
	delay, ok := l.delays[class]
	if !ok {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ port.Limiter = (*RateLimiter)(nil)
