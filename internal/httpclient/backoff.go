package httpclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits base*k before attempt k+1. The crawled sites respond
// better to a slow linear ramp than to exponential growth.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// newRetryBackOff caps total attempts at maxAttempts and respects ctx
// cancellation between attempts.
func newRetryBackOff(ctx context.Context, base time.Duration, maxAttempts int) backoff.BackOffContext {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var b backoff.BackOff = &linearBackOff{base: base}
	b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	return backoff.WithContext(b, ctx)
}
