package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry retries rate limits and outages with jittered exponential
// backoff. A non-conforming answer is retried once; rejected requests,
// truncated answers and context errors are returned at once. With
// MaxAttempts below 2 p is returned unchanged.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 2 {
		return p
	}
	return &retryProvider{inner: p, cfg: cfg}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	invalidRetried := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var e *Error
		if !errors.As(err, &e) || attempt >= r.cfg.MaxAttempts {
			return nil, err
		}
		switch e.Kind {
		case KindRateLimited, KindUnavailable:
		case KindInvalid:
			if invalidRetried {
				return nil, err
			}
			invalidRetried = true
		default:
			return nil, err
		}

		t := time.NewTimer(r.cfg.delay(attempt, e))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *retryProvider) ModelID() string {
	return r.inner.ModelID()
}

// delay returns the wait before attempt+1. A RetryAfter hint from the
// provider wins over the backoff.
func (c RetryConfig) delay(attempt int, e *Error) time.Duration {
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	wait := float64(c.InitialWait)
	for range attempt - 1 {
		wait *= c.Multiplier
	}
	if c.MaxWait > 0 && wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}
	// ±20% jitter
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(wait)
}
