package apiclient

import (
	"context"
	"time"
)

// RetryConfig drives WithRetry. It is independent of the client's built-in
// single retry on 401.
type RetryConfig struct {
	MaxRetries        int
	Delay             time.Duration
	BackoffMultiplier float64
	RetryCondition    func(*APIError) bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		Delay:             time.Second,
		BackoffMultiplier: 2,
		RetryCondition:    RetryOnNetworkOrServerError,
	}
}

// RetryOnNetworkOrServerError retries when no response arrived or the server
// answered 5xx. Undecodable responses are not retried.
func RetryOnNetworkOrServerError(err *APIError) bool {
	if err.Code == CodeParseError {
		return false
	}
	return err.StatusCode == 0 || (err.StatusCode >= 500 && err.StatusCode < 600)
}

// WithRetry calls fn until it succeeds, the condition rejects the error, the
// retries are spent, or ctx is done. The returned error is always an
// *APIError.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	cond := cfg.RetryCondition
	if cond == nil {
		cond = RetryOnNetworkOrServerError
	}
	mult := cfg.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}

	var zero T
	delay := cfg.Delay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		apiErr := Normalize(err)
		if attempt >= cfg.MaxRetries || !cond(apiErr) {
			return zero, apiErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, Normalize(ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * mult)
	}
}
