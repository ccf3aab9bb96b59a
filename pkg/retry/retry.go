package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "riskgrade/pkg/errors"
)

type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  5 * time.Minute,
	}
}

func (p Policy) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	exp.MaxElapsedTime = p.MaxElapsedTime

	var b backoff.BackOff = backoff.WithContext(backoff.BackOff(exp), ctx)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return b
}

// Do runs fn with exponential backoff. Errors implementing FatalError
// (or coded errors whose IsFatal reports true) stop the retry loop
// immediately; everything else is retried up to the policy limits.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	return DoNotify(ctx, policy, fn, nil)
}

// DoNotify is Do with a callback invoked before each backoff sleep,
// typically to log the attempt or bump a retry counter.
func DoNotify(ctx context.Context, policy Policy, fn func() error, notify func(err error, next time.Duration)) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}

	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if notify == nil {
		return backoff.Retry(operation, policy.backoff(ctx))
	}
	return backoff.RetryNotify(operation, policy.backoff(ctx), notify)
}

func isPermanent(err error) bool {
	var fatalErr apperrors.FatalError
	if errors.As(err, &fatalErr) {
		return fatalErr.IsFatal()
	}
	var retryableErr apperrors.RetryableError
	if errors.As(err, &retryableErr) {
		return !retryableErr.IsRetryable()
	}
	// Unknown errors default to retryable.
	return false
}
