package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cuemby/relay/pkg/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the total number of invocations, including the first
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; the delay
	// doubles for each attempt after that
	BaseDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Do invokes op, retrying transiently-classified failures with pure
// exponential backoff (BaseDelay, 2*BaseDelay, 4*BaseDelay, ...). No
// jitter is applied. Non-transient failures propagate immediately on
// first occurrence; after MaxAttempts failed attempts the last failure
// propagates unchanged. Backoff sleeps are cancellable through ctx.
func Do(ctx context.Context, config Config, op func(ctx context.Context) error) error {
	// A non-positive attempt count must not turn Do into a silent no-op
	// that reports success without invoking op
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// baseDelay x 2^(n-2) before attempt n
			delay := config.BaseDelay << (attempt - 2)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			metrics.RetryAttempts.Inc()
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// IsTransient classifies a failure as retryable. gRPC status codes
// Unavailable, DeadlineExceeded and ResourceExhausted are transient;
// every other code (InvalidArgument, Unauthenticated, PermissionDenied,
// ...) is permanent. Plain errors are transient only when they carry a
// context deadline or were wrapped with Transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *transientError
	if errors.As(err, &te) {
		return true
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return true
		}
		return false
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// Transient wraps err so IsTransient classifies it as retryable,
// regardless of its underlying type
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}
