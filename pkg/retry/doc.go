/*
Package retry implements bounded retry with exponential backoff for
transient failures.

Only transient failures are retried: gRPC Unavailable, DeadlineExceeded
and ResourceExhausted, context deadline expiry, and errors explicitly
wrapped with Transient. Everything else fails the call on the first
attempt.

Backoff is pure exponential doubling from the base delay, with no
jitter: delays of d, 2d, 4d, ... between attempts. The wait is
cancellable through the context.

When every attempt fails, the final attempt's error is returned
unchanged, so callers can match it with errors.Is exactly as if the
call had been made once.

# Usage

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
	}, func(ctx context.Context) error {
		return callBackend(ctx)
	})

Marking an error transient at its source:

	if err := dial(endpoint); err != nil {
		return retry.Transient(err)
	}
*/
package retry
