/*
Package breaker implements a circuit breaker for calls to backend services.

A breaker tracks consecutive failures per service class and fast-fails
callers while the backend is presumed down, converting a stream of slow
failures into immediate ErrOpen rejections.

# State Machine

	            failures >= threshold
	  ┌────────┐ ──────────────────► ┌────────┐
	  │ CLOSED │                     │  OPEN  │
	  └────────┘ ◄──────┐            └────────┘
	       ▲            │                 │ reset timeout elapsed
	       │            │                 ▼
	       │       trial success     ┌───────────┐
	       │            └─────────── │ HALF-OPEN │
	       │                         └───────────┘
	       │                              │ trial failure
	       └──────────────────────────────┘
	                 (back to OPEN)

CLOSED passes calls through and counts consecutive failures; any success
resets the count. OPEN rejects immediately until the reset timeout
elapses. HALF-OPEN admits exactly one trial call: concurrent callers are
rejected while the trial is in flight, a passing trial closes the
breaker, a failing one reopens it for another full timeout.

A trial abandoned by context cancellation proves nothing about the
backend; the breaker returns to OPEN with the original deadline already
past, so the next caller runs a fresh trial immediately.

# Usage

	br := breaker.New("chat", breaker.Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	})

	err := br.Execute(ctx, func(ctx context.Context) error {
		return callBackend(ctx)
	})
	if errors.Is(err, breaker.ErrOpen) {
		// rejected without reaching the backend
	}

State transitions are exported through the relay_breaker_state gauge and,
when a broker is attached, breaker.open / breaker.closed events.
*/
package breaker
