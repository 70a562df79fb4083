/*
Package balancer provides client-side load balancing over the healthy
endpoint set.

Three strategies are supported: round-robin (the default), random, and
least-connections. The balancer holds no endpoint list of its own; every
pick consults a HealthView for the current healthy set, so health
transitions take effect on the very next pick.

# Strategies

Round-robin:
  - Shared cursor, advanced under a mutex
  - The cursor is taken modulo the healthy-set size at pick time, so a
    shrinking set can repeat an endpoint once across the resize. Picks
    are approximately even, not strictly sequential, under churn.

Random:
  - Uniform choice over the healthy set
  - No shared state beyond the health view

Least-connections:
  - Picks the endpoint with the fewest in-flight calls
  - Callers bracket RPCs with Acquire/Release to keep the counts honest
  - Ties break in healthy-set order

# Usage

	b, err := balancer.New(balancer.StrategyRoundRobin, monitor)
	if err != nil {
		return err
	}

	endpoint, err := b.Pick()
	if errors.Is(err, balancer.ErrNoHealthyEndpoints) {
		// fail the call, do not spin
	}

	b.Acquire(endpoint)
	defer b.Release(endpoint)
*/
package balancer
