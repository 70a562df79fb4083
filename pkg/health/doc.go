/*
Package health provides endpoint health monitoring for Relay's backend fleet.

This package implements two probe types, TCP and gRPC, plus a monitor that
runs them on a fixed interval and maintains the healthy/unhealthy partition
of the endpoint set. The balancer consults that partition on every pick, so
an endpoint leaving the healthy set stops receiving traffic immediately.

# Architecture

	┌──────────────────────────────────────────────────────┐
	│                      Monitor                          │
	│                                                       │
	│  Probe loop (interval):    MarkUnhealthy (on-call):   │
	│    slow path, detects        fast path, evicts on     │
	│    failure AND recovery      live call failure        │
	│                                                       │
	│          ┌──────── Checker Interface ────────┐        │
	│          │  Check(ctx) Result                │        │
	│          │  Type() CheckType                 │        │
	│          └────────┬──────────────┬───────────┘        │
	│                   ▼              ▼                    │
	│              ┌────────┐    ┌──────────┐               │
	│              │  TCP   │    │   gRPC   │               │
	│              │Checker │    │ Checker  │               │
	│              └────────┘    └──────────┘               │
	│               connect      grpc.health.v1             │
	│               succeeds     status SERVING             │
	└──────────────────────────────────────────────────────┘

# Design Decisions

Endpoints start healthy. A freshly started fabric can route before the
first probe cycle completes; the first cycle corrects any wrong guess
within one interval.

Eviction has two paths, recovery has one. A live call failure evicts
immediately through MarkUnhealthy, but an evicted endpoint rejoins the
healthy set only when a periodic probe passes. Flapping endpoints
therefore spend most of their time out of rotation.

Probes run concurrently, each under its own timeout, so one hung
endpoint cannot delay verdicts for the rest of the fleet.

# Usage

	monitor := health.NewMonitor(endpoints, func(ep string) health.Checker {
		return health.NewTCPChecker(ep)
	}, health.DefaultConfig())

	monitor.Start()
	defer monitor.Stop()

	healthy := monitor.Healthy()       // for the balancer
	snapshot := monitor.Snapshot()     // for the status API
	monitor.MarkUnhealthy(ep, "rpc failed")
*/
package health
