package health

import (
	"context"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeGRPC CheckType = "grpc"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// CheckerFunc builds a Checker for an endpoint address. The monitor uses
// it to construct one checker per monitored endpoint.
type CheckerFunc func(endpoint string) Checker

// Config contains common configuration for endpoint health probing
type Config struct {
	// Interval is the time between probe cycles
	Interval time.Duration

	// Timeout is the maximum time to wait for a single probe to complete
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Timeout:  3 * time.Second,
	}
}
