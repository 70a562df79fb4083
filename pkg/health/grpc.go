package health

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCChecker probes an endpoint using the gRPC health checking protocol
type GRPCChecker struct {
	// Address is the gRPC endpoint to probe (e.g., "10.0.0.5:50051")
	Address string

	// Service is the service name passed to the health check RPC.
	// Empty means the server's overall health.
	Service string

	// Timeout is the per-probe timeout (default: 5 seconds)
	Timeout time.Duration
}

// NewGRPCChecker creates a new gRPC health checker
func NewGRPCChecker(address string) *GRPCChecker {
	return &GRPCChecker{
		Address: address,
		Timeout: 5 * time.Second,
	}
}

// Check performs the gRPC health check
func (g *GRPCChecker) Check(ctx context.Context) Result {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	conn, err := grpc.NewClient(g.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("dial failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{
		Service: g.Service,
	})
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("health check failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("endpoint not serving: %s", resp.Status),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("gRPC health check of %s successful", g.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type
func (g *GRPCChecker) Type() CheckType {
	return CheckTypeGRPC
}

// WithService sets the service name checked on the endpoint
func (g *GRPCChecker) WithService(service string) *GRPCChecker {
	g.Service = service
	return g
}

// WithTimeout sets the per-probe timeout
func (g *GRPCChecker) WithTimeout(timeout time.Duration) *GRPCChecker {
	g.Timeout = timeout
	return g
}
