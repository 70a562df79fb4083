/*
Package client provides the resilient caller that composes Relay's
protection layers around every outbound RPC.

# Composition Order

	Call(service, invoke)
	  └─► circuit breaker (one per service class)
	        └─► retry with exponential backoff
	              └─► balancer pick   (fresh healthy set per attempt)
	                    └─► invoke against the dialed endpoint

The breaker sits outside retry, so one Call that exhausts its retries
counts as a single failure toward the trip threshold. Each retry attempt
picks an endpoint anew, so an endpoint evicted by a failed attempt is
already out of rotation for the next one.

An empty healthy set fails the call immediately rather than retrying;
waiting out an outage is the caller's decision, not the fabric's.

Connections are dialed lazily per endpoint and reused across calls.

# Usage

	caller := client.NewCaller(balancer, monitor, breakerCfg, retryCfg)
	defer caller.Close()

	err := caller.Call(ctx, "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		return chatpb.NewChatClient(conn).Send(ctx, msg)
	})
*/
package client
