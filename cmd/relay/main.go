package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/relay/pkg/api"
	"github.com/cuemby/relay/pkg/balancer"
	"github.com/cuemby/relay/pkg/breaker"
	"github.com/cuemby/relay/pkg/chat"
	"github.com/cuemby/relay/pkg/client"
	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/health"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/registry"
	"github.com/cuemby/relay/pkg/retry"
	"github.com/cuemby/relay/pkg/room"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - resilient real-time messaging fabric",
	Long: `Relay is a real-time chat broadcast fabric fronted by a resilience
layer: health-checked load balancing, circuit breaking, and
retry-with-backoff around every backend call.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Relay version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("status-addr", "", "Status server listen address (overrides config)")
	serveCmd.Flags().StringSlice("endpoint", nil, "Backend endpoint (repeatable, overrides config)")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the messaging fabric",
	Long: `Run the messaging fabric: the endpoint health monitor, the
load-balanced resilient caller, the chat broadcast engine, and the
status/metrics HTTP server.

The chat gateway (REST/WebSocket translation) attaches to the engine
through its stream interface and is deployed separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}

		// Flags override file values
		if addr, _ := cmd.Flags().GetString("status-addr"); addr != "" {
			cfg.StatusAddr = addr
		}
		if endpoints, _ := cmd.Flags().GetStringSlice("endpoint"); len(endpoints) > 0 {
			cfg.Endpoints = endpoints
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		if len(cfg.Endpoints) == 0 {
			return fmt.Errorf("no backend endpoints configured")
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		logger := log.WithComponent("main")

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		// Service registry seeded from config; a discovery sidecar may
		// refresh it at runtime
		services := registry.New()
		for _, ep := range cfg.Endpoints {
			services.Register("chat", ep, nil)
		}

		checker := newCheckerFunc(cfg)
		monitor := health.NewMonitor(services.Endpoints("chat"), checker, health.Config{
			Interval: cfg.Probe.Interval,
			Timeout:  cfg.Probe.Timeout,
		}).WithBroker(broker)
		monitor.Start()
		defer monitor.Stop()
		logger.Info().Int("endpoints", len(cfg.Endpoints)).Msg("health monitor started")

		lb, err := balancer.New(balancer.Strategy(cfg.Balancer), monitor)
		if err != nil {
			return err
		}

		caller := client.NewCaller(lb, monitor,
			breaker.Config{
				FailureThreshold: cfg.Breaker.FailureThreshold,
				ResetTimeout:     cfg.Breaker.ResetTimeout,
			},
			retry.Config{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
			},
		).WithBroker(broker)
		defer func() { _ = caller.Close() }()

		history := room.NewMemoryHistory()
		rooms := room.NewRegistry(history).WithBroker(broker)
		presence := room.NewPresenceStore()
		engine := chat.NewEngine(rooms, presence, history).WithBroker(broker)

		statusServer := api.NewStatusServer(monitor, engine, caller)
		statusServer.WatchEvents(broker.Subscribe())

		errCh := make(chan error, 1)
		go func() {
			if err := statusServer.Start(cfg.StatusAddr); err != nil {
				errCh <- fmt.Errorf("status server error: %w", err)
			}
		}()
		logger.Info().Str("addr", cfg.StatusAddr).Msg("status server listening")

		// Log ops events until shutdown
		sub := broker.Subscribe()
		go func() {
			eventsLogger := log.WithComponent("events")
			for event := range sub {
				eventsLogger.Info().
					Str("type", string(event.Type)).
					Fields(map[string]interface{}{"metadata": event.Metadata}).
					Msg(event.Message)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case err := <-errCh:
			return err
		}
		return nil
	},
}

// newCheckerFunc builds the probe constructor for the configured type
func newCheckerFunc(cfg *Config) health.CheckerFunc {
	timeout := cfg.Probe.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	if cfg.Probe.Type == "grpc" {
		return func(endpoint string) health.Checker {
			return health.NewGRPCChecker(endpoint).WithTimeout(timeout)
		}
	}
	return func(endpoint string) health.Checker {
		return health.NewTCPChecker(endpoint).WithTimeout(timeout)
	}
}
