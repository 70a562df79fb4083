package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fabric configuration loaded from YAML
type Config struct {
	// StatusAddr is the listen address of the status/metrics HTTP server
	StatusAddr string `yaml:"status_addr"`

	// Endpoints are the backend chat service endpoints to balance across
	Endpoints []string `yaml:"endpoints"`

	Probe struct {
		// Type selects the probe: "tcp" or "grpc"
		Type     string        `yaml:"type"`
		Interval time.Duration `yaml:"interval"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"probe"`

	// Balancer strategy: round-robin, random, least-connections
	Balancer string `yaml:"balancer"`

	Breaker struct {
		FailureThreshold int           `yaml:"failure_threshold"`
		ResetTimeout     time.Duration `yaml:"reset_timeout"`
	} `yaml:"breaker"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts"`
		BaseDelay   time.Duration `yaml:"base_delay"`
	} `yaml:"retry"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	cfg := &Config{
		StatusAddr: ":9090",
		Balancer:   "round-robin",
	}
	cfg.Probe.Type = "tcp"
	cfg.Probe.Interval = 10 * time.Second
	cfg.Probe.Timeout = 3 * time.Second
	cfg.Breaker.FailureThreshold = 5
	cfg.Breaker.ResetTimeout = 30 * time.Second
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = time.Second
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads a YAML config file over the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Endpoint presence is validated after flag overrides are applied;
	// a file without endpoints is valid when --endpoint supplies them
	return cfg, nil
}
