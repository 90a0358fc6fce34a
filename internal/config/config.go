// Package config provides configuration management for the literature resolution service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/literature-resolution-service/internal/observability"
	"github.com/helixir/literature-resolution-service/internal/transport"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LITRESOLVE"

// Config holds all configuration for the literature resolution service.
// Mirror and relay catalogs are compiled in and are not configurable here.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Resolver contains resolution budget settings.
	Resolver ResolverConfig `mapstructure:"resolver"`
	// Transport contains outbound request settings.
	Transport TransportConfig `mapstructure:"transport"`
	// Health contains mirror probe settings.
	Health HealthConfig `mapstructure:"health"`
	// Events contains Kafka resolution event settings.
	Events EventsConfig `mapstructure:"events"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover the worst case of a resolution call.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `mapstructure:"level"`
	// Format is json, console or pretty.
	Format string `mapstructure:"format"`
	// Output is stdout or stderr.
	Output string `mapstructure:"output"`
	// AddSource adds caller information to log entries.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp layout.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics server is started.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path metrics are served on.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// ResolverConfig holds resolution budget settings.
type ResolverConfig struct {
	// AttemptCeiling is the maximum number of (mirror, relay) attempts per call.
	AttemptCeiling int `mapstructure:"attempt_ceiling"`
	// AttemptTimeout is the deadline shared by every transport strategy of one attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	// MaxListings caps the number of search listings returned.
	MaxListings int `mapstructure:"max_listings"`
	// Origin is sent to relays that require an Origin header.
	Origin string `mapstructure:"origin"`
	// UserAgent is sent with every outbound request.
	UserAgent string `mapstructure:"user_agent"`
}

// TransportConfig holds outbound transport settings.
type TransportConfig struct {
	// RateLimit is the sustained requests per second of the pooled client.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the burst of the pooled client.
	BurstSize int `mapstructure:"burst_size"`
	// MaxBodyBytes caps response body reads.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	// InsecureTLS disables certificate verification for mirrors.
	InsecureTLS bool `mapstructure:"insecure_tls"`
	// Browser configures the optional headless browser strategy.
	Browser BrowserConfig `mapstructure:"browser"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	// Enabled appends the browser strategy to the transport ladder.
	Enabled bool `mapstructure:"enabled"`
	// Bin is the Chromium binary; empty lets the launcher find one.
	Bin string `mapstructure:"bin"`
	// ControlURL connects to a running browser instead of launching one.
	ControlURL string `mapstructure:"control_url"`
}

// HealthConfig holds mirror probe settings.
type HealthConfig struct {
	// Timeout bounds each probe request.
	Timeout time.Duration `mapstructure:"timeout"`
	// Concurrency is the number of mirrors probed at once.
	Concurrency int `mapstructure:"concurrency"`
}

// EventsConfig holds Kafka publisher settings.
type EventsConfig struct {
	// Enabled controls whether resolution events are published.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic resolution events are written to.
	Topic string `mapstructure:"topic"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// ObservabilityConfig converts the logging section for observability.NewLogger.
func (c LoggingConfig) ObservabilityConfig() observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		AddSource:  c.AddSource,
		TimeFormat: c.TimeFormat,
	}
}

// EscalatorConfig builds the transport escalator configuration.
func (c *Config) EscalatorConfig() transport.Config {
	cfg := transport.Config{
		Timeout:      c.Resolver.AttemptTimeout,
		UserAgent:    c.Resolver.UserAgent,
		Origin:       c.Resolver.Origin,
		MaxBodyBytes: c.Transport.MaxBodyBytes,
		RateLimit:    c.Transport.RateLimit,
		BurstSize:    c.Transport.BurstSize,
		InsecureTLS:  c.Transport.InsecureTLS,
	}
	if c.Transport.Browser.Enabled {
		cfg.Browser = &transport.BrowserConfig{
			Bin:        c.Transport.Browser.Bin,
			ControlURL: c.Transport.Browser.ControlURL,
		}
	}
	return cfg
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading path instead of searching
// the default locations when path is not empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/literature-resolution-service")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "literature_resolution")

	// Resolver defaults
	v.SetDefault("resolver.attempt_ceiling", 20)
	v.SetDefault("resolver.attempt_timeout", "10s")
	v.SetDefault("resolver.max_listings", 3)
	v.SetDefault("resolver.origin", "http://localhost:3000")
	v.SetDefault("resolver.user_agent", transport.DefaultUserAgent)

	// Transport defaults
	v.SetDefault("transport.rate_limit", 5.0)
	v.SetDefault("transport.burst_size", 5)
	v.SetDefault("transport.max_body_bytes", transport.DefaultMaxBodyBytes)
	v.SetDefault("transport.insecure_tls", false)
	v.SetDefault("transport.browser.enabled", false)
	v.SetDefault("transport.browser.bin", "")
	v.SetDefault("transport.browser.control_url", "")

	// Health defaults
	v.SetDefault("health.timeout", "5s")
	v.SetDefault("health.concurrency", 8)

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "events.literature_resolution")
	v.SetDefault("events.batch_timeout", "100ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate resolver budget
	if c.Resolver.AttemptCeiling <= 0 {
		return fmt.Errorf("resolver attempt_ceiling must be positive")
	}
	if c.Resolver.AttemptTimeout <= 0 {
		return fmt.Errorf("resolver attempt_timeout must be positive")
	}
	if c.Resolver.MaxListings <= 0 {
		return fmt.Errorf("resolver max_listings must be positive")
	}

	// Validate transport
	if c.Transport.RateLimit < 0 {
		return fmt.Errorf("transport rate_limit must not be negative")
	}
	if c.Transport.MaxBodyBytes <= 0 {
		return fmt.Errorf("transport max_body_bytes must be positive")
	}

	// Validate health probe
	if c.Health.Timeout <= 0 {
		return fmt.Errorf("health timeout must be positive")
	}
	if c.Health.Concurrency <= 0 {
		return fmt.Errorf("health concurrency must be positive")
	}

	// Validate events
	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("events brokers are required when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events topic is required when events are enabled")
		}
	}

	return nil
}
