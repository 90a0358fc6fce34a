package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-resolution-service/internal/config"
	"github.com/helixir/literature-resolution-service/internal/events"
	"github.com/helixir/literature-resolution-service/internal/observability"
	"github.com/helixir/literature-resolution-service/internal/resolver"
	"github.com/helixir/literature-resolution-service/internal/transport"
)

func testConfig() *config.Config {
	return &config.Config{
		Resolver: config.ResolverConfig{
			AttemptCeiling: 20,
			AttemptTimeout: 10 * time.Second,
			MaxListings:    3,
			Origin:         "http://localhost:3000",
		},
		Transport: config.TransportConfig{
			RateLimit:    5,
			BurstSize:    5,
			MaxBodyBytes: transport.DefaultMaxBodyBytes,
		},
		Health: config.HealthConfig{
			Timeout:     time.Second,
			Concurrency: 4,
		},
		Events: config.EventsConfig{
			Topic:        "events.literature_resolution",
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(testConfig(), zerolog.Nop(), nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	assert.Len(t, a.Catalog.DOIMirrors(), 12)
	assert.Equal(t, []string{transport.StrategyClient, transport.StrategyIsolated, transport.StrategyRaw}, a.Escalator.Strategies())
	assert.IsType(t, events.NopPublisher{}, a.Publisher)
	assert.NotNil(t, a.Prober)
}

func TestNew_OverrideResolvesOffline(t *testing.T) {
	metrics := observability.NewMetrics("test_app_override")
	a, err := New(testConfig(), zerolog.Nop(), metrics)
	require.NoError(t, err)
	defer a.Close()

	records := a.Resolver.Resolve(context.Background(), resolver.Request{DOI: "10.1061/(ASCE)CP.1943-5487.0000706"})
	require.Len(t, records, 1)
	assert.Equal(t, 2016, records[0].Year)
}

func TestNew_BrowserStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Transport.Browser.Enabled = true

	a, err := New(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, transport.StrategyBrowser, a.Escalator.Strategies()[3])
}

func TestNew_Events(t *testing.T) {
	t.Run("kafka publisher", func(t *testing.T) {
		cfg := testConfig()
		cfg.Events.Enabled = true
		cfg.Events.Brokers = []string{"localhost:9092"}

		a, err := New(cfg, zerolog.Nop(), nil)
		require.NoError(t, err)
		assert.IsType(t, &events.KafkaPublisher{}, a.Publisher)
		require.NoError(t, a.Close())
	})

	t.Run("missing brokers", func(t *testing.T) {
		cfg := testConfig()
		cfg.Events.Enabled = true

		_, err := New(cfg, zerolog.Nop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create event publisher")
	})
}
