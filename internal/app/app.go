// Package app wires the resolution engine from configuration. Both the
// HTTP server and the CLI build their dependencies through it.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-resolution-service/internal/config"
	"github.com/helixir/literature-resolution-service/internal/events"
	"github.com/helixir/literature-resolution-service/internal/extract"
	"github.com/helixir/literature-resolution-service/internal/mirrors"
	"github.com/helixir/literature-resolution-service/internal/mirrors/health"
	"github.com/helixir/literature-resolution-service/internal/observability"
	"github.com/helixir/literature-resolution-service/internal/resolver"
	"github.com/helixir/literature-resolution-service/internal/transport"
)

// App holds the long-lived collaborators of the service.
type App struct {
	Catalog   *mirrors.Catalog
	Escalator *transport.Escalator
	Resolver  *resolver.Resolver
	Prober    *health.Prober
	Publisher events.Publisher
}

// New builds an App from cfg. Metrics may be nil.
func New(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*App, error) {
	catalog := mirrors.DefaultCatalog()
	escalator := transport.New(cfg.EscalatorConfig(), logger, metrics)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			BatchTimeout: cfg.Events.BatchTimeout,
		}, logger)
		if err != nil {
			_ = escalator.Close()
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
		publisher = kp
		logger.Info().
			Strs("brokers", cfg.Events.Brokers).
			Str("topic", cfg.Events.Topic).
			Msg("resolution events enabled")
	}

	res := resolver.New(
		resolver.Config{
			AttemptCeiling: cfg.Resolver.AttemptCeiling,
			MaxListings:    cfg.Resolver.MaxListings,
		},
		catalog,
		escalator,
		extract.New(extract.DefaultCascades()),
		resolver.WithLogger(logger),
		resolver.WithMetrics(metrics),
		resolver.WithPublisher(publisher),
	)

	prober := health.NewProber(health.Config{
		Timeout:     cfg.Health.Timeout,
		Concurrency: cfg.Health.Concurrency,
		UserAgent:   cfg.Resolver.UserAgent,
	}, transport.NewClientStrategy(nil, cfg.Transport.InsecureTLS), logger, metrics)

	logger.Info().
		Int("doi_mirrors", len(catalog.DOIMirrors())).
		Int("search_mirrors", len(catalog.SearchMirrors())).
		Int("relays", len(catalog.Relays())).
		Strs("strategies", escalator.Strategies()).
		Int("attempt_ceiling", cfg.Resolver.AttemptCeiling).
		Msg("resolution engine initialized")

	return &App{
		Catalog:   catalog,
		Escalator: escalator,
		Resolver:  res,
		Prober:    prober,
		Publisher: publisher,
	}, nil
}

// Close releases the transport strategies and flushes the event publisher.
func (a *App) Close() error {
	a.Resolver.Flush()

	var errs []error
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event publisher: %w", err))
	}
	if err := a.Escalator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close escalator: %w", err))
	}
	return errors.Join(errs...)
}
