// Package health probes mirror endpoints for reachability. Probing is
// diagnostic only and never changes the order in which a resolver tries
// mirrors.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/observability"
	"github.com/helixir/literature-resolution-service/internal/transport"
)

// probeBodyBytes limits how much of a landing page a probe reads.
const probeBodyBytes = 4 << 10

// Config holds configuration for the prober.
type Config struct {
	// Timeout bounds each probe.
	Timeout time.Duration
	// Concurrency is the maximum number of probes in flight.
	Concurrency int
	// UserAgent is sent with every probe.
	UserAgent string
}

// Result is the outcome of probing one endpoint.
type Result struct {
	Name       string              `json:"name"`
	BaseURL    string              `json:"base_url"`
	Registry   domain.RegistryKind `json:"registry"`
	Up         bool                `json:"up"`
	StatusCode int                 `json:"status_code,omitempty"`
	LatencyMs  int64               `json:"latency_ms"`
	Error      string              `json:"error,omitempty"`
}

// Prober checks mirror base URLs concurrently.
type Prober struct {
	cfg      Config
	strategy transport.Strategy
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewProber creates a prober that fetches through strategy. Metrics may be nil.
func NewProber(cfg Config, strategy transport.Strategy, logger zerolog.Logger, metrics *observability.Metrics) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = transport.DefaultUserAgent
	}
	return &Prober{
		cfg:      cfg,
		strategy: strategy,
		logger:   logger.With().Str("component", "mirror_prober").Logger(),
		metrics:  metrics,
	}
}

// Probe checks every endpoint and returns one result per endpoint in input
// order. It returns an error only when ctx ends before all probes finish.
func (p *Prober) Probe(ctx context.Context, endpoints []domain.MirrorEndpoint) ([]Result, error) {
	results := make([]Result, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = p.probeOne(gctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("probe mirrors: %w", err)
	}

	up := 0
	for _, r := range results {
		if r.Up {
			up++
		}
	}
	p.logger.Info().
		Int("endpoints", len(endpoints)).
		Int("up", up).
		Msg("mirror probe completed")

	return results, nil
}

func (p *Prober) probeOne(ctx context.Context, ep domain.MirrorEndpoint) Result {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result := Result{Name: ep.Name, BaseURL: ep.BaseURL, Registry: ep.Registry}

	header := http.Header{}
	header.Set("User-Agent", p.cfg.UserAgent)

	start := time.Now()
	resp, err := p.strategy.Fetch(ctx, &transport.Request{
		URL:          ep.BaseURL,
		Header:       header,
		MaxBodyBytes: probeBodyBytes,
	})
	result.LatencyMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		result.Error = err.Error()
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Up = true
		result.StatusCode = resp.StatusCode
	default:
		result.StatusCode = resp.StatusCode
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	if p.metrics != nil {
		p.metrics.RecordProbe(ep.Name, result.Up)
	}

	p.logger.Debug().
		Str("mirror", ep.Name).
		Bool("up", result.Up).
		Int64("latency_ms", result.LatencyMs).
		Str("error", result.Error).
		Msg("mirror probed")

	return result
}
