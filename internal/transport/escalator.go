package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/mirrors"
	"github.com/helixir/literature-resolution-service/internal/observability"
)

// DefaultUserAgent is a desktop browser string; several mirrors refuse
// obvious non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config configures an Escalator.
type Config struct {
	// Timeout is the single deadline shared by every rung of one attempt.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Origin is sent to relays that require an Origin header.
	Origin string

	// MaxBodyBytes caps the size of a response body.
	MaxBodyBytes int64

	// RateLimit is the sustained rate of the pooled client rung, per second.
	RateLimit float64

	// BurstSize is the burst of the pooled client rung.
	BurstSize int

	// InsecureTLS skips certificate verification on every rung.
	InsecureTLS bool

	// Browser enables the headless browser rung when non-nil.
	Browser *BrowserConfig
}

// Target is the (mirror, relay) cell being attempted.
type Target struct {
	// URL is the mirror URL before relay wrapping.
	URL    string
	Mirror string
	Relay  domain.RelayDescriptor
}

// Escalator runs one attempt through the strategy ladder. It is safe for
// concurrent use.
type Escalator struct {
	cfg        Config
	strategies []Strategy
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates an Escalator with the default ladder: pooled client, isolated
// client, raw connection and, when configured, a headless browser.
// The metrics parameter may be nil.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Escalator {
	cfg = withDefaults(cfg)

	strategies := []Strategy{
		NewClientStrategy(NewRateLimiter(cfg.RateLimit, cfg.BurstSize), cfg.InsecureTLS),
		NewIsolatedStrategy(cfg.InsecureTLS),
		NewRawStrategy(cfg.InsecureTLS),
	}
	if cfg.Browser != nil {
		strategies = append(strategies, NewBrowserStrategy(*cfg.Browser))
	}
	return NewWithStrategies(cfg, strategies, logger, metrics)
}

// NewWithStrategies creates an Escalator with an explicit ladder.
func NewWithStrategies(cfg Config, strategies []Strategy, logger zerolog.Logger, metrics *observability.Metrics) *Escalator {
	return &Escalator{
		cfg:        withDefaults(cfg),
		strategies: strategies,
		logger:     logger.With().Str("component", "transport").Logger(),
		metrics:    metrics,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return cfg
}

// Strategies returns the names of the ladder rungs in order.
func (e *Escalator) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Attempt fetches target through the ladder. The deadline is created once,
// before the first rung, and is never extended. The first rung that returns
// a 2xx response with a non-blank body wins; otherwise the returned
// *domain.TransportError lists every rung's failure.
func (e *Escalator) Attempt(ctx context.Context, target Target) (*domain.RawDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req := &Request{
		URL:          mirrors.Wrap(target.Relay, target.URL),
		Header:       e.header(target.Relay),
		MaxBodyBytes: e.cfg.MaxBodyBytes,
	}

	var (
		failures   rungErrors
		lastStatus int
	)
	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", s.Name(), err))
			e.recordFailure(s.Name())
			continue
		}

		resp, err := s.Fetch(ctx, req)
		if err == nil {
			err = validate(resp)
		}
		if err != nil {
			if resp != nil {
				lastStatus = resp.StatusCode
			}
			failures = append(failures, fmt.Errorf("%s: %w", s.Name(), err))
			e.recordFailure(s.Name())
			e.logger.Debug().
				Err(err).
				Str("strategy", s.Name()).
				Str("url", req.URL).
				Msg("transport strategy failed")
			continue
		}

		return &domain.RawDocument{
			Body:        resp.Body,
			ContentType: contentType(resp),
			URL:         target.URL,
			Mirror:      target.Mirror,
			Relay:       target.Relay.Name,
			Strategy:    s.Name(),
		}, nil
	}

	if len(failures) == 0 {
		return nil, domain.NewTransportError("", req.URL, 0, errors.New("no transport strategies configured"))
	}
	return nil, domain.NewTransportError(strings.Join(e.Strategies(), ">"), req.URL, lastStatus, failures)
}

// Close releases resources held by strategies that own any.
func (e *Escalator) Close() error {
	var errs []error
	for _, s := range e.strategies {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (e *Escalator) header(relay domain.RelayDescriptor) http.Header {
	h := http.Header{}
	h.Set("User-Agent", e.cfg.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.8,*/*;q=0.7")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	if relay.NeedsOrigin && e.cfg.Origin != "" {
		h.Set("Origin", e.cfg.Origin)
		h.Set("X-Requested-With", "XMLHttpRequest")
	}
	return h
}

func (e *Escalator) recordFailure(strategy string) {
	if e.metrics != nil {
		e.metrics.RecordStrategyFailure(strategy)
	}
}

func validate(resp *Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return errEmptyBody
	}
	return nil
}

func contentType(resp *Response) string {
	doc := domain.RawDocument{ContentType: resp.ContentType, Body: resp.Body}
	if doc.IsPDF() {
		return "application/pdf"
	}
	return resp.ContentType
}
