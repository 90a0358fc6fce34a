// Package resolver drives one literature resolution call: it classifies the
// query, walks the mirror registries and relay chain in priority order under
// an attempt budget, and always answers with at least one record.
package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/literature-resolution-service/internal/attempt"
	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/events"
	"github.com/helixir/literature-resolution-service/internal/extract"
	"github.com/helixir/literature-resolution-service/internal/mirrors"
	"github.com/helixir/literature-resolution-service/internal/observability"
	"github.com/helixir/literature-resolution-service/internal/query"
	"github.com/helixir/literature-resolution-service/internal/synth"
	"github.com/helixir/literature-resolution-service/internal/transport"
)

// Resolution path labels used in logs and metrics.
const (
	PathDOI    = "doi"
	PathSearch = "search"
)

const publishTimeout = 5 * time.Second

// Config holds configuration for the resolver.
type Config struct {
	// AttemptCeiling caps the (mirror, relay) attempts of one call.
	AttemptCeiling int
	// MaxListings caps the records returned from one search page.
	MaxListings int
}

// Fetcher performs one transport attempt against a mirror through a relay.
type Fetcher interface {
	Attempt(ctx context.Context, target transport.Target) (*domain.RawDocument, error)
}

// Request is the inbound resolution request. DOI takes precedence over Query.
type Request struct {
	Query  string `json:"query"`
	Author string `json:"author,omitempty"`
	DOI    string `json:"doi,omitempty"`
}

// AttemptEvent describes one finished (mirror, relay) attempt.
type AttemptEvent struct {
	// Seq is the 1-based position of the attempt within the call.
	Seq      int
	Registry domain.RegistryKind
	Mirror   string
	Relay    string
	URL      string
	Outcome  string
	Err      error
	Duration time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger.With().Str("component", "resolver").Logger()
	}
}

// WithMetrics sets the metrics collector. Metrics may be nil.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// WithPublisher sets the publisher for resolution.completed events.
func WithPublisher(publisher events.Publisher) Option {
	return func(r *Resolver) {
		r.publisher = publisher
	}
}

// WithAttemptHook registers a callback invoked after every attempt, in order.
func WithAttemptHook(hook func(AttemptEvent)) Option {
	return func(r *Resolver) {
		r.hooks = append(r.hooks, hook)
	}
}

// Resolver resolves DOIs and free-text queries into bibliographic records.
// The catalog is shared read-only; all mutable state lives in a per-call
// value, so a Resolver is safe for concurrent use.
type Resolver struct {
	cfg       Config
	catalog   *mirrors.Catalog
	fetcher   Fetcher
	extractor *extract.Extractor
	logger    zerolog.Logger
	metrics   *observability.Metrics
	publisher events.Publisher
	hooks     []func(AttemptEvent)

	// publishing tracks resolution events still being handed to the publisher.
	publishing sync.WaitGroup
}

// New creates a Resolver.
func New(cfg Config, catalog *mirrors.Catalog, fetcher Fetcher, extractor *extract.Extractor, opts ...Option) *Resolver {
	if cfg.AttemptCeiling <= 0 {
		cfg.AttemptCeiling = attempt.DefaultCeiling
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = extract.DefaultMaxListings
	}

	r := &Resolver{
		cfg:       cfg,
		catalog:   catalog,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    zerolog.Nop(),
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// call is the mutable state of a single Resolve invocation.
type call struct {
	query       domain.Query
	path        string
	governor    *attempt.Governor
	diagnostics []domain.AttemptDiagnostic
	foundDOI    string
	outcome     string
	// stopped is why the walk ended before running out of combinations.
	stopped error
	// pending is the attempt whose fetch succeeded and awaits extraction.
	pending AttemptEvent
	logger  zerolog.Logger
}

// Resolve answers req with one record on the DOI path and up to
// Config.MaxListings records on the search path. It never returns an
// empty slice: exhaustion, cancellation and failures all yield a stub.
func (r *Resolver) Resolve(ctx context.Context, req Request) []domain.Record {
	start := time.Now()

	q := classify(req)
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c := &call{
		query:    q,
		path:     PathSearch,
		governor: attempt.New(r.cfg.AttemptCeiling),
		logger: observability.WithResolutionContext(
			observability.LoggerFromContext(ctx, r.logger), requestID, q.Display()),
	}
	if q.IsDOI() {
		c.path = PathDOI
	}

	c.logger.Info().
		Str("path", c.path).
		Int("ceiling", c.governor.Ceiling()).
		Msg("resolution started")

	var records []domain.Record
	if q.IsDOI() {
		records = r.resolveDOIQuery(ctx, c)
	} else {
		records = r.resolveSearchQuery(ctx, c)
	}

	for i := range records {
		records[i] = records[i].Normalize()
	}

	r.finish(ctx, c, requestID, records, time.Since(start))
	return records
}

func classify(req Request) domain.Query {
	if req.DOI != "" {
		if doi := query.FindDOI(req.DOI); doi != "" {
			return domain.Query{Kind: domain.QueryKindDOI, Raw: req.DOI, DOI: doi}
		}
	}
	return query.Classify(req.Query, req.Author)
}

func (r *Resolver) resolveDOIQuery(ctx context.Context, c *call) []domain.Record {
	if rec, ok := r.catalog.Override(c.query.DOI); ok {
		c.outcome = observability.OutcomeOverride
		if r.metrics != nil {
			r.metrics.RecordOverrideServed()
		}
		return []domain.Record{rec}
	}

	success := r.resolveDOI(ctx, c, c.query.DOI)
	links := append(r.catalog.DirectLinks(c.query.DOI), r.catalog.SearchLinks(c.query.DOI)...)
	return []domain.Record{r.synthesize(c, success, links)}
}

func (r *Resolver) resolveSearchQuery(ctx context.Context, c *call) []domain.Record {
	text := c.query.Display()
	if text != "" {
		if listings := r.resolveSearch(ctx, c, text); len(listings) > 0 {
			return listings
		}
	}

	links := r.catalog.SearchLinks(text)
	if c.foundDOI != "" {
		links = append(links, r.catalog.DirectLinks(c.foundDOI)...)
	} else {
		for _, m := range r.catalog.DOIMirrors() {
			links = append(links, m.BaseURL)
		}
	}
	return []domain.Record{r.synthesize(c, nil, links)}
}

func (r *Resolver) synthesize(c *call, success *domain.Record, links []string) domain.Record {
	if success != nil {
		c.outcome = observability.OutcomeSuccess
	} else {
		c.outcome = observability.OutcomeStub
	}
	return synth.Synthesize(success, c.diagnostics, c.query, links)
}

// resolveDOI walks DOI mirrors × relays in priority order and returns the
// first successful extraction, or nil once the combinations or the budget
// run out.
func (r *Resolver) resolveDOI(ctx context.Context, c *call, doi string) *domain.Record {
	for _, mirror := range r.catalog.DOIMirrors() {
		for _, relay := range r.catalog.Relays() {
			if r.checkAttempt(ctx, c) != nil {
				return nil
			}

			raw, ok := r.fetch(ctx, c, mirror, relay, mirrors.DOIURL(mirror, doi))
			if !ok {
				continue
			}

			rec, err := r.extractor.Extract(raw, doi)
			if err != nil {
				r.extractionFailed(c, raw, err)
				continue
			}

			r.succeeded(c, raw)
			return &rec
		}
	}
	return nil
}

// resolveSearch walks search mirrors × relays. A page naming a DOI hands
// the remaining budget to the DOI path, whose result is final.
func (r *Resolver) resolveSearch(ctx context.Context, c *call, text string) []domain.Record {
	for _, mirror := range r.catalog.SearchMirrors() {
		for _, relay := range r.catalog.Relays() {
			if r.checkAttempt(ctx, c) != nil {
				return nil
			}

			raw, ok := r.fetch(ctx, c, mirror, relay, mirrors.SearchURL(mirror, text))
			if !ok {
				continue
			}

			page, err := r.extractor.ExtractSearch(raw, r.cfg.MaxListings)
			if err != nil {
				r.extractionFailed(c, raw, err)
				continue
			}
			r.succeeded(c, raw)

			if page.DOI != "" {
				c.foundDOI = page.DOI
				if rec, ok := r.catalog.Override(page.DOI); ok {
					c.outcome = observability.OutcomeOverride
					if r.metrics != nil {
						r.metrics.RecordOverrideServed()
					}
					return []domain.Record{rec}
				}
				c.logger.Info().
					Str("doi", page.DOI).
					Str("mirror", mirror.Name).
					Int("remaining", c.governor.Remaining()).
					Msg("search page names a DOI, switching to DOI path")

				if rec := r.resolveDOI(ctx, c, page.DOI); rec != nil {
					c.outcome = observability.OutcomeSuccess
					return []domain.Record{*rec}
				}
				return nil
			}

			c.outcome = observability.OutcomeListing
			return page.Listings
		}
	}
	return nil
}

// checkAttempt consults the context and the governor before every attempt.
// A non-nil result is the context error or domain.ErrBudgetExhausted and is
// kept on the call as its stop reason.
func (r *Resolver) checkAttempt(ctx context.Context, c *call) error {
	if err := ctx.Err(); err != nil {
		c.stopped = err
		c.logger.Warn().Err(err).Int("attempts", c.governor.Used()).Msg("resolution cancelled")
		return err
	}
	if !c.governor.ShouldAttempt() {
		c.stopped = domain.ErrBudgetExhausted
		c.logger.Warn().Int("attempts", c.governor.Used()).Msg("attempt budget exhausted")
		if r.metrics != nil {
			r.metrics.RecordBudgetExhausted(c.path)
		}
		return domain.ErrBudgetExhausted
	}
	return nil
}

// fetch records the attempt with the governor and runs it through the
// fetcher. Transport failures are appended to the call diagnostics.
func (r *Resolver) fetch(ctx context.Context, c *call, mirror domain.MirrorEndpoint, relay domain.RelayDescriptor, url string) (*domain.RawDocument, bool) {
	c.governor.RecordAttempt()
	seq := c.governor.Used()
	start := time.Now()

	raw, err := r.fetcher.Attempt(ctx, transport.Target{URL: url, Mirror: mirror.Name, Relay: relay})
	elapsed := time.Since(start)

	if err == nil && raw == nil {
		err = domain.NewTransportError("", url, 0, errors.New("no document"))
	}
	if err != nil {
		strategy := ""
		var te *domain.TransportError
		if errors.As(err, &te) {
			strategy = te.Strategy
		}
		c.fail(mirror.Name, relay.Name, strategy, err)
		r.observe(c, AttemptEvent{
			Seq:      seq,
			Registry: mirror.Registry,
			Mirror:   mirror.Name,
			Relay:    relay.Name,
			URL:      url,
			Outcome:  observability.OutcomeTransportError,
			Err:      err,
			Duration: elapsed,
		})
		return nil, false
	}

	if raw.Mirror == "" {
		raw.Mirror = mirror.Name
	}
	if raw.Relay == "" {
		raw.Relay = relay.Name
	}
	c.pending = AttemptEvent{
		Seq:      seq,
		Registry: mirror.Registry,
		Mirror:   mirror.Name,
		Relay:    relay.Name,
		URL:      url,
		Duration: elapsed,
	}
	return raw, true
}

func (r *Resolver) extractionFailed(c *call, raw *domain.RawDocument, err error) {
	outcome := observability.OutcomeMalformed
	if errors.Is(err, domain.ErrNotFound) {
		outcome = observability.OutcomeNotFound
	}
	if r.metrics != nil {
		r.metrics.RecordExtractionFailure(outcome)
	}

	c.fail(raw.Mirror, raw.Relay, raw.Strategy, err)
	ev := c.pending
	ev.Outcome = outcome
	ev.Err = err
	r.observe(c, ev)
}

func (r *Resolver) succeeded(c *call, raw *domain.RawDocument) {
	ev := c.pending
	ev.Outcome = observability.OutcomeSuccess
	r.observe(c, ev)

	c.logger.Info().
		Str("mirror", raw.Mirror).
		Str("relay", raw.Relay).
		Str("strategy", raw.Strategy).
		Int("attempts", c.governor.Used()).
		Msg("mirror answered")
}

func (c *call) fail(endpoint, relay, strategy string, err error) {
	c.diagnostics = append(c.diagnostics, domain.AttemptDiagnostic{
		Endpoint: endpoint,
		Relay:    relay,
		Strategy: strategy,
		Error:    err.Error(),
	})
}

func (r *Resolver) observe(c *call, ev AttemptEvent) {
	if r.metrics != nil {
		r.metrics.RecordAttempt(string(ev.Registry), ev.Relay, ev.Outcome, ev.Duration.Seconds())
	}

	logger := observability.WithAttemptContext(c.logger, ev.Mirror, ev.Relay)
	logger.Debug().
		Err(ev.Err).
		Int("seq", ev.Seq).
		Str("outcome", ev.Outcome).
		Dur("duration", ev.Duration).
		Msg("attempt finished")

	for _, hook := range r.hooks {
		hook(ev)
	}
}

func (r *Resolver) finish(ctx context.Context, c *call, requestID string, records []domain.Record, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordResolution(c.path, c.outcome, elapsed.Seconds())
	}

	c.logger.Info().
		Str("path", c.path).
		Str("outcome", c.outcome).
		Int("records", len(records)).
		Int("attempts", c.governor.Used()).
		Int("failures", len(c.diagnostics)).
		AnErr("stop_reason", c.stopped).
		Dur("duration", elapsed).
		Msg("resolution completed")

	event := events.ResolutionCompleted{
		RequestID:  requestID,
		Query:      c.query.Display(),
		Kind:       string(c.query.Kind),
		Outcome:    c.outcome,
		Source:     string(records[0].Source),
		Records:    len(records),
		Attempts:   c.governor.Used(),
		DurationMs: elapsed.Milliseconds(),
	}

	// Publishing runs off the request path; a slow broker never delays the
	// answer.
	r.publishing.Add(1)
	go func() {
		defer r.publishing.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := r.publisher.PublishResolution(pubCtx, event); err != nil {
			c.logger.Warn().Err(err).Msg("failed to publish resolution event")
		}
	}()
}

// Flush waits for resolution events still being handed to the publisher.
func (r *Resolver) Flush() {
	r.publishing.Wait()
}
