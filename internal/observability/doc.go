// Package observability provides logging, metrics and context helpers for
// the literature resolution service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.DefaultLoggingConfig())
//	logger = observability.WithResolutionContext(logger, requestID, query.Display())
//	logger.Info().Str("mirror", m.Name).Msg("record extracted")
//
// # Metrics
//
//	metrics := observability.NewMetrics("literature_resolution")
//	metrics.RecordAttempt("doi", relay.Name, observability.OutcomeTransportError, elapsed.Seconds())
//	metrics.RecordResolution("doi", observability.OutcomeStub, total.Seconds())
//
// Components accept a *Metrics that may be nil.
//
// # Standard Fields
//
//   - request_id: resolution request identifier
//   - query: the displayed query (DOI or title plus author)
//   - mirror: mirror endpoint name
//   - relay: relay descriptor name
//   - strategy: transport strategy name
//   - component: emitting subsystem
//
// All components are safe for concurrent use from multiple goroutines.
package observability
