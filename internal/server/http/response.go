package httpserver

import (
	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/mirrors/health"
)

// Response types for JSON serialization.

type resolveResponse struct {
	Records []domain.Record `json:"records"`
	Count   int             `json:"count"`
	// Stub is true when the only record is the degraded retry notice.
	Stub bool `json:"stub"`
}

type mirrorsResponse struct {
	DOIMirrors    []domain.MirrorEndpoint  `json:"doi_mirrors"`
	SearchMirrors []domain.MirrorEndpoint  `json:"search_mirrors"`
	Relays        []domain.RelayDescriptor `json:"relays"`
}

type healthResponse struct {
	Results []health.Result `json:"results"`
	Up      int             `json:"up"`
	Total   int             `json:"total"`
}
