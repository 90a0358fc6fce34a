// Package mirrors holds the ordered endpoint catalogs used by the resolver:
// document-delivery mirrors addressed by DOI, scholarly-search mirrors
// addressed by query, and the relay chain shared by both.
//
// A Catalog is immutable once built. Order encodes priority and is never
// changed by this package, so a single Catalog can be shared by any number
// of concurrent resolution calls without locking.
package mirrors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

// Catalog is the read-only set of mirrors, relays and DOI overrides.
type Catalog struct {
	doiMirrors    []domain.MirrorEndpoint
	searchMirrors []domain.MirrorEndpoint
	relays        []domain.RelayDescriptor
	overrides     map[string]domain.Record
}

// NewCatalog creates a catalog from explicit endpoint lists. The slices are
// copied, so later changes by the caller do not leak into the catalog.
// Registry kinds are stamped onto the endpoints.
func NewCatalog(doi, search []domain.MirrorEndpoint, relays []domain.RelayDescriptor, overrides []Override) *Catalog {
	c := &Catalog{
		doiMirrors:    stamp(doi, domain.RegistryDOI),
		searchMirrors: stamp(search, domain.RegistrySearch),
		relays:        append([]domain.RelayDescriptor(nil), relays...),
		overrides:     make(map[string]domain.Record, len(overrides)),
	}
	for _, o := range overrides {
		c.overrides[o.DOI] = o.Record.Clone()
	}
	return c
}

func stamp(endpoints []domain.MirrorEndpoint, kind domain.RegistryKind) []domain.MirrorEndpoint {
	out := make([]domain.MirrorEndpoint, len(endpoints))
	for i, e := range endpoints {
		e.Registry = kind
		e.BaseURL = strings.TrimRight(e.BaseURL, "/")
		out[i] = e
	}
	return out
}

// MirrorsFor returns the mirrors of one registry in priority order.
func (c *Catalog) MirrorsFor(kind domain.RegistryKind) []domain.MirrorEndpoint {
	switch kind {
	case domain.RegistryDOI:
		return c.DOIMirrors()
	case domain.RegistrySearch:
		return c.SearchMirrors()
	default:
		return nil
	}
}

// DOIMirrors returns a copy of the document-delivery mirrors in priority order.
func (c *Catalog) DOIMirrors() []domain.MirrorEndpoint {
	return append([]domain.MirrorEndpoint(nil), c.doiMirrors...)
}

// SearchMirrors returns a copy of the scholarly-search mirrors in priority order.
func (c *Catalog) SearchMirrors() []domain.MirrorEndpoint {
	return append([]domain.MirrorEndpoint(nil), c.searchMirrors...)
}

// Relays returns a copy of the relay chain in priority order.
func (c *Catalog) Relays() []domain.RelayDescriptor {
	return append([]domain.RelayDescriptor(nil), c.relays...)
}

// Override returns the hard-coded record for an exact DOI match. Each call
// returns a fresh copy with a new local ID.
func (c *Catalog) Override(doi string) (domain.Record, bool) {
	rec, ok := c.overrides[doi]
	if !ok {
		return domain.Record{}, false
	}
	rec = rec.Clone()
	rec.ID = domain.NewRecordID()
	return rec, true
}

// DirectLinks returns the DOI URL on every document-delivery mirror, in
// priority order, for a human to retry manually.
func (c *Catalog) DirectLinks(doi string) []string {
	links := make([]string, 0, len(c.doiMirrors))
	for _, m := range c.doiMirrors {
		links = append(links, DOIURL(m, doi))
	}
	return links
}

// SearchLinks returns the search URL on every scholarly-search mirror.
func (c *Catalog) SearchLinks(q string) []string {
	links := make([]string, 0, len(c.searchMirrors))
	for _, m := range c.searchMirrors {
		links = append(links, SearchURL(m, q))
	}
	return links
}

// DOIURL builds "<base>/<doi>", percent-encoding parentheses for mirror
// families that require it.
func DOIURL(m domain.MirrorEndpoint, doi string) string {
	if m.EncodeParens {
		doi = strings.NewReplacer("(", "%28", ")", "%29").Replace(doi)
	}
	return m.BaseURL + "/" + doi
}

// SearchURL builds "<base>/scholar?q=<query>".
func SearchURL(m domain.MirrorEndpoint, q string) string {
	return fmt.Sprintf("%s/scholar?q=%s", m.BaseURL, url.QueryEscape(q))
}

// Wrap routes target through the relay. Direct relays return target unchanged.
func Wrap(r domain.RelayDescriptor, target string) string {
	if r.IsDirect() {
		return target
	}
	return r.Prefix + target
}
