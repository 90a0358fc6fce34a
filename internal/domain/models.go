// Package domain contains the data model of the literature resolution engine.
package domain

import "strings"

// QueryKind tells which resolution path a query takes.
type QueryKind string

const (
	// QueryKindDOI is a query that carries a DOI.
	QueryKindDOI QueryKind = "doi"
	// QueryKindFreeText is a title and optional author query.
	QueryKindFreeText QueryKind = "free_text"
)

// Query is a classified, immutable resolution input.
type Query struct {
	Kind   QueryKind
	Raw    string
	DOI    string
	Title  string
	Author string
}

// IsDOI reports whether the query takes the DOI path.
func (q Query) IsDOI() bool {
	return q.Kind == QueryKindDOI
}

// Display returns the text used to describe the query to a human.
func (q Query) Display() string {
	if q.IsDOI() {
		return q.DOI
	}
	return strings.TrimSpace(q.Title + " " + q.Author)
}

// RegistryKind names the mirror registry an endpoint belongs to.
type RegistryKind string

const (
	// RegistryDOI holds document-delivery mirrors addressed by DOI.
	RegistryDOI RegistryKind = "doi"
	// RegistrySearch holds scholarly-search mirrors addressed by query.
	RegistrySearch RegistryKind = "search"
)

// MirrorEndpoint is one alternate source for the same logical service.
type MirrorEndpoint struct {
	Name     string       `json:"name"`
	BaseURL  string       `json:"base_url"`
	Registry RegistryKind `json:"registry"`
	// EncodeParens percent-encodes parentheses in DOIs for mirror
	// families that reject them raw.
	EncodeParens bool `json:"encode_parens,omitempty"`
}

// RelayDescriptor is a pass-through relay. An empty Prefix means a direct request.
type RelayDescriptor struct {
	Name        string `json:"name"`
	Prefix      string `json:"prefix"`
	NeedsOrigin bool   `json:"needs_origin,omitempty"`
}

// IsDirect reports whether the relay performs no relaying.
func (r RelayDescriptor) IsDirect() bool {
	return r.Prefix == ""
}

// RawDocument is the unparsed content of one successful transport attempt.
type RawDocument struct {
	Body        []byte
	ContentType string
	URL         string
	Mirror      string
	Relay       string
	Strategy    string
}

// IsPDF reports whether the payload is a PDF rather than an HTML page.
func (d *RawDocument) IsPDF() bool {
	if strings.Contains(strings.ToLower(d.ContentType), "application/pdf") {
		return true
	}
	return len(d.Body) >= 5 && string(d.Body[:5]) == "%PDF-"
}

// AttemptDiagnostic records one failed (mirror, relay) attempt.
type AttemptDiagnostic struct {
	Endpoint string `json:"endpoint"`
	Relay    string `json:"relay"`
	Strategy string `json:"strategy"`
	Error    string `json:"error"`
}
