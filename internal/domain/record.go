package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SourceTag identifies which subsystem produced a record.
type SourceTag string

const (
	// SourceDOIResolution marks records extracted from a document-delivery mirror.
	SourceDOIResolution SourceTag = "doi-resolution"
	// SourceScholarSearch marks records extracted from a scholarly-search listing.
	SourceScholarSearch SourceTag = "scholar-search"
	// SourceStub marks the synthetic record returned when probing is exhausted.
	SourceStub SourceTag = "stub"
)

// UnknownAuthor is the placeholder used when no author could be located.
const UnknownAuthor = "unknown"

// Record is a normalized bibliographic record.
//
// Authors is never nil, Year is 0 when unknown and empty strings mean
// "unknown" for the optional text fields. Records are immutable once built.
type Record struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Authors  []string  `json:"authors"`
	Year     int       `json:"year"`
	Journal  string    `json:"journal"`
	Abstract string    `json:"abstract"`
	DOI      string    `json:"doi"`
	URL      string    `json:"url"`
	PDFURL   string    `json:"pdf_url"`
	Source   SourceTag `json:"source"`
	HasPDF   bool      `json:"has_pdf"`
}

// NewRecord creates a record with a fresh local ID and an empty author list.
func NewRecord(source SourceTag) Record {
	return Record{
		ID:      NewRecordID(),
		Authors: []string{},
		Source:  source,
	}
}

// NewRecordID generates a local, non-stable record identifier.
func NewRecordID() string {
	return uuid.NewString()
}

// Normalize restores the record invariants: trimmed text, a non-nil author
// list without blank entries and a non-negative year.
func (r Record) Normalize() Record {
	r.Title = strings.TrimSpace(r.Title)
	r.Journal = strings.TrimSpace(r.Journal)
	r.Abstract = strings.TrimSpace(r.Abstract)
	r.DOI = strings.TrimSpace(r.DOI)

	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	r.Authors = authors

	if r.Year < 0 {
		r.Year = 0
	}
	if r.ID == "" {
		r.ID = NewRecordID()
	}
	return r
}

// Clone returns a deep copy so callers can never share an author slice.
func (r Record) Clone() Record {
	authors := make([]string, len(r.Authors))
	copy(authors, r.Authors)
	r.Authors = authors
	return r
}

// IsStub reports whether the record is the degraded synthetic result.
func (r Record) IsStub() bool {
	return r.Source == SourceStub
}
