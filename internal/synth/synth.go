// Package synth builds the record returned to callers: either the first
// successful extraction unchanged, or a stub describing how to retry by hand.
package synth

import (
	"fmt"
	"strings"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

const (
	// StubTitlePrefix starts the title of every stub record.
	StubTitlePrefix = "search result: "

	// StubAuthor is the sole author of every stub record.
	StubAuthor = "system notice"

	// StubJournal marks the stub's venue field.
	StubJournal = "mirror access notice"

	// MaxDiagnostics is how many attempt failures a stub lists.
	MaxDiagnostics = 3
)

// Tips are the fixed troubleshooting hints included in every stub.
var Tips = []string{
	"Open one of the links above in a different browser.",
	"If the browser warns about an insecure or expired certificate, proceed to the site anyway.",
	"Switch to another network or connect through a VPN; several mirrors are blocked regionally.",
	"Retry later; mirror availability changes through the day.",
}

// Synthesize returns success unchanged when it is non-nil. Otherwise it
// builds a stub record for q listing links for manual retrieval, the fixed
// tips and the first few diagnostics in the order they were recorded.
func Synthesize(success *domain.Record, diagnostics []domain.AttemptDiagnostic, q domain.Query, links []string) domain.Record {
	if success != nil {
		return *success
	}

	rec := domain.NewRecord(domain.SourceStub)
	rec.Title = StubTitlePrefix + q.Display()
	rec.Authors = []string{StubAuthor}
	rec.Journal = StubJournal
	rec.Abstract = stubAbstract(diagnostics, links)
	rec.HasPDF = false
	if q.IsDOI() {
		rec.DOI = q.DOI
		rec.URL = "https://doi.org/" + q.DOI
	}
	return rec
}

// FormatDiagnostic renders one diagnostic as "endpoint via relay [strategy]: error".
func FormatDiagnostic(d domain.AttemptDiagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Endpoint)
	if d.Relay != "" {
		sb.WriteString(" via ")
		sb.WriteString(d.Relay)
	}
	if d.Strategy != "" {
		sb.WriteString(" [")
		sb.WriteString(d.Strategy)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(d.Error)
	return sb.String()
}

func stubAbstract(diagnostics []domain.AttemptDiagnostic, links []string) string {
	var sb strings.Builder

	sb.WriteString("No mirror returned this document. You can try the mirrors directly:\n")
	for i, link := range links {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, link)
	}

	sb.WriteString("\nTips:\n")
	for _, tip := range Tips {
		sb.WriteString("- ")
		sb.WriteString(tip)
		sb.WriteString("\n")
	}

	if len(diagnostics) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, d := range diagnostics[:min(len(diagnostics), MaxDiagnostics)] {
			sb.WriteString("- ")
			sb.WriteString(FormatDiagnostic(d))
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
