package synth

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

func TestSynthesize_SuccessUnchanged(t *testing.T) {
	success := domain.Record{
		ID:      "fixed",
		Title:   "Example Paper",
		Authors: []string{"A", "B"},
		Source:  domain.SourceDOIResolution,
	}

	got := Synthesize(&success, []domain.AttemptDiagnostic{{Endpoint: "m", Error: "x"}}, domain.Query{}, nil)
	assert.Equal(t, success, got)
}

func TestSynthesize_DOIStub(t *testing.T) {
	q := domain.Query{Kind: domain.QueryKindDOI, DOI: "10.1000/xyz123", Raw: "10.1000/xyz123"}
	links := []string{"https://m1.example/10.1000/xyz123", "https://m2.example/10.1000/xyz123"}
	diags := []domain.AttemptDiagnostic{
		{Endpoint: "m1.example", Relay: "corsproxy", Strategy: "client>isolated>raw", Error: "timeout"},
		{Endpoint: "m1.example", Relay: "direct", Strategy: "client", Error: "HTTP 503"},
		{Endpoint: "m2.example", Relay: "direct", Error: "not found"},
		{Endpoint: "m2.example", Relay: "allorigins", Error: "fourth failure"},
	}

	rec := Synthesize(nil, diags, q, links)

	assert.True(t, rec.IsStub())
	assert.Equal(t, "search result: 10.1000/xyz123", rec.Title)
	assert.Equal(t, []string{StubAuthor}, rec.Authors)
	assert.Equal(t, StubJournal, rec.Journal)
	assert.False(t, rec.HasPDF)
	assert.Equal(t, 0, rec.Year)
	assert.Equal(t, "10.1000/xyz123", rec.DOI)
	assert.Equal(t, "https://doi.org/10.1000/xyz123", rec.URL)
	assert.NotEmpty(t, rec.ID)

	assert.Contains(t, rec.Abstract, "1. https://m1.example/10.1000/xyz123")
	assert.Contains(t, rec.Abstract, "2. https://m2.example/10.1000/xyz123")
	for _, tip := range Tips {
		assert.Contains(t, rec.Abstract, tip)
	}
	assert.Contains(t, rec.Abstract, "m1.example via corsproxy [client>isolated>raw]: timeout")
	assert.Contains(t, rec.Abstract, "m2.example via direct: not found")
	assert.NotContains(t, rec.Abstract, "fourth failure")

	// Diagnostics keep their recorded order.
	assert.Less(t, strings.Index(rec.Abstract, "timeout"), strings.Index(rec.Abstract, "HTTP 503"))
}

func TestSynthesize_FreeTextStub(t *testing.T) {
	q := domain.Query{Kind: domain.QueryKindFreeText, Title: "Deep Nets", Author: "Smith"}

	rec := Synthesize(nil, nil, q, []string{"https://s.example/scholar?q=Deep+Nets"})

	assert.Equal(t, "search result: Deep Nets Smith", rec.Title)
	assert.Empty(t, rec.DOI)
	assert.Empty(t, rec.URL)
	assert.NotContains(t, rec.Abstract, "Errors:")
	require.NotNil(t, rec.Authors)
}

func TestSynthesize_FreshIDs(t *testing.T) {
	q := domain.Query{Kind: domain.QueryKindFreeText, Title: "x"}
	a := Synthesize(nil, nil, q, nil)
	b := Synthesize(nil, nil, q, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFormatDiagnostic(t *testing.T) {
	tests := []struct {
		d    domain.AttemptDiagnostic
		want string
	}{
		{domain.AttemptDiagnostic{Endpoint: "m", Relay: "r", Strategy: "s", Error: "e"}, "m via r [s]: e"},
		{domain.AttemptDiagnostic{Endpoint: "m", Error: "e"}, "m: e"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDiagnostic(tt.d))
		})
	}
}
