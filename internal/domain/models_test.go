package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Display(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"doi", Query{Kind: QueryKindDOI, DOI: "10.1/x", Raw: "doi:10.1/x"}, "10.1/x"},
		{"title and author", Query{Kind: QueryKindFreeText, Title: "Deep Nets", Author: "Smith"}, "Deep Nets Smith"},
		{"title only", Query{Kind: QueryKindFreeText, Title: "Deep Nets"}, "Deep Nets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Display())
		})
	}
}

func TestRelayDescriptor_IsDirect(t *testing.T) {
	assert.True(t, RelayDescriptor{Name: "direct"}.IsDirect())
	assert.False(t, RelayDescriptor{Name: "corsproxy", Prefix: "https://corsproxy.io/?"}.IsDirect())
}

func TestRawDocument_IsPDF(t *testing.T) {
	t.Run("content type", func(t *testing.T) {
		doc := &RawDocument{ContentType: "Application/PDF; charset=binary", Body: []byte("x")}
		assert.True(t, doc.IsPDF())
	})

	t.Run("magic bytes", func(t *testing.T) {
		doc := &RawDocument{ContentType: "application/octet-stream", Body: []byte("%PDF-1.7 ...")}
		assert.True(t, doc.IsPDF())
	})

	t.Run("html", func(t *testing.T) {
		doc := &RawDocument{ContentType: "text/html", Body: []byte("<html></html>")}
		assert.False(t, doc.IsPDF())
	})
}

func TestRecord_Normalize(t *testing.T) {
	t.Run("nil authors become empty slice", func(t *testing.T) {
		r := Record{Title: " A ", Year: -5}.Normalize()

		require.NotNil(t, r.Authors)
		assert.Empty(t, r.Authors)
		assert.Equal(t, "A", r.Title)
		assert.Equal(t, 0, r.Year)
		assert.NotEmpty(t, r.ID)
	})

	t.Run("blank authors dropped", func(t *testing.T) {
		r := Record{Authors: []string{" A ", "", "  ", "B"}}.Normalize()
		assert.Equal(t, []string{"A", "B"}, r.Authors)
	})
}

func TestRecord_Clone(t *testing.T) {
	orig := Record{Authors: []string{"A"}}
	clone := orig.Clone()
	clone.Authors[0] = "B"

	assert.Equal(t, "A", orig.Authors[0])
}

func TestNewRecord(t *testing.T) {
	a := NewRecord(SourceDOIResolution)
	b := NewRecord(SourceDOIResolution)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Authors)
	assert.Equal(t, SourceDOIResolution, a.Source)
	assert.False(t, a.IsStub())
	assert.True(t, NewRecord(SourceStub).IsStub())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("client", "https://m.example/10.1/x", 0, cause)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transport [client]: connection refused", err.Error())

	withStatus := NewTransportError("raw", "u", 503, nil)
	assert.Equal(t, "transport [raw]: HTTP 503", withStatus.Error())
	assert.ErrorIs(t, withStatus, ErrTransport)

	wrapped := fmt.Errorf("attempt: %w", err)
	var te *TransportError
	require.ErrorAs(t, wrapped, &te)
	assert.Equal(t, "client", te.Strategy)
}

func TestExtractionError(t *testing.T) {
	nf := NewNotFoundError("title \"sci-hub\"")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrMalformed)
	assert.Contains(t, nf.Error(), "not_found")

	mf := NewMalformedError("")
	assert.ErrorIs(t, mf, ErrMalformed)
	assert.Equal(t, "extraction failed: malformed", mf.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", "is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "validation error: query: is required", err.Error())
}
