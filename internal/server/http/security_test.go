package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/mirrors/health"
	"github.com/helixir/literature-resolution-service/internal/resolver"
)

// ---------------------------------------------------------------------------
// TestInjectionPayloads_QueryField
// ---------------------------------------------------------------------------

// TestInjectionPayloads_QueryField verifies that injection payloads in the
// query field reach the resolver verbatim and never produce a 500.
func TestInjectionPayloads_QueryField(t *testing.T) {
	payloads := []struct {
		name  string
		query string
	}{
		{"drop table", "'; DROP TABLE papers; --"},
		{"boolean tautology", "1 OR 1=1"},
		{"path traversal", "../../etc/passwd"},
		{"url in query", "https://evil.example/?q=1&r=2"},
		{"newline smuggling", "query\r\nX-Injected: 1"},
		{"null byte", "title\u0000suffix"},
	}

	for _, tc := range payloads {
		t.Run(tc.name, func(t *testing.T) {
			res := &mockResolver{}
			s := newTestServer(res, nil)

			body, err := json.Marshal(map[string]string{"query": tc.query})
			if err != nil {
				t.Fatalf("failed to marshal body: %v", err)
			}

			rr := doRequest(t, s, http.MethodPost, "/api/v1/resolve", body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := res.last().Query; got != strings.TrimSpace(tc.query) {
				t.Errorf("expected query passed verbatim, got %q", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestXSSPayload_Escaped
// ---------------------------------------------------------------------------

// TestXSSPayload_Escaped verifies that markup echoed back in a stub title is
// HTML-escaped by the JSON encoder.
func TestXSSPayload_Escaped(t *testing.T) {
	res := &mockResolver{
		resolveFn: func(_ context.Context, req resolver.Request) []domain.Record {
			stub := domain.NewRecord(domain.SourceStub)
			stub.Title = "search result: " + req.Query
			return []domain.Record{stub}
		},
	}
	s := newTestServer(res, nil)

	rr := doRequest(t, s, http.MethodPost, "/api/v1/resolve", []byte(`{"query":"<script>alert(1)</script>"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "<script>") {
		t.Errorf("response contains raw markup: %s", rr.Body.String())
	}

	var resp resolveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Records[0].Title != "search result: <script>alert(1)</script>" {
		t.Errorf("unexpected decoded title %q", resp.Records[0].Title)
	}
}

// ---------------------------------------------------------------------------
// TestMaxQueryLength_Security
// ---------------------------------------------------------------------------

// TestMaxQueryLength_Security verifies that the query length boundary is
// enforced precisely at maxQueryLength.
func TestMaxQueryLength_Security(t *testing.T) {
	t.Run("exactly maxQueryLength succeeds", func(t *testing.T) {
		s := newTestServer(&mockResolver{}, nil)
		body := fmt.Sprintf(`{"query":%q}`, strings.Repeat("q", maxQueryLength))

		rr := doRequest(t, s, http.MethodPost, "/api/v1/resolve", []byte(body))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("maxQueryLength+1 rejected", func(t *testing.T) {
		s := newTestServer(&mockResolver{}, nil)
		body := fmt.Sprintf(`{"query":%q}`, strings.Repeat("q", maxQueryLength+1))

		rr := doRequest(t, s, http.MethodPost, "/api/v1/resolve", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if strings.Contains(rr.Body.String(), "qqqq") {
			t.Error("error response must not echo the input")
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		s := newTestServer(&mockResolver{}, nil)
		body := `{"query":"` + strings.Repeat("q", maxRequestBodySize) + `"}`

		rr := doRequest(t, s, http.MethodPost, "/api/v1/resolve", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// TestProbeError_NeverLeaksInternalDetails
// ---------------------------------------------------------------------------

// TestProbeError_NeverLeaksInternalDetails ensures probe failures map to a
// generic message.
func TestProbeError_NeverLeaksInternalDetails(t *testing.T) {
	prober := &mockProber{probeFn: func(context.Context, []domain.MirrorEndpoint) ([]health.Result, error) {
		return nil, fmt.Errorf("probe mirrors: dial tcp 10.0.1.20:443: %w", context.DeadlineExceeded)
	}}
	s := newTestServer(&mockResolver{}, prober)

	rr := doRequest(t, s, http.MethodGet, "/api/v1/mirrors/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	for _, fragment := range []string{"10.0.1.20", "dial tcp", "443"} {
		if strings.Contains(rr.Body.String(), fragment) {
			t.Errorf("response body contains sensitive fragment %q: %s", fragment, rr.Body.String())
		}
	}
}
