package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/observability"
)

type fakeStrategy struct {
	name  string
	calls atomic.Int32
	fetch func(ctx context.Context, req *Request) (*Response, error)
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, req *Request) (*Response, error) {
	f.calls.Add(1)
	return f.fetch(ctx, req)
}

func okHTML(body string) func(context.Context, *Request) (*Response, error) {
	return func(context.Context, *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte(body)}, nil
	}
}

func failWith(err error) func(context.Context, *Request) (*Response, error) {
	return func(context.Context, *Request) (*Response, error) {
		return nil, err
	}
}

func blockUntilDone(ctx context.Context, _ *Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func directTarget(url string) Target {
	return Target{URL: url, Mirror: "test-mirror", Relay: domain.RelayDescriptor{Name: "direct"}}
}

func TestEscalator_DefaultLadder(t *testing.T) {
	e := New(Config{}, zerolog.Nop(), nil)
	assert.Equal(t, []string{StrategyClient, StrategyIsolated, StrategyRaw}, e.Strategies())
	assert.Equal(t, 10*time.Second, e.cfg.Timeout)
	assert.Equal(t, DefaultUserAgent, e.cfg.UserAgent)
	assert.Equal(t, DefaultMaxBodyBytes, e.cfg.MaxBodyBytes)

	withBrowser := New(Config{Browser: &BrowserConfig{}}, zerolog.Nop(), nil)
	assert.Equal(t, []string{StrategyClient, StrategyIsolated, StrategyRaw, StrategyBrowser}, withBrowser.Strategies())
	require.NoError(t, withBrowser.Close())
}

func TestEscalator_Attempt(t *testing.T) {
	t.Run("first rung wins", func(t *testing.T) {
		first := &fakeStrategy{name: "a", fetch: okHTML("<html>ok</html>")}
		second := &fakeStrategy{name: "b", fetch: okHTML("<html>never</html>")}
		e := NewWithStrategies(Config{}, []Strategy{first, second}, zerolog.Nop(), nil)

		doc, err := e.Attempt(context.Background(), directTarget("http://m.example/10.1/x"))
		require.NoError(t, err)

		assert.Equal(t, "a", doc.Strategy)
		assert.Equal(t, "test-mirror", doc.Mirror)
		assert.Equal(t, "direct", doc.Relay)
		assert.Equal(t, "http://m.example/10.1/x", doc.URL)
		assert.Equal(t, int32(0), second.calls.Load())
	})

	t.Run("escalates past errors, bad status and blank bodies", func(t *testing.T) {
		netErr := &fakeStrategy{name: "a", fetch: failWith(errors.New("connection reset"))}
		badStatus := &fakeStrategy{name: "b", fetch: func(context.Context, *Request) (*Response, error) {
			return &Response{StatusCode: http.StatusForbidden, Body: []byte("denied")}, nil
		}}
		blank := &fakeStrategy{name: "c", fetch: okHTML(" \n\t ")}
		good := &fakeStrategy{name: "d", fetch: okHTML("<html>content</html>")}
		e := NewWithStrategies(Config{}, []Strategy{netErr, badStatus, blank, good}, zerolog.Nop(), nil)

		doc, err := e.Attempt(context.Background(), directTarget("http://m.example/x"))
		require.NoError(t, err)
		assert.Equal(t, "d", doc.Strategy)
		assert.Equal(t, "<html>content</html>", string(doc.Body))
	})

	t.Run("all rungs fail", func(t *testing.T) {
		a := &fakeStrategy{name: "a", fetch: failWith(errors.New("refused"))}
		b := &fakeStrategy{name: "b", fetch: func(context.Context, *Request) (*Response, error) {
			return &Response{StatusCode: http.StatusServiceUnavailable}, nil
		}}
		e := NewWithStrategies(Config{}, []Strategy{a, b}, zerolog.Nop(), nil)

		doc, err := e.Attempt(context.Background(), directTarget("http://m.example/x"))
		assert.Nil(t, doc)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransport)

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "a>b", te.Strategy)
		assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
		assert.Contains(t, err.Error(), "a: refused")
		assert.Contains(t, err.Error(), "b: HTTP 503")
	})

	t.Run("no strategies", func(t *testing.T) {
		e := NewWithStrategies(Config{}, nil, zerolog.Nop(), nil)
		_, err := e.Attempt(context.Background(), directTarget("http://m.example/x"))
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestEscalator_SharedDeadline(t *testing.T) {
	first := &fakeStrategy{name: "a", fetch: blockUntilDone}
	second := &fakeStrategy{name: "b", fetch: blockUntilDone}
	third := &fakeStrategy{name: "c", fetch: okHTML("<html>late</html>")}
	e := NewWithStrategies(Config{Timeout: 50 * time.Millisecond}, []Strategy{first, second, third}, zerolog.Nop(), nil)

	start := time.Now()
	doc, err := e.Attempt(context.Background(), directTarget("http://m.example/x"))
	elapsed := time.Since(start)

	assert.Nil(t, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second, "deadline must not restart per rung")

	// The first rung consumes the whole deadline; later rungs fail without
	// being given fresh time.
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(0), second.calls.Load())
	assert.Equal(t, int32(0), third.calls.Load())
	assert.Contains(t, err.Error(), "c: context deadline exceeded")
}

func TestEscalator_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeStrategy{name: "a", fetch: okHTML("<html/>")}
	e := NewWithStrategies(Config{}, []Strategy{s}, zerolog.Nop(), nil)

	_, err := e.Attempt(ctx, directTarget("http://m.example/x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestEscalator_Headers(t *testing.T) {
	var got http.Header
	capture := &fakeStrategy{name: "a", fetch: func(_ context.Context, req *Request) (*Response, error) {
		got = req.Header
		return &Response{StatusCode: http.StatusOK, Body: []byte("x")}, nil
	}}
	e := NewWithStrategies(Config{Origin: "http://localhost:3000"}, []Strategy{capture}, zerolog.Nop(), nil)

	t.Run("relay without origin requirement", func(t *testing.T) {
		_, err := e.Attempt(context.Background(), directTarget("http://m.example/x"))
		require.NoError(t, err)
		assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
		assert.Empty(t, got.Get("Origin"))
	})

	t.Run("relay requiring origin", func(t *testing.T) {
		target := Target{
			URL:   "http://m.example/x",
			Relay: domain.RelayDescriptor{Name: "corsproxy", Prefix: "https://corsproxy.io/?", NeedsOrigin: true},
		}
		_, err := e.Attempt(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000", got.Get("Origin"))
	})
}

func TestEscalator_RelayWrapping(t *testing.T) {
	var gotQuery atomic.Value
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>relayed</title></html>"))
	}))
	defer relay.Close()

	e := New(Config{}, zerolog.Nop(), nil)
	target := Target{
		URL:    "https://sci-hub.example/10.1000/xyz123",
		Mirror: "sci-hub.example",
		Relay:  domain.RelayDescriptor{Name: "test-relay", Prefix: relay.URL + "/?"},
	}

	doc, err := e.Attempt(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, StrategyClient, doc.Strategy)
	assert.Equal(t, "test-relay", doc.Relay)
	assert.Equal(t, "https://sci-hub.example/10.1000/xyz123", gotQuery.Load())
}

func TestEscalator_RealLadder(t *testing.T) {
	t.Run("every rung sees the failing status", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		metrics := observability.NewMetrics("test_transport_ladder")
		e := New(Config{}, zerolog.Nop(), metrics)

		_, err := e.Attempt(context.Background(), directTarget(srv.URL+"/10.1/x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.Equal(t, int32(3), hits.Load())
		assert.Equal(t, 3, strings.Count(err.Error(), "HTTP 502"))

		for _, name := range []string{StrategyClient, StrategyIsolated, StrategyRaw} {
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.TransportStrategyFailures.WithLabelValues(name)), name)
		}
	})

	t.Run("pdf payload is tagged", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("%PDF-1.4\n%binary"))
		}))
		defer srv.Close()

		e := New(Config{}, zerolog.Nop(), nil)
		doc, err := e.Attempt(context.Background(), directTarget(srv.URL+"/10.1/x"))
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", doc.ContentType)
		assert.True(t, doc.IsPDF())
	})

	t.Run("body is capped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
		}))
		defer srv.Close()

		e := New(Config{MaxBodyBytes: 16}, zerolog.Nop(), nil)
		doc, err := e.Attempt(context.Background(), directTarget(srv.URL))
		require.NoError(t, err)
		assert.Len(t, doc.Body, 16)
	})
}
