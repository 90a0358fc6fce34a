package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ClientStrategy issues requests through a pooled, rate-limited http.Client.
// It is safe for concurrent use.
type ClientStrategy struct {
	client      *http.Client
	rateLimiter *RateLimiter
}

// NewClientStrategy creates the first rung of the ladder.
func NewClientStrategy(rateLimiter *RateLimiter, insecureTLS bool) *ClientStrategy {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecureTLS}
	transport.MaxIdleConnsPerHost = 4

	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(0, 1)
	}
	return &ClientStrategy{
		client:      &http.Client{Transport: transport},
		rateLimiter: rateLimiter,
	}
}

// Name implements Strategy.
func (s *ClientStrategy) Name() string { return StrategyClient }

// Fetch implements Strategy.
func (s *ClientStrategy) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	return readResponse(resp, req.MaxBodyBytes)
}

// IsolatedStrategy builds a throwaway HTTP/1.1 client for every request so
// that no pooled connection, negotiated protocol or proxy setting leaks in
// from the first rung.
type IsolatedStrategy struct {
	insecureTLS bool
}

// NewIsolatedStrategy creates the second rung of the ladder.
func NewIsolatedStrategy(insecureTLS bool) *IsolatedStrategy {
	return &IsolatedStrategy{insecureTLS: insecureTLS}
}

// Name implements Strategy.
func (s *IsolatedStrategy) Name() string { return StrategyIsolated }

// Fetch implements Strategy.
func (s *IsolatedStrategy) Fetch(ctx context.Context, req *Request) (*Response, error) {
	transport := &http.Transport{
		DialContext:       (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		DisableKeepAlives: true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: s.insecureTLS,
			NextProtos:         []string{"http/1.1"},
		},
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}
	defer transport.CloseIdleConnections()

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Close = true

	resp, err := (&http.Client{Transport: transport}).Do(httpReq)
	if err != nil {
		return nil, err
	}
	return readResponse(resp, req.MaxBodyBytes)
}
