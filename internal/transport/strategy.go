// Package transport retrieves raw documents through an ordered ladder of
// fetch strategies that share a single per-attempt deadline.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Strategy names, in default ladder order.
const (
	StrategyClient   = "client"
	StrategyIsolated = "isolated"
	StrategyRaw      = "raw"
	StrategyBrowser  = "browser"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 10 << 20

// Request is one outbound GET issued by a strategy.
type Request struct {
	URL          string
	Header       http.Header
	MaxBodyBytes int64
}

// Response is what a strategy read from the wire.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Strategy is one rung of the escalation ladder.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

var errEmptyBody = errors.New("empty response body")

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// rungErrors aggregates the per-strategy failures of one attempt.
type rungErrors []error

func (r rungErrors) Error() string {
	parts := make([]string, len(r))
	for i, err := range r {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func (r rungErrors) Unwrap() []error {
	return r
}

func newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

// readResponse drains a response into a Response, capping the body size.
func readResponse(resp *http.Response, limit int64) (*Response, error) {
	defer resp.Body.Close()

	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
