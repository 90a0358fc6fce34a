package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// RawStrategy writes an HTTP/1.1 request straight onto a TCP (or TLS)
// connection and parses the reply with http.ReadResponse.
type RawStrategy struct {
	insecureTLS bool
	dialer      net.Dialer
}

// NewRawStrategy creates the third rung of the ladder.
func NewRawStrategy(insecureTLS bool) *RawStrategy {
	return &RawStrategy{insecureTLS: insecureTLS}
}

// Name implements Strategy.
func (s *RawStrategy) Name() string { return StrategyRaw }

// Fetch implements Strategy.
func (s *RawStrategy) Fetch(ctx context.Context, req *Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	conn, err := s.dial(ctx, u)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Close = true

	if err := httpReq.Write(conn); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), httpReq)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return readResponse(resp, req.MaxBodyBytes)
}

func (s *RawStrategy) dial(ctx context.Context, u *url.URL) (net.Conn, error) {
	host := u.Hostname()
	port := u.Port()
	switch u.Scheme {
	case "http":
		if port == "" {
			port = "80"
		}
	case "https":
		if port == "" {
			port = "443"
		}
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if u.Scheme == "http" {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: s.insecureTLS,
		NextProtos:         []string{"http/1.1"},
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
