package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// browserCleanupTimeout bounds teardown calls made after a fetch's own
// deadline may have passed.
const browserCleanupTimeout = 2 * time.Second

// BrowserConfig configures the headless browser rung.
type BrowserConfig struct {
	// Bin is the Chromium binary. Empty lets the launcher locate or download one.
	Bin string

	// ControlURL connects to an already running browser instead of launching.
	ControlURL string
}

// BrowserStrategy renders the target in headless Chromium and returns the
// resulting DOM. The browser is started lazily on first use and shared by
// all fetches; every fetch gets its own incognito context.
type BrowserStrategy struct {
	cfg BrowserConfig

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	socket   *guardedDialer
}

// NewBrowserStrategy creates the optional last rung of the ladder.
func NewBrowserStrategy(cfg BrowserConfig) *BrowserStrategy {
	return &BrowserStrategy{cfg: cfg}
}

// Name implements Strategy.
func (s *BrowserStrategy) Name() string { return StrategyBrowser }

// Fetch implements Strategy. Every DevTools call, including starting or
// connecting to the browser, is bound to ctx.
func (s *BrowserStrategy) Fetch(ctx context.Context, req *Request) (*Response, error) {
	browser, err := s.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	incognito, err := browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), browserCleanupTimeout)
		defer cancel()
		_ = incognito.Context(cleanupCtx).Close()
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := applyHeaders(page, req.Header); err != nil {
		return nil, err
	}
	if err := page.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read dom: %w", err)
	}

	body := []byte(html)
	if limit := req.MaxBodyBytes; limit > 0 && int64(len(body)) > limit {
		body = body[:limit]
	}
	// The DevTools protocol does not surface the document status here; a
	// rendered DOM is treated as a 200.
	return &Response{
		StatusCode:  http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        body,
	}, nil
}

// Close shuts the browser down if it was started.
func (s *BrowserStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), browserCleanupTimeout)
	defer cancel()

	err := s.browser.Context(ctx).Close()
	s.socket.close()
	discard(s.launcher)
	s.browser, s.launcher, s.socket = nil, nil, nil
	return err
}

// ensureBrowser returns the shared browser, starting it under ctx when no
// fetch has done so yet. The lock is not held while connecting.
func (s *BrowserStrategy) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()
	if browser != nil {
		return browser, nil
	}

	browser, l, socket, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		// Another fetch won the race; keep its browser.
		socket.close()
		go discard(l)
		return s.browser, nil
	}
	s.browser, s.launcher, s.socket = browser, l, socket
	return browser, nil
}

func (s *BrowserStrategy) connect(ctx context.Context) (*rod.Browser, *launcher.Launcher, *guardedDialer, error) {
	controlURL := s.cfg.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Context(ctx).Headless(true)
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("launch browser: %w", connectCause(ctx, err))
		}
		controlURL = u
	}

	u, err := url.Parse(controlURL)
	if err != nil {
		go discard(l)
		return nil, nil, nil, fmt.Errorf("parse control url: %w", err)
	}

	dialer := &guardedDialer{tls: u.Scheme == "wss"}
	ws := &cdp.WebSocket{Dialer: dialer}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		dialer.close()
		go discard(l)
		return nil, nil, nil, fmt.Errorf("connect to browser: %w", connectCause(ctx, err))
	}

	browser := rod.New().Client(cdp.New().Start(ws))
	if err := browser.Connect(); err != nil {
		dialer.close()
		go discard(l)
		return nil, nil, nil, fmt.Errorf("connect to browser: %w", connectCause(ctx, err))
	}
	if !dialer.release() {
		dialer.close()
		go discard(l)
		return nil, nil, nil, fmt.Errorf("connect to browser: %w", ctx.Err())
	}
	return browser, l, dialer, nil
}

// discard stops a launched browser process and removes its profile.
func discard(l *launcher.Launcher) {
	if l == nil {
		return
	}
	l.Kill()
	l.Cleanup()
}

// connectCause prefers the context error so callers can match on deadlines.
func connectCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// guardedDialer opens the DevTools socket and expires it when the dialing
// context ends, until release is called. The websocket handshake and the
// first protocol call do not watch the context themselves.
type guardedDialer struct {
	tls bool

	conn net.Conn
	stop func() bool
}

// DialContext implements cdp.Dialer.
func (d *guardedDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		port := "80"
		if d.tls {
			port = "443"
		}
		address = net.JoinHostPort(address, port)
	}

	var (
		conn net.Conn
		err  error
	)
	if d.tls {
		conn, err = (&tls.Dialer{}).DialContext(ctx, network, address)
	} else {
		conn, err = (&net.Dialer{}).DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, err
	}

	d.conn = conn
	d.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	return conn, nil
}

// release detaches the socket from the dialing context. It reports false
// when the context already expired the socket.
func (d *guardedDialer) release() bool {
	return d.stop != nil && d.stop()
}

func (d *guardedDialer) close() {
	if d == nil {
		return
	}
	if d.stop != nil {
		d.stop()
	}
	if d.conn != nil {
		_ = d.conn.Close()
	}
}

func applyHeaders(page *rod.Page, header http.Header) error {
	var extra []string
	for k := range header {
		v := header.Get(k)
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: v}); err != nil {
				return fmt.Errorf("set user agent: %w", err)
			}
			continue
		}
		extra = append(extra, k, v)
	}
	if len(extra) == 0 {
		return nil
	}
	if _, err := page.SetExtraHeaders(extra); err != nil {
		return fmt.Errorf("set headers: %w", err)
	}
	return nil
}
