package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultTimeout bounds a single attempt when no timeout is given
	DefaultTimeout = 2 * time.Second
	// DefaultMaxBodyBytes caps the captured response body
	DefaultMaxBodyBytes int64 = 32 << 20
)

// Attempt carries the per-attempt parameters of one send
type Attempt struct {
	// Proxy routes the attempt through an HTTP proxy; nil sends it directly
	Proxy *url.URL
	// Timeout bounds this attempt only; zero uses the client default
	Timeout time.Duration
	// Number and Max are the 1-based attempt position, for logs and the response
	Number int
	Max    int
}

// Client issues single HTTP attempts. It keeps one transport per proxy so
// connections are reused by later attempts through the same proxy. A Client is
// safe for concurrent use.
type Client struct {
	timeout      time.Duration
	maxBodyBytes int64
	logger       *slog.Logger
	base         http.RoundTripper

	clients sync.Map // proxy key -> *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeout sets the default per-attempt timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodyBytes sets the response body limit
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRoundTripper replaces the transport for every attempt. Proxies are
// ignored when a custom round tripper is set.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.base = rt
	}
}

// NewClient creates a client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues one direct GET attempt
func (c *Client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Send(ctx, http.MethodGet, req, Attempt{Number: 1, Max: 1})
}

// Post issues one direct POST attempt
func (c *Client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Send(ctx, http.MethodPost, req, Attempt{Number: 1, Max: 1})
}

// Send issues one attempt of req with the given method. Transport errors,
// timeouts, oversized bodies and non-2xx statuses fail with *FetchError.
func (c *Client) Send(ctx context.Context, method string, req *Request, at Attempt) (*Response, error) {
	proxy := redact(at.Proxy)
	fail := func(status int, cause error) error {
		return &FetchError{URL: req.Target(), Proxy: proxy, StatusCode: status, Cause: cause}
	}

	timeout := at.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hreq, err := req.httpRequest(ctx, method)
	if err != nil {
		return nil, fail(0, err)
	}

	start := time.Now()
	hresp, err := c.httpClient(at.Proxy).Do(hreq)
	if err != nil {
		return nil, fail(0, err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fail(hresp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fail(hresp.StatusCode, ErrBodyTooLarge)
	}
	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, fail(hresp.StatusCode, &StatusError{Code: hresp.StatusCode, Status: hresp.Status})
	}

	c.logger.DebugContext(ctx, "request_completed",
		slog.String("method", method),
		slog.String("url", req.Target()),
		slog.String("proxy", proxy),
		slog.Int("status", hresp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	return &Response{
		StatusCode: hresp.StatusCode,
		Status:     hresp.Status,
		Header:     hresp.Header.Clone(),
		URL:        req.Target(),
		Proxy:      proxy,
		Attempt:    at.Number,
		body:       body,
	}, nil
}

// CloseIdleConnections closes idle connections of every cached transport
func (c *Client) CloseIdleConnections() {
	c.clients.Range(func(_, v any) bool {
		v.(*http.Client).CloseIdleConnections()
		return true
	})
}

func (c *Client) httpClient(proxy *url.URL) *http.Client {
	key := ""
	if proxy != nil && c.base == nil {
		key = proxy.String()
	}
	if v, ok := c.clients.Load(key); ok {
		return v.(*http.Client)
	}
	rt := c.base
	if rt == nil {
		rt = newTransport(proxy)
	}
	v, _ := c.clients.LoadOrStore(key, &http.Client{Transport: otelhttp.NewTransport(rt)})
	return v.(*http.Client)
}

func newTransport(proxy *url.URL) *http.Transport {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy)
	}
	return tr
}
