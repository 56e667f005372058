package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"quantkit/internal/request"
)

// ErrMethodNotSupported is the cause of a FetchError for non-GET attempts
var ErrMethodNotSupported = errors.New("headless browser only performs GET navigations")

// Sender renders pages in headless Chrome, one browser per attempt so every
// attempt can use its own proxy. It satisfies fetch.Sender.
type Sender struct {
	allocOpts    []chromedp.ExecAllocatorOption
	waitVisible  string
	timeout      time.Duration
	maxBodyBytes int64
	logger       *slog.Logger
}

// Option configures a Sender
type Option func(*Sender)

// WithWaitVisible waits for selector to become visible before the page is captured
func WithWaitVisible(selector string) Option {
	return func(s *Sender) { s.waitVisible = selector }
}

// WithTimeout sets the per-attempt timeout used when the attempt carries none
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBodyBytes caps the captured document size
func WithMaxBodyBytes(n int64) Option {
	return func(s *Sender) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllocatorOptions appends exec allocator options, such as chromedp.ExecPath
func WithAllocatorOptions(opts ...chromedp.ExecAllocatorOption) Option {
	return func(s *Sender) { s.allocOpts = append(s.allocOpts, opts...) }
}

// NewSender creates a headless browser sender
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		allocOpts:    append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...),
		timeout:      request.DefaultTimeout,
		maxBodyBytes: request.DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send navigates to the request target and captures the rendered document.
// A non-2xx navigation status fails the attempt like an HTTP error would.
func (s *Sender) Send(ctx context.Context, method string, req *request.Request, at request.Attempt) (*request.Response, error) {
	proxy := ""
	if at.Proxy != nil {
		proxy = at.Proxy.Redacted()
	}
	fail := func(status int, cause error) error {
		return &request.FetchError{URL: req.Target(), Proxy: proxy, StatusCode: status, Cause: cause}
	}
	if method != http.MethodGet {
		return nil, fail(0, ErrMethodNotSupported)
	}

	timeout := at.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions(req, at.Proxy)...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	start := time.Now()
	pre := []chromedp.Action{network.Enable()}
	if extra := extraHeaders(req.Header); len(extra) > 0 {
		pre = append(pre, network.SetExtraHTTPHeaders(extra))
	}
	if err := chromedp.Run(tabCtx, pre...); err != nil {
		return nil, fail(0, fmt.Errorf("start browser: %w", err))
	}

	nav, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(req.Target()))
	if err != nil {
		return nil, fail(0, err)
	}
	if nav == nil {
		return nil, fail(0, errors.New("navigation produced no response"))
	}
	status := int(nav.Status)
	if status < 200 || status > 299 {
		return nil, fail(status, &request.StatusError{Code: status, Status: fmt.Sprintf("%d %s", status, nav.StatusText)})
	}

	var capture []chromedp.Action
	if s.waitVisible != "" {
		capture = append(capture, chromedp.WaitVisible(s.waitVisible, chromedp.ByQuery))
	}
	var doc string
	capture = append(capture, chromedp.OuterHTML("html", &doc, chromedp.ByQuery))
	if err := chromedp.Run(tabCtx, capture...); err != nil {
		return nil, fail(status, fmt.Errorf("capture document: %w", err))
	}
	if int64(len(doc)) > s.maxBodyBytes {
		return nil, fail(status, request.ErrBodyTooLarge)
	}

	s.logger.DebugContext(ctx, "page_rendered",
		slog.String("url", req.Target()),
		slog.String("proxy", proxy),
		slog.Int("status", status),
		slog.Int("bytes", len(doc)),
		slog.Duration("duration", time.Since(start)))

	header := responseHeader(nav.Headers)
	header.Set("Content-Type", "text/html; charset=utf-8")
	resp := request.NewResponse(status, header, []byte(doc))
	resp.URL = req.Target()
	resp.Proxy = proxy
	resp.Attempt = at.Number
	return resp, nil
}

func (s *Sender) allocatorOptions(req *request.Request, proxy *url.URL) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), s.allocOpts...)
	if ua := req.Header.Get("User-Agent"); ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	if proxy != nil {
		// Chrome takes no credentials on the command line
		opts = append(opts, chromedp.ProxyServer(proxy.Scheme+"://"+proxy.Host))
	}
	return opts
}

// extraHeaders converts request headers to CDP form. The User-Agent is set on
// the browser itself.
func extraHeaders(h http.Header) network.Headers {
	out := network.Headers{}
	for k, vs := range h {
		if strings.EqualFold(k, "User-Agent") || len(vs) == 0 {
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

func responseHeader(h network.Headers) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out.Set(k, fmt.Sprint(v))
	}
	return out
}
