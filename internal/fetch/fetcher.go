package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/infrastructure"
	"quantkit/internal/request"
)

// Sender issues one HTTP attempt. *request.Client implements it.
type Sender interface {
	Send(ctx context.Context, method string, req *request.Request, at request.Attempt) (*request.Response, error)
}

// Sleeper waits d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// State is the lifecycle position of a Fetcher
type State int32

const (
	StatePending State = iota
	StateAttempting
	StateAttemptFailed
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateAttempting:
		return "ATTEMPTING"
	case StateAttemptFailed:
		return "ATTEMPT_FAILED"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Fetcher retrieves one request through a rotating proxy pool. Each attempt
// uses the next entry of a shuffled copy of the pool and waits the policy
// delay after a failure. A Fetcher runs once; build a new one per request.
type Fetcher struct {
	sender  Sender
	req     *request.Request
	pool    Pool
	policy  RetryPolicy
	process ProcessFunc
	logger  *slog.Logger
	sleep   Sleeper
	shuffle Shuffler
	metrics *Metrics
	tracer  trace.Tracer

	used  atomic.Bool
	state atomic.Int32
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithPolicy sets the retry policy
func WithPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithProcessor sets the function that turns a response into a stored payload
func WithProcessor(fn ProcessFunc) Option {
	return func(f *Fetcher) { f.process = fn }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithSleeper replaces the delay between attempts
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithShuffler replaces the pool permutation
func WithShuffler(s Shuffler) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.shuffle = s
		}
	}
}

// WithMetrics sets the instruments to record on
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithTracer sets the tracer for attempt spans
func WithTracer(t trace.Tracer) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.tracer = t
		}
	}
}

// New creates a fetcher for req over pool
func New(sender Sender, req *request.Request, pool Pool, opts ...Option) (*Fetcher, error) {
	if sender == nil {
		return nil, apperrors.NewValidationError("fetcher requires a sender", nil)
	}
	if req == nil {
		return nil, apperrors.NewValidationError("fetcher requires a request", nil)
	}
	f := &Fetcher{
		sender:  sender,
		req:     req,
		pool:    pool,
		logger:  infrastructure.WithComponent(slog.Default(), "fetch"),
		sleep:   sleepContext,
		metrics: globalMetrics(),
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.policy.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// URL returns the target URL including the query
func (f *Fetcher) URL() string {
	return f.req.Target()
}

// State returns the current lifecycle state
func (f *Fetcher) State() State {
	return State(f.state.Load())
}

// Get fetches with GET and returns the first successful response. When every
// attempt fails it returns an *ExhaustedError.
func (f *Fetcher) Get(ctx context.Context) (*request.Response, error) {
	resp, _, err := f.run(ctx, http.MethodGet, nil)
	return resp, err
}

// Post fetches with POST, see Get
func (f *Fetcher) Post(ctx context.Context) (*request.Response, error) {
	resp, _, err := f.run(ctx, http.MethodPost, nil)
	return resp, err
}

// GetAsync fetches with GET, processes the response and puts the payload into
// store under the URL. On exhaustion the failure is recorded in store and
// returned. A processing error fails the attempt and the next one is tried.
func (f *Fetcher) GetAsync(ctx context.Context, store *Store) error {
	return f.runAsync(ctx, http.MethodGet, store)
}

// PostAsync is GetAsync with POST
func (f *Fetcher) PostAsync(ctx context.Context, store *Store) error {
	return f.runAsync(ctx, http.MethodPost, store)
}

func (f *Fetcher) runAsync(ctx context.Context, method string, store *Store) error {
	if store == nil {
		return apperrors.NewValidationError("async fetch requires a store", nil)
	}
	if f.process == nil {
		return ErrNoProcessor
	}
	_, payload, err := f.run(ctx, method, f.process)
	if err != nil {
		store.Fail(f.URL(), err)
		return err
	}
	store.Put(f.URL(), payload)
	return nil
}

func (f *Fetcher) run(ctx context.Context, method string, process ProcessFunc) (*request.Response, any, error) {
	if !f.used.CompareAndSwap(false, true) {
		return nil, nil, ErrFetcherUsed
	}

	target := f.URL()
	proxies := f.pool.shuffled(f.shuffle)
	maxAttempts := f.policy.attempts(len(proxies))

	ctx, span := f.tracer.Start(ctx, "fetch."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("url.full", target),
			attribute.Int("fetch.max_attempts", maxAttempts)))
	defer span.End()

	var errs []error
	for n := 1; n <= maxAttempts; n++ {
		proxy := proxies[(n-1)%len(proxies)]
		f.state.Store(int32(StateAttempting))

		start := time.Now()
		resp, payload, err := f.attempt(ctx, method, process, request.Attempt{
			Proxy:   proxy,
			Timeout: f.policy.timeout(),
			Number:  n,
			Max:     maxAttempts,
		})
		elapsed := time.Since(start)

		if err == nil {
			f.state.Store(int32(StateSucceeded))
			f.metrics.recordAttempt(ctx, method, "success", elapsed)
			span.SetAttributes(attribute.Int("fetch.attempts", n))
			span.SetStatus(codes.Ok, "")
			f.logger.InfoContext(ctx, "fetch_attempt_succeeded",
				slog.String("method", method),
				slog.String("url", target),
				slog.String("proxy", proxyLabel(proxy)),
				slog.Int("attempt", n),
				slog.Int("max_attempts", maxAttempts),
				slog.Duration("duration", elapsed))
			return resp, payload, nil
		}

		errs = append(errs, err)
		f.state.Store(int32(StateAttemptFailed))
		f.metrics.recordAttempt(ctx, method, "failure", elapsed)
		span.AddEvent("fetch_attempt_failed", trace.WithAttributes(
			attribute.Int("attempt", n),
			attribute.String("error", err.Error())))
		f.logger.WarnContext(ctx, "fetch_attempt_failed",
			slog.String("method", method),
			slog.String("url", target),
			slog.String("proxy", proxyLabel(proxy)),
			slog.Int("attempt", n),
			slog.Int("max_attempts", maxAttempts),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return nil, nil, f.exhausted(ctx, span, method, target, errs, ctx.Err())
		}
		if n < maxAttempts {
			if err := f.sleep(ctx, f.policy.Delay); err != nil {
				return nil, nil, f.exhausted(ctx, span, method, target, errs, err)
			}
		}
	}
	return nil, nil, f.exhausted(ctx, span, method, target, errs, nil)
}

func (f *Fetcher) attempt(ctx context.Context, method string, process ProcessFunc, at request.Attempt) (*request.Response, any, error) {
	resp, err := f.sender.Send(ctx, method, f.req, at)
	if err != nil {
		return nil, nil, err
	}
	if process == nil {
		return resp, nil, nil
	}
	payload, err := process(resp)
	if err != nil {
		return nil, nil, &ProcessError{URL: resp.URL, Cause: err}
	}
	return resp, payload, nil
}

func (f *Fetcher) exhausted(ctx context.Context, span trace.Span, method, target string, errs []error, canceled error) error {
	err := &ExhaustedError{URL: target, Attempts: len(errs), Errors: errs, Canceled: canceled}
	f.state.Store(int32(StateExhausted))
	f.metrics.recordExhausted(context.WithoutCancel(ctx), method)
	span.RecordError(err)
	span.SetStatus(codes.Error, "exhausted")
	infrastructure.WithError(f.logger, err).ErrorContext(ctx, "fetch_exhausted",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("attempts", len(errs)))
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func proxyLabel(proxy *url.URL) string {
	if proxy == nil {
		return "direct"
	}
	return proxy.Redacted()
}
