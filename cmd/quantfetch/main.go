package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quantkit/internal/browser"
	"quantkit/internal/config"
	"quantkit/internal/fetch"
	"quantkit/internal/infrastructure"
	"quantkit/internal/request"
	transport "quantkit/internal/transport/http"
	"quantkit/internal/websocket"
)

// errPartial marks a batch where at least one URL could not be fetched
var errPartial = errors.New("some urls failed")

// Summary is the JSON document printed after a batch
type Summary struct {
	Payloads map[string]any    `json:"payloads"`
	Failures map[string]string `json:"failures"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errPartial):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "quantfetch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("quantfetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	urlsFile := fs.String("urls", "", "file with one URL per line (# starts a comment)")
	method := fs.String("method", http.MethodGet, "GET | POST")
	process := fs.String("process", "json", "json | text | select")
	selector := fs.String("selector", "", "CSS selector for -process select")
	referer := fs.String("referer", "", "Referer header sent with every request")
	headless := fs.Bool("browser", false, "render pages in headless Chrome (GET only)")
	waitVisible := fs.String("wait", "", "with -browser, CSS selector to wait for before capture")
	metricsAddr := fs.String("metrics-addr", "", "serve /healthz, /fetch/status, /fetch/events and /metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = *metricsAddr
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()
	logger = infrastructure.WithComponent(logger, "quantfetch")
	ctx = infrastructure.EnsureTraceID(ctx)

	urls, err := collectURLs(*urlsFile, fs.Args())
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no urls given")
	}

	processor, err := processorFor(*process, *selector)
	if err != nil {
		return err
	}
	*method = strings.ToUpper(*method)
	if *method != http.MethodGet && *method != http.MethodPost {
		return fmt.Errorf("unsupported method %q", *method)
	}
	if *headless && *method != http.MethodGet {
		return errors.New("-browser only supports GET")
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, stderr, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := fetch.NewMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create fetch metrics: %w", err)
	}

	pool, err := fetch.NewPool(cfg.Fetch.Proxies...)
	if err != nil {
		return err
	}
	client := request.NewClient(
		request.WithTimeout(cfg.Fetch.Timeout),
		request.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
		request.WithLogger(logger))
	defer client.CloseIdleConnections()
	var sender fetch.Sender = client
	if *headless {
		sender = browser.NewSender(
			browser.WithTimeout(cfg.Fetch.Timeout),
			browser.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
			browser.WithWaitVisible(*waitVisible),
			browser.WithLogger(logger))
	}

	policy := fetch.RetryPolicy{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Delay:       cfg.Fetch.RetryDelay,
		Timeout:     cfg.Fetch.Timeout,
	}
	headers := map[string]string{}
	if *referer != "" {
		headers["Referer"] = *referer
	}

	tasks := make([]fetch.Task, 0, len(urls))
	for _, u := range urls {
		req, err := request.Build(u, headers)
		if err != nil {
			return err
		}
		f, err := fetch.New(sender, req, pool,
			fetch.WithPolicy(policy),
			fetch.WithProcessor(processor),
			fetch.WithLogger(logger),
			fetch.WithMetrics(metrics),
			fetch.WithTracer(providers.Tracer))
		if err != nil {
			return err
		}
		tasks = append(tasks, fetch.Task{Fetcher: f, Method: *method})
	}

	var storeOpts []fetch.StoreOption
	var hub *websocket.Hub
	if cfg.Telemetry.MetricsAddr != "" {
		hubMetrics, err := websocket.NewMetrics(providers.Meter)
		if err != nil {
			return fmt.Errorf("failed to create websocket metrics: %w", err)
		}
		hub = websocket.NewHub(logger, hubMetrics)
		hub.Start()
		defer hub.Stop()
		storeOpts = append(storeOpts, fetch.WithObserver(hub.PublishChange))
	}
	store := fetch.NewStore(storeOpts...)
	if hub != nil {
		srv := &http.Server{
			Addr: cfg.Telemetry.MetricsAddr,
			Handler: transport.NewRouter(transport.RouterConfig{
				Version: config.AppVersion,
				Logger:  logger,
				Metrics: providers.PrometheusHTTP,
				Store:   store,
				Total:   len(tasks),
				Events:  hub,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorContext(ctx, "ops_server_failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Shutdown(context.WithoutCancel(ctx))
		logger.InfoContext(ctx, "ops_server_started", slog.String("addr", cfg.Telemetry.MetricsAddr))
	}

	logger.InfoContext(ctx, "batch_started",
		slog.Int("urls", len(tasks)),
		slog.Int("proxies", pool.Len()),
		slog.String("method", *method))
	start := time.Now()

	runErr := fetch.RunBatch(ctx, store, tasks,
		fetch.WithConcurrency(cfg.Fetch.Concurrency),
		fetch.WithRateLimit(cfg.Fetch.RateLimit, cfg.Fetch.Burst))

	summary := Summary{Payloads: store.Payloads(), Failures: map[string]string{}}
	for u, err := range store.Failures() {
		summary.Failures[u] = err.Error()
	}
	logger.InfoContext(ctx, "batch_completed",
		slog.Int("succeeded", len(summary.Payloads)),
		slog.Int("failed", len(summary.Failures)),
		slog.Duration("duration", time.Since(start)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if len(summary.Failures) > 0 {
		return errPartial
	}
	return nil
}

// collectURLs merges positional URLs with the lines of path
func collectURLs(path string, args []string) ([]string, error) {
	urls := append([]string(nil), args...)
	if path == "" {
		return urls, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url list: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return urls, nil
}

func processorFor(name, selector string) (fetch.ProcessFunc, error) {
	switch name {
	case "json":
		return fetch.ProcessJSON, nil
	case "text":
		return fetch.ProcessText, nil
	case "select":
		if selector == "" {
			return nil, errors.New("-process select needs -selector")
		}
		return fetch.ProcessSelect(selector), nil
	default:
		return nil, fmt.Errorf("unknown processor %q", name)
	}
}
