package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromedpSession drives one headless Chrome browser tab via chromedp. It is
// the single long-lived render handle; the engine replaces the whole session
// when the browser dies.
type ChromedpSession struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	opTimeout     time.Duration
	logger        *zap.Logger
}

// ChromedpOptions configure session construction.
type ChromedpOptions struct {
	// UserAgent is sent on every navigation.
	UserAgent string
	// RemoteAllocatorURL, when set, attaches to an already-running browser
	// (e.g. a Docker Chrome exposing the DevTools websocket) instead of
	// spawning a local one.
	RemoteAllocatorURL string
	// OpTimeout bounds non-navigation operations (DOM queries, liveness).
	OpTimeout time.Duration
}

// NewChromedpSession launches (or attaches to) a browser and verifies it is
// responsive. Construction failure is how startup unavailability surfaces.
func NewChromedpSession(ctx context.Context, opts ChromedpOptions, logger *zap.Logger) (*ChromedpSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 10 * time.Second
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteAllocatorURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteAllocatorURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.UserAgent(opts.UserAgent),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	warmupCtx, cancelWarmup := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelWarmup()
	if err := chromedp.Run(warmupCtx, network.Enable()); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	if err := ctx.Err(); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("session construction canceled: %w", err)
	}

	logger.Info("browser session established",
		zap.Bool("remote", opts.RemoteAllocatorURL != ""))

	return &ChromedpSession{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		opTimeout:     opts.OpTimeout,
		logger:        logger,
	}, nil
}

// Navigate loads url in the session tab, waiting for the load event up to
// timeout. The elapsed duration is returned even on failure so callers can
// record page_load_time.
func (s *ChromedpSession) Navigate(ctx context.Context, url string, timeout time.Duration) (string, time.Duration, error) {
	navCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	start := time.Now()
	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, s.classify(fmt.Errorf("navigate %s: %w", url, err))
	}

	finalURL, err := s.CurrentURL(ctx)
	if err != nil {
		// Navigation itself completed; fall back to the requested URL.
		return url, elapsed, nil
	}
	return finalURL, elapsed, nil
}

// CurrentURL reports the tab location.
func (s *ChromedpSession) CurrentURL(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	var loc string
	if err := chromedp.Run(opCtx, chromedp.Location(&loc)); err != nil {
		return "", s.classify(fmt.Errorf("current url: %w", err))
	}
	return loc, nil
}

// QueryCounts evaluates querySelectorAll lengths for each selector.
func (s *ChromedpSession) QueryCounts(ctx context.Context, selectors ...string) (map[string]int, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	counts := make(map[string]int, len(selectors))
	for _, sel := range selectors {
		var n int
		expr := fmt.Sprintf("document.querySelectorAll(%q).length", sel)
		if err := chromedp.Run(opCtx, chromedp.Evaluate(expr, &n)); err != nil {
			return counts, s.classify(fmt.Errorf("query %q: %w", sel, err))
		}
		counts[sel] = n
	}
	return counts, nil
}

// PageHTML returns the rendered document markup.
func (s *ChromedpSession) PageHTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", s.classify(fmt.Errorf("page html: %w", err))
	}
	return html, nil
}

// IsAlive probes the browser with a trivial evaluation.
func (s *ChromedpSession) IsAlive(ctx context.Context) bool {
	if s.browserCtx.Err() != nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(s.browserCtx, 3*time.Second)
	defer cancel()
	var one int
	return chromedp.Run(probeCtx, chromedp.Evaluate("1", &one)) == nil
}

// Close tears down the browser and allocator contexts. Safe on a dead session.
func (s *ChromedpSession) Close(context.Context) error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

func (s *ChromedpSession) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.browserCtx, s.opTimeout)
	stop := forwardCancel(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// classify upgrades an operation error to the session-dead class when the
// browser context itself is gone or no longer responds.
func (s *ChromedpSession) classify(err error) error {
	if err == nil {
		return nil
	}
	if s.browserCtx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrSessionDead, err)
	}
	return err
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
