package page

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeConfig configures the headless-browser snapshot source.
type ChromeConfig struct {
	// URL is the tracked page.
	URL string
	// NavigationTimeout bounds initial page load.
	NavigationTimeout time.Duration
	// Headless runs the browser without a display.
	Headless bool
}

// DefaultChromeConfig returns default browser configuration.
func DefaultChromeConfig(url string) ChromeConfig {
	return ChromeConfig{
		URL:               url,
		NavigationTimeout: 60 * time.Second,
		Headless:          true,
	}
}

// ChromeSource renders the tracked page in headless Chrome and exposes
// its text and HTML. One Start/Close cycle corresponds to one browser
// session; any fatal automation error invalidates the session and the
// caller restarts it.
type ChromeSource struct {
	cfg ChromeConfig

	mu          sync.Mutex
	browserCtx  context.Context
	cancelFuncs []context.CancelFunc
}

// NewChromeSource creates a source for the given configuration.
func NewChromeSource(cfg ChromeConfig) *ChromeSource {
	if cfg.NavigationTimeout == 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	return &ChromeSource{cfg: cfg}
}

// Start launches the browser and navigates to the page.
func (s *ChromeSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		s.closeLocked()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s.browserCtx = browserCtx
	s.cancelFuncs = []context.CancelFunc{browserCancel, allocCancel}

	navCtx, navCancel := context.WithTimeout(browserCtx, s.cfg.NavigationTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		s.closeLocked()
		return fmt.Errorf("navigate %s: %w", s.cfg.URL, err)
	}
	return nil
}

// Capture evaluates the current document and returns its text and HTML.
func (s *ChromeSource) Capture(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	browserCtx := s.browserCtx
	s.mu.Unlock()

	if browserCtx == nil {
		return nil, fmt.Errorf("source not started")
	}

	var text, html string
	err := chromedp.Run(browserCtx,
		chromedp.Text("body", &text, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("capture page: %w", err)
	}

	return &Snapshot{
		Text:       text,
		HTML:       html,
		CapturedAt: time.Now().UnixMilli(),
	}, nil
}

// Close tears down the browser session.
func (s *ChromeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *ChromeSource) closeLocked() {
	for _, cancel := range s.cancelFuncs {
		cancel()
	}
	s.cancelFuncs = nil
	s.browserCtx = nil
}

// Verify interface compliance at compile time.
var _ Source = (*ChromeSource)(nil)
