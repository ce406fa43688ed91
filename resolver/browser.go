package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"gmaps2nav/logging"
)

// BrowserConfig holds configuration for the headless browser resolver
type BrowserConfig struct {
	UserAgent string
	Timeout   time.Duration
	// WaitTime lets client-side redirects settle after the page is ready.
	WaitTime time.Duration
}

// DefaultBrowserConfig returns a config with sensible defaults
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   45 * time.Second,
		WaitTime:  2 * time.Second,
	}
}

// BrowserResolver navigates to the share URL in headless Chrome and reports
// the location the page settles on. It handles links that only redirect
// through JavaScript. It needs a Chrome binary on the host.
type BrowserResolver struct {
	config *BrowserConfig
	log    zerolog.Logger
}

// NewBrowserResolver creates a browser resolver. A nil config uses
// DefaultBrowserConfig.
func NewBrowserResolver(config *BrowserConfig) *BrowserResolver {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	return &BrowserResolver{config: config, log: logging.GetLogger("browser")}
}

// Resolve implements Resolver.
func (b *BrowserResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(orDefault(b.config.UserAgent, DefaultUserAgent)),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US,en"),
		chromedp.Flag("headless", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, b.config.Timeout)
	defer timeoutCancel()

	b.log.Debug().Str("url", rawURL).Dur("timeout", b.config.Timeout).Msg("navigating")

	var location string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.config.WaitTime),
		chromedp.Location(&location),
	)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return rawURL, &Error{Kind: kind, URL: rawURL, Err: fmt.Errorf("browser navigation: %w", err)}
	}

	b.log.Debug().Str("location", location).Msg("page settled")
	return unwrapConsent(location), nil
}
