// Package resolver follows map share links through HTTP redirects and
// landing-page refresh hints until it reaches a terminal URL.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"gmaps2nav/httputils"
	"gmaps2nav/logging"
)

// Resolver turns a share URL into its terminal URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

const (
	// DefaultUserAgent mimics Chrome on Android, which gets the lightest
	// landing pages from the map providers.
	DefaultUserAgent = "Mozilla/5.0 (Linux; Android 14; Pixel 6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Mobile Safari/537.36"
	// DefaultAcceptLanguage is sent with every hop.
	DefaultAcceptLanguage = "en-US,en;q=0.9"
)

// Config holds configuration for the HTTP resolver
type Config struct {
	MaxHops        int
	HopTimeout     time.Duration
	UserAgent      string
	AcceptLanguage string
	// Trace, when set, receives a dump of every hop's headers.
	Trace io.Writer
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxHops:        10,
		HopTimeout:     10 * time.Second,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
	}
}

// HTTPResolver follows redirects one hop at a time with redirect following
// disabled in the client, so landing pages can be inspected between hops.
// Only the transport is shared; every Resolve call gets its own cookie jar.
type HTTPResolver struct {
	config    *Config
	transport http.RoundTripper
	log       zerolog.Logger
}

// NewHTTPResolver creates a resolver. A nil config uses DefaultConfig.
func NewHTTPResolver(config *Config) *HTTPResolver {
	if config == nil {
		config = DefaultConfig()
	}

	transport := &httputils.HeaderRoundTripper{
		Headers: map[string]string{
			"User-Agent":      orDefault(config.UserAgent, DefaultUserAgent),
			"Accept-Language": orDefault(config.AcceptLanguage, DefaultAcceptLanguage),
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		},
		Transport: &httputils.TraceRoundTripper{
			Writer:    config.Trace,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}

	return &HTTPResolver{
		config:    config,
		transport: transport,
		log:       logging.GetLogger("resolver"),
	}
}

// newClient returns a client for a single resolution. Share links hand out
// consent cookies on the first hop, and those must not reach other callers.
func (r *HTTPResolver) newClient() *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{
		Jar:       jar,
		Transport: r.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Resolve follows rawURL for at most MaxHops hops and returns the last URL
// reached. Running out of hops is not an error. A hop that fails or exceeds
// HopTimeout aborts the whole resolution with an *Error.
func (r *HTTPResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	current := strings.TrimSpace(rawURL)
	client := r.newClient()

	for hop := 0; hop < r.config.MaxHops; hop++ {
		next, follow, err := r.hop(ctx, client, hop, current)
		if err != nil {
			return current, err
		}
		if next != "" {
			current = next
		}
		if !follow {
			break
		}
	}

	return unwrapConsent(current), nil
}

// hop fetches current once. It returns the next URL (empty to stay) and
// whether resolution should continue from it.
func (r *HTTPResolver) hop(ctx context.Context, client *http.Client, hop int, current string) (string, bool, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", false, &Error{Kind: KindRequest, URL: current, Hop: hop, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.HopTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
	if err != nil {
		return "", false, &Error{Kind: KindRequest, URL: current, Hop: hop, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", false, r.failure(ctx, hop, current, err)
	}
	defer resp.Body.Close()

	logger := r.log.With().Int("hop", hop).Int("status", resp.StatusCode).Str("url", current).Logger()

	switch {
	case isRedirect(resp.StatusCode):
		loc := resp.Header.Get("Location")
		if loc == "" {
			logger.Debug().Msg("redirect without Location, stopping")
			return "", false, nil
		}
		next, err := base.Parse(loc)
		if err != nil {
			logger.Debug().Err(err).Str("location", loc).Msg("unparseable Location, stopping")
			return "", false, nil
		}
		logger.Debug().Str("next", next.String()).Msg("following redirect")
		return next.String(), true, nil

	case resp.StatusCode == http.StatusOK:
		body, err := readBody(resp.Body, resp.Header.Get("Content-Type"))
		if err != nil {
			return "", false, r.failure(ctx, hop, current, err)
		}
		h, ok := scanBody(base, body)
		if !ok {
			logger.Debug().Msg("landing page has no further hint")
			return "", false, nil
		}
		logger.Debug().Str("next", h.next).Bool("follow", h.follow).Msg("landing page hint")
		return h.next, h.follow, nil

	default:
		logger.Debug().Msg("unexpected status, stopping")
		return "", false, nil
	}
}

func (r *HTTPResolver) failure(ctx context.Context, hop int, current string, err error) error {
	kind := KindTransport
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = KindTimeout
		err = fmt.Errorf("no response within %v: %w", r.config.HopTimeout, err)
	}
	r.log.Warn().Err(err).Int("hop", hop).Str("url", current).Str("kind", kind.String()).Msg("hop failed")
	return &Error{Kind: kind, URL: current, Hop: hop, Err: err}
}

// unwrapConsent returns the continue target when resolution stopped on
// Google's consent interstitial.
func unwrapConsent(current string) string {
	if !strings.Contains(current, "consent.google.") {
		return current
	}
	u, err := url.Parse(current)
	if err != nil {
		return current
	}
	if cont := u.Query().Get("continue"); cont != "" {
		return cont
	}
	return current
}
