// Package httputils provides http.RoundTrippers shared by the resolver and
// the notification relay.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
	"unicode/utf8"
)

// TraceRoundTripper dumps request and response headers of every exchange.
// A nil Writer disables tracing.
type TraceRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
}

const maxTraceLine = 512

func (t *TraceRoundTripper) dump(prefix rune, raw []byte) error {
	lines := strings.Split(strings.TrimRight(string(raw), "\r\n"), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		line = truncate(line, maxTraceLine)
		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}
	_, err := fmt.Fprintln(t.Writer, strings.Join(lines, "\n"))
	return err
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

// RoundTrip implements the http.RoundTripper interface.
func (t *TraceRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.transport().RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}
	if err := t.dump('>', dump); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.transport().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}
	fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start))
	if err := t.dump('<', dump); err != nil {
		return nil, err
	}

	return resp, nil
}

func (t *TraceRoundTripper) transport() http.RoundTripper {
	if t.Transport == nil {
		return http.DefaultTransport
	}
	return t.Transport
}

// HeaderRoundTripper sets fixed headers on every request that does not
// already carry them.
type HeaderRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}
