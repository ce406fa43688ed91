// Package pipeline turns a raw share link or share text into a navigation
// URL: Apple Maps references are read directly, everything else is resolved
// over HTTP first, then extracted and rebuilt.
package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"gmaps2nav/destination"
	"gmaps2nav/logging"
	"gmaps2nav/navurl"
	"gmaps2nav/resolver"
)

// Source tags which extraction path produced a destination.
type Source string

const (
	SourceApple  Source = "apple"
	SourceGoogle Source = "google"
)

// Result is the outcome of one resolution.
type Result struct {
	// ResolvedURL is the terminal URL reached.
	ResolvedURL string `json:"resolvedUrl"`
	// NavigationURL is empty when no usable destination was found.
	NavigationURL string     `json:"navigationUrl,omitempty"`
	Debug         *DebugInfo `json:"debug,omitempty"`
}

// Found reports whether a navigation URL could be built.
func (r *Result) Found() bool {
	return r.NavigationURL != ""
}

// DebugInfo records what was extracted and by which path.
type DebugInfo struct {
	Parsed destination.Destination `json:"parsed"`
	Source Source                  `json:"source"`
}

// Pipeline composes the resolver, the extractor and the builder.
type Pipeline struct {
	resolver resolver.Resolver
	format   navurl.Format
	log      zerolog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithFormat renders navigation URLs in f instead of directions URLs.
func WithFormat(f navurl.Format) Option {
	return func(p *Pipeline) { p.format = f }
}

// New creates a pipeline resolving share links with r.
func New(r resolver.Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: r,
		format:   navurl.FormatDirections,
		log:      logging.GetLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve runs one input through the pipeline. A missing destination is not
// an error: the result carries the resolved URL and an empty NavigationURL.
// Only resolver failures (see resolver.Error) are returned as errors.
func (p *Pipeline) Resolve(ctx context.Context, input string) (*Result, error) {
	input = strings.TrimSpace(input)

	if dest, appleURL, ok := destination.ExtractApple(input); ok {
		p.log.Debug().Str("url", appleURL).Msg("apple maps reference, skipping resolution")
		return p.finish(appleURL, dest, SourceApple), nil
	}

	done := logging.LogOperationStart(p.log, "resolve")
	resolved, err := p.resolver.Resolve(ctx, input)
	done()
	if err != nil {
		return nil, err
	}

	return p.finish(resolved, destination.Extract(resolved), SourceGoogle), nil
}

func (p *Pipeline) finish(resolved string, dest destination.Destination, source Source) *Result {
	nav, _ := navurl.Render(p.format, dest)
	p.log.Debug().
		Str("resolved", resolved).
		Str("source", string(source)).
		Interface("parsed", dest).
		Bool("found", nav != "").
		Msg("extracted destination")

	return &Result{
		ResolvedURL:   resolved,
		NavigationURL: nav,
		Debug:         &DebugInfo{Parsed: dest, Source: source},
	}
}
