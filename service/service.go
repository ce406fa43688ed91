// Package service expands a share link and pushes the resulting navigation
// URL through the notification relay. The HTTP endpoint and the push
// command both go through it.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gmaps2nav/logging"
	"gmaps2nav/notify"
	"gmaps2nav/pipeline"
)

// ErrNoNavigationURL is the outcome error when no destination could be built.
const ErrNoNavigationURL = "Could not build navigation URL"

// Defaults fill message fields the caller leaves empty.
type Defaults struct {
	Message  string
	Title    string
	Priority string
	Sound    string
	Device   string
}

// Options are per-request notification overrides.
type Options struct {
	Title    string
	Priority string
	Sound    string
	Device   string
}

// Outcome is the result of ExpandAndPush.
type Outcome struct {
	OK            bool             `json:"ok"`
	Error         string           `json:"error,omitempty"`
	ResolvedURL   string           `json:"resolvedUrl"`
	NavigationURL string           `json:"navigationUrl,omitempty"`
	NavURL        string           `json:"navUrl,omitempty"`
	Relay         *notify.Response `json:"relay,omitempty"`
}

// Service ties a pipeline to a notifier.
type Service struct {
	pipeline *pipeline.Pipeline
	notifier notify.Notifier
	defaults Defaults
	log      zerolog.Logger
}

// New creates a Service.
func New(p *pipeline.Pipeline, n notify.Notifier, defaults Defaults) *Service {
	return &Service{
		pipeline: p,
		notifier: n,
		defaults: defaults,
		log:      logging.GetLogger("service"),
	}
}

// Resolve runs the pipeline without pushing.
func (s *Service) Resolve(ctx context.Context, shareURL string) (*pipeline.Result, error) {
	return s.pipeline.Resolve(ctx, shareURL)
}

// ExpandAndPush resolves shareURL and, when a navigation URL could be built,
// pushes it. An unbuildable destination is reported in the outcome with
// OK=false. Resolver and relay transport failures are returned as errors;
// a relay that answers with a non-2xx status is not one.
func (s *Service) ExpandAndPush(ctx context.Context, shareURL string, opts Options) (*Outcome, error) {
	res, err := s.pipeline.Resolve(ctx, shareURL)
	if err != nil {
		return nil, err
	}

	if !res.Found() {
		s.log.Info().Str("resolved", res.ResolvedURL).Msg("no destination found, nothing pushed")
		return &Outcome{OK: false, Error: ErrNoNavigationURL, ResolvedURL: res.ResolvedURL}, nil
	}

	msg := notify.Message{
		Message:  s.defaults.Message,
		URL:      res.NavigationURL,
		Title:    firstNonEmpty(opts.Title, s.defaults.Title),
		Priority: firstNonEmpty(opts.Priority, s.defaults.Priority),
		Sound:    firstNonEmpty(opts.Sound, s.defaults.Sound),
		Device:   firstNonEmpty(opts.Device, s.defaults.Device),
	}

	relay, err := s.notifier.Push(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("pushing notification: %w", err)
	}

	return &Outcome{
		OK:            true,
		ResolvedURL:   res.ResolvedURL,
		NavigationURL: res.NavigationURL,
		NavURL:        res.NavigationURL,
		Relay:         relay,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
