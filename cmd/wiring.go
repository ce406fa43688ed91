package cmd

import (
	"os"

	"gmaps2nav/config"
	"gmaps2nav/navurl"
	"gmaps2nav/notify"
	"gmaps2nav/pipeline"
	"gmaps2nav/resolver"
	"gmaps2nav/service"
)

func newResolver(cfg *config.Config) resolver.Resolver {
	if cfg.Resolver.Mode == config.ModeBrowser {
		return resolver.NewBrowserResolver(cfg.Resolver.BrowserResolver())
	}
	rc := cfg.Resolver.HTTPResolver()
	if cfg.Resolver.Trace {
		rc.Trace = os.Stderr
	}
	return resolver.NewHTTPResolver(rc)
}

func newPipeline(cfg *config.Config, format navurl.Format) *pipeline.Pipeline {
	return pipeline.New(newResolver(cfg), pipeline.WithFormat(format))
}

func newService(cfg *config.Config) *service.Service {
	return service.New(
		newPipeline(cfg, navurl.FormatDirections),
		notify.NewClient(cfg.Notify.Client(), nil),
		cfg.Notify.Defaults(),
	)
}
