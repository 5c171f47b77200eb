// Package bootstrap wires configuration, logging, storage and the pipeline
// components used by the puzzle-feed commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/acquirer"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/config"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/events"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/parser"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/resolver"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/scheduler"
)

// App holds the wired components for one command invocation.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Location  *time.Location
	Store     cache.Store
	Parser    *parser.Parser
	Acquirer  *acquirer.Acquirer
	Resolver  *resolver.Resolver
	Publisher *events.Publisher
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry

	closers []func() error
}

// New wires the application from cfg.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	log, err := CreateLogger(cfg, version)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   log,
		Location: loc,
		Parser:   parser.New(parser.WithAnchorPhrase(cfg.Source.AnchorPhrase)),
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.New(app.Registry)

	backend, err := SetupStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.Store = backend.Store
	app.closers = append(app.closers, backend.Close)

	publisher, closeEvents := SetupEventPublisher(cfg, backend.Redis, log)
	app.Publisher = publisher
	app.closers = append(app.closers, closeEvents)

	fetcher := acquirer.NewHTTPFetcher(acquirer.HTTPFetcherConfig{
		Timeout:        cfg.Fetch.Timeout,
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff,
		MaxBackoff:     cfg.Fetch.MaxBackoff,
		UserAgent:      cfg.Source.UserAgent,
	}, log)

	acqOpts := []acquirer.Option{acquirer.WithRecorder(app.Metrics)}
	if app.Publisher != nil {
		acqOpts = append(acqOpts, acquirer.WithPublisher(app.Publisher))
	}
	app.Acquirer = acquirer.New(
		acquirer.Source{BaseURL: cfg.Source.BaseURL, SlugPrefix: cfg.Source.SlugPrefix},
		fetcher,
		app.Parser,
		app.Store,
		log,
		acqOpts...,
	)

	app.Resolver = resolver.New(app.Store, log,
		resolver.WithLookback(cfg.Resolver.LookbackDays),
		resolver.WithRecorder(app.Metrics),
	)

	log.Debug("Application wired",
		logger.String("cache_backend", cfg.Cache.Backend),
		logger.String("timezone", loc.String()),
		logger.Bool("events_enabled", app.Publisher != nil),
	)
	return app, nil
}

// Today returns the current puzzle day in the configured timezone.
func (a *App) Today() puzzle.Date {
	return puzzle.Today(time.Now(), a.Location)
}

// ParseDate returns the day named by s, or Today when s is empty.
func (a *App) ParseDate(s string) (puzzle.Date, error) {
	if s == "" {
		return a.Today(), nil
	}
	return puzzle.ParseDate(s)
}

// NewScheduler creates a scheduler over the app's acquirer and store.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	s, err := scheduler.New(scheduler.Config{
		Specs:         a.Config.Schedule.Specs,
		Location:      a.Location,
		AlwaysRefetch: a.Config.Schedule.AlwaysRefetch,
	}, a.Acquirer, a.Store, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return s, nil
}

// Close releases connections and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
