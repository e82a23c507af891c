package commands

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/events"
	"git.home.luguber.info/inful/cardlink/internal/lifecycle"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/lookup"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
	"git.home.luguber.info/inful/cardlink/internal/onebox"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/resolver"
	"git.home.luguber.info/inful/cardlink/internal/retry"
	"git.home.luguber.info/inful/cardlink/internal/rewriter"
	"git.home.luguber.info/inful/cardlink/internal/settings"
)

// App is the wired set of components every command draws from.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Lookup     *lookup.Service
	Flag       *settings.Flag
	Registry   *prometheus.Registry
	Recorder   metrics.Recorder
	Publisher  events.Publisher
	Resolver   *resolver.Resolver
	Rewriter   *rewriter.Rewriter
	Customizer *presentation.Customizer
	Hooks      *lifecycle.Hooks
	Engine     *onebox.Engine
}

// AppOption adjusts how an App is wired.
type AppOption func(*appOptions)

type appOptions struct {
	follower resolver.Follower
}

// WithFollower replaces the HTTP redirect follower.
func WithFollower(f resolver.Follower) AppOption {
	return func(o *appOptions) { o.follower = f }
}

// NewApp wires the components described by cfg. Event publishing that
// cannot connect is logged and disabled rather than failing the command.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}
	svc, err := lookup.New(cfg.Lookup.BaseURL)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Lookup:    svc,
		Flag:      settings.NewFlag(cfg.Enabled),
		Recorder:  metrics.NoopRecorder{},
		Publisher: events.NoopPublisher{},
	}
	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Recorder = metrics.NewPrometheusRecorder(a.Registry)
	}
	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(ctx, cfg.Events)
		if err != nil {
			logger.Warn("Resolution events disabled", logfields.Error(err))
		} else {
			a.Publisher = pub
		}
	}

	follower := o.follower
	if follower == nil {
		policy := retry.NewPolicy(cfg.Resolver.RetryBackoff, cfg.Resolver.RetryInitialDelayDuration(),
			cfg.Resolver.RetryMaxDelayDuration(), cfg.Resolver.MaxRetries)
		follower = resolver.NewHTTPFollower(
			resolver.WithMaxRedirects(cfg.Resolver.MaxRedirects),
			resolver.WithTimeout(cfg.Resolver.TimeoutDuration()),
			resolver.WithRetryPolicy(policy),
		)
	}

	a.Resolver = resolver.New(svc, follower,
		resolver.WithRecorder(a.Recorder),
		resolver.WithPublisher(a.Publisher),
		resolver.WithLogger(logger))
	a.Rewriter = rewriter.New(a.Resolver, rewriter.Options{
		SkipCode: cfg.Rewrite.SkipCode,
		Recorder: a.Recorder,
		Logger:   logger,
	})
	a.Customizer = presentation.New(presentation.Options{Lookup: svc, Recorder: a.Recorder})
	a.Hooks = lifecycle.New(a.Rewriter, a.Customizer, a.Flag, logger)
	a.Engine = onebox.New(svc, onebox.WithFollower(follower), onebox.WithLogger(logger))
	return a, nil
}

// Close releases the event publisher.
func (a *App) Close() error {
	return a.Publisher.Close()
}
