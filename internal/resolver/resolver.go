// Package resolver turns a card name into the best URL for it: the canonical
// card page when a unique search redirects there, the search URL otherwise.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/cardlink/internal/events"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/lookup"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
)

// ResolvedURL is the outcome of one resolution. Resolved is true when URL is a
// single card page rather than the search fallback.
type ResolvedURL struct {
	URL      string `json:"url"`
	Resolved bool   `json:"resolved"`
}

// Resolver resolves card names. It is safe for concurrent use.
type Resolver struct {
	svc       *lookup.Service
	follower  Follower
	recorder  metrics.Recorder
	publisher events.Publisher
	logger    *slog.Logger
	clock     clockwork.Clock
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithRecorder(r metrics.Recorder) Option {
	return func(res *Resolver) {
		if r != nil {
			res.recorder = r
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(res *Resolver) {
		if p != nil {
			res.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(res *Resolver) {
		if l != nil {
			res.logger = l
		}
	}
}

// WithResolverClock sets the clock used to time resolutions.
func WithResolverClock(c clockwork.Clock) Option {
	return func(res *Resolver) {
		if c != nil {
			res.clock = c
		}
	}
}

// New creates a Resolver. A nil follower makes every resolution fall back to search.
func New(svc *lookup.Service, follower Follower, opts ...Option) *Resolver {
	if svc == nil {
		svc = lookup.Default()
	}
	r := &Resolver{
		svc:       svc,
		follower:  follower,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the card page URL for name, or the search URL when the name
// does not resolve to exactly one card. It never fails.
func (r *Resolver) Resolve(ctx context.Context, name string) string {
	return r.ResolveDetailed(ctx, name).URL
}

// ResolveDetailed is Resolve with the resolution flag.
func (r *Resolver) ResolveDetailed(ctx context.Context, name string) (res ResolvedURL) {
	start := r.clock.Now()
	search := r.svc.SearchURL(name)
	res = ResolvedURL{URL: search}

	var ferr error
	defer func() {
		if p := recover(); p != nil {
			ferr = fmt.Errorf("follower panic: %v", p)
			res = ResolvedURL{URL: search}
		}
		r.finish(ctx, name, res, ferr, r.clock.Since(start))
	}()

	if r.follower == nil {
		return res
	}
	final, err := r.follower.Follow(ctx, search)
	if err != nil {
		ferr = err
		return res
	}
	if r.svc.IsItemURL(final) {
		res = ResolvedURL{URL: final, Resolved: true}
	}
	return res
}

func (r *Resolver) finish(ctx context.Context, name string, res ResolvedURL, ferr error, d time.Duration) {
	outcome := metrics.OutcomeFallback
	switch {
	case ferr != nil:
		outcome = metrics.OutcomeError
	case res.Resolved:
		outcome = metrics.OutcomeResolved
	}
	r.recorder.ObserveResolution(outcome, d)

	attrs := []any{
		logfields.CardName(name),
		logfields.URL(res.URL),
		logfields.Resolved(res.Resolved),
		logfields.DurationMS(float64(d.Microseconds()) / 1000),
	}
	if ferr != nil {
		r.logger.Warn("Card resolution fell back to search", append(attrs, logfields.Error(ferr))...)
	} else {
		r.logger.Debug("Card resolved", attrs...)
	}

	if perr := r.publisher.PublishResolution(ctx, events.NewResolutionEvent(name, res.URL, res.Resolved, ferr, d)); perr != nil {
		r.logger.Warn("Failed to publish resolution event", logfields.CardName(name), logfields.Error(perr))
	}
}
