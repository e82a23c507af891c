// Package onebox generates previews for lookup URLs: a compact inline
// placeholder link and the rich preview card shown on hover.
package onebox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/cardlink/internal/cardname"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/lookup"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/resolver"
	"git.home.luguber.info/inful/cardlink/internal/version"
)

// Priority ranks the engine ahead of generic OpenGraph engines (200).
const Priority = 50

const maxPageBytes = 2 << 20

// Engine matches lookup URLs and builds their previews.
type Engine struct {
	svc      *lookup.Service
	matcher  *regexp.Regexp
	names    *cardname.Extractor
	follower resolver.Follower
	client   *http.Client
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFollower sets the redirect follower used by ResolveForPreview.
func WithFollower(f resolver.Follower) Option {
	return func(e *Engine) { e.follower = f }
}

// WithHTTPClient sets the client used to fetch card pages.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine for svc (nil means lookup.Default()).
func New(svc *lookup.Service, opts ...Option) *Engine {
	if svc == nil {
		svc = lookup.Default()
	}
	e := &Engine{
		svc:     svc,
		matcher: presentation.URLMatcher(svc),
		names:   cardname.New(svc),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Priority returns the engine priority; lower wins.
func (e *Engine) Priority() int { return Priority }

// Matches reports whether the engine handles rawURL.
func (e *Engine) Matches(rawURL string) bool {
	return e.matcher.MatchString(rawURL)
}

// ResolveForPreview swaps a search URL for the card page it redirects to.
// Any other URL, or a failed lookup, is returned unchanged.
func (e *Engine) ResolveForPreview(ctx context.Context, rawURL string) string {
	if e.follower == nil || !e.isSearch(rawURL) {
		return rawURL
	}
	final, err := e.follower.Follow(ctx, rawURL)
	if err != nil {
		e.logger.Warn("Failed to resolve search redirect", logfields.URL(rawURL), logfields.Error(err))
		return rawURL
	}
	if final == rawURL || !e.svc.IsItemURL(final) {
		return rawURL
	}
	e.logger.Info("Resolved search URL for preview", logfields.URL(rawURL), slog.String("final_url", final))
	return final
}

// Fetch resolves rawURL and reads the OpenGraph metadata of the page it lands on.
func (e *Engine) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	if !e.Matches(rawURL) {
		return Metadata{}, errors.ValidationError("URL is not handled by the card preview engine").
			WithContext("url", rawURL).Build()
	}
	target := AlwaysHTTPS(e.ResolveForPreview(ctx, rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Metadata{}, errors.WrapError(err, errors.CategoryPreview, "build preview request").Build()
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := e.client.Do(req)
	if err != nil {
		return Metadata{}, errors.WrapError(err, errors.CategoryNetwork, "fetch card page").
			WithContext("url", target).Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, errors.NewError(errors.CategoryPreview, fmt.Sprintf("card page returned status %d", resp.StatusCode)).
			WithContext("url", target).WithContext("status", resp.StatusCode).Build()
	}
	md, err := ParseOpenGraph(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Metadata{}, err
	}
	md.URL = target
	return md, nil
}

func (e *Engine) isSearch(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !e.svc.IsLookupHost(u.Host) {
		return false
	}
	p := strings.TrimPrefix(u.Path, "/")
	return p == "search" || strings.HasPrefix(p, "search/")
}

// AlwaysHTTPS upgrades an http URL to https.
func AlwaysHTTPS(rawURL string) string {
	if rest, ok := strings.CutPrefix(rawURL, "http://"); ok {
		return "https://" + rest
	}
	return rawURL
}
