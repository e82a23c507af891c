package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/retry"
	"git.home.luguber.info/inful/cardlink/internal/version"
)

const (
	defaultMaxRedirects = 5
	defaultTimeout      = 5 * time.Second
)

var (
	errTooManyRedirects = stderrors.New("too many redirects")
	errInvalidTarget    = stderrors.New("redirect target is not an absolute http(s) URL")
)

// Follower resolves a URL to the destination its redirect chain ends at.
type Follower interface {
	Follow(ctx context.Context, rawURL string) (string, error)
}

// FollowerFunc adapts a function to Follower.
type FollowerFunc func(ctx context.Context, rawURL string) (string, error)

func (f FollowerFunc) Follow(ctx context.Context, rawURL string) (string, error) { return f(ctx, rawURL) }

// HTTPFollower follows redirects with net/http. Each attempt is bounded by the
// hop limit; transient failures are retried per the policy. The timeout bounds
// the whole Follow call, retries included.
type HTTPFollower struct {
	client       *http.Client
	maxRedirects int
	timeout      time.Duration
	policy       retry.Policy
	clock        clockwork.Clock
}

// FollowerOption configures an HTTPFollower.
type FollowerOption func(*HTTPFollower)

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) FollowerOption {
	return func(f *HTTPFollower) { f.client.Transport = rt }
}

// WithMaxRedirects sets the hop limit; values below 1 are ignored.
func WithMaxRedirects(n int) FollowerOption {
	return func(f *HTTPFollower) {
		if n > 0 {
			f.maxRedirects = n
		}
	}
}

// WithTimeout sets the overall timeout of Follow; non-positive values are ignored.
func WithTimeout(d time.Duration) FollowerOption {
	return func(f *HTTPFollower) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p retry.Policy) FollowerOption {
	return func(f *HTTPFollower) { f.policy = p }
}

// WithClock sets the clock used for retry backoff.
func WithClock(c clockwork.Clock) FollowerOption {
	return func(f *HTTPFollower) { f.clock = c }
}

// NewHTTPFollower creates a follower with a 5 hop limit, a 5s timeout and the default retry policy.
func NewHTTPFollower(opts ...FollowerOption) *HTTPFollower {
	f := &HTTPFollower{
		client:       &http.Client{},
		maxRedirects: defaultMaxRedirects,
		timeout:      defaultTimeout,
		policy:       retry.DefaultPolicy(),
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > f.maxRedirects {
			return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, f.maxRedirects)
		}
		if !isHTTPURL(req.URL) {
			return fmt.Errorf("%w: %s", errInvalidTarget, req.URL)
		}
		return nil
	}
	return f
}

// Follow returns the final URL reached from rawURL.
func (f *HTTPFollower) Follow(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPURL(u) {
		return "", errors.ValidationError("follow target is not an absolute http(s) URL").
			WithContext("url", rawURL).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var final string
	err = f.policy.Do(ctx, f.clock, errors.IsRetryable, func(int) error {
		var ferr error
		final, ferr = f.followOnce(ctx, rawURL)
		return ferr
	})
	if err != nil {
		return "", err
	}
	return final, nil
}

func (f *HTTPFollower) followOnce(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.do(ctx, http.MethodHead, rawURL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp, err = f.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return "", classifyTransportError(err, rawURL)
	}

	if resp.StatusCode >= 400 {
		b := errors.NewError(errors.CategoryResolution, fmt.Sprintf("HTTP %d", resp.StatusCode)).
			WithContext("url", rawURL).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Retryable()
		}
		return "", b.Build()
	}
	return resp.Request.URL.String(), nil
}

// do sends one request and releases the body; only the status and the final
// request URL are used.
func (f *HTTPFollower) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp, nil
}

func classifyTransportError(err error, rawURL string) error {
	switch {
	case stderrors.Is(err, errTooManyRedirects), stderrors.Is(err, errInvalidTarget):
		return errors.WrapError(err, errors.CategoryResolution, "redirect chain rejected").
			WithContext("url", rawURL).Build()
	case stderrors.Is(err, context.Canceled):
		return errors.WrapError(err, errors.CategoryRuntime, "request canceled").
			WithContext("url", rawURL).Build()
	default:
		return errors.WrapError(err, errors.CategoryNetwork, "request failed").
			WithContext("url", rawURL).Retryable().Build()
	}
}

func isHTTPURL(u *url.URL) bool {
	return u != nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
