// Package previewcache memoizes preview markup per URL for one page session.
package previewcache

import (
	"context"
	stderrors "errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/cardlink/internal/metrics"
)

// Fetcher retrieves preview markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

// bodyCarrier is implemented by fetch errors that still carry rendered markup.
type bodyCarrier interface {
	ResponseBody() string
}

// Cache maps URLs to markup. Entries never expire. Concurrent callers for the
// same URL share one fetch. It is safe for concurrent use.
type Cache struct {
	fetcher  Fetcher
	recorder metrics.Recorder

	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
}

// New creates an empty Cache. A nil recorder disables metrics.
func New(f Fetcher, recorder metrics.Recorder) *Cache {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Cache{fetcher: f, recorder: recorder, entries: make(map[string]string)}
}

// GetOrFetch returns the cached markup for url, fetching it on a miss. A failed
// fetch whose error carries a non-empty body is cached as that body; other
// failures leave no entry and return the error.
func (c *Cache) GetOrFetch(ctx context.Context, url string) (string, error) {
	if m, ok := c.Peek(url); ok {
		c.recorder.IncPreviewFetch(metrics.FetchHit)
		return m, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		if m, ok := c.Peek(url); ok {
			return m, nil
		}
		markup, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			var bc bodyCarrier
			if !stderrors.As(err, &bc) || bc.ResponseBody() == "" {
				return "", err
			}
			markup = bc.ResponseBody()
		}
		if markup != "" {
			c.mu.Lock()
			c.entries[url] = markup
			c.mu.Unlock()
		}
		return markup, nil
	})
	if err != nil {
		c.recorder.IncPreviewFetch(metrics.FetchFailed)
		return "", err
	}
	c.recorder.IncPreviewFetch(metrics.FetchMiss)
	return v.(string), nil
}

// Peek returns the cached markup without fetching.
func (c *Cache) Peek(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[url]
	return m, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
