package interaction

import "context"

// MarkupCache is the subset of *previewcache.Cache a CacheLoader needs.
type MarkupCache interface {
	Peek(url string) (string, bool)
	GetOrFetch(ctx context.Context, url string) (string, error)
}

// Poster queues a callback on the event loop. *eventloop.Loop implements it.
type Poster interface {
	Post(fn func()) bool
}

// CacheLoader serves cached markup synchronously and fetches misses in the
// background, delivering the result through the event loop.
type CacheLoader struct {
	ctx   context.Context
	cache MarkupCache
	loop  Poster
}

// NewCacheLoader creates a CacheLoader. Fetches stop when ctx is done.
func NewCacheLoader(ctx context.Context, cache MarkupCache, loop Poster) *CacheLoader {
	return &CacheLoader{ctx: ctx, cache: cache, loop: loop}
}

// Load implements Loader.
func (l *CacheLoader) Load(url string, done func(markup string, err error)) {
	if m, ok := l.cache.Peek(url); ok {
		done(m, nil)
		return
	}
	go func() {
		m, err := l.cache.GetOrFetch(l.ctx, url)
		l.loop.Post(func() { done(m, err) })
	}()
}
