package previewcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/previewclient"
)

func TestGetOrFetchCachesMarkup(t *testing.T) {
	var calls atomic.Int32
	c := New(FetcherFunc(func(_ context.Context, url string) (string, error) {
		calls.Add(1)
		return "<aside>" + url + "</aside>", nil
	}), nil)

	for range 3 {
		m, err := c.GetOrFetch(context.Background(), "a")
		require.NoError(t, err)
		require.Equal(t, "<aside>a</aside>", m)
	}
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1, c.Len())
}

func TestGetOrFetchSharesInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var calls atomic.Int32
	c := New(FetcherFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return "markup", nil
	}), nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.GetOrFetch(context.Background(), "u")
		}()
	}
	<-started
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.Equal(t, "markup", r)
	}
}

func TestGetOrFetchCachesErrorBody(t *testing.T) {
	c := New(FetcherFunc(func(context.Context, string) (string, error) {
		return "", &previewclient.StatusError{StatusCode: 422, Body: "<aside>fallback</aside>"}
	}), nil)

	m, err := c.GetOrFetch(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "<aside>fallback</aside>", m)
	cached, ok := c.Peek("u")
	require.True(t, ok)
	require.Equal(t, m, cached)
}

func TestGetOrFetchDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	c := New(FetcherFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			return "", boom
		}
		if calls.Load() == 2 {
			return "", &previewclient.StatusError{StatusCode: 500}
		}
		return "ok", nil
	}), nil)

	_, err := c.GetOrFetch(context.Background(), "u")
	require.ErrorIs(t, err, boom)
	_, err = c.GetOrFetch(context.Background(), "u")
	require.Error(t, err)
	require.Zero(t, c.Len())

	m, err := c.GetOrFetch(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "ok", m)
}

func TestGetOrFetchDoesNotCacheEmptyMarkup(t *testing.T) {
	c := New(FetcherFunc(func(context.Context, string) (string, error) { return "", nil }), nil)
	m, err := c.GetOrFetch(context.Background(), "u")
	require.NoError(t, err)
	require.Empty(t, m)
	_, ok := c.Peek("u")
	require.False(t, ok)
}

func TestGetOrFetchDoesNotCacheJSONErrorResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	client, err := previewclient.New(srv.URL)
	require.NoError(t, err)
	c := New(client, nil)

	for range 2 {
		m, err := c.GetOrFetch(context.Background(), "https://scryfall.com/card/lea/161/lightning-bolt")
		require.Error(t, err)
		require.Empty(t, m)
	}
	require.Zero(t, c.Len())
	require.Equal(t, int32(2), calls.Load())
}
