package previewclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchRawMarkup(t *testing.T) {
	var gotURL, gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		gotRefresh = r.URL.Query().Get("refresh")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<aside class="onebox">bolt</aside>`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/onebox")
	require.NoError(t, err)
	markup, err := c.Fetch(context.Background(), "https://scryfall.com/card/clu/141/lightning-bolt?x=1&y=2")
	require.NoError(t, err)
	require.Equal(t, `<aside class="onebox">bolt</aside>`, markup)
	require.Equal(t, "https://scryfall.com/card/clu/141/lightning-bolt?x=1&y=2", gotURL)
	require.Equal(t, "false", gotRefresh)
}

func TestFetchJSONShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"preview":"<aside>x</aside>"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	markup, err := c.Fetch(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "<aside>x</aside>", markup)
}

func TestFetchStatusErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<aside class="onebox">fallback</aside>`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "u")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	require.Equal(t, `<aside class="onebox">fallback</aside>`, se.ResponseBody())
}

func TestNewRejectsRelativeEndpoint(t *testing.T) {
	_, err := New("/onebox")
	require.Error(t, err)
}

func TestFetchStatusErrorDropsJSONErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "u")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.StatusCode)
	require.Empty(t, se.ResponseBody())
}

func TestFetchStatusErrorKeepsJSONPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"preview":"<aside>gone</aside>"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "u")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "<aside>gone</aside>", se.ResponseBody())
}
