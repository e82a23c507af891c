package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

func newChain(buf *bytes.Buffer) func(http.Handler) http.Handler {
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return Chain(logger, errors.NewHTTPErrorAdapter(logger))
}

func TestChainAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := newChain(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	require.Contains(t, buf.String(), `"status":418`)
	require.Contains(t, buf.String(), seen)
}

func TestChainKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestChainRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/rewrite", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal server error", body.Error)
	require.Contains(t, buf.String(), "HTTP handler panic")
}
