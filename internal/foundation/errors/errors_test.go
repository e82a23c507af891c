package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder defaults", func(t *testing.T) {
		err := NewError(CategoryValidation, "missing name").Build()
		assert.Equal(t, CategoryValidation, err.Category())
		assert.Equal(t, SeverityError, err.Severity())
		assert.Equal(t, RetryNever, err.RetryStrategy())
		assert.False(t, err.CanRetry())
		assert.Equal(t, "[validation:error] missing name", err.Error())
	})

	t.Run("wrapping keeps the cause reachable", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := WrapError(cause, CategoryNetwork, "redirect follow failed").
			Retryable().
			WithContext("url", "https://scryfall.com/search?q=x").
			Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		u, ok := err.Context().GetString("url")
		require.True(t, ok)
		assert.Equal(t, "https://scryfall.com/search?q=x", u)
	})

	t.Run("chain helpers see through fmt wrapping", func(t *testing.T) {
		inner := ConfigError("bad lookup.base_url").Build()
		outer := fmt.Errorf("load: %w", inner)

		assert.True(t, HasCategory(outer, CategoryConfig))
		assert.Equal(t, CategoryConfig, GetCategory(outer))
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
		assert.False(t, IsRetryable(outer))
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := NotFoundError("no placeholder").Build()
		withURL := base.WithContext("url", "u")
		_, ok := base.Context().Get("url")
		assert.False(t, ok)
		_, ok = withURL.Context().Get("url")
		assert.True(t, ok)
	})
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)

	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ValidationError("x").Build(), http.StatusBadRequest},
		{NotFoundError("x").Build(), http.StatusNotFound},
		{NetworkError("x").Build(), http.StatusBadGateway},
		{PreviewError("x").Build(), http.StatusBadGateway},
		{stderrors.New("x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.StatusCodeFor(tc.err), "%v", tc.err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve", nil)
	a.WriteErrorResponse(rec, req, ValidationError("name is required").WithContext("param", "name").Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "name is required", payload.Error)
	assert.Equal(t, "validation", payload.Code)
	assert.Equal(t, "name", payload.Details["param"])
}

func TestCLIErrorAdapter(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	assert.Equal(t, 0, a.ExitCodeFor(nil))
	assert.Equal(t, 7, a.ExitCodeFor(ConfigError("x").Build()))
	assert.Equal(t, 8, a.ExitCodeFor(NetworkError("x").Build()))
	assert.Equal(t, 1, a.ExitCodeFor(stderrors.New("x")))

	msg := a.FormatError(ConfigError("configuration file not found").Build())
	assert.Contains(t, msg, "Error: configuration file not found")
	assert.Contains(t, msg, "cardlink init")
}
