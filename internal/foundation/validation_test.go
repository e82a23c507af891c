package foundation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

type limits struct {
	Hops int
	Base string
}

func TestValidateCombinesFailures(t *testing.T) {
	res := Validate(limits{Hops: 0, Base: "ftp://x"},
		Field(func(l limits) int { return l.Hops }, Positive("resolver.max_redirects")),
		Field(func(l limits) string { return l.Base }, HTTPURL("lookup.base_url")),
	)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 2)

	err := res.ToError()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Contains(t, err.Error(), "resolver.max_redirects")
	require.Contains(t, err.Error(), "lookup.base_url")
}

func TestValidatePasses(t *testing.T) {
	res := Validate(limits{Hops: 5, Base: "https://scryfall.com"},
		Field(func(l limits) int { return l.Hops }, Positive("hops")),
		Field(func(l limits) string { return l.Base }, HTTPURL("base")),
	)
	require.True(t, res.Valid)
	require.NoError(t, res.ToError())
}

func TestSimpleValidators(t *testing.T) {
	require.True(t, OneOf("format", "text", "json")("json").Valid)
	require.False(t, OneOf("format", "text", "json")("xml").Valid)
	require.True(t, NonNegative("retries")(0).Valid)
	require.False(t, NonNegative("retries")(-1).Valid)
	require.False(t, NotEmpty("subject")("  ").Valid)
	require.False(t, HTTPURL("u")("scryfall.com").Valid)
}
