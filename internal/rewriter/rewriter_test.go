package rewriter

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubResolver maps names to card URLs and falls back to a search URL.
type stubResolver struct {
	mu    sync.Mutex
	cards map[string]string
	calls []string
}

func (s *stubResolver) Resolve(_ context.Context, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if u, ok := s.cards[name]; ok {
		return u
	}
	return "https://service/search?q=" + url.QueryEscape(name)
}

func newStub() *stubResolver {
	return &stubResolver{cards: map[string]string{
		"Lightning Bolt": "https://service/card/clu/141/lightning-bolt",
		"Sol Ring":       "https://service/card/c21/263/sol-ring",
	}}
}

func TestRewriteSingleReference(t *testing.T) {
	rw := New(newStub(), Options{})
	require.Equal(t,
		"Check out https://service/card/clu/141/lightning-bolt!",
		rw.Rewrite(context.Background(), "Check out [[Lightning Bolt]]!"))
}

func TestRewriteMultipleReferences(t *testing.T) {
	stub := newStub()
	rw := New(stub, Options{})
	out := rw.Rewrite(context.Background(), "[[A]] and [[B]]")
	require.Equal(t, "https://service/search?q=A and https://service/search?q=B", out)
	require.NotContains(t, out, "[[")
	require.Equal(t, []string{"A", "B"}, stub.calls)
}

func TestRewriteTrimsNames(t *testing.T) {
	rw := New(newStub(), Options{})
	require.Equal(t, "https://service/card/c21/263/sol-ring",
		rw.Rewrite(context.Background(), "[[  Sol Ring \t]]"))
}

func TestRewriteWithoutBracketsSkipsResolver(t *testing.T) {
	stub := newStub()
	rw := New(stub, Options{})
	in := "No references here, only [single] brackets ]]."
	require.Equal(t, in, rw.Rewrite(context.Background(), in))
	require.Empty(t, stub.calls)
}

func TestRewriteLeavesBlankReferences(t *testing.T) {
	stub := newStub()
	rw := New(stub, Options{})
	require.Equal(t, "[[]] and [[   ]]", rw.Rewrite(context.Background(), "[[]] and [[   ]]"))
	require.Empty(t, stub.calls)
}

func TestRewriteIsIdempotent(t *testing.T) {
	rw := New(newStub(), Options{})
	inputs := []string{
		"Check out [[Lightning Bolt]]!",
		"[[Fire // Ice]] then [[Jace, the Mind Sculptor]] [[]]",
		"[[unterminated and [[Sol Ring]]",
	}
	for _, in := range inputs {
		once := rw.Rewrite(context.Background(), in)
		require.Equal(t, once, rw.Rewrite(context.Background(), once), in)
	}
}

func TestRewriteDisabled(t *testing.T) {
	stub := newStub()
	rw := New(stub, Options{Enabled: func() bool { return false }})
	require.Equal(t, "[[Sol Ring]]", rw.Rewrite(context.Background(), "[[Sol Ring]]"))
	require.Empty(t, stub.calls)
}

func TestRewriteSkipCode(t *testing.T) {
	in := "Play [[Sol Ring]], type `[[Sol Ring]]`.\n\n```\n[[Lightning Bolt]]\n```\n"
	rw := New(newStub(), Options{SkipCode: true})
	out := rw.Rewrite(context.Background(), in)
	require.True(t, strings.HasPrefix(out, "Play https://service/card/c21/263/sol-ring, type `[[Sol Ring]]`."), out)
	require.Contains(t, out, "```\n[[Lightning Bolt]]\n```")

	plain := New(newStub(), Options{}).Rewrite(context.Background(), in)
	require.NotContains(t, plain, "[[")
}

func TestScan(t *testing.T) {
	refs := Scan("a [[B]] c [[ D ]]")
	require.Equal(t, []CardReference{
		{RawName: "B", Start: 2, End: 7},
		{RawName: " D ", Start: 10, End: 17},
	}, refs)
	require.Equal(t, "D", refs[1].Name())
	require.Nil(t, Scan("nothing"))
}
