package onebox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/resolver"
)

const cardPage = `<!doctype html>
<html><head>
<title>Lightning Bolt · Limited Edition Alpha (LEA) #161 · Scryfall Magic The Gathering Search</title>
<meta property="og:title" content="Lightning Bolt · Limited Edition Alpha (LEA) #161">
<meta property="og:description" content="Lightning Bolt deals 3 damage to any target.">
<meta property="og:image" content="https://cards.scryfall.io/large/front/lea-161.jpg">
<meta property="og:site_name" content="Scryfall">
</head><body><meta property="og:title" content="ignored"></body></html>`

// rewriteTransport sends every request to target, keeping the path and query.
type rewriteTransport struct {
	target *url.URL
	seen   []string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.seen = append(t.seen, req.URL.String())
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func TestMatches(t *testing.T) {
	e := New(nil)

	require.True(t, e.Matches("https://scryfall.com/search?q=Lightning+Bolt"))
	require.True(t, e.Matches("https://scryfall.com/card/lea/161/lightning-bolt"))
	require.True(t, e.Matches("https://www.scryfall.com/search?q=Sol+Ring"))
	require.False(t, e.Matches("https://scryfall.com/sets"))
	require.False(t, e.Matches("https://example.com/search"))
	require.Less(t, e.Priority(), 200)
}

func TestResolveForPreview(t *testing.T) {
	card := "https://scryfall.com/card/lea/161/lightning-bolt"
	follower := resolver.FollowerFunc(func(_ context.Context, raw string) (string, error) {
		if strings.Contains(raw, "Lightning") {
			return card, nil
		}
		if strings.Contains(raw, "Broken") {
			return "", errors.New("timeout")
		}
		return raw, nil
	})
	e := New(nil, WithFollower(follower))
	ctx := context.Background()

	require.Equal(t, card, e.ResolveForPreview(ctx, "https://scryfall.com/search?q=Lightning+Bolt"))
	require.Equal(t, "https://scryfall.com/search?q=Bolt", e.ResolveForPreview(ctx, "https://scryfall.com/search?q=Bolt"))
	require.Equal(t, "https://scryfall.com/search?q=Broken", e.ResolveForPreview(ctx, "https://scryfall.com/search?q=Broken"))
	require.Equal(t, card, e.ResolveForPreview(ctx, card))
}

func TestParseOpenGraph(t *testing.T) {
	md, err := ParseOpenGraph(strings.NewReader(cardPage))
	require.NoError(t, err)

	require.Equal(t, "Lightning Bolt · Limited Edition Alpha (LEA) #161", md.Title)
	require.Equal(t, "Lightning Bolt deals 3 damage to any target.", md.Description)
	require.Equal(t, "https://cards.scryfall.io/large/front/lea-161.jpg", md.Image)
	require.Equal(t, "Scryfall", md.SiteName)
}

func TestParseOpenGraphFallsBackToTitle(t *testing.T) {
	md, err := ParseOpenGraph(strings.NewReader("<html><head><title>\n  Sol   Ring\n</title></head></html>"))
	require.NoError(t, err)
	require.Equal(t, "Sol Ring", md.Title)
}

func TestPlaceholderHTML(t *testing.T) {
	e := New(nil)

	out, err := e.PlaceholderHTML(Metadata{
		URL:         "http://scryfall.com/card/lea/161/lightning-bolt",
		Title:       `Bolt <b>`,
		Description: "3 damage",
		Image:       "https://cards.scryfall.io/bolt.jpg",
	})
	require.NoError(t, err)
	require.Contains(t, out, `href="https://scryfall.com/card/lea/161/lightning-bolt"`)
	require.Contains(t, out, `class="scryfall-card-link"`)
	require.Contains(t, out, `data-card-name="Bolt &lt;b&gt;"`)
	require.Contains(t, out, `data-card-image="https://cards.scryfall.io/bolt.jpg"`)
	require.Contains(t, out, `data-card-description="3 damage"`)
	require.NotContains(t, out, "<b>")

	empty, err := e.PlaceholderHTML(Metadata{URL: "https://scryfall.com/card/a/1/b"})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestPlaceholderShowsCardNameThroughCustomizer(t *testing.T) {
	e := New(nil)
	title := "Lightning Bolt · Limited Edition Alpha (LEA) #161"

	out, err := e.PlaceholderHTML(Metadata{URL: "https://scryfall.com/card/lea/161/lightning-bolt", Title: title})
	require.NoError(t, err)
	require.Contains(t, out, `>Lightning Bolt</a>`)
	require.Contains(t, out, `data-card-name="`+title+`"`)
	require.Contains(t, out, `data-card-url="https://scryfall.com/card/lea/161/lightning-bolt"`)

	customized, changed := presentation.New(presentation.Options{}).Customize(out)
	require.False(t, changed)
	require.Equal(t, out, customized)
}

func TestFetchAndRichHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/card/lea/161/lightning-bolt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(cardPage))
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	rt := &rewriteTransport{target: target}
	follower := resolver.FollowerFunc(func(context.Context, string) (string, error) {
		return "https://scryfall.com/card/lea/161/lightning-bolt", nil
	})
	e := New(nil, WithFollower(follower), WithHTTPClient(&http.Client{Transport: rt}))

	md, err := e.Fetch(context.Background(), "http://scryfall.com/search?q=Lightning+Bolt")
	require.NoError(t, err)
	require.Equal(t, "https://scryfall.com/card/lea/161/lightning-bolt", md.URL)
	require.Equal(t, []string{"https://scryfall.com/card/lea/161/lightning-bolt"}, rt.seen)

	out, err := e.RichHTML(md)
	require.NoError(t, err)
	require.Contains(t, out, "scryfall-onebox")
	require.Contains(t, out, "scryfall-card-image")
	require.Contains(t, out, "scryfall.com/favicon.ico")
}

func TestFetchRejectsForeignURL(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), "https://example.com/card/a/1/b")
	require.Error(t, err)
}

func TestFetchReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	e := New(nil, WithHTTPClient(&http.Client{Transport: &rewriteTransport{target: target}}))
	_, err = e.Fetch(context.Background(), "https://scryfall.com/card/lea/161/lightning-bolt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}
