package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/lifecycle"
	"git.home.luguber.info/inful/cardlink/internal/lookup"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
	"git.home.luguber.info/inful/cardlink/internal/onebox"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/resolver"
	"git.home.luguber.info/inful/cardlink/internal/rewriter"
	"git.home.luguber.info/inful/cardlink/internal/server/responses"
	"git.home.luguber.info/inful/cardlink/internal/settings"
)

const boltURL = "https://scryfall.com/card/clu/141/lightning-bolt"

const boltPage = `<html><head>
<meta property="og:title" content="Lightning Bolt · Ravnica: Clue Edition (CLU) #141">
<meta property="og:image" content="https://cards.scryfall.io/clu-141.jpg">
</head><body></body></html>`

type pageTransport struct{ target *url.URL }

func (t pageTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

type fixture struct {
	handler http.Handler
	flag    *settings.Flag
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/card/clu/141/lightning-bolt" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, boltPage)
	}))
	t.Cleanup(pages.Close)
	target, err := url.Parse(pages.URL)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	follower := resolver.FollowerFunc(func(_ context.Context, raw string) (string, error) {
		if strings.Contains(raw, "Lightning+Bolt") {
			return boltURL, nil
		}
		return raw, nil
	})
	res := resolver.New(lookup.Default(), follower, resolver.WithRecorder(rec), resolver.WithLogger(logger))

	flag := settings.NewFlag(true)
	rw := rewriter.New(res, rewriter.Options{Recorder: rec, Logger: logger})
	cust := presentation.New(presentation.Options{Recorder: rec})
	engine := onebox.New(nil,
		onebox.WithFollower(follower),
		onebox.WithHTTPClient(&http.Client{Transport: pageTransport{target: target}}),
		onebox.WithLogger(logger))

	srv := New(config.Default(), Deps{
		Hooks:    lifecycle.New(rw, cust, flag, logger),
		Resolver: res,
		Engine:   engine,
		Enabled:  flag.Enabled,
		Registry: reg,
		Logger:   logger,
	})
	return &fixture{handler: srv.Handler(), flag: flag, reg: reg}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRewriteEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/rewrite", responses.RewriteRequest{Text: "Check out [[Lightning Bolt]]!"})

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[responses.RewriteResponse](t, rec)
	require.Equal(t, "Check out "+boltURL+"!", got.Text)
	require.Equal(t, 1, got.References)
	require.True(t, got.Changed)
}

func TestRewriteEndpointDisabled(t *testing.T) {
	f := newFixture(t)
	f.flag.Set(false)

	rec := f.do(t, http.MethodPost, "/v1/rewrite", responses.RewriteRequest{Text: "[[Lightning Bolt]]"})

	got := decode[responses.RewriteResponse](t, rec)
	require.Equal(t, "[[Lightning Bolt]]", got.Text)
	require.False(t, got.Changed)
}

func TestRewriteEndpointRejectsBadJSON(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/rewrite", strings.NewReader("{")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomizeEndpoint(t *testing.T) {
	f := newFixture(t)
	html := `<p><a href="` + boltURL + `" class="inline-onebox">Lightning Bolt · Ravnica: Clue Edition (CLU) #141 · Scryfall</a></p>`

	rec := f.do(t, http.MethodPost, "/v1/customize", responses.CustomizeRequest{HTML: html})

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[responses.CustomizeResponse](t, rec)
	require.True(t, got.Changed)
	require.Contains(t, got.HTML, `class="inline-onebox scryfall-card-link"`)
	require.Contains(t, got.HTML, `>Lightning Bolt</a>`)
}

func TestResolveEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/resolve?name=Lightning+Bolt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[responses.ResolveResponse](t, rec)
	require.Equal(t, boltURL, got.URL)
	require.True(t, got.Resolved)

	rec = f.do(t, http.MethodGet, "/v1/resolve?name=Bolt", nil)
	got = decode[responses.ResolveResponse](t, rec)
	require.False(t, got.Resolved)
	require.Contains(t, got.URL, "/search?q=Bolt")

	rec = f.do(t, http.MethodGet, "/v1/resolve", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceholderEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/placeholder", responses.PlaceholderRequest{URL: "https://scryfall.com/search?q=Lightning+Bolt"})

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[responses.PlaceholderResponse](t, rec)
	require.Equal(t, boltURL, got.URL)
	require.Contains(t, got.HTML, `data-card-image="https://cards.scryfall.io/clu-141.jpg"`)

	rec = f.do(t, http.MethodPost, "/v1/placeholder", responses.PlaceholderRequest{URL: "https://example.com/card/a/1/b"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOneboxEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/onebox?url="+url.QueryEscape(boltURL)+"&refresh=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "scryfall-onebox")

	req := httptest.NewRequest(http.MethodGet, "/onebox?url="+url.QueryEscape(boltURL), nil)
	req.Header.Set("Accept", "application/json")
	jrec := httptest.NewRecorder()
	f.handler.ServeHTTP(jrec, req)
	got := decode[map[string]string](t, jrec)
	require.Contains(t, got["preview"], "scryfall-card-image")

	missing := f.do(t, http.MethodGet, "/onebox?url="+url.QueryEscape("https://scryfall.com/card/xxx/1/missing"), nil)
	require.Equal(t, http.StatusBadGateway, missing.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/rewrite", responses.RewriteRequest{Text: "[[Lightning Bolt]]"})

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[responses.HealthResponse](t, rec)
	require.Equal(t, "healthy", health.Status)
	require.True(t, health.Enabled)

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "cardlink_references_rewritten_total 1")
}

func TestStartAndStop(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	srv := New(cfg, Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Serve(ln))

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}
