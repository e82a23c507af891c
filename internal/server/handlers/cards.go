package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/onebox"
	"git.home.luguber.info/inful/cardlink/internal/resolver"
	"git.home.luguber.info/inful/cardlink/internal/rewriter"
	"git.home.luguber.info/inful/cardlink/internal/server/responses"
)

// Lifecycle runs the content hooks.
type Lifecycle interface {
	BeforeCreate(ctx context.Context, raw string) string
	BeforeRender(cooked string) string
}

// Resolver resolves one card name.
type Resolver interface {
	ResolveDetailed(ctx context.Context, name string) resolver.ResolvedURL
}

// PreviewEngine builds previews for lookup URLs.
type PreviewEngine interface {
	Matches(rawURL string) bool
	Fetch(ctx context.Context, rawURL string) (onebox.Metadata, error)
	PlaceholderHTML(md onebox.Metadata) (string, error)
	RichHTML(md onebox.Metadata) (string, error)
}

// CardHandlers serves the card linking endpoints.
type CardHandlers struct {
	hooks        Lifecycle
	resolver     Resolver
	engine       PreviewEngine
	errorAdapter *errors.HTTPErrorAdapter
}

// NewCardHandlers creates the card handlers.
func NewCardHandlers(hooks Lifecycle, res Resolver, engine PreviewEngine, logger *slog.Logger) *CardHandlers {
	return &CardHandlers{
		hooks:        hooks,
		resolver:     res,
		engine:       engine,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleRewrite replaces [[card]] references in posted raw text.
func (h *CardHandlers) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	var req responses.RewriteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	out := h.hooks.BeforeCreate(r.Context(), req.Text)
	h.write(w, r, &responses.RewriteResponse{
		Text:       out,
		References: len(rewriter.Scan(req.Text)),
		Changed:    out != req.Text,
	})
}

// HandleCustomize rewrites card anchors in posted rendered markup.
func (h *CardHandlers) HandleCustomize(w http.ResponseWriter, r *http.Request) {
	var req responses.CustomizeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	out := h.hooks.BeforeRender(req.HTML)
	h.write(w, r, &responses.CustomizeResponse{HTML: out, Changed: out != req.HTML})
}

// HandleResolve resolves the card named by the name query parameter.
func (h *CardHandlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		err := errors.ValidationError("missing query parameter").WithContext("parameter", "name").Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	name := strings.TrimSpace(q.Get("name"))
	res := h.resolver.ResolveDetailed(r.Context(), name)
	h.write(w, r, &responses.ResolveResponse{Name: name, URL: res.URL, Resolved: res.Resolved})
}

// HandlePlaceholder builds the inline placeholder for a lookup URL.
func (h *CardHandlers) HandlePlaceholder(w http.ResponseWriter, r *http.Request) {
	var req responses.PlaceholderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	md, err := h.fetch(r, req.URL)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	markup, err := h.engine.PlaceholderHTML(md)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.write(w, r, &responses.PlaceholderResponse{
		URL:         md.URL,
		HTML:        markup,
		Title:       md.Title,
		Image:       md.Image,
		Description: md.Description,
	})
}

// HandleOnebox serves the rich preview for the url query parameter. JSON is
// returned when the client asks for it, raw markup otherwise.
func (h *CardHandlers) HandleOnebox(w http.ResponseWriter, r *http.Request) {
	md, err := h.fetch(r, r.URL.Query().Get("url"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	markup, err := h.engine.RichHTML(md)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		h.write(w, r, map[string]string{"preview": markup})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

func (h *CardHandlers) fetch(r *http.Request, rawURL string) (onebox.Metadata, error) {
	if rawURL == "" {
		return onebox.Metadata{}, errors.ValidationError("missing url").Build()
	}
	if !h.engine.Matches(rawURL) {
		return onebox.Metadata{}, errors.ValidationError("url is not a card lookup URL").WithContext("url", rawURL).Build()
	}
	return h.engine.Fetch(r.Context(), rawURL)
}

func (h *CardHandlers) write(w http.ResponseWriter, r *http.Request, v any) {
	if err := writeJSONPretty(w, r, http.StatusOK, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}
