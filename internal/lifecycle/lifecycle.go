// Package lifecycle connects card linking to the host's content lifecycle:
// raw text is rewritten when content is created or revised, and rendered
// markup is customized before it is served.
package lifecycle

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
	"git.home.luguber.info/inful/cardlink/internal/rewriter"
	"git.home.luguber.info/inful/cardlink/internal/settings"
)

// Revision is a pending edit. Raw is nil when the edit does not touch the raw text.
type Revision struct {
	Raw *string
}

// Hooks runs the rewriter and customizer at the lifecycle points, gated by Flag.
type Hooks struct {
	rewriter   *rewriter.Rewriter
	customizer *presentation.Customizer
	flag       *settings.Flag
	logger     *slog.Logger
}

// New creates Hooks. A nil flag leaves the hooks always on.
func New(rw *rewriter.Rewriter, c *presentation.Customizer, flag *settings.Flag, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{rewriter: rw, customizer: c, flag: flag, logger: logger.With(logfields.Component("lifecycle"))}
}

// BeforeCreate returns raw with card references replaced by URLs.
func (h *Hooks) BeforeCreate(ctx context.Context, raw string) string {
	if !h.flag.Enabled() {
		return raw
	}
	return h.rewriter.Rewrite(ctx, raw)
}

// BeforeRevise rewrites rev.Raw in place and reports whether it changed.
func (h *Hooks) BeforeRevise(ctx context.Context, rev *Revision) bool {
	if rev == nil || rev.Raw == nil || !h.flag.Enabled() {
		return false
	}
	out := h.rewriter.Rewrite(ctx, *rev.Raw)
	if out == *rev.Raw {
		return false
	}
	h.logger.Info("Raw content modified during revision")
	*rev.Raw = out
	return true
}

// BeforeRender customizes card links in cooked markup.
func (h *Hooks) BeforeRender(cooked string) string {
	if !h.flag.Enabled() {
		return cooked
	}
	out, _ := h.customizer.Customize(cooked)
	return out
}
