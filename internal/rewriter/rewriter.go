// Package rewriter replaces bracketed card references such as [[Lightning Bolt]]
// in raw post text with the URL the resolver picks for each name.
package rewriter

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/markdown"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
	"git.home.luguber.info/inful/cardlink/internal/textedit"
)

var referencePattern = regexp.MustCompile(`\[\[([^\]]*)\]\]`)

// CardReference is one [[...]] occurrence. Start and End are byte offsets of the
// whole match, brackets included.
type CardReference struct {
	RawName string
	Start   int
	End     int
}

// Name returns the trimmed card name.
func (r CardReference) Name() string {
	return strings.TrimSpace(r.RawName)
}

// Resolver picks the URL for a card name.
type Resolver interface {
	Resolve(ctx context.Context, name string) string
}

// Options tunes a Rewriter. The zero value rewrites everywhere and is always enabled.
type Options struct {
	SkipCode bool        // leave references inside Markdown code untouched
	Enabled  func() bool // nil means enabled
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Rewriter rewrites card references. It is safe for concurrent use when its
// Resolver is.
type Rewriter struct {
	resolver Resolver
	opts     Options
}

// New creates a Rewriter.
func New(resolver Resolver, opts Options) *Rewriter {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Rewriter{resolver: resolver, opts: opts}
}

// Scan returns every non-overlapping [[...]] occurrence, left to right.
func Scan(text string) []CardReference {
	if !strings.Contains(text, "[[") {
		return nil
	}
	matches := referencePattern.FindAllStringSubmatchIndex(text, -1)
	refs := make([]CardReference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, CardReference{RawName: text[m[2]:m[3]], Start: m[0], End: m[1]})
	}
	return refs
}

// Rewrite replaces each reference with its resolved URL. References whose name
// is blank are left as written. Text without "[[" is returned untouched without
// consulting the resolver.
func (rw *Rewriter) Rewrite(ctx context.Context, text string) string {
	if rw.opts.Enabled != nil && !rw.opts.Enabled() {
		return text
	}
	refs := Scan(text)
	if len(refs) == 0 {
		return text
	}

	var code []markdown.Range
	if rw.opts.SkipCode {
		code = markdown.CodeRanges([]byte(text))
	}

	edits := make([]textedit.Edit, 0, len(refs))
	for _, ref := range refs {
		name := ref.Name()
		if name == "" || markdown.InCode(code, ref.Start, ref.End) {
			continue
		}
		edits = append(edits, textedit.Edit{
			Start:       ref.Start,
			End:         ref.End,
			Replacement: rw.resolver.Resolve(ctx, name),
		})
	}
	if len(edits) == 0 {
		return text
	}

	out, err := textedit.Apply(text, edits)
	if err != nil {
		rw.opts.Logger.Error("Card reference rewrite failed", logfields.Count(len(edits)), logfields.Error(err))
		return text
	}
	rw.opts.Recorder.AddReferencesRewritten(len(edits))
	return out
}
