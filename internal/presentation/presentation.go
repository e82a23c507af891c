// Package presentation turns rendered inline previews of card URLs into short
// card-name links that the interactive preview layer can attach to.
package presentation

import (
	"bytes"
	"io"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/cardlink/internal/cardname"
	"git.home.luguber.info/inful/cardlink/internal/lookup"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
	"git.home.luguber.info/inful/cardlink/internal/textedit"
)

const (
	// MarkerClass identifies customized card links.
	MarkerClass = "scryfall-card-link"
	// CardURLAttr carries the card URL for the preview layer.
	CardURLAttr = "data-card-url"
	// PreviewClass is added to the rich preview container by DecoratePreview.
	PreviewClass = "scryfall-onebox"
)

// Options configures a Customizer.
type Options struct {
	Lookup   *lookup.Service // nil means lookup.Default()
	Enabled  func() bool     // nil means enabled
	Recorder metrics.Recorder
}

// Customizer rewrites card anchors in rendered markup. It is safe for concurrent use.
type Customizer struct {
	matcher   *regexp.Regexp
	extractor *cardname.Extractor
	enabled   func() bool
	recorder  metrics.Recorder
}

// New creates a Customizer.
func New(opts Options) *Customizer {
	svc := opts.Lookup
	if svc == nil {
		svc = lookup.Default()
	}
	c := &Customizer{
		matcher:   URLMatcher(svc),
		extractor: cardname.New(svc),
		enabled:   opts.Enabled,
		recorder:  opts.Recorder,
	}
	if c.recorder == nil {
		c.recorder = metrics.NoopRecorder{}
	}
	return c
}

// URLMatcher matches search and card URLs of svc, with or without www.
func URLMatcher(svc *lookup.Service) *regexp.Regexp {
	return regexp.MustCompile(`^https?://(?:www\.)?` + regexp.QuoteMeta(svc.Host()) + `/(?:search|card)`)
}

// Matches reports whether href points at the lookup service.
func (c *Customizer) Matches(href string) bool {
	return c.matcher.MatchString(href)
}

type anchor struct {
	start int // offset of "<a"
	attrs []html.Attribute
	href  string
	text  strings.Builder
}

// Customize marks every lookup anchor with MarkerClass and CardURLAttr and
// replaces its content with the card name. Anchors already carrying the marker
// are left alone. Bytes outside modified anchors are preserved exactly; when
// nothing changes the input is returned with false.
func (c *Customizer) Customize(markup string) (string, bool) {
	if c.enabled != nil && !c.enabled() {
		return markup, false
	}
	if !strings.Contains(markup, "<a") && !strings.Contains(markup, "<A") {
		return markup, false
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		edits []textedit.Edit
		open  *anchor
		pos   int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := len(z.Raw())
		start := pos
		pos += raw

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if open != nil || !bytes.Equal(name, []byte("a")) {
				continue
			}
			attrs := readAttrs(z, hasAttr)
			href := attrValue(attrs, "href")
			if !c.Matches(href) || hasClass(attrValue(attrs, "class"), MarkerClass) {
				continue
			}
			open = &anchor{start: start, attrs: attrs, href: href}
		case html.TextToken:
			if open != nil {
				open.text.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if open == nil || !bytes.Equal(name, []byte("a")) {
				continue
			}
			title := open.text.String()
			cardName := c.extractor.Extract(&title, open.href)
			edits = append(edits, textedit.Edit{
				Start:       open.start,
				End:         start,
				Replacement: renderStartTag("a", markAnchor(open.attrs, open.href)) + html.EscapeString(cardName),
			})
			open = nil
		}
	}
	if z.Err() != io.EOF || len(edits) == 0 {
		return markup, false
	}

	out, err := textedit.Apply(markup, edits)
	if err != nil {
		return markup, false
	}
	c.recorder.AddAnchorsCustomized(len(edits))
	return out, true
}

// DecoratePreview adds PreviewClass to the first aside.onebox in markup. Other
// bytes are preserved; markup without such an element is returned as is.
func DecoratePreview(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	pos := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return markup
		}
		start := pos
		pos += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if !bytes.Equal(name, []byte("aside")) {
			continue
		}
		attrs := readAttrs(z, hasAttr)
		class := attrValue(attrs, "class")
		if !hasClass(class, "onebox") {
			continue
		}
		if hasClass(class, PreviewClass) {
			return markup
		}
		attrs = setAttr(attrs, "class", addClass(class, PreviewClass))
		out, err := textedit.Apply(markup, []textedit.Edit{{Start: start, End: pos, Replacement: renderStartTag("aside", attrs)}})
		if err != nil {
			return markup
		}
		return out
	}
}

func readAttrs(z *html.Tokenizer, more bool) []html.Attribute {
	var attrs []html.Attribute
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		attrs = append(attrs, html.Attribute{Key: string(k), Val: string(v)})
	}
	return attrs
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	out := slices.Clone(attrs)
	for i := range out {
		if out[i].Key == key {
			out[i].Val = val
			return out
		}
	}
	return append(out, html.Attribute{Key: key, Val: val})
}

func markAnchor(attrs []html.Attribute, href string) []html.Attribute {
	attrs = setAttr(attrs, "class", addClass(attrValue(attrs, "class"), MarkerClass))
	return setAttr(attrs, CardURLAttr, href)
}

func hasClass(list, class string) bool {
	return slices.Contains(strings.Fields(list), class)
}

func addClass(list, class string) string {
	fields := strings.Fields(list)
	if slices.Contains(fields, class) {
		return strings.Join(fields, " ")
	}
	return strings.Join(append(fields, class), " ")
}

func renderStartTag(name string, attrs []html.Attribute) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}
