// Package cardname derives a readable card name from a preview title or,
// failing that, from the slug of a card page URL.
package cardname

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/cardlink/internal/lookup"
)

const (
	// Separator splits preview titles such as "Lightning Bolt · Clue Edition (CLU) #141 · Scryfall".
	Separator = " · "
	// Placeholder is returned when neither the title nor the URL yields a name.
	Placeholder = "Scryfall Card"
)

// Extractor derives names for one lookup service.
type Extractor struct {
	host string
}

// New creates an Extractor that treats svc's host as a generic title.
func New(svc *lookup.Service) *Extractor {
	if svc == nil {
		svc = lookup.Default()
	}
	return &Extractor{host: svc.Host()}
}

var defaultExtractor = New(lookup.Default())

// Extract uses the default lookup service.
func Extract(title *string, rawURL string) string {
	return defaultExtractor.Extract(title, rawURL)
}

// ExtractString is Extract for a title that is always present (possibly empty).
func ExtractString(title, rawURL string) string {
	return defaultExtractor.Extract(&title, rawURL)
}

// Extract returns, in order of preference: the part of title before the first
// Separator; the whole title unless it is generic; the title-cased slug of a
// /card/<group>/<id>/<slug> URL; Placeholder.
func (e *Extractor) Extract(title *string, rawURL string) string {
	if title != nil {
		if head, _, found := strings.Cut(*title, Separator); found {
			if name := collapse(head); name != "" {
				return name
			}
		} else if t := strings.TrimSpace(*title); t != "" && !e.isGeneric(t, rawURL) {
			return collapse(t)
		}
	}
	if name := nameFromURL(rawURL); name != "" {
		return name
	}
	return Placeholder
}

// isGeneric reports whether t carries no card-specific information: the bare
// service domain, the URL itself, or any other URL.
func (e *Extractor) isGeneric(t, rawURL string) bool {
	lt := strings.ToLower(t)
	switch {
	case lt == e.host, lt == "www."+e.host:
		return true
	case t == strings.TrimSpace(rawURL):
		return true
	case strings.HasPrefix(lt, "http://"), strings.HasPrefix(lt, "https://"):
		return true
	}
	return false
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	slug, ok := lookup.ItemSlug(u.Path)
	if !ok {
		return ""
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == ' ' })
	if len(words) == 0 {
		return ""
	}
	// cases.Caser holds state and is not safe for concurrent use.
	title := cases.Title(language.Und)
	for i, w := range words {
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
