package onebox

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

// Metadata is the OpenGraph data of a card page.
type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

// ParseOpenGraph reads og:* meta tags from an HTML document. The <title>
// element is used when og:title is missing. Parsing stops at <body>.
func ParseOpenGraph(r io.Reader) (Metadata, error) {
	var md Metadata
	var title strings.Builder
	inTitle := false

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return Metadata{}, errors.WrapError(err, errors.CategoryPreview, "read card page").Build()
			}
			return finish(md, title.String()), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.Body:
				return finish(md, title.String()), nil
			case atom.Title:
				inTitle = true
			case atom.Meta:
				if hasAttr {
					applyMeta(&md, z)
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Title {
				inTitle = false
			}
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		}
	}
}

func applyMeta(md *Metadata, z *html.Tokenizer) {
	var prop, content string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "property", "name":
			prop = strings.ToLower(string(val))
		case "content":
			content = strings.TrimSpace(string(val))
		}
		if !more {
			break
		}
	}
	switch prop {
	case "og:title":
		md.Title = content
	case "og:description":
		md.Description = content
	case "og:image":
		md.Image = content
	case "og:site_name":
		md.SiteName = content
	case "og:url":
		md.URL = content
	}
}

func finish(md Metadata, title string) Metadata {
	if md.Title == "" {
		md.Title = strings.Join(strings.Fields(title), " ")
	}
	return md
}
