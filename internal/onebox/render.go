package onebox

import (
	"bytes"
	"html/template"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
)

var (
	placeholderTmpl = template.Must(template.New("placeholder").Parse(
		`<a href="{{.URL}}" class="{{.Class}}" data-card-url="{{.URL}}" data-card-name="{{.Title}}" data-card-image="{{.Image}}" data-card-description="{{.Description}}">{{.Name}}</a>`))

	richTmpl = template.Must(template.New("rich").Parse(`<aside class="onebox {{.PreviewClass}}" data-onebox-src="{{.URL}}">
  <header class="source">
    <img src="{{.Favicon}}" class="site-icon" width="16" height="16">
    <a href="{{.URL}}" target="_blank" rel="noopener">{{.SiteName}}</a>
  </header>
  <article class="onebox-body">
    {{- if .Image}}
    <img src="{{.Image}}" class="scryfall-card-image" alt="{{.Title}}">
    {{- end}}
    <h3><a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a></h3>
    {{- if .Description}}
    <p>{{.Description}}</p>
    {{- end}}
  </article>
</aside>`))
)

type view struct {
	Metadata
	Name         string
	Class        string
	PreviewClass string
	Favicon      string
}

// PlaceholderHTML renders the inline link for md with the card name as its
// text; the full title stays in data-card-name. It returns "" when md has no
// title, leaving the caller's default rendering in place.
func (e *Engine) PlaceholderHTML(md Metadata) (string, error) {
	if md.Title == "" {
		return "", nil
	}
	md.URL = AlwaysHTTPS(md.URL)
	return render(placeholderTmpl, e.view(md))
}

// RichHTML renders the full preview card for md.
func (e *Engine) RichHTML(md Metadata) (string, error) {
	if md.Title == "" {
		return "", errors.NewError(errors.CategoryPreview, "card page has no title").WithContext("url", md.URL).Build()
	}
	md.URL = AlwaysHTTPS(md.URL)
	if md.SiteName == "" {
		md.SiteName = "Scryfall"
	}
	return render(richTmpl, e.view(md))
}

func (e *Engine) view(md Metadata) view {
	return view{
		Metadata:     md,
		Name:         e.names.Extract(&md.Title, md.URL),
		Class:        presentation.MarkerClass,
		PreviewClass: presentation.PreviewClass,
		Favicon:      AlwaysHTTPS(e.svc.BaseURL()) + "/favicon.ico",
	}
}

func render(t *template.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", errors.WrapError(err, errors.CategoryPreview, "render preview").WithContext("template", t.Name()).Build()
	}
	return buf.String(), nil
}
