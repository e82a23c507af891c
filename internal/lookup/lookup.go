// Package lookup describes the URL shapes of the card lookup service: the
// fuzzy search URL built from a card name and the canonical item page that a
// unique search redirects to.
package lookup

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

// DefaultBaseURL is the public Scryfall site.
const DefaultBaseURL = "https://scryfall.com"

// Service knows how to build and recognise lookup URLs for one base URL.
type Service struct {
	base  *url.URL
	hosts map[string]struct{}
}

// New parses base (scheme and host are required; any path is ignored).
func New(base string) (*Service, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid lookup base URL").WithContext("base_url", base).Build()
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.ConfigError("lookup base URL must be absolute http(s)").WithContext("base_url", base).Build()
	}
	host := strings.ToLower(u.Hostname())
	bare := strings.TrimPrefix(host, "www.")
	return &Service{
		base:  &url.URL{Scheme: u.Scheme, Host: u.Host},
		hosts: map[string]struct{}{bare: {}, "www." + bare: {}},
	}, nil
}

// Default returns the Service for DefaultBaseURL.
func Default() *Service {
	s, err := New(DefaultBaseURL)
	if err != nil {
		panic(err)
	}
	return s
}

// Host returns the host of the base URL without a www. prefix.
func (s *Service) Host() string {
	return strings.TrimPrefix(strings.ToLower(s.base.Hostname()), "www.")
}

// BaseURL returns the scheme and host the service was built for.
func (s *Service) BaseURL() string {
	return s.base.String()
}

// SearchURL returns the unique-cards search URL for name. The name is
// query-escaped as is, so empty names still produce a URL.
func (s *Service) SearchURL(name string) string {
	return s.base.String() + "/search?q=" + url.QueryEscape(name) + "&unique=cards&as=grid&order=name"
}

// IsLookupHost reports whether host (optionally with port) belongs to the service.
func (s *Service) IsLookupHost(host string) bool {
	h := strings.ToLower(host)
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	_, ok := s.hosts[h]
	return ok
}

// IsItemURL reports whether raw is an item page on a lookup host:
// /card/<group>/<id>/<slug>.
func (s *Service) IsItemURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !s.IsLookupHost(u.Host) {
		return false
	}
	_, ok := ItemSlug(u.Path)
	return ok
}

// IsLookupURL reports whether raw is a search or item URL on a lookup host.
func (s *Service) IsLookupURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !s.IsLookupHost(u.Host) {
		return false
	}
	p := strings.TrimPrefix(u.Path, "/")
	return p == "search" || strings.HasPrefix(p, "search/") || p == "card" || strings.HasPrefix(p, "card/")
}

// ItemSlug returns the slug of an item path /card/<group>/<id>/<slug>.
// Every segment must be non-empty and there must be exactly four.
func ItemSlug(path string) (string, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) != 4 || segs[0] != "card" {
		return "", false
	}
	for _, s := range segs[1:] {
		if s == "" {
			return "", false
		}
	}
	return segs[3], true
}
