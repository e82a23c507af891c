// Package responses defines the JSON bodies of the cardlink hook API.
package responses

import "time"

// RewriteRequest carries raw post text.
type RewriteRequest struct {
	Text string `json:"text"`
}

// RewriteResponse is the text with card references replaced.
type RewriteResponse struct {
	Text       string `json:"text"`
	References int    `json:"references"`
	Changed    bool   `json:"changed"`
}

// CustomizeRequest carries rendered markup.
type CustomizeRequest struct {
	HTML string `json:"html"`
}

// CustomizeResponse is the markup with card links customized.
type CustomizeResponse struct {
	HTML    string `json:"html"`
	Changed bool   `json:"changed"`
}

// ResolveResponse is the URL picked for one card name.
type ResolveResponse struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Resolved bool   `json:"resolved"`
}

// PlaceholderRequest names the lookup URL to build an inline placeholder for.
type PlaceholderRequest struct {
	URL string `json:"url"`
}

// PlaceholderResponse is the inline placeholder. HTML is empty when the card
// page has no title.
type PlaceholderResponse struct {
	URL         string `json:"url"`
	HTML        string `json:"html,omitempty"`
	Title       string `json:"title,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Enabled   bool      `json:"enabled"`
}
