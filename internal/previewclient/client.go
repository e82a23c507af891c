// Package previewclient fetches rendered preview markup for a URL from the
// host's preview endpoint.
package previewclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

const maxBodyBytes = 1 << 20

// StatusError is returned for non-2xx responses. The body is kept because
// preview endpoints often render a usable fragment even for failures.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("preview endpoint returned HTTP %d", e.StatusCode)
}

// ResponseBody returns the response body of the failed request.
func (e *StatusError) ResponseBody() string { return e.Body }

// Client calls GET <endpoint>?url=<url>&refresh=false.
type Client struct {
	endpoint *url.URL
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New creates a Client for endpoint, which must be an absolute URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("preview endpoint must be an absolute URL").WithContext("endpoint", endpoint).Build()
	}
	c := &Client{endpoint: u, http: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type previewResponse struct {
	Preview string `json:"preview"`
}

// Fetch returns the preview markup for target. JSON responses are read as
// {"preview": "..."}; any other content type is taken as raw markup.
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("url", target)
	q.Set("refresh", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryPreview, "failed to build preview request").Build()
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryPreview, "preview request failed").WithContext("url", target).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryPreview, "failed to read preview response").WithContext("url", target).Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: errorFragment(resp.Header.Get("Content-Type"), body)}
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var pr previewResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return "", errors.WrapError(err, errors.CategoryPreview, "invalid preview JSON").WithContext("url", target).Build()
		}
		return pr.Preview, nil
	}
	return string(body), nil
}

// errorFragment keeps the markup a failed response still renders. A JSON body
// only counts when it carries a preview field; error envelopes are dropped.
func errorFragment(contentType string, body []byte) string {
	if !isJSON(contentType) {
		return string(body)
	}
	var pr previewResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return ""
	}
	return pr.Preview
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
