// Package events publishes card name resolution outcomes for downstream
// consumers, for example to spot names that never resolve to a single card.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResolutionEvent records one card name resolution.
type ResolutionEvent struct {
	ID         string    `json:"id"`
	CardName   string    `json:"card_name"`
	URL        string    `json:"url"`             // URL placed in the text
	Resolved   bool      `json:"resolved"`        // true when URL is a single card page
	Error      string    `json:"error,omitempty"` // follower error, if any
	Timestamp  time.Time `json:"timestamp"`
	DurationMS float64   `json:"duration_ms"`
}

// NewResolutionEvent stamps a fresh ID and the current time.
func NewResolutionEvent(name, url string, resolved bool, err error, d time.Duration) *ResolutionEvent {
	ev := &ResolutionEvent{
		ID:         uuid.NewString(),
		CardName:   name,
		URL:        url,
		Resolved:   resolved,
		Timestamp:  time.Now().UTC(),
		DurationMS: float64(d.Microseconds()) / 1000,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Publisher delivers resolution events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishResolution(ctx context.Context, ev *ResolutionEvent) error
	Close() error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) PublishResolution(context.Context, *ResolutionEvent) error { return nil }
func (NoopPublisher) Close() error                                              { return nil }
