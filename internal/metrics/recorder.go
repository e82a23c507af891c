package metrics

import "time"

// ResolutionOutcome enumerates how a card name resolution ended.
type ResolutionOutcome string

const (
	OutcomeResolved ResolutionOutcome = "resolved" // landed on a single item page
	OutcomeFallback ResolutionOutcome = "fallback" // kept the search URL
	OutcomeError    ResolutionOutcome = "error"    // follower failed or panicked
)

// FetchResult enumerates preview fetch results for counters.
type FetchResult string

const (
	FetchHit    FetchResult = "hit"
	FetchMiss   FetchResult = "miss"
	FetchFailed FetchResult = "failed"
)

// Recorder defines observability hooks. Implementations may forward to Prometheus
// or any other backend; all methods must be safe for concurrent use.
type Recorder interface {
	ObserveResolution(outcome ResolutionOutcome, d time.Duration)
	AddReferencesRewritten(n int)
	AddAnchorsCustomized(n int)
	IncPreviewFetch(result FetchResult)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveResolution(ResolutionOutcome, time.Duration) {}
func (NoopRecorder) AddReferencesRewritten(int)                         {}
func (NoopRecorder) AddAnchorsCustomized(int)                           {}
func (NoopRecorder) IncPreviewFetch(FetchResult)                        {}
