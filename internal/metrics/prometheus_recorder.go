package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "cardlink"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	resolutionDuration  *prom.HistogramVec
	resolutions         *prom.CounterVec
	referencesRewritten prom.Counter
	anchorsCustomized   prom.Counter
	previewFetches      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.resolutionDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of card name resolutions including redirect following",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"})
		pr.resolutions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Card name resolutions by outcome",
		}, []string{"outcome"})
		pr.referencesRewritten = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "references_rewritten_total",
			Help:      "Bracketed card references replaced with links",
		})
		pr.anchorsCustomized = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_customized_total",
			Help:      "Rendered anchors marked as card links",
		})
		pr.previewFetches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "preview_fetches_total",
			Help:      "Preview cache lookups by result",
		}, []string{"result"})
		reg.MustRegister(pr.resolutionDuration, pr.resolutions, pr.referencesRewritten, pr.anchorsCustomized, pr.previewFetches)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveResolution(outcome ResolutionOutcome, d time.Duration) {
	if p == nil || p.resolutionDuration == nil {
		return
	}
	p.resolutionDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
	p.resolutions.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddReferencesRewritten(n int) {
	if p == nil || p.referencesRewritten == nil || n <= 0 {
		return
	}
	p.referencesRewritten.Add(float64(n))
}

func (p *PrometheusRecorder) AddAnchorsCustomized(n int) {
	if p == nil || p.anchorsCustomized == nil || n <= 0 {
		return
	}
	p.anchorsCustomized.Add(float64(n))
}

func (p *PrometheusRecorder) IncPreviewFetch(result FetchResult) {
	if p == nil || p.previewFetches == nil {
		return
	}
	p.previewFetches.WithLabelValues(string(result)).Inc()
}
