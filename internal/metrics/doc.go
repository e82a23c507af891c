// Package metrics provides observability hooks for card link resolution,
// markup rewriting and preview fetching.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	r := resolver.New(svc, follower, resolver.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled in configuration, a PrometheusRecorder is created
// against a registry and the registry is exposed with HTTPHandler.
package metrics
