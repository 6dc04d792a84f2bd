// Package metrics provides observability hooks for readme build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never nil-check:
//
//	runner := pipeline.NewRunner(cfg, root, registry, logger).
//		WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// Watch mode serves the backing registry over HTTP through HTTPHandler.
package metrics
