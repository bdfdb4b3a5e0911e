// Package metrics records build metrics for docportal.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can be
// switched on by injecting a PrometheusRecorder without touching call sites:
//
//	reg := prometheus.NewRegistry()
//	gen := build.NewGenerator(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
