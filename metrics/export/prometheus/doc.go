// Package prometheus renders authui metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads a [authui.Manager]. The CLI prints [PrometheusExporter.Render]
// for `-metrics`; long-running hosts can mount [PrometheusExporter.Handler] instead.
// Counter names are authui_*_total; the single histogram is
// authui_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry.
//   - Mutate session state.
package prometheus
