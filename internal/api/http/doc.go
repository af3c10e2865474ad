// Package http exposes the patch service over gin.
//
// Routes:
//
//	GET  /               service identity
//	GET  /health         liveness, suggestion breaker state, running totals
//	GET  /metrics        Prometheus exposition
//	POST /v1/patch       {url, html, suggestions?, structured_data?} -> {run_id, source, html, report}
//	POST /v1/patch/raw   raw HTML body, suggestions fetched for ?url=, patched HTML back
//
// Suggestion payloads are decoded leniently: a malformed record is reported
// as rejected and the rest of the batch still applies.
package http
