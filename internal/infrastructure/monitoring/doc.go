/*
Package monitoring provides Prometheus metrics for the patch service.

# Metrics

- HTTP requests (count, latency, sizes) labelled by route template
- Suggestions processed by kind and outcome, nodes touched by kind
- Suggestion service requests by status and their latency
- Patch run duration by source, patches in flight, uptime

Metrics satisfies dispatch.Recorder and fetch.Observer, so the dispatcher
and the suggestion client report into it directly.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "posted")
	report := dispatcher.ApplyBatch(doc, page, batch)
	timer.Stop()
*/
package monitoring
