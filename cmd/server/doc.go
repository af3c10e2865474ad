// Package main is the entry point of the pagepatch HTTP service.
//
// The service applies SEO suggestion batches to HTML documents: posted with
// their suggestions, or posted alone and patched with the suggestions the
// suggestion service holds for the page.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -suggestions https://api.example/suggestions -website 42
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
