// Package middleware provides the gin middleware stack of the patch service.
//
//   - RequestID: request correlation ids (X-Request-ID, ULID based)
//   - Logger: one zap line per request
//   - CORS: cross-origin access through gin-contrib/cors
//   - RateLimit: per-IP token buckets with idle eviction
//   - Gzip: response compression with klauspost/compress
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.Gzip(gzip.DefaultCompression, "/metrics"))
package middleware
