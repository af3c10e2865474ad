// Package config provides 12-factor configuration for the patch service.
//
// Configuration is loaded from environment variables with defaults; the
// server binary lets CLI flags override them.
//
// Sections:
//   - Server: listen address, shutdown timeout, body limit
//   - Logging: level and output format
//   - RateLimit: per-IP request limiting
//   - Suggestions: suggestion service endpoint and client limits
//   - Rewrite: exclusion policy version and matcher overrides
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	policy, err := cfg.Rewrite.Policy()
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, MAX_BODY_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SUGGESTIONS_ENDPOINT, SUGGESTIONS_WEBSITE_ID, SUGGESTIONS_APP_VERSION,
//     SUGGESTIONS_TIMEOUT, SUGGESTIONS_RPS, SUGGESTIONS_MAX_RETRIES,
//     SUGGESTIONS_TRIP_AFTER
//   - REWRITE_POLICY, REWRITE_BOUNDARY, REWRITE_MISSING_ATTRIBUTE,
//     REWRITE_DIRECT_SELECT, REWRITE_SANITIZE, REWRITE_MATCH_TIMEOUT
package config
