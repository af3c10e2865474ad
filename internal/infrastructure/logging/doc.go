// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output at debug level
//
// Library packages accept a *zap.Logger and default to zap.NewNop(); the
// binaries build one here and hand it down.
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
