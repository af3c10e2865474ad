package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/server"
)

func main() {
	cfg := config.LoadOrDefault()

	port := flag.String("port", cfg.Server.Port, "Server port")
	endpoint := flag.String("suggestions", cfg.Suggestions.Endpoint, "Suggestion service endpoint")
	websiteID := flag.String("website", cfg.Suggestions.WebsiteID, "Website id sent to the suggestion service")
	policy := flag.String("policy", cfg.Rewrite.Version, "Rewrite policy (v2, strict)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Suggestions.Endpoint = *endpoint
	cfg.Suggestions.WebsiteID = *websiteID
	cfg.Rewrite.Version = *policy
	cfg.Logging.Development = *dev

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.FromLevel(cfg.Logging.Level, false)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
			os.Exit(1)
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}
}
