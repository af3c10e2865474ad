package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/bulk"
	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagepatch/internal/patch"
)

func main() {
	cfg := config.LoadOrDefault()

	suggestions := flag.String("suggestions", "", "Suggestion file (.json, .yaml, .yml or .toml)")
	input := flag.String("in", "", "HTML file or directory to patch")
	output := flag.String("out", "", "Output directory (default: rewrite in place)")
	pattern := flag.String("pattern", bulk.DefaultPattern, "Glob selecting files under a directory")
	pageURL := flag.String("url", "", "Page URL of a single input file")
	baseURL := flag.String("base", "", "Site URL that relative file paths are joined to")
	dryRun := flag.Bool("dry-run", false, "Report without writing files")
	workers := flag.Int("workers", 0, "Directory walk workers (0: one per CPU)")
	policy := flag.String("policy", cfg.Rewrite.Version, "Rewrite policy (v2, strict)")
	boundary := flag.String("boundary", cfg.Rewrite.Boundary, "Word boundary regime (script, word)")
	missing := flag.String("missing", cfg.Rewrite.MissingAttribute, "Missing attribute mode (skip, ensure)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	var logger *logging.Logger
	if *dev {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.FromLevel(cfg.Logging.Level, false)
	}
	defer func() { _ = logger.Sync() }()

	if *suggestions == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg.Rewrite.Version = *policy
	cfg.Rewrite.Boundary = *boundary
	cfg.Rewrite.MissingAttribute = *missing
	rules, err := cfg.Rewrite.Policy()
	if err != nil {
		logger.Fatal("Invalid rewrite policy", zap.Error(err))
	}

	batch, err := bulk.LoadSuggestions(*suggestions)
	if err != nil {
		logger.Fatal("Failed to load suggestions", zap.String("file", *suggestions), zap.Error(err))
	}

	metrics := monitoring.NewMetrics()
	service := patch.NewService(
		dispatch.New(rules, dispatch.WithLogger(logger.Logger), dispatch.WithRecorder(metrics)),
		patch.WithMetrics(metrics),
		patch.WithLogger(logger.Logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := bulk.NewRunner(service, logger.Logger).Run(ctx, batch, bulk.Options{
		Input:   *input,
		Pattern: *pattern,
		Output:  *output,
		DryRun:  *dryRun,
		PageURL: *pageURL,
		BaseURL: *baseURL,
		Workers: *workers,
	})
	if err != nil {
		logger.Error("Patch run stopped", zap.Error(err))
	}

	out, merr := sonic.ConfigStd.MarshalIndent(map[string]any{
		"files":   results,
		"summary": metrics.Snapshot(),
	}, "", "  ")
	if merr != nil {
		logger.Fatal("Failed to encode report", zap.Error(merr))
	}
	fmt.Println(string(out))

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if err != nil || failed > 0 {
		_ = logger.Sync()
		os.Exit(1)
	}
}
