package patch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagepatch/internal/shared/id"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

var (
	// ErrNoSource is returned when a request carries no batch and no
	// suggestion service is configured.
	ErrNoSource = errors.New("no suggestions supplied and no suggestion service configured")
	// ErrPageURLRequired is returned when suggestions must be fetched but the
	// request names no page.
	ErrPageURLRequired = errors.New("page url required to fetch suggestions")
)

// Sources label where a run's batch came from.
const (
	SourcePosted  = "posted"
	SourceFetched = "fetched"
	SourceFile    = "file"
)

// Fetcher loads the suggestion batch for a page.
type Fetcher interface {
	Suggestions(ctx context.Context, pageURL string) (*suggestion.Batch, error)
}

// Request is one document to patch.
type Request struct {
	PageURL  string
	Document *dom.Document
	// Batch is applied as is; nil means fetch it for PageURL.
	Batch *suggestion.Batch
}

// Result is a patched document and what happened to it.
type Result struct {
	RunID   id.RunID         `json:"run_id"`
	Source  string           `json:"source"`
	HTML    string           `json:"html"`
	Report  *dispatch.Report `json:"report"`
	Elapsed time.Duration    `json:"-"`
}

// Service patches documents with posted or fetched suggestion batches.
type Service struct {
	dispatcher *dispatch.Dispatcher
	fetcher    Fetcher
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher enables fetching batches that were not supplied.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithMetrics times every run.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a patch service around d.
func NewService(d *dispatch.Dispatcher, opts ...Option) *Service {
	s := &Service{
		dispatcher: d,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanFetch reports whether batches can be fetched.
func (s *Service) CanFetch() bool {
	return s.fetcher != nil
}

// Fetcher returns the configured fetcher, or nil.
func (s *Service) Fetcher() Fetcher {
	return s.fetcher
}

// Patch resolves the request's batch, applies it and renders the document.
func (s *Service) Patch(ctx context.Context, req Request) (*Result, error) {
	if req.Document == nil {
		return nil, fmt.Errorf("patch: nil document")
	}

	source := SourcePosted
	batch := req.Batch
	if batch == nil {
		var err error
		if batch, err = s.fetch(ctx, req.PageURL); err != nil {
			return nil, err
		}
		source = SourceFetched
	}
	return s.run(req, batch, source)
}

// PatchFile applies batch to a document read from disk.
func (s *Service) PatchFile(doc *dom.Document, pageURL string, batch *suggestion.Batch) (*Result, error) {
	return s.run(Request{PageURL: pageURL, Document: doc}, batch, SourceFile)
}

func (s *Service) fetch(ctx context.Context, pageURL string) (*suggestion.Batch, error) {
	if s.fetcher == nil {
		return nil, ErrNoSource
	}
	if pageURL == "" {
		return nil, ErrPageURLRequired
	}
	return s.fetcher.Suggestions(ctx, pageURL)
}

func (s *Service) run(req Request, batch *suggestion.Batch, source string) (*Result, error) {
	runID := id.NewRunID()
	logger := s.logger.With(zap.String("run_id", runID.String()), zap.String("source", source))

	var timer *monitoring.Timer
	if s.metrics != nil {
		timer = monitoring.NewTimer(s.metrics, source)
	}
	start := time.Now()

	report := s.dispatcher.ForRun(logger).ApplyBatch(req.Document, req.PageURL, batch)

	elapsed := time.Since(start)
	if timer != nil {
		elapsed = timer.Stop()
	}

	rendered, err := req.Document.Render()
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	logger.Info("Patch applied",
		zap.String("page", req.PageURL),
		zap.Int("applied", report.Applied),
		zap.Int("failed", report.Failed),
		zap.Int("rejected", report.Rejected),
		zap.Int("touched", report.Touched),
		zap.Duration("elapsed", elapsed))

	return &Result{
		RunID:   runID,
		Source:  source,
		HTML:    rendered,
		Report:  report,
		Elapsed: elapsed,
	}, nil
}
