package dispatch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/rewrite"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

// ErrBusy is returned by Run while another pass holds the guard.
var ErrBusy = errors.New("suggestion pass already running")

// Recorder receives per-suggestion outcomes.
type Recorder interface {
	RecordSuggestion(kind string, outcome string, touched int)
}

type nopRecorder struct{}

func (nopRecorder) RecordSuggestion(string, string, int) {}

// Guard admits one pass at a time. The zero value is ready to use.
type Guard struct {
	running atomic.Bool
}

// Dispatcher routes each suggestion of a batch to its mutation.
type Dispatcher struct {
	policy   rewrite.Policy
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// New creates a dispatcher using policy for content mutations.
func New(policy rewrite.Policy, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		policy:   policy,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ForRun returns a copy of d that logs through logger, for tagging one
// pass with its run id.
func (d *Dispatcher) ForRun(logger *zap.Logger) *Dispatcher {
	c := *d
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Run applies batch while holding g, so overlapping passes for the same page
// view are refused with ErrBusy instead of interleaving.
func (d *Dispatcher) Run(g *Guard, doc *dom.Document, page string, batch *suggestion.Batch) (*Report, error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer g.running.Store(false)

	return d.ApplyBatch(doc, page, batch), nil
}

// ApplyBatch reports the records rejected at decode time, injects the batch's
// structured data and applies its suggestions.
func (d *Dispatcher) ApplyBatch(doc *dom.Document, page string, batch *suggestion.Batch) *Report {
	report := &Report{}
	if batch == nil {
		return report
	}

	for _, r := range batch.Rejected {
		d.logger.Warn("Suggestion rejected",
			zap.Int("index", r.Index),
			zap.String("type", r.Type),
			zap.Error(r.Err))
		d.recorder.RecordSuggestion(r.Type, string(OutcomeRejected), 0)
		report.add(Entry{Kind: r.Type, Outcome: OutcomeRejected, Error: r.Err.Error()})
	}

	if len(batch.StructuredData) > 0 {
		if _, err := InjectStructuredData(doc, batch.StructuredData); err != nil {
			d.logger.Warn("Structured data not injected", zap.Error(err))
		} else {
			report.StructuredData = true
		}
	}

	d.apply(report, doc, page, batch.Suggestions)
	return report
}

// Apply processes suggestions in order. Each one completes before the next
// starts; a failure is logged and does not stop the batch.
func (d *Dispatcher) Apply(doc *dom.Document, page string, suggestions []suggestion.Suggestion) *Report {
	report := &Report{}
	d.apply(report, doc, page, suggestions)
	return report
}

func (d *Dispatcher) apply(report *Report, doc *dom.Document, page string, suggestions []suggestion.Suggestion) {
	engine := rewrite.NewEngine(doc, d.policy, rewrite.WithLogger(d.logger))

	for _, s := range suggestions {
		h := s.Header()
		entry := Entry{ID: h.ID, Kind: string(s.Kind())}

		if !h.Active {
			entry.Outcome = OutcomeInactive
		} else {
			touched, created, err := d.dispatch(engine, doc, page, s)
			entry.Touched, entry.Created = touched, created
			switch {
			case err != nil:
				d.logger.Error("Error processing suggestion",
					zap.String("kind", entry.Kind),
					zap.String("suggestion_id", h.ID),
					zap.Error(err))
				entry.Outcome = OutcomeFailed
				entry.Error = err.Error()
			case touched > 0 || created:
				entry.Outcome = OutcomeApplied
			default:
				entry.Outcome = OutcomeNoop
			}
		}

		d.recorder.RecordSuggestion(entry.Kind, string(entry.Outcome), entry.Touched)
		report.add(entry)
	}
}

// dispatch runs one suggestion, turning a panic into an error.
func (d *Dispatcher) dispatch(engine *rewrite.Engine, doc *dom.Document, page string, s suggestion.Suggestion) (touched int, created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch v := s.(type) {
	case *suggestion.Content:
		return applyContent(engine, v)
	case *suggestion.Image:
		touched, err = ApplyImage(doc, v)
		return touched, false, err
	case *suggestion.Link:
		touched, err = ApplyLink(doc, page, v)
		return touched, false, err
	default:
		return 0, false, fmt.Errorf("unsupported suggestion kind %q", s.Kind())
	}
}

func applyContent(engine *rewrite.Engine, c *suggestion.Content) (int, bool, error) {
	res, err := engine.Apply(rewrite.ContentParams{
		Selector:    c.Selector,
		Match:       c.Match,
		Replacement: c.Replacement,
		IgnoreCase:  c.IgnoreCase,
		Force:       c.Force,
		Attribute:   c.Attribute,
		RelocateTo:  c.RelocateTo,
		WholeMarkup: c.WholeMarkup,
	})
	if res == nil {
		return 0, false, err
	}
	return len(res.Touched) + len(res.Relocated), res.Created != nil, err
}
