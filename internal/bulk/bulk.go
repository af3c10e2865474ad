package bulk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/patch"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

// DefaultPattern selects HTML files at any depth.
const DefaultPattern = "**/*.{html,htm}"

// ErrNotHTML marks a selected file whose content is not HTML.
var ErrNotHTML = errors.New("not an html document")

// Options select the files to patch and where results go.
type Options struct {
	// Input is an HTML file or a directory walked for Pattern.
	Input   string
	Pattern string
	// Output mirrors Input's layout under this directory; empty rewrites
	// files in place unless DryRun is set.
	Output string
	DryRun bool
	// PageURL is the page address for a single file. For directories each
	// file's address is BaseURL joined with its relative path.
	PageURL string
	BaseURL string
	Workers int
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string           `json:"path"`
	PageURL string           `json:"page_url,omitempty"`
	Written string           `json:"written,omitempty"`
	Report  *dispatch.Report `json:"report,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Runner applies one suggestion batch to many files.
type Runner struct {
	service *patch.Service
	logger  *zap.Logger
}

// NewRunner creates a runner.
func NewRunner(service *patch.Service, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{service: service, logger: logger}
}

// LoadSuggestions reads a JSON, YAML or TOML suggestion file.
func LoadSuggestions(name string) (*suggestion.Batch, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read suggestions: %w", err)
	}
	return suggestion.DecodeFile(name, data)
}

// Run patches the selected files with batch. A failing file is reported in
// its result and does not stop the others; results are sorted by path.
func (r *Runner) Run(ctx context.Context, batch *suggestion.Batch, opts Options) ([]FileResult, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", opts.Pattern)
	}

	info, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		page := opts.PageURL
		if page == "" {
			page = pageURL(opts.BaseURL, filepath.Base(opts.Input))
		}
		res := r.patchFile(batch, opts, opts.Input, filepath.Base(opts.Input), page)
		return []FileResult{res}, nil
	}

	var (
		mu      sync.Mutex
		results []FileResult
	)
	conf := fastwalk.Config{Follow: false, NumWorkers: opts.Workers}
	err = fastwalk.Walk(&conf, opts.Input, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			r.logger.Warn("Failed to walk path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if opts.Output != "" && sameDir(p, opts.Output) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(opts.Input, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(opts.Pattern, rel); !ok {
			return nil
		}

		res := r.patchFile(batch, opts, p, rel, pageURL(opts.BaseURL, rel))
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, err
}

func (r *Runner) patchFile(batch *suggestion.Batch, opts Options, path, rel, page string) FileResult {
	res := FileResult{Path: rel, PageURL: page}
	fail := func(err error) FileResult {
		r.logger.Error("Failed to patch file", zap.String("path", path), zap.Error(err))
		res.Error = err.Error()
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	if mt := mimetype.Detect(data); !mt.Is("text/html") {
		return fail(fmt.Errorf("%w: detected %s", ErrNotHTML, mt.String()))
	}

	doc, err := dom.Parse(string(data))
	if err != nil {
		return fail(err)
	}
	out, err := r.service.PatchFile(doc, page, batch)
	if err != nil {
		return fail(err)
	}
	res.Report = out.Report

	if opts.DryRun {
		return res
	}
	target := path
	if opts.Output != "" {
		target = filepath.Join(opts.Output, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fail(err)
		}
	}
	if err := os.WriteFile(target, []byte(out.HTML), 0o644); err != nil {
		return fail(err)
	}
	res.Written = target
	return res
}

func pageURL(base, rel string) string {
	if base == "" {
		return ""
	}
	joined, err := url.JoinPath(base, rel)
	if err != nil {
		return ""
	}
	return joined
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
