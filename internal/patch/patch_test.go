package patch

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagepatch/internal/rewrite"
	"github.com/GriffinCanCode/pagepatch/internal/shared/id"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

const pageHTML = `<html><head><title>Shop</title></head><body><p>I love my shoe</p></body></html>`

const payload = `[{"id":1,"status":1,"type":"keyword","old":"shoe","new":"sneaker"},{"id":2,"status":1,"type":"popup"}]`

type fakeFetcher struct {
	batch *suggestion.Batch
	err   error
	pages []string
}

func (f *fakeFetcher) Suggestions(_ context.Context, pageURL string) (*suggestion.Batch, error) {
	f.pages = append(f.pages, pageURL)
	return f.batch, f.err
}

func decode(t *testing.T) *suggestion.Batch {
	t.Helper()
	batch, err := suggestion.Decode([]byte(payload))
	require.NoError(t, err)
	return batch
}

func document(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(pageHTML)
	require.NoError(t, err)
	return doc
}

func TestPatchPosted(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	d := dispatch.New(rewrite.DefaultPolicy(), dispatch.WithRecorder(metrics))
	fetcher := &fakeFetcher{}
	svc := NewService(d, WithFetcher(fetcher), WithMetrics(metrics), WithLogger(zap.New(core)))

	res, err := svc.Patch(context.Background(), Request{
		PageURL:  "https://shop.example/p",
		Document: document(t),
		Batch:    decode(t),
	})
	require.NoError(t, err)

	assert.Empty(t, fetcher.pages)
	assert.Equal(t, SourcePosted, res.Source)
	assert.True(t, id.IsValid(res.RunID.String()))
	assert.Contains(t, res.HTML, "<p>I love my sneaker</p>")
	assert.Equal(t, 1, res.Report.Applied)
	assert.Equal(t, 1, res.Report.Rejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SuggestionsTotal.WithLabelValues("content", "applied")))
	assert.Equal(t, int64(1), metrics.Snapshot().Patches)

	applied := logs.FilterMessage("Patch applied").All()
	require.Len(t, applied, 1)
	assert.Equal(t, res.RunID.String(), applied[0].ContextMap()["run_id"])
	// dispatcher warnings carry the run id too
	rejected := logs.FilterMessage("Suggestion rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, res.RunID.String(), rejected[0].ContextMap()["run_id"])
}

func TestPatchFetched(t *testing.T) {
	fetcher := &fakeFetcher{batch: decode(t)}
	svc := NewService(dispatch.New(rewrite.DefaultPolicy()), WithFetcher(fetcher))

	res, err := svc.Patch(context.Background(), Request{
		PageURL:  "https://shop.example/p?utm_source=x",
		Document: document(t),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example/p?utm_source=x"}, fetcher.pages)
	assert.Equal(t, SourceFetched, res.Source)
	assert.Contains(t, res.HTML, "sneaker")
}

func TestPatchErrors(t *testing.T) {
	boom := errors.New("service down")

	tests := []struct {
		name    string
		fetcher Fetcher
		page    string
		want    error
	}{
		{"no fetcher", nil, "https://shop.example/p", ErrNoSource},
		{"no page", &fakeFetcher{}, "", ErrPageURLRequired},
		{"fetch failure", &fakeFetcher{err: boom}, "https://shop.example/p", boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.fetcher != nil {
				opts = append(opts, WithFetcher(tt.fetcher))
			}
			svc := NewService(dispatch.New(rewrite.DefaultPolicy()), opts...)

			_, err := svc.Patch(context.Background(), Request{PageURL: tt.page, Document: document(t)})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewService(dispatch.New(rewrite.DefaultPolicy())).Patch(context.Background(), Request{})
	assert.Error(t, err)
}

func TestPatchFile(t *testing.T) {
	svc := NewService(dispatch.New(rewrite.DefaultPolicy()))
	assert.False(t, svc.CanFetch())

	res, err := svc.PatchFile(document(t), "", decode(t))
	require.NoError(t, err)
	assert.Equal(t, SourceFile, res.Source)
	assert.Contains(t, res.HTML, "sneaker")
}
