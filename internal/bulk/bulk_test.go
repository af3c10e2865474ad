package bulk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/patch"
	"github.com/GriffinCanCode/pagepatch/internal/rewrite"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

const pageHTML = `<!DOCTYPE html><html><head><title>Shop</title></head><body><p>I love my shoe</p><a href="/old">old</a></body></html>`

const suggestionsYAML = `
- id: 1
  status: 1
  type: keyword
  old: shoe
  new: sneaker
- id: 2
  status: 1
  type: internal_link
  old: /old
  new: /new
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newRunner() *Runner {
	return NewRunner(patch.NewService(dispatch.New(rewrite.DefaultPolicy())), nil)
}

func TestLoadSuggestions(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "suggestions.yaml")
	writeFile(t, name, suggestionsYAML)

	batch, err := LoadSuggestions(name)
	require.NoError(t, err)
	assert.Len(t, batch.Suggestions, 2)

	_, err = LoadSuggestions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRunDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), pageHTML)
	writeFile(t, filepath.Join(root, "shop", "item.htm"), pageHTML)
	writeFile(t, filepath.Join(root, "notes.txt"), "shoe")
	writeFile(t, filepath.Join(root, "fake.html"), "just a shoe")
	out := filepath.Join(t.TempDir(), "out")

	batch, err := loadYAML(t, suggestionsYAML)
	require.NoError(t, err)

	results, err := newRunner().Run(context.Background(), batch, Options{
		Input:   root,
		Output:  out,
		BaseURL: "https://shop.example",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "fake.html", results[0].Path)
	assert.Contains(t, results[0].Error, ErrNotHTML.Error())

	assert.Equal(t, "index.html", results[1].Path)
	assert.Equal(t, "https://shop.example/index.html", results[1].PageURL)
	require.NotNil(t, results[1].Report)
	assert.Equal(t, 2, results[1].Report.Applied)

	assert.Equal(t, "shop/item.htm", results[2].Path)
	written, err := os.ReadFile(filepath.Join(out, "shop", "item.htm"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "I love my sneaker")
	assert.Contains(t, string(written), `href="/new"`)

	// sources untouched when an output directory is given
	original, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, pageHTML, string(original))
}

func TestRunPatternAndDryRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), pageHTML)
	writeFile(t, filepath.Join(root, "blog", "post.html"), pageHTML)

	batch, err := loadYAML(t, suggestionsYAML)
	require.NoError(t, err)

	results, err := newRunner().Run(context.Background(), batch, Options{
		Input:   root,
		Pattern: "blog/**/*.html",
		DryRun:  true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "blog/post.html", results[0].Path)
	assert.Empty(t, results[0].Written)

	data, err := os.ReadFile(filepath.Join(root, "blog", "post.html"))
	require.NoError(t, err)
	assert.Equal(t, pageHTML, string(data))
}

func TestRunSingleFileInPlace(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "page.html")
	writeFile(t, file, pageHTML)

	batch, err := loadYAML(t, suggestionsYAML)
	require.NoError(t, err)

	results, err := newRunner().Run(context.Background(), batch, Options{
		Input:   file,
		PageURL: "https://shop.example/p",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://shop.example/p", results[0].PageURL)
	assert.Equal(t, file, results[0].Written)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sneaker")
}

func TestRunErrors(t *testing.T) {
	_, err := newRunner().Run(context.Background(), nil, Options{Input: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)

	_, err = newRunner().Run(context.Background(), nil, Options{Input: t.TempDir(), Pattern: "[unclosed"})
	assert.Error(t, err)
}

func loadYAML(t *testing.T, content string) (*suggestion.Batch, error) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "suggestions.yml")
	writeFile(t, name, content)
	return LoadSuggestions(name)
}
