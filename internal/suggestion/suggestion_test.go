package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[
	{"id": 1, "id_page": 7, "status": true, "type": "keyword", "selector": "p", "old": "shoe", "new": "boot", "ignore_case": true},
	{"id": "m-1", "status": true, "type": "metatag", "selector": "head > meta[name=\"description\"]", "new": "Great \u003Cshoes\u003E \u0026 boots"},
	{"id": 3, "status": false, "type": "image", "old": "a", "new": "b"},
	{"id": 4, "status": 1, "type": "internal_link", "old": "/old", "new": "/new", "force_set": true},
	{"id": 5, "status": true, "type": "external_link"},
	{"id": 6, "status": true, "type": "popup"},
	{"id": 7, "status": true, "type": "content", "old": 12}
]`

func TestDecode(t *testing.T) {
	batch, err := Decode([]byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, batch.Suggestions, 5)
	require.Len(t, batch.Rejected, 2)

	content, ok := batch.Suggestions[0].(*Content)
	require.True(t, ok)
	assert.Equal(t, KindContent, content.Kind())
	assert.Equal(t, "1", content.ID)
	assert.Equal(t, "7", content.PageID)
	assert.Equal(t, "keyword", content.Type)
	assert.True(t, content.Active)
	assert.Equal(t, "p", content.Selector)
	assert.Equal(t, "shoe", content.Match)
	assert.Equal(t, "boot", content.Replacement)
	assert.True(t, content.IgnoreCase)

	meta, ok := batch.Suggestions[1].(*Content)
	require.True(t, ok)
	assert.Equal(t, "Great <shoes> & boots", meta.Replacement)
	assert.Equal(t, `head > meta[name="description"]`, meta.Selector)

	image, ok := batch.Suggestions[2].(*Image)
	require.True(t, ok)
	assert.False(t, image.Active)
	assert.Equal(t, DefaultImageSelector, image.Selector)
	assert.Equal(t, "a", image.OldAlt)

	link, ok := batch.Suggestions[3].(*Link)
	require.True(t, ok)
	assert.True(t, link.Active)
	assert.True(t, link.Internal)
	assert.True(t, link.Force)
	assert.Equal(t, KindInternalLink, link.Kind())
	assert.Equal(t, DefaultLinkSelector, link.Selector)

	external := batch.Suggestions[4].(*Link)
	assert.Equal(t, KindExternalLink, external.Kind())
	assert.False(t, external.Internal)

	assert.Equal(t, 5, batch.Rejected[0].Index)
	assert.ErrorIs(t, batch.Rejected[0].Err, ErrUnsupportedType)
	assert.Equal(t, 6, batch.Rejected[1].Index)
	assert.Error(t, batch.Rejected[1].Err)
}

func TestDecodeEnvelope(t *testing.T) {
	payload := `{"suggestions": [{"status": true, "type": "content", "new": "x"}], "structured_data": {"@type": "Product"}}`

	batch, err := Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch.Suggestions, 1)
	assert.JSONEq(t, `{"@type": "Product"}`, string(batch.StructuredData))

	// records without an id get one
	content := batch.Suggestions[0].(*Content)
	assert.NotEmpty(t, content.ID)
	assert.Equal(t, DefaultContentSelector, content.Selector)

	batch, err = Decode([]byte(`{"suggestions": [], "structured_data": null}`))
	require.NoError(t, err)
	assert.Empty(t, batch.Suggestions)
	assert.Nil(t, batch.StructuredData)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: "  "},
		{name: "scalar", payload: `"nope"`},
		{name: "object without list", payload: `{"message": "not found"}`},
		{name: "broken json", payload: `[{"type": "content"`},
		{name: "list of scalars", payload: `{"suggestions": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestUnescape(t *testing.T) {
	got := Unescape([]byte(`\u003Cb \u0026 c\u003e`))
	assert.Equal(t, "<b & c>", string(got))
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{name: "valid", record: Record{Type: "content"}},
		{name: "type normalized", record: Record{Type: " Image "}},
		{name: "missing type", record: Record{}, wantErr: true},
		{name: "unknown type", record: Record{Type: "banner"}, wantErr: true},
		{name: "selector too long", record: Record{Type: "content", Selector: string(make([]byte, 2049))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRecordActive(t *testing.T) {
	tests := []struct {
		status any
		want   bool
	}{
		{status: nil, want: false},
		{status: true, want: true},
		{status: false, want: false},
		{status: float64(1), want: true},
		{status: float64(0), want: false},
		{status: "", want: false},
		{status: "0", want: true},
		{status: uint64(2), want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Record{Status: tt.status}.Active(), "%v", tt.status)
	}
}

func TestDecodeFile(t *testing.T) {
	yamlList := `
- id: 10
  status: true
  type: content
  selector: h1
  new: Hello
- status: true
  type: image
  new: alt text
`
	batch, err := DecodeFile("batch.yaml", []byte(yamlList))
	require.NoError(t, err)
	require.Len(t, batch.Suggestions, 2)
	assert.Equal(t, "10", batch.Suggestions[0].Header().ID)
	assert.Equal(t, KindImage, batch.Suggestions[1].Kind())

	yamlEnvelope := `
suggestions:
  - status: true
    type: internal_link
    old: /a
    new: /b
`
	batch, err = DecodeFile("batch.yml", []byte(yamlEnvelope))
	require.NoError(t, err)
	require.Len(t, batch.Suggestions, 1)
	assert.Equal(t, KindInternalLink, batch.Suggestions[0].Kind())

	tomlDoc := `
[[suggestions]]
id = "t-1"
status = true
type = "metatag"
selector = 'head > meta[name="robots"]'
new = "noindex"
`
	batch, err = DecodeFile("batch.toml", []byte(tomlDoc))
	require.NoError(t, err)
	require.Len(t, batch.Suggestions, 1)
	content := batch.Suggestions[0].(*Content)
	assert.Equal(t, "t-1", content.ID)
	assert.Equal(t, "metatag", content.Type)

	batch, err = DecodeFile("batch.json", []byte(`[{"status": true, "type": "content"}]`))
	require.NoError(t, err)
	assert.Len(t, batch.Suggestions, 1)

	_, err = DecodeFile("batch.csv", nil)
	assert.Error(t, err)
}
