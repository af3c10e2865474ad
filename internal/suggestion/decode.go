package suggestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// MaxPayloadSize limits a suggestion payload to 8MB
const MaxPayloadSize = 8 * 1024 * 1024

// ErrMalformedPayload rejects a whole batch.
var ErrMalformedPayload = errors.New("malformed suggestion payload")

// Rejection is a record dropped at the boundary.
type Rejection struct {
	Index int
	Type  string
	Err   error
}

// Batch is the decoded content of one suggestion payload.
type Batch struct {
	Suggestions []Suggestion
	Rejected    []Rejection
	// StructuredData is a JSON-LD document to attach to the page, if any.
	StructuredData json.RawMessage
}

type envelope struct {
	Suggestions    []json.RawMessage `json:"suggestions"`
	StructuredData json.RawMessage   `json:"structured_data"`
}

type fileEnvelope struct {
	Suggestions []Record `yaml:"suggestions" toml:"suggestions"`
}

var escapes = strings.NewReplacer(
	`\u003E`, ">", `\u003e`, ">",
	`\u003C`, "<", `\u003c`, "<",
	`\u0026`, "&",
)

// Unescape reverts the \u003E, \u003C and \u0026 escapes the service applies
// to markup inside string values.
func Unescape(data []byte) []byte {
	return []byte(escapes.Replace(string(data)))
}

// Decode parses a service payload: a list of records or an envelope
// {"suggestions": [...], "structured_data": {...}}.
func Decode(data []byte) (*Batch, error) {
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrMalformedPayload, len(data), MaxPayloadSize)
	}
	data = bytes.TrimSpace(Unescape(data))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedPayload)
	}

	var raw []json.RawMessage
	var structured json.RawMessage
	switch data[0] {
	case '[':
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	case '{':
		var env envelope
		if err := sonic.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if env.Suggestions == nil {
			return nil, fmt.Errorf("%w: envelope has no suggestions list", ErrMalformedPayload)
		}
		raw, structured = env.Suggestions, env.StructuredData
	default:
		return nil, fmt.Errorf("%w: not a list", ErrMalformedPayload)
	}

	batch := &Batch{StructuredData: structuredData(structured)}
	for i, msg := range raw {
		var r Record
		if err := sonic.Unmarshal(msg, &r); err != nil {
			batch.Rejected = append(batch.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		batch.add(i, r)
	}
	return batch, nil
}

// FromRecords converts already decoded records.
func FromRecords(records []Record) *Batch {
	batch := &Batch{}
	for i, r := range records {
		batch.add(i, r)
	}
	return batch
}

// DecodeFile parses a suggestion file by extension: .json as a service
// payload, .yaml/.yml and .toml as a list (or a "suggestions" table) of records.
func DecodeFile(name string, data []byte) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return Decode(data)
	case ".yaml", ".yml":
		var records []Record
		if err := yaml.Unmarshal(data, &records); err == nil {
			return FromRecords(records), nil
		}
		var env fileEnvelope
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return FromRecords(env.Suggestions), nil
	case ".toml":
		var env fileEnvelope
		if err := toml.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return FromRecords(env.Suggestions), nil
	default:
		return nil, fmt.Errorf("unsupported suggestion file %q", name)
	}
}

func (b *Batch) add(i int, r Record) {
	s, err := FromRecord(r)
	if err != nil {
		b.Rejected = append(b.Rejected, Rejection{Index: i, Type: r.Type, Err: err})
		return
	}
	b.Suggestions = append(b.Suggestions, s)
}

// structuredData keeps a JSON-LD object or list and drops null.
func structuredData(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == 'n' {
		return nil
	}
	return raw
}
