package suggestion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Wire types
const (
	TypeKeyword      = "keyword"
	TypeMetatag      = "metatag"
	TypeContent      = "content"
	TypeImage        = "image"
	TypeInternalLink = "internal_link"
	TypeExternalLink = "external_link"
)

var validate = validator.New()

// Record is one suggestion as delivered by the service.
type Record struct {
	ID                any    `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	PageID            any    `json:"id_page,omitempty" yaml:"id_page,omitempty" toml:"id_page,omitempty"`
	Status            any    `json:"status" yaml:"status" toml:"status"`
	Type              string `json:"type" yaml:"type" toml:"type" validate:"required,oneof=keyword metatag content image internal_link external_link"`
	Selector          string `json:"selector,omitempty" yaml:"selector,omitempty" toml:"selector,omitempty" validate:"max=2048"`
	Old               string `json:"old,omitempty" yaml:"old,omitempty" toml:"old,omitempty" validate:"max=262144"`
	New               string `json:"new,omitempty" yaml:"new,omitempty" toml:"new,omitempty" validate:"max=262144"`
	IgnoreCase        bool   `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty" toml:"ignore_case,omitempty"`
	ForceSet          bool   `json:"force_set,omitempty" yaml:"force_set,omitempty" toml:"force_set,omitempty"`
	AttributeToUpdate string `json:"attribute_to_update,omitempty" yaml:"attribute_to_update,omitempty" toml:"attribute_to_update,omitempty" validate:"max=256"`
	NewSelector       string `json:"new_selector,omitempty" yaml:"new_selector,omitempty" toml:"new_selector,omitempty" validate:"max=2048"`
	ReplaceInnerHTML  bool   `json:"replaceInnerHTML,omitempty" yaml:"replaceInnerHTML,omitempty" toml:"replaceInnerHTML,omitempty"`
}

// Validate checks the record against its field constraints.
func (r *Record) Validate() error {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid suggestion record: %w", err)
	}
	return nil
}

// Active reports whether status is truthy. The service sends booleans, but
// numbers and strings are accepted with their usual truthiness.
func (r Record) Active() bool {
	return truthy(r.Status)
}

func truthy(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case bool:
		return s
	case string:
		return s != ""
	case float64:
		return s != 0
	case float32:
		return s != 0
	case int:
		return s != 0
	case int64:
		return s != 0
	case uint64:
		return s != 0
	default:
		return true
	}
}

// idString renders a loosely typed identifier.
func idString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
