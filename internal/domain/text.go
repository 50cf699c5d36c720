package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"
)

// NormalizeText coerces an arbitrary field value into a single flat string.
// Absent or falsy values yield "", sequences are space-joined element by
// element, objects contribute their values in key order, and anything else
// is rendered in its string form. It never fails.
func NormalizeText(value interface{}) string {
	if isFalsy(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = NormalizeText(item)
		}
		return strings.Join(parts, " ")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := NormalizeText(v[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// isFalsy reports whether a decoded value carries no usable content
func isFalsy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case float64:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	}
	return false
}

// TextField is a descriptive upstream field already flattened to canonical text.
// USDA returns these as strings, lists, objects or not at all depending on the
// data type of the food, so the shape is resolved once while decoding.
type TextField string

// UnmarshalJSON accepts any JSON shape and stores its normalized text
func (f *TextField) UnmarshalJSON(data []byte) error {
	value, err := jason.NewValueFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to decode text field: %w", err)
	}
	*f = TextField(normalizeValue(value))
	return nil
}

// normalizeValue is NormalizeText over a decoded JSON value
func normalizeValue(value *jason.Value) string {
	if s, err := value.String(); err == nil {
		return s
	}
	if n, err := value.Number(); err == nil {
		return NormalizeText(n)
	}
	if b, err := value.Boolean(); err == nil {
		return NormalizeText(b)
	}
	if items, err := value.Array(); err == nil {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = normalizeValue(item)
		}
		return strings.Join(parts, " ")
	}
	if obj, err := value.Object(); err == nil {
		fields := obj.Map()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := normalizeValue(fields[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	// null
	return ""
}

// String returns the normalized text
func (f TextField) String() string {
	return string(f)
}

// IsEmpty reports whether the field carried no text
func (f TextField) IsEmpty() bool {
	return f == ""
}
