package rain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// RawPayload is an undecoded rain endpoint response: the JSON object as generic values.
type RawPayload map[string]any

// DecodePayload decodes a raw response body holding exactly one JSON object.
// Numbers are kept as json.Number so integer epochs never go through a float.
func DecodePayload(data []byte) (RawPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw RawPayload
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rain payload: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode rain payload: not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode rain payload: unexpected data after JSON object")
	}
	return raw, nil
}

// Shape identifies which of the provider's wire formats a payload uses.
type Shape int

const (
	// ShapeFlat is the legacy format: position, updated_on, forecast, quality.
	ShapeFlat Shape = iota
	// ShapeFeature is the GeoJSON-like format: geometry, properties, update_time.
	ShapeFeature
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// DetectShape picks the payload format from its keys. The provider sends no version
// field, so a new format has to be recognised here as well.
func DetectShape(raw RawPayload) Shape {
	if _, ok := raw["geometry"]; ok {
		return ShapeFeature
	}
	return ShapeFlat
}

func fieldPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func lookup(obj map[string]any, parent, key string) (any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, &MissingFieldError{Field: fieldPath(parent, key)}
	}
	return v, nil
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case RawPayload:
		return o, true
	default:
		return nil, false
	}
}

func objectField(obj map[string]any, parent, key string) (map[string]any, error) {
	v, err := lookup(obj, parent, key)
	if err != nil {
		return nil, err
	}
	o, ok := asObject(v)
	if !ok {
		return nil, &InvalidFieldError{Field: fieldPath(parent, key), Want: "object"}
	}
	return o, nil
}

func listField(obj map[string]any, parent, key string) ([]any, error) {
	v, err := lookup(obj, parent, key)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, &InvalidFieldError{Field: fieldPath(parent, key), Want: "array"}
	}
	return l, nil
}

func stringField(obj map[string]any, parent, key string) (string, error) {
	v, err := lookup(obj, parent, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &InvalidFieldError{Field: fieldPath(parent, key), Want: "string"}
	}
	return s, nil
}

func floatField(obj map[string]any, parent, key string) (float64, error) {
	v, err := lookup(obj, parent, key)
	if err != nil {
		return 0, err
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, &InvalidFieldError{Field: fieldPath(parent, key), Want: "number"}
	}
	return f, nil
}

func intField(obj map[string]any, parent, key string) (int64, error) {
	v, err := lookup(obj, parent, key)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(v)
	if !ok {
		return 0, &InvalidFieldError{Field: fieldPath(parent, key), Want: "integer"}
	}
	return n, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt accepts any JSON number and truncates a fractional part toward zero.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return truncFloat(f)
	case float64:
		return truncFloat(n)
	case float32:
		return truncFloat(float64(n))
	default:
		return 0, false
	}
}

func truncFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
