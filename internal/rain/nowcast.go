// Package rain adapts the provider's "rain in the next hour" payload to a stable model.
//
// Two wire formats are accepted: the legacy flat object (position, updated_on, forecast,
// quality) and the GeoJSON-like feature (geometry, properties, update_time). A Nowcast is a
// read-only view over one payload; every accessor re-reads the payload, so the payload must
// not be mutated while a Nowcast is in use.
package rain

import (
	"fmt"
	"time"
)

// Nowcast wraps a single rain endpoint response.
type Nowcast struct {
	raw      RawPayload
	localize Localizer
}

// Option customizes a Nowcast.
type Option func(*Nowcast)

// WithLocalizer replaces the default tz-database Localizer.
func WithLocalizer(l Localizer) Option {
	return func(n *Nowcast) {
		if l != nil {
			n.localize = l
		}
	}
}

// New wraps raw without parsing or validating it.
func New(raw RawPayload, opts ...Option) *Nowcast {
	n := &Nowcast{
		raw:      raw,
		localize: Localize,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Raw returns the wrapped payload.
func (n *Nowcast) Raw() RawPayload {
	return n.raw
}

// Shape reports which wire format the payload uses.
func (n *Nowcast) Shape() Shape {
	return DetectShape(n.raw)
}

// Position returns the normalized location metadata.
func (n *Nowcast) Position() (Position, error) {
	switch n.Shape() {
	case ShapeFeature:
		return n.featurePosition()
	default:
		return n.flatPosition()
	}
}

func (n *Nowcast) flatPosition() (Position, error) {
	obj, err := objectField(n.raw, "", "position")
	if err != nil {
		return Position{}, err
	}

	r := fieldReader{obj: obj, parent: "position"}
	pos := Position{
		Lat:                  r.floatVal("lat"),
		Lon:                  r.floatVal("lon"),
		Altitude:             r.floatVal("alti"),
		Name:                 r.stringVal("name"),
		Country:              r.stringVal("country"),
		Department:           r.stringVal("dept"),
		RainProductAvailable: int(r.intVal("rain_product_available")),
		Timezone:             r.stringVal("timezone"),
	}
	if r.err != nil {
		return Position{}, r.err
	}
	return pos, nil
}

func (n *Nowcast) featurePosition() (Position, error) {
	geom, err := objectField(n.raw, "", "geometry")
	if err != nil {
		return Position{}, err
	}
	coords, err := listField(geom, "geometry", "coordinates")
	if err != nil {
		return Position{}, err
	}
	if len(coords) < 2 {
		return Position{}, &MissingFieldError{Field: fmt.Sprintf("geometry.coordinates[%d]", len(coords))}
	}
	// GeoJSON order: longitude first.
	lon, ok := asFloat(coords[0])
	if !ok {
		return Position{}, &InvalidFieldError{Field: "geometry.coordinates[0]", Want: "number"}
	}
	lat, ok := asFloat(coords[1])
	if !ok {
		return Position{}, &InvalidFieldError{Field: "geometry.coordinates[1]", Want: "number"}
	}

	props, err := objectField(n.raw, "", "properties")
	if err != nil {
		return Position{}, err
	}

	r := fieldReader{obj: props, parent: "properties"}
	pos := Position{
		Lat:        lat,
		Lon:        lon,
		Altitude:   r.floatVal("altitude"),
		Name:       r.stringVal("name"),
		Country:    r.stringVal("country"),
		Department: r.stringVal("french_department"),
		Timezone:   r.stringVal("timezone"),
	}
	if r.err != nil {
		return Position{}, r.err
	}
	// The endpoint only answers for covered zones.
	pos.RainProductAvailable = 1
	return pos, nil
}

// timezone reads only the zone name, without requiring the rest of the position.
func (n *Nowcast) timezone() (string, error) {
	parent := "position"
	if n.Shape() == ShapeFeature {
		parent = "properties"
	}
	obj, err := objectField(n.raw, "", parent)
	if err != nil {
		return "", err
	}
	return stringField(obj, parent, "timezone")
}

// UpdatedOn returns the time the provider computed the nowcast, in unix seconds.
func (n *Nowcast) UpdatedOn() (int64, error) {
	if n.Shape() == ShapeFeature {
		return timestampField(n.raw, "", "update_time")
	}
	return epochField(n.raw, "", "updated_on")
}

// Forecast returns the slots in payload order. Either every slot decodes or an error
// is returned; partial results are never handed out.
func (n *Nowcast) Forecast() ([]Slot, error) {
	if n.Shape() == ShapeFeature {
		return n.featureForecast()
	}
	return n.flatForecast()
}

func (n *Nowcast) flatForecast() ([]Slot, error) {
	entries, err := listField(n.raw, "", "forecast")
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(entries))
	for i, e := range entries {
		parent := fmt.Sprintf("forecast[%d]", i)
		obj, ok := asObject(e)
		if !ok {
			return nil, &InvalidFieldError{Field: parent, Want: "object"}
		}
		ts, err := epochField(obj, parent, "dt")
		if err != nil {
			return nil, err
		}
		r := fieldReader{obj: obj, parent: parent}
		slot := Slot{
			Timestamp:     ts,
			RainIntensity: int(r.intVal("rain")),
			Description:   r.stringVal("desc"),
		}
		if r.err != nil {
			return nil, r.err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (n *Nowcast) featureForecast() ([]Slot, error) {
	props, err := objectField(n.raw, "", "properties")
	if err != nil {
		return nil, err
	}
	entries, err := listField(props, "properties", "forecast")
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(entries))
	for i, e := range entries {
		parent := fmt.Sprintf("properties.forecast[%d]", i)
		obj, ok := asObject(e)
		if !ok {
			return nil, &InvalidFieldError{Field: parent, Want: "object"}
		}
		ts, err := timestampField(obj, parent, "time")
		if err != nil {
			return nil, err
		}
		r := fieldReader{obj: obj, parent: parent}
		slot := Slot{
			Timestamp:     ts,
			RainIntensity: int(r.intVal("rain_intensity")),
			Description:   r.stringVal("rain_intensity_description"),
		}
		if r.err != nil {
			return nil, r.err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Quality is a deprecated provider field. It is best effort: 0 for the feature
// format or when the value is absent.
func (n *Nowcast) Quality() int {
	if n.Shape() == ShapeFeature {
		return 0
	}
	q, ok := asInt(n.raw["quality"])
	if !ok {
		return 0
	}
	return int(q)
}

// NextRainOnset returns the local start time of the first rainy slot. ok is false
// when the whole forecast is dry, which is not an error.
func (n *Nowcast) NextRainOnset() (onset time.Time, ok bool, err error) {
	slots, err := n.Forecast()
	if err != nil {
		return time.Time{}, false, err
	}

	for _, s := range slots {
		if !s.IsRain() {
			continue
		}
		t, err := n.localTime(s.Timestamp)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}
	return time.Time{}, false, nil
}

// ToLocalTime converts a slot time to the forecast location's timezone. v is either
// unix seconds (any Go or JSON integer) or a raw ISO-8601 time string from the payload.
func (n *Nowcast) ToLocalTime(v any) (time.Time, error) {
	var ts int64
	switch t := v.(type) {
	case string:
		parsed, err := normalizeTimestamp(t)
		if err != nil {
			return time.Time{}, &MalformedTimestampError{Field: "time", Value: t, Err: err}
		}
		ts = parsed
	default:
		parsed, ok := asInt(v)
		if !ok {
			return time.Time{}, &MalformedTimestampError{Field: "time", Value: fmt.Sprint(v)}
		}
		ts = parsed
	}
	return n.localTime(ts)
}

func (n *Nowcast) localTime(ts int64) (time.Time, error) {
	tz, err := n.timezone()
	if err != nil {
		return time.Time{}, err
	}
	t, err := n.localize(ts, tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("localize %d: %w", ts, err)
	}
	return t, nil
}

// fieldReader reads several fields of one object and keeps the first error.
type fieldReader struct {
	obj    map[string]any
	parent string
	err    error
}

func (r *fieldReader) floatVal(key string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := floatField(r.obj, r.parent, key)
	r.err = err
	return v
}

func (r *fieldReader) intVal(key string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := intField(r.obj, r.parent, key)
	r.err = err
	return v
}

func (r *fieldReader) stringVal(key string) string {
	if r.err != nil {
		return ""
	}
	v, err := stringField(r.obj, r.parent, key)
	r.err = err
	return v
}
