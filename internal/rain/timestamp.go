package rain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// isoLayout requires an explicit numeric offset; the fraction is optional when parsing.
const isoLayout = "2006-01-02T15:04:05.999999999-07:00"

// Localizer converts a unix timestamp to a wall-clock time in the named IANA zone.
type Localizer func(ts int64, tz string) (time.Time, error)

var (
	errEmptyTimezone = errors.New("empty timezone name")
	errNotISO        = errors.New("not a YYYY-MM-DDTHH:MM:SS timestamp")
)

// Localize is the default Localizer backed by the system (or embedded) tz database,
// so DST rules of the zone at that instant are applied.
func Localize(ts int64, tz string) (time.Time, error) {
	if tz == "" {
		return time.Time{}, errEmptyTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return time.Unix(ts, 0).In(loc), nil
}

// normalizeTimestamp turns an ISO-8601 UTC string such as "2024-02-04T13:55:00.000Z"
// into whole unix seconds. The "Z" designator is rewritten to "+00:00" first.
func normalizeTimestamp(s string) (int64, error) {
	// time.Parse tolerates single-digit hours; the provider always zero-pads.
	if !hasISOPrefix(s) {
		return 0, errNotISO
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return 0, err
	}
	// Unix floors; identical to truncation for every post-1970 instant.
	return t.Unix(), nil
}

// hasISOPrefix checks the fixed-width date and time part of s.
func hasISOPrefix(s string) bool {
	if len(s) < 19 {
		return false
	}
	for i := 0; i < 19; i++ {
		c := s[i]
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		case 10:
			if c != 'T' {
				return false
			}
		case 13, 16:
			if c != ':' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

func timestampField(obj map[string]any, parent, key string) (int64, error) {
	s, err := stringField(obj, parent, key)
	if err != nil {
		var invalid *InvalidFieldError
		if errors.As(err, &invalid) {
			return 0, &MalformedTimestampError{Field: invalid.Field, Value: fmt.Sprint(obj[key])}
		}
		return 0, err
	}
	ts, err := normalizeTimestamp(s)
	if err != nil {
		return 0, &MalformedTimestampError{Field: fieldPath(parent, key), Value: s, Err: err}
	}
	return ts, nil
}

func epochField(obj map[string]any, parent, key string) (int64, error) {
	ts, err := intField(obj, parent, key)
	if err != nil {
		var invalid *InvalidFieldError
		if errors.As(err, &invalid) {
			return 0, &MalformedTimestampError{Field: invalid.Field, Value: fmt.Sprint(obj[key])}
		}
		return 0, err
	}
	return ts, nil
}
