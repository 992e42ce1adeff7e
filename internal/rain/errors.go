package rain

import "fmt"

// MissingFieldError is returned when a key required by the detected payload shape is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("rain payload: missing field %q", e.Field)
}

// InvalidFieldError is returned when a key is present but holds an unexpected JSON type.
type InvalidFieldError struct {
	Field string
	Want  string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("rain payload: field %q is not a %s", e.Field, e.Want)
}

// MalformedTimestampError is returned when a timestamp field cannot be parsed.
type MalformedTimestampError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rain payload: malformed timestamp %q in %q", e.Value, e.Field)
	}
	return fmt.Sprintf("rain payload: malformed timestamp %q in %q: %v", e.Value, e.Field, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error {
	return e.Err
}
