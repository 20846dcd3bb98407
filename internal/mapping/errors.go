package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MissingKeyError is returned when a required field is absent from the input tree.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing key %q", e.Key)
}

// TypeMismatchError is returned when a field is present but cannot be converted
// to the requested type.
type TypeMismatchError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("key %q: expected %s, got %s", e.Key, e.Expected, e.Actual)
}

// ElementDecodeError wraps the failure of one element of an array field.
type ElementDecodeError struct {
	Key   string
	Index int
	Err   error
}

func (e *ElementDecodeError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Key, e.Index, e.Err)
}

func (e *ElementDecodeError) Unwrap() error {
	return e.Err
}

// FieldError wraps the failure of a nested node decoded with Mappable.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Path renders the field path leading to the innermost decode failure, for
// example "sections[1].items". It returns an empty string for errors that did
// not come from this package.
func Path(err error) string {
	var segments []string
	for err != nil {
		switch e := err.(type) { //nolint:errorlint
		case *ElementDecodeError:
			segments = append(segments, e.Key+"["+strconv.Itoa(e.Index)+"]")
		case *FieldError:
			segments = append(segments, e.Key)
		case *MissingKeyError:
			segments = append(segments, e.Key)
			return strings.Join(segments, ".")
		case *TypeMismatchError:
			if e.Key != "" {
				segments = append(segments, e.Key)
			}
			return strings.Join(segments, ".")
		}
		err = errors.Unwrap(err)
	}
	return strings.Join(segments, ".")
}
