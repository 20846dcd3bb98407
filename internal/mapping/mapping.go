// Package mapping decodes untyped key/value trees, such as the result of parsing
// a JSON or YAML document, into typed values. Required fields fail with precise
// errors; optional fields use Optional to turn any failure into absence.
package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Map is one node of an untyped key/value tree.
type Map map[string]any

// Decoder decodes a single node into T.
type Decoder[T any] func(m Map) (T, error)

// Value returns the field stored under key as V. Absent and null fields fail
// with *MissingKeyError; fields of the wrong shape fail with *TypeMismatchError.
func Value[V any, K ~string](m Map, key K) (V, error) {
	var zero V
	raw, ok := m[string(key)]
	if !ok || raw == nil {
		return zero, &MissingKeyError{Key: string(key)}
	}
	v, ok := convert[V](raw)
	if !ok {
		return zero, &TypeMismatchError{
			Key:      string(key),
			Expected: typeName[V](),
			Actual:   describe(raw),
		}
	}
	return v, nil
}

// Mappable decodes the nested node stored under key. Failures inside the nested
// decode are wrapped in *FieldError.
func Mappable[V any, K ~string](m Map, key K, decode Decoder[V]) (V, error) {
	var zero V
	node, err := Value[Map](m, key)
	if err != nil {
		return zero, err
	}
	v, err := decode(node)
	if err != nil {
		return zero, &FieldError{Key: string(key), Err: err}
	}
	return v, nil
}

// MappableArray decodes every element of the array stored under key. The
// result is all-or-nothing: the first failing element aborts the decode with an
// *ElementDecodeError carrying its index. A missing key, or a value that is not
// an array, fails with *MissingKeyError.
func MappableArray[V any, K ~string](m Map, key K, decode Decoder[V]) ([]V, error) {
	raw, ok := m[string(key)]
	if !ok || raw == nil {
		return nil, &MissingKeyError{Key: string(key)}
	}
	elems, ok := asSlice(raw)
	if !ok {
		return nil, &MissingKeyError{Key: string(key)}
	}

	out := make([]V, 0, len(elems))
	for i, elem := range elems {
		node, ok := asMap(elem)
		if !ok {
			return nil, &ElementDecodeError{
				Key:   string(key),
				Index: i,
				Err:   &TypeMismatchError{Expected: "object", Actual: describe(elem)},
			}
		}
		v, err := decode(node)
		if err != nil {
			return nil, &ElementDecodeError{Key: string(key), Index: i, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// Optional converts a decode result into a value and a presence flag. Any
// error means the field is treated as absent.
func Optional[V any](v V, err error) (V, bool) {
	if err != nil {
		var zero V
		return zero, false
	}
	return v, true
}

// OptionalPtr is Optional for fields modeled as pointers.
func OptionalPtr[V any](v V, err error) *V {
	if err != nil {
		return nil
	}
	return &v
}

func convert[V any](raw any) (V, bool) {
	var zero V
	if v, ok := raw.(V); ok {
		return v, true
	}

	switch target := any(&zero).(type) {
	case *Map:
		if m, ok := asMap(raw); ok {
			*target = m
			return zero, true
		}
	case *[]any:
		if s, ok := asSlice(raw); ok {
			*target = s
			return zero, true
		}
	case *[]string:
		s, ok := asSlice(raw)
		if !ok {
			return zero, false
		}
		strs := make([]string, 0, len(s))
		for _, elem := range s {
			str, ok := elem.(string)
			if !ok {
				return zero, false
			}
			strs = append(strs, str)
		}
		*target = strs
		return zero, true
	case *float64:
		if f, ok := asFloat(raw); ok {
			*target = f
			return zero, true
		}
	case *int:
		if n, ok := asInt(raw); ok && n >= math.MinInt && n <= math.MaxInt {
			*target = int(n)
			return zero, true
		}
	case *int64:
		if n, ok := asInt(raw); ok {
			*target = n
			return zero, true
		}
	}
	return zero, false
}

func asMap(raw any) (Map, bool) {
	switch m := raw.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	default:
		return nil, false
	}
}

func asSlice(raw any) ([]any, bool) {
	switch s := raw.(type) {
	case []any:
		return s, true
	case []Map:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func asFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	f, ok := asFloat(raw)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case Map, map[string]any:
		return "object"
	case []any, []Map, []map[string]any:
		return "array"
	}
	if _, ok := asFloat(raw); ok {
		return "number"
	}
	return fmt.Sprintf("%T", raw)
}

func typeName[V any]() string {
	t := reflect.TypeFor[V]()
	switch t {
	case reflect.TypeFor[Map](), reflect.TypeFor[map[string]any]():
		return "object"
	case reflect.TypeFor[[]any](), reflect.TypeFor[[]string]():
		return "array"
	}
	switch t.Kind() { //nolint:exhaustive
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.String()
	}
}
