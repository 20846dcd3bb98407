package mapping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// VariantKind is the tag of a Variant.
type VariantKind int

const (
	KindNull VariantKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k VariantKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("VariantKind(%d)", int(k))
	}
}

// Variant is a closed union of the value shapes an untyped tree may carry. It
// is used wherever a payload has to stay loosely typed, such as the custom
// field bag of an item.
type Variant struct {
	kind VariantKind
	str  string
	num  float64
	b    bool
	list []Variant
	obj  Object
}

// Object is a string-keyed bag of variants.
type Object map[string]Variant

func Null() Variant                 { return Variant{kind: KindNull} }
func String(s string) Variant       { return Variant{kind: KindString, str: s} }
func Number(n float64) Variant      { return Variant{kind: KindNumber, num: n} }
func Bool(b bool) Variant           { return Variant{kind: KindBool, b: b} }
func List(items ...Variant) Variant { return Variant{kind: KindList, list: items} }
func ObjectVariant(o Object) Variant {
	return Variant{kind: KindObject, obj: o}
}

func (v Variant) Kind() VariantKind { return v.kind }
func (v Variant) IsNull() bool      { return v.kind == KindNull }

// AsString returns the string held by v.
func (v Variant) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the number held by v.
func (v Variant) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the bool held by v.
func (v Variant) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsList returns the elements held by v.
func (v Variant) AsList() ([]Variant, bool) {
	return v.list, v.kind == KindList
}

// AsObject returns the object held by v.
func (v Variant) AsObject() (Object, bool) {
	return v.obj, v.kind == KindObject
}

// Interface converts v back into the plain untyped shape.
func (v Variant) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Interface()
	default:
		return nil
	}
}

// String formats v for display. Objects are rendered with sorted keys.
func (v Variant) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := v.obj.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// Keys returns the object keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts o back into a plain map.
func (o Object) Interface() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v.Interface()
	}
	return out
}

// GetString returns the string stored under key, if any.
func (o Object) GetString(key string) (string, bool) {
	v, ok := o[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// GetBool returns the bool stored under key, if any.
func (o Object) GetBool(key string) (bool, bool) {
	v, ok := o[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// GetNumber returns the number stored under key, if any.
func (o Object) GetNumber(key string) (float64, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// VariantOf converts an untyped value into a Variant. Values outside the
// supported shapes fail with *TypeMismatchError.
func VariantOf(raw any) (Variant, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case Variant:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	}
	if m, ok := asMap(raw); ok {
		obj, err := ObjectOf(m)
		if err != nil {
			return Variant{}, err
		}
		return ObjectVariant(obj), nil
	}
	if s, ok := asSlice(raw); ok {
		items := make([]Variant, 0, len(s))
		for i, elem := range s {
			item, err := VariantOf(elem)
			if err != nil {
				return Variant{}, &ElementDecodeError{Key: "", Index: i, Err: err}
			}
			items = append(items, item)
		}
		return List(items...), nil
	}
	if f, ok := asFloat(raw); ok {
		return Number(f), nil
	}
	return Variant{}, &TypeMismatchError{Expected: "variant", Actual: describe(raw)}
}

// ObjectOf converts an untyped object into an Object.
func ObjectOf(raw any) (Object, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, &TypeMismatchError{Expected: "object", Actual: describe(raw)}
	}
	obj := make(Object, len(m))
	for k, elem := range m {
		v, err := VariantOf(elem)
		if err != nil {
			return nil, &FieldError{Key: k, Err: err}
		}
		obj[k] = v
	}
	return obj, nil
}

// ObjectValue decodes the object stored under key into an Object.
func ObjectValue[K ~string](m Map, key K) (Object, error) {
	node, err := Value[Map](m, key)
	if err != nil {
		return nil, err
	}
	obj, err := ObjectOf(node)
	if err != nil {
		return nil, &FieldError{Key: string(key), Err: err}
	}
	return obj, nil
}

// Equal reports whether v and o hold the same value.
func (v Variant) Equal(o Variant) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	default:
		return true
	}
}

// Equal reports whether both objects hold the same keys and values.
func (o Object) Equal(other Object) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
