package mapping

import (
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeKey string

const (
	keyName  nodeKey = "name"
	keyCount nodeKey = "count"
	keyNodes nodeKey = "nodes"
	keyChild nodeKey = "child"
)

type node struct {
	Name  string
	Count int
}

func decodeNode(m Map) (node, error) {
	name, err := Value[string](m, keyName)
	if err != nil {
		return node{}, err
	}
	count, _ := Optional(Value[int](m, keyCount))
	return node{Name: name, Count: count}, nil
}

func TestValue(t *testing.T) {
	m := Map{
		"name":   "alpha",
		"count":  float64(3),
		"ratio":  1.5,
		"nested": map[string]any{"a": "b"},
		"tags":   []any{"x", "y"},
		"null":   nil,
	}

	name, err := Value[string](m, "name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)

	count, err := Value[int](m, "count")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	nested, err := Value[Map](m, "nested")
	require.NoError(t, err)
	assert.Equal(t, Map{"a": "b"}, nested)

	tags, err := Value[[]string](m, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)

	_, err = Value[string](m, "missing")
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "missing", missing.Key)

	_, err = Value[string](m, "null")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "null", missing.Key)
}

func TestValueTypeMismatch(t *testing.T) {
	cases := []struct {
		name     string
		key      string
		expected string
		actual   string
		decode   func(Map) error
	}{
		{
			name: "string from number", key: "count", expected: "string", actual: "number",
			decode: func(m Map) error { _, err := Value[string](m, "count"); return err },
		},
		{
			name: "int from fraction", key: "ratio", expected: "number", actual: "number",
			decode: func(m Map) error { _, err := Value[int](m, "ratio"); return err },
		},
		{
			// float64(math.MaxInt64) rounds up to 2^63, one past the int64 range
			name: "int64 from 2^63", key: "huge", expected: "number", actual: "number",
			decode: func(m Map) error { _, err := Value[int64](m, "huge"); return err },
		},
		{
			name: "object from array", key: "tags", expected: "object", actual: "array",
			decode: func(m Map) error { _, err := Value[Map](m, "tags"); return err },
		},
		{
			name: "bool from string", key: "name", expected: "bool", actual: "string",
			decode: func(m Map) error { _, err := Value[bool](m, "name"); return err },
		},
	}

	m := Map{"name": "alpha", "count": float64(3), "ratio": 1.5, "tags": []any{"x"}, "huge": float64(1 << 63)}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decode(m)
			var mismatch *TypeMismatchError
			require.ErrorAs(t, err, &mismatch, spew.Sdump(err))
			assert.Equal(t, tc.key, mismatch.Key)
			assert.Equal(t, tc.expected, mismatch.Expected)
			assert.Equal(t, tc.actual, mismatch.Actual)
		})
	}
}

func TestValueInt64Bounds(t *testing.T) {
	m := Map{"min": float64(math.MinInt64), "above": float64(1<<62) * 2}
	n, err := Value[int64](m, "min")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), n)

	_, err = Value[int64](m, "above")
	assert.Error(t, err)
}

func TestMappable(t *testing.T) {
	m := Map{
		"child": map[string]any{"name": "inner", "count": 2},
		"bad":   map[string]any{"count": 2},
		"flat":  "nope",
	}

	child, err := Mappable(m, keyChild, decodeNode)
	require.NoError(t, err)
	assert.Equal(t, node{Name: "inner", Count: 2}, child)

	_, err = Mappable(m, "bad", decodeNode)
	var field *FieldError
	require.ErrorAs(t, err, &field)
	assert.Equal(t, "bad", field.Key)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Key)
	assert.Equal(t, "bad.name", Path(err))

	_, err = Mappable(m, "flat", decodeNode)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "object", mismatch.Expected)
}

func TestMappableArray(t *testing.T) {
	t.Run("decodes every element in order", func(t *testing.T) {
		m := Map{keyNodes.String(): []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b", "count": 4},
		}}
		nodes, err := MappableArray(m, keyNodes, decodeNode)
		require.NoError(t, err)
		assert.Equal(t, []node{{Name: "a"}, {Name: "b", Count: 4}}, nodes)
	})

	t.Run("empty array is valid", func(t *testing.T) {
		nodes, err := MappableArray(Map{"nodes": []any{}}, keyNodes, decodeNode)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})

	t.Run("missing or non-array is missing key", func(t *testing.T) {
		for _, m := range []Map{{}, {"nodes": "x"}, {"nodes": map[string]any{}}} {
			_, err := MappableArray(m, keyNodes, decodeNode)
			var missing *MissingKeyError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "nodes", missing.Key)
		}
	})

	t.Run("element failure carries its index", func(t *testing.T) {
		m := Map{"nodes": []any{
			map[string]any{"name": "a"},
			map[string]any{"count": 1},
			map[string]any{"name": "c"},
		}}
		nodes, err := MappableArray(m, keyNodes, decodeNode)
		require.Nil(t, nodes)

		var elem *ElementDecodeError
		require.ErrorAs(t, err, &elem)
		assert.Equal(t, 1, elem.Index)
		assert.Equal(t, "nodes", elem.Key)

		var missing *MissingKeyError
		require.True(t, errors.As(elem.Err, &missing))
		assert.Equal(t, "name", missing.Key)
		assert.Equal(t, "nodes[1].name", Path(err))
	})

	t.Run("non-object element is a mismatch", func(t *testing.T) {
		_, err := MappableArray(Map{"nodes": []any{"oops"}}, keyNodes, decodeNode)
		var elem *ElementDecodeError
		require.ErrorAs(t, err, &elem)
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "string", mismatch.Actual)
	})

	t.Run("typed slices of maps are accepted", func(t *testing.T) {
		m := Map{"nodes": []map[string]any{{"name": "a"}}}
		nodes, err := MappableArray(m, keyNodes, decodeNode)
		require.NoError(t, err)
		assert.Len(t, nodes, 1)
	})
}

func TestOptional(t *testing.T) {
	m := Map{"name": "x", "count": "not a number"}

	v, ok := Optional(Value[string](m, "name"))
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	n, ok := Optional(Value[int](m, "count"))
	assert.False(t, ok)
	assert.Zero(t, n)

	assert.Nil(t, OptionalPtr(Value[string](m, "absent")))
	ptr := OptionalPtr(Value[string](m, "name"))
	require.NotNil(t, ptr)
	assert.Equal(t, "x", *ptr)
}

func TestVariantOf(t *testing.T) {
	raw := map[string]any{
		"stars":  float64(42),
		"fork":   false,
		"owner":  map[string]any{"login": "octo"},
		"topics": []any{"go", "tui"},
		"none":   nil,
	}
	obj, err := ObjectOf(raw)
	require.NoError(t, err)

	stars, ok := obj.GetNumber("stars")
	require.True(t, ok)
	assert.InDelta(t, 42, stars, 0)

	fork, ok := obj.GetBool("fork")
	require.True(t, ok)
	assert.False(t, fork)

	owner, ok := obj["owner"].AsObject()
	require.True(t, ok)
	login, _ := owner.GetString("login")
	assert.Equal(t, "octo", login)

	topics, ok := obj["topics"].AsList()
	require.True(t, ok)
	assert.Len(t, topics, 2)
	assert.True(t, obj["none"].IsNull())

	assert.Equal(t, raw, obj.Interface())
	assert.Equal(t, "[go, tui]", obj["topics"].String())

	_, err = VariantOf(struct{}{})
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	_, err = ObjectOf(map[string]any{"bad": []any{"ok", struct{}{}}})
	require.Error(t, err)
	assert.Equal(t, "bad.[1]", Path(err))
}

func TestVariantEqual(t *testing.T) {
	a := ObjectVariant(Object{"x": List(String("a"), Number(1))})
	b := ObjectVariant(Object{"x": List(String("a"), Number(1))})
	c := ObjectVariant(Object{"x": List(String("a"), Number(2))})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, String("1").Equal(Number(1)))
}

func (k nodeKey) String() string { return string(k) }
