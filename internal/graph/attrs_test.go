package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttrsMerge(t *testing.T) {
	a := Attrs{"name": "A", "lang": "go"}
	a.Merge(Attrs{"lang": "python", "stars": float64(3)})

	assert.Equal(t, Attrs{"name": "A", "lang": "python", "stars": float64(3)}, a)

	a.Merge(nil)
	assert.Len(t, a, 3)
}

func TestAttrsClone(t *testing.T) {
	a := Attrs{"name": "A"}
	b := a.Clone()
	b["name"] = "B"
	assert.Equal(t, "A", a["name"])

	var nilAttrs Attrs
	assert.NotNil(t, nilAttrs.Clone())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, ValueEqual("x", "x"))
	assert.True(t, ValueEqual(float64(3), 3), "decoded JSON numbers equal Go int literals")
	assert.True(t, ValueEqual(true, true))
	assert.True(t, ValueEqual([]any{"a", float64(1)}, []any{"a", float64(1)}))
	assert.False(t, ValueEqual("3", float64(3)))
	assert.False(t, ValueEqual(nil, "x"))
	assert.True(t, ValueEqual(nil, nil))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "hello", Stringify("hello"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "42", Stringify(float64(42)))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "", Stringify([]any{"a"}))
}
