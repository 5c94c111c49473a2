package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureSeparatesTypes(t *testing.T) {
	a := Signature([]Value{NumberValue{Val: 1}})
	b := Signature([]Value{WordValue{Val: "1"}})
	assert.NotEqual(t, a, b)

	multi := Signature([]Value{NumberValue{Val: 1}, WordValue{Val: "x"}})
	assert.Contains(t, multi, "|")
}

func TestMemoFIFOEviction(t *testing.T) {
	m := NewMemoStore(2)
	m.Put("f", "a", NumberValue{Val: 1})
	m.Put("f", "b", NumberValue{Val: 2})

	// A hit must not refresh insertion order.
	_, ok := m.Get("f", "a")
	require.True(t, ok)

	name, val, evicted := m.Put("f", "c", NumberValue{Val: 3})
	require.True(t, evicted)
	assert.Equal(t, "f(a)", name)
	assert.Equal(t, NumberValue{Val: 1}, val)

	_, ok = m.Get("f", "a")
	assert.False(t, ok)
	_, ok = m.Get("f", "b")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestMemoOverwriteKeepsOrder(t *testing.T) {
	m := NewMemoStore(2)
	m.Put("f", "a", NumberValue{Val: 1})
	m.Put("f", "b", NumberValue{Val: 2})

	_, _, evicted := m.Put("f", "a", NumberValue{Val: 9})
	assert.False(t, evicted)
	v, ok := m.Get("f", "a")
	require.True(t, ok)
	assert.Equal(t, NumberValue{Val: 9}, v)
}

func TestMemoForgetDropsOneFunction(t *testing.T) {
	m := NewMemoStore(10)
	m.Put("f", "a", NumberValue{Val: 1})
	m.Put("g", "a", NumberValue{Val: 2})
	m.Forget("f")

	_, ok := m.Get("f", "a")
	assert.False(t, ok)
	_, ok = m.Get("g", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}
