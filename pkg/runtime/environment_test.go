package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentScopeChain(t *testing.T) {
	outer := NewEnvironment(nil)
	inner := NewEnvironment(outer)
	outer.Define("x", 1, 1, KindNumber)

	id, ok := inner.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, EntityID(1), id)

	_, ok = inner.LookupLocal("x")
	assert.False(t, ok)
	assert.False(t, inner.Holds("x"))
	assert.True(t, outer.Holds("x"))
	assert.Same(t, outer, inner.Parent())
}

func TestEnvironmentWasted(t *testing.T) {
	env := NewEnvironment(nil)
	assert.False(t, env.Wasted(), "empty scopes are not wasted")

	env.Define("x", 1, 1, KindNumber)
	assert.True(t, env.Wasted())
	env.Lookup("x")
	assert.False(t, env.Wasted())
}

func TestEnvironmentRebindAndRemove(t *testing.T) {
	outer := NewEnvironment(nil)
	inner := NewEnvironment(outer)
	outer.Define("x", 1, 1, KindNumber)

	require.NoError(t, inner.Rebind("x", 9))
	id, _ := inner.Lookup("x")
	assert.Equal(t, EntityID(9), id)
	require.Error(t, inner.Rebind("y", 1))

	inner.Remove("x")
	_, ok := outer.LookupLocal("x")
	assert.False(t, ok)
}

func TestBondCandidatesWindow(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("a", 1, 1, KindNumber)
	env.Define("w", 2, 2, KindWord) // different type, never a candidate
	env.Define("b", 3, 3, KindNumber)

	pairs := env.BondCandidates(3)
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]EntityID{1, 3}, pairs[0])

	env.Define("far", 4, 40, KindNumber)
	assert.Empty(t, env.BondCandidates(3))
}

func TestLocalIDsSkipRemovedBindings(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("a", 1, 1, KindNumber)
	env.Define("b", 2, 1, KindNumber)
	env.Remove("a")
	assert.Equal(t, []EntityID{2}, env.LocalIDs())

	inner := NewEnvironment(env)
	inner.Define("c", 3, 1, KindNumber)
	assert.Equal(t, []EntityID{3, 2}, inner.AllIDs(), "innermost first")
}
