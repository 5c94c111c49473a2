package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func TestCacheTerminatorSkipsReexecution(t *testing.T) {
	h := newHarness(t)
	stmt := ast.Print(ast.Word("hi"), ast.TermCache)

	h.exec(t, stmt)
	h.exec(t, stmt)
	assert.Equal(t, "hi\n", h.out.String(), "the second run serves the cache, no print")
}

func TestCacheTerminatorIsKeyedByStatementIdentity(t *testing.T) {
	h := newHarness(t)
	a := ast.Expr(ast.Num(1), ast.TermCache)
	b := ast.Expr(ast.Num(2), ast.TermCache)

	assert.Equal(t, 1.0, num(t, h.exec(t, a)))
	assert.Equal(t, 2.0, num(t, h.exec(t, b)), "a different node gets its own slot")
	assert.Equal(t, 1.0, num(t, h.exec(t, a)))
}

func TestTerminatorOrderMatters(t *testing.T) {
	h := newHarness(t)

	cacheFirst := ast.Expr(ast.Num(5), ast.TermCache, ast.TermUncertain)
	v := h.exec(t, cacheFirst)
	require.IsType(t, &runtime.UncertainValue{}, v)
	h.i.cacheMu.Lock()
	cached := h.i.stmtCache[cacheFirst]
	h.i.cacheMu.Unlock()
	assert.IsType(t, runtime.NumberValue{}, cached, "caching before ~ stores the raw number")

	wrapFirst := ast.Expr(ast.Num(5), ast.TermUncertain, ast.TermCache)
	h.exec(t, wrapFirst)
	h.i.cacheMu.Lock()
	cached = h.i.stmtCache[wrapFirst]
	h.i.cacheMu.Unlock()
	assert.IsType(t, &runtime.UncertainValue{}, cached, "caching after ~ stores the wrapper")
}

func TestUncertainTerminatorMarksTouched(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "wobble", ast.Num(1), 1))
	h.exec(t, ast.Expr(ast.ID("wobble"), ast.TermUncertain))
	assert.True(t, h.entity(t, "wobble").Uncertain)
}

func TestForcefulTerminatorStripsTraits(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "plain", ast.Num(1), 1))
	e := h.entity(t, "plain")
	e.GainTrait(runtime.TraitLucky)
	e.GainTrait(runtime.TraitCursed)

	h.exec(t, ast.Expr(ast.ID("plain"), ast.TermForceful))
	assert.Empty(t, e.Traits)
}

func TestForcefulTerminatorUnwrapsUncertainty(t *testing.T) {
	h := newHarness(t)
	v := h.exec(t, ast.Expr(ast.Num(3), ast.TermUncertain, ast.TermForceful))
	assert.Equal(t, runtime.NumberValue{Val: 3}, v)
}

func TestDebugTerminatorPrintsAndObserves(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.Expr(ast.Num(7), ast.TermDebug))
	assert.Equal(t, "[?] 7\n", h.out.String())

	h.exec(t, ast.DeclAt(ast.DeclMaybe, "shrug", ast.Dunno(), 1))
	h.exec(t, ast.Expr(ast.ID("shrug"), ast.TermDebug))
	e := h.entity(t, "shrug")
	assert.True(t, e.Observed)
	require.NotNil(t, e.DunnoLock, "observation locks Dunno truthiness")
	assert.False(t, *e.DunnoLock, "the 0.99 replay rolls false")
}
