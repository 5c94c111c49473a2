package interpreter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

// harness bundles a fresh context, an interpreter, and a root frame. The
// default random source replays 0.99 forever, which keeps every probabilistic
// gate shut so tests only see the behavior they set up.
type harness struct {
	i   *Interpreter
	fr  *frame
	out *bytes.Buffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.99}}, opts...)
}

func newHarnessRand(t *testing.T, rng runtime.Rand, opts ...Option) *harness {
	t.Helper()
	ctx := runtime.NewContext(runtime.DefaultConfig(), rng)
	out := &bytes.Buffer{}
	i := New(ctx, append([]Option{WithOutput(out)}, opts...)...)
	fr := &frame{
		env:     runtime.NewEnvironment(nil),
		writer:  "main",
		touched: map[runtime.EntityID]bool{},
		fn:      -1,
	}
	return &harness{i: i, fr: fr, out: out}
}

// exec runs statements in order and fails the test on any error. Returns the
// last statement's value.
func (h *harness) exec(t *testing.T, stmts ...ast.Statement) runtime.Value {
	t.Helper()
	var last runtime.Value
	for _, s := range stmts {
		v, err := h.i.Execute(h.fr, s)
		require.NoError(t, err)
		last = v
	}
	return last
}

// execErr runs one statement and requires it to fail.
func (h *harness) execErr(t *testing.T, stmt ast.Statement) error {
	t.Helper()
	_, err := h.i.Execute(h.fr, stmt)
	require.Error(t, err)
	return err
}

func (h *harness) entity(t *testing.T, name string) *runtime.Entity {
	t.Helper()
	id, ok := h.fr.env.Lookup(name)
	require.True(t, ok, "variable %q is not bound", name)
	e := h.i.ctx.Store.Peek(id)
	require.NotNil(t, e)
	return e
}

func (h *harness) sp() float64 { return h.i.ctx.Ledger.SP() }

func num(t *testing.T, v runtime.Value) float64 {
	t.Helper()
	n, ok := v.(runtime.NumberValue)
	require.True(t, ok, "expected a Number, got %T (%v)", v, v)
	return n.Val
}

//-----------------------------------------------------------------------------
// Declarations
//-----------------------------------------------------------------------------

func TestDeclarationNameCharges(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "x", ast.Num(1), 1))
	assert.Equal(t, 95.0, h.sp(), "single-letter names cost 5")

	h.exec(t, ast.DeclAt(ast.DeclMaybe, strings.Repeat("n", 21), ast.Num(2), 30))
	assert.Equal(t, 93.0, h.sp(), "names past twenty letters cost 2")
}

func TestWhateverDeclarationCharges(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclWhatever, "loose", ast.Num(1), 1))
	assert.Equal(t, 97.0, h.sp())
}

func TestAdjacentDeclarationsBond(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 2),
	)
	a := h.entity(t, "alpha")
	b := h.entity(t, "beta")
	assert.True(t, h.i.ctx.Graph.HasEdge(a.ID, b.ID, runtime.EdgeBond))
	assert.Equal(t, 102.0, h.sp(), "a new bond pays 2")
}

func TestBondWindowAndChainDistance(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 4),
		ast.DeclAt(ast.DeclMaybe, "gamma", ast.Num(3), 7),
	)
	a := h.entity(t, "alpha")
	b := h.entity(t, "beta")
	g := h.entity(t, "gamma")
	assert.True(t, h.i.ctx.Graph.HasEdge(a.ID, b.ID, runtime.EdgeBond))
	assert.True(t, h.i.ctx.Graph.HasEdge(b.ID, g.ID, runtime.EdgeBond))
	assert.False(t, h.i.ctx.Graph.HasEdge(a.ID, g.ID, runtime.EdgeBond),
		"bonds never skip past the line window")
	assert.Equal(t, 104.0, h.sp())

	v := h.exec(t, ast.Expr(&ast.GraphQuery{Method: "distance", Arguments: []ast.Expression{
		ast.ID("alpha"), ast.ID("gamma"),
	}}))
	assert.Equal(t, 2.0, num(t, v))
}

func TestSureOverrideArchivesTheOldSelf(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclSure, "cnst", ast.Num(1), 1))
	old := h.entity(t, "cnst")

	h.exec(t, ast.DeclAt(ast.DeclSure, "cnst", ast.Word("x"), 1))
	assert.Equal(t, 90.0, h.sp(), "overrides cost 10")
	assert.False(t, old.Alive)
	assert.Equal(t, 1, old.Scars, "the type changed under it")

	rec := h.i.ctx.Afterlife.Record("cnst")
	require.NotNil(t, rec)
	assert.Equal(t, runtime.NumberValue{Val: 1}, rec.Value)
	assert.Equal(t, runtime.WordValue{Val: "x"}, h.entity(t, "cnst").Value)
}

func TestSureRefusesPlainReassignment(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclSure, "cnst", ast.Num(1), 1))
	err := h.execErr(t, ast.Assign("cnst", ast.Num(2)))
	assert.Contains(t, err.Error(), "cnst")
}

func TestSwearCrashesOnAnyWrite(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclSwear, "vow", ast.Num(1), 1))
	err := h.execErr(t, ast.Assign("vow", ast.Num(2)))
	assert.True(t, IsFatal(err))
	err = h.execErr(t, ast.DeclAt(ast.DeclSwear, "vow", ast.Num(3), 2))
	assert.True(t, IsFatal(err))
}

func TestMaybeDoubtLatchesUncertain(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mm", ast.Num(0), 1))
	for n := 1; n <= 5; n++ {
		h.exec(t, ast.Assign("mm", ast.Num(float64(n))))
	}
	e := h.entity(t, "mm")
	assert.Equal(t, 5, e.Doubt)
	assert.True(t, e.Uncertain)
}

func TestUncertainReadsCanAnswerWithThePast(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.0}})
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mm", ast.Num(0), 1))
	for n := 1; n <= 5; n++ {
		h.exec(t, ast.Assign("mm", ast.Num(float64(n))))
	}
	v := h.exec(t, ast.Expr(ast.ID("mm")))
	assert.Equal(t, 4.0, num(t, v), "an uncertain read hands back the previous value")
}

func TestRedeclareAcrossKindsIsAnError(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mix", ast.Num(1), 1))
	h.execErr(t, ast.DeclAt(ast.DeclWhatever, "mix", ast.Num(2), 2))
}

func TestWhisperIsVoidOutsideItsScope(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclWhisper, "sec", ast.Word("hush"), 1))
	v := h.exec(t, ast.Expr(ast.ID("sec")))
	assert.Equal(t, runtime.WordValue{Val: "hush"}, v)

	v = h.exec(t, ast.If(ast.Yep(), ast.Blk(ast.Expr(ast.ID("sec")))))
	assert.Equal(t, runtime.VoidValue{}, v)
}

func TestPinkyPromiseLinksAndBreaks(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "origin", ast.Num(1), 1))
	h.exec(t, &ast.VarDeclaration{
		Kind: ast.DeclPinky, Name: "promise",
		Value: ast.ID("origin"), Line: 30, PinkySource: "origin",
	})
	h.exec(t, ast.Assign("promise", ast.Num(9)))
	assert.Equal(t, runtime.NumberValue{Val: 9}, h.entity(t, "origin").Value,
		"pinky writes copy back to the source")

	origin := h.entity(t, "origin")
	h.exec(t, &ast.DeleteStatement{Name: "promise"})
	assert.Equal(t, 85.0, h.sp(), "breaking a pinky costs 15")
	assert.False(t, origin.Alive, "the broken promise takes the source with it")
}

//-----------------------------------------------------------------------------
// Ghosts and the afterlife
//-----------------------------------------------------------------------------

func TestGhostOnlyAnswersSeances(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclGhost, "gh", ast.Num(13), 1))
	err := h.execErr(t, ast.Expr(ast.ID("gh")))
	assert.Contains(t, err.Error(), "seance")

	v := h.exec(t, ast.Expr(&ast.SeanceExpression{Name: "gh"}))
	assert.Equal(t, 13.0, num(t, v))
	assert.Equal(t, 87.0, h.sp(), "a living ghost costs the base 5 plus the ghost 8")
}

func TestGhostCrowdWhines(t *testing.T) {
	h := newHarness(t)
	names := []string{"g1", "g2", "g3", "g4", "g5", "g6"}
	for n, name := range names {
		h.exec(t, ast.DeclAt(ast.DeclGhost, name, ast.Num(float64(n)), 1))
	}
	assert.Contains(t, h.out.String(), "haunted")
}

func TestGhostTaxEveryHundredStatements(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclGhost, "gh", ast.Num(1), 1))
	stmt := ast.Expr(ast.Num(1))
	for n := 0; n < 99; n++ {
		h.exec(t, stmt)
	}
	assert.Equal(t, 99.0, h.sp())
}

func TestSeanceCapOnTheDeceased(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "dd", ast.Num(5), 1))
	h.exec(t, &ast.DeleteStatement{Name: "dd"})

	for n := 0; n < 3; n++ {
		v := h.exec(t, ast.Expr(&ast.SeanceExpression{Name: "dd"}))
		assert.Equal(t, 5.0, num(t, v))
	}
	err := h.execErr(t, ast.Expr(&ast.SeanceExpression{Name: "dd"}))
	assert.Contains(t, err.Error(), "no longer answers")
	assert.Equal(t, 80.0, h.sp(), "every attempt costs 5, even the refused one")
}

func TestSeanceOnNobodyIsVoid(t *testing.T) {
	h := newHarness(t)
	v := h.exec(t, ast.Expr(&ast.SeanceExpression{Name: "nobody"}))
	assert.Equal(t, runtime.VoidValue{}, v)
	assert.Equal(t, 95.0, h.sp())
}

func TestAngryDeathPassesAngerToTheReceiver(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "grudge", ast.Num(1), 1))
	e := h.entity(t, "grudge")
	e.Mood = runtime.MoodAngry
	e.Trust = 40
	h.exec(t, &ast.DeleteStatement{Name: "grudge"})

	h.exec(t, ast.DeclAt(ast.DeclMaybe, "heir", &ast.SeanceExpression{Name: "grudge"}, 30))
	heir := h.entity(t, "heir")
	assert.Equal(t, runtime.MoodAngry, heir.Mood)
	assert.Equal(t, runtime.NumberValue{Val: 1}, heir.Value)
}

func TestDeleteArchivesAndUnbinds(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "dd", ast.Num(5), 1))
	h.exec(t, &ast.DeleteStatement{Name: "dd"})
	err := h.execErr(t, ast.Expr(ast.ID("dd")))
	assert.Contains(t, err.Error(), "not defined")
	require.NotNil(t, h.i.ctx.Afterlife.Record("dd"))
}

func TestRememberWalksHistory(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mm", ast.Num(1), 1))
	h.exec(t, ast.Assign("mm", ast.Num(2)), ast.Assign("mm", ast.Num(3)))

	v := h.exec(t, ast.Expr(&ast.RememberExpression{Name: "mm", Index: ast.Num(1)}))
	assert.Equal(t, 1.0, num(t, v), "history is one-based from the first value")
	v = h.exec(t, ast.Expr(&ast.RememberExpression{Name: "mm", Index: ast.Num(9)}))
	assert.Equal(t, runtime.VoidValue{}, v)
	assert.True(t, h.entity(t, "mm").Observed, "remembering is observing")
}

//-----------------------------------------------------------------------------
// Relationships
//-----------------------------------------------------------------------------

func TestLovesAlsoBonds(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "ra", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "rb", ast.Num(2), 30),
		ast.Expr(ast.Rel(ast.RelLoves, "ra", "rb")),
	)
	a := h.entity(t, "ra")
	b := h.entity(t, "rb")
	assert.True(t, h.i.ctx.Graph.HasEdge(a.ID, b.ID, runtime.EdgeLoves))
	assert.True(t, h.i.ctx.Graph.HasEdge(a.ID, b.ID, runtime.EdgeBond))
	assert.Equal(t, 102.0, h.sp())
}

func TestHatesRefusesSharedValues(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "ha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "hb", ast.Num(7), 30),
		ast.Expr(ast.Rel(ast.RelHates, "ha", "hb")),
	)
	err := h.execErr(t, ast.Assign("ha", ast.Num(7)))
	assert.Contains(t, err.Error(), "hates")
	assert.Equal(t, runtime.NumberValue{Val: 1}, h.entity(t, "ha").Value)
}

func TestFearsFlinchOnWrite(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "fa", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "fb", ast.Num(2), 30),
		ast.Expr(ast.Rel(ast.RelFears, "fa", "fb")),
		ast.Assign("fb", ast.Num(3)),
	)
	assert.Equal(t, runtime.MoodAfraid, h.entity(t, "fa").Mood)
}

func TestEnviesConvergesOnRead(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "ea", ast.Num(100), 1),
		ast.DeclAt(ast.DeclMaybe, "eb", ast.Num(200), 30),
		ast.Expr(ast.Rel(ast.RelEnvies, "ea", "eb")),
	)
	v := h.exec(t, ast.Expr(ast.ID("ea")))
	assert.Equal(t, 110.0, num(t, v))
	v = h.exec(t, ast.Expr(ast.ID("ea")))
	assert.Equal(t, 119.0, num(t, v), "each read closes a tenth of the gap")
}

func TestMirrorsCopyIsOneTickLate(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "ma", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "mb", ast.Num(2), 30),
		ast.Expr(ast.Rel(ast.RelMirrors, "ma", "mb")),
		ast.Assign("mb", ast.Num(42)),
	)
	ma := h.entity(t, "ma")
	assert.Equal(t, runtime.NumberValue{Val: 1}, ma.Value, "nothing changes on the writing tick")
	h.exec(t, ast.Expr(ast.ID("mb")))
	assert.Equal(t, runtime.NumberValue{Val: 42}, ma.Value)
}

func TestForgetsEveryoneBreaksBonds(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 2),
	)
	a := h.entity(t, "alpha")
	h.exec(t, &ast.ForgetsEveryone{Name: "alpha"})
	assert.Equal(t, 0, h.i.ctx.Graph.Degree(a.ID))
	assert.Equal(t, 95.0, h.sp(), "the bond formed for 2 and broke for 7")
}

func TestHauntsFrightenOnDeath(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "hh", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "ht", ast.Num(2), 30),
		ast.Expr(ast.Rel(ast.RelHaunts, "hh", "ht")),
		&ast.DeleteStatement{Name: "hh"},
	)
	assert.Equal(t, runtime.MoodAfraid, h.entity(t, "ht").Mood)
}

func TestGraphQueries(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 2),
		ast.DeclAt(ast.DeclMaybe, "hermit", ast.Num(3), 30),
	)

	v := h.exec(t, ast.Expr(&ast.GraphQuery{Method: "edges", Arguments: []ast.Expression{ast.ID("alpha")}}))
	list, ok := v.(*runtime.ListValue)
	require.True(t, ok)
	require.Len(t, list.Elements, 1)
	assert.Equal(t, runtime.WordValue{Val: "beta"}, list.Elements[0])

	v = h.exec(t, ast.Expr(&ast.GraphQuery{Method: "connected", Arguments: []ast.Expression{
		ast.ID("alpha"), ast.ID("beta"),
	}}))
	assert.Equal(t, runtime.YepValue{}, v)

	v = h.exec(t, ast.Expr(&ast.GraphQuery{Method: "distance", Arguments: []ast.Expression{
		ast.ID("alpha"), ast.ID("hermit"),
	}}))
	assert.Equal(t, runtime.DunnoValue{}, v, "unreachable pairs answer dunno")

	v = h.exec(t, ast.Expr(&ast.GraphQuery{Method: "isolated"}))
	list, ok = v.(*runtime.ListValue)
	require.True(t, ok)
	require.Len(t, list.Elements, 1)
	assert.Equal(t, runtime.WordValue{Val: "hermit"}, list.Elements[0])
}

//-----------------------------------------------------------------------------
// Trust, moods, curses
//-----------------------------------------------------------------------------

func TestZeroTrustWritesAreSilentlyDropped(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mute", ast.Num(1), 1))
	h.entity(t, "mute").Trust = 0
	h.exec(t, ast.Assign("mute", ast.Num(9)))
	assert.Equal(t, runtime.NumberValue{Val: 1}, h.entity(t, "mute").Value)
}

func TestZeroTrustReadsCanGoVoid(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.0}})
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "mute", ast.Num(1), 1))
	h.entity(t, "mute").Trust = 0
	v := h.exec(t, ast.Expr(ast.ID("mute")))
	assert.Equal(t, runtime.VoidValue{}, v)
	assert.Equal(t, 92.0, h.sp())
}

func TestOverwhelmedEntitiesDropWrites(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.0}})
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "busy", ast.Num(1), 1))
	h.entity(t, "busy").Mood = runtime.MoodOverwhelmed
	h.exec(t, ast.Assign("busy", ast.Num(9)))
	assert.Equal(t, runtime.NumberValue{Val: 1}, h.entity(t, "busy").Value)
}

func TestGrievingEntitiesAnswerVoid(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 2),
		&ast.DeleteStatement{Name: "beta"},
	)
	v := h.exec(t, ast.Expr(ast.ID("alpha")))
	assert.Equal(t, runtime.VoidValue{}, v)
}

func TestCurseSpreadsVarianceAndExorcise(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "target", ast.Num(10), 1))
	h.exec(t, ast.DeclAt(ast.DeclCurse, "hex", ast.Num(5), 30))
	assert.Equal(t, 80.0, h.sp(), "declaring a curse costs 20")

	v := h.exec(t, ast.Expr(ast.ID("target")))
	assert.InDelta(t, 14.9, num(t, v), 1e-9, "cursed reads jitter by the variance")

	h.exec(t, &ast.ExorciseStatement{CurseName: "hex"})
	assert.Equal(t, 55.0, h.sp(), "exorcising your own curse costs 25")
	h.exec(t, &ast.ExorciseStatement{CurseName: "hex"})
	assert.Equal(t, 60.0, h.sp(), "cleansing someone else's mess pays 5")
}

//-----------------------------------------------------------------------------
// Observation
//-----------------------------------------------------------------------------

func TestPrintObservesAndCollapses(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "uu", ast.Num(1), 1))
	e := h.entity(t, "uu")
	e.Value = &runtime.UncertainValue{Current: runtime.NumberValue{Val: 2}}
	e.Uncertain = true

	h.exec(t, ast.Print(ast.ID("uu")))
	assert.Equal(t, "2\n", h.out.String())
	assert.True(t, e.Observed)
	assert.False(t, e.Uncertain, "observation collapses the superposition")
	assert.Equal(t, runtime.NumberValue{Val: 2}, e.Value)
}

func TestInspectSurfaces(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "spy", ast.Num(5), 1))
	h.exec(t, &ast.InspectStatement{Name: "spy"})
	assert.Contains(t, h.out.String(), "[huh] spy: Number = 5")

	h.exec(t, &ast.InspectStatement{Name: "spy", Deep: true})
	assert.Contains(t, h.out.String(), "trust:")
	assert.Contains(t, h.out.String(), "mood:")
}

//-----------------------------------------------------------------------------
// Dreams and program end
//-----------------------------------------------------------------------------

func TestDreamPickupFulfills(t *testing.T) {
	h := newHarness(t)
	h.i.Dreams["wish"] = runtime.NumberValue{Val: 9}
	v := h.exec(t, ast.DeclAt(ast.DeclDream, "wish", ast.Num(1), 1))
	assert.Equal(t, 9.0, num(t, v), "the remembered dream beats the initializer")
	assert.Equal(t, 105.0, h.sp(), "a fulfilled dream pays 5")
}

func TestTamperedDreamScars(t *testing.T) {
	h := newHarness(t)
	h.i.Dreams["wish"] = runtime.NumberValue{Val: 9}
	h.i.TamperedDreams["wish"] = true
	h.exec(t, ast.DeclAt(ast.DeclDream, "wish", ast.Num(1), 1))

	e := h.entity(t, "wish")
	assert.Equal(t, 1, e.Scars)
	assert.Equal(t, 85, e.Trust)
	assert.Equal(t, 100.0, h.sp(), "the tamper penalty cancels the fulfillment")
	assert.Contains(t, h.out.String(), "messing with")
}

func TestEvaluateProgramSettlesAtTheEnd(t *testing.T) {
	h := newHarness(t)
	prog := ast.Prog(
		ast.Fn(ast.FuncShould, "tidy", nil, ast.Blk(ast.Ret(ast.Num(1)))),
		ast.Decl(ast.DeclDream, "wish", ast.Num(7)),
	)
	_, err := h.i.EvaluateProgram(prog)
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "really should have been called")
	assert.Equal(t, 95.0, h.sp())
	assert.Equal(t, runtime.NumberValue{Val: 7}, h.i.Dreams["wish"],
		"dreams are collected for the driver to persist")
}
