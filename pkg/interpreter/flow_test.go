package interpreter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func TestIfButActuallyChain(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.IfStatement{
		Condition: ast.Nope(),
		Body:      ast.Blk(ast.Print(ast.Word("a"))),
		But: []ast.ButClause{
			{Condition: ast.Nope(), Body: ast.Blk(ast.Print(ast.Word("b")))},
			{Condition: ast.Yep(), Body: ast.Blk(ast.Print(ast.Word("c")))},
		},
		Actually: ast.Blk(ast.Print(ast.Word("d"))),
	})
	assert.Equal(t, "c\n", h.out.String())

	h.exec(t, &ast.IfStatement{
		Condition: ast.Nope(),
		But:       []ast.ButClause{{Condition: ast.Nope(), Body: ast.Blk()}},
		Actually:  ast.Blk(ast.Print(ast.Word("d"))),
	})
	assert.Equal(t, "c\nd\n", h.out.String())
}

func TestInsanityFlipsBranches(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.0}})
	h.i.ctx.Ledger.ForceSP(0, "test")

	h.exec(t, &ast.IfStatement{
		Condition: ast.Yep(),
		Body:      ast.Blk(ast.Print(ast.Word("taken"))),
	})
	assert.Empty(t, h.out.String(), "the flip turned a yep branch away")
}

func TestPlsCountsFromOne(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.PlsLoop{
		Count: ast.Num(3), Counter: "i",
		Body: ast.Blk(ast.Print(ast.ID("i"))), Line: 1,
	})
	assert.Equal(t, "1\n2\n3\n", h.out.String())
}

func TestPlsCountsFromZeroWhenSanityIsLow(t *testing.T) {
	h := newHarness(t)
	h.i.ctx.Ledger.ForceSP(40, "test")
	h.exec(t, &ast.PlsLoop{
		Count: ast.Num(3), Counter: "i",
		Body: ast.Blk(ast.Print(ast.ID("i"))), Line: 1,
	})
	assert.Equal(t, "0\n1\n2\n", h.out.String())
}

func TestUghLoopQuitsWhenFedUp(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.005}})
	h.exec(t, &ast.UghLoop{Condition: ast.Yep(), Body: ast.Blk(ast.Print(ast.Word("x")))})
	assert.Empty(t, h.out.String(), "the first quit roll already landed under 1%")
}

func TestUghLoopHonorsEnough(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.UghLoop{
		Condition: ast.Yep(),
		Body:      ast.Blk(ast.Print(ast.Word("once")), &ast.EnoughStatement{}),
	})
	assert.Equal(t, "once\n", h.out.String())
	assert.Equal(t, 101.0, h.sp())
}

func TestUghImpatienceBleedsIntoNestedPls(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.UghLoop{
		Condition: ast.Yep(),
		Body: ast.Blk(
			&ast.PlsLoop{Count: ast.Num(10), Counter: "k",
				Body: ast.Blk(ast.Print(ast.ID("k"))), Line: 1},
			&ast.EnoughStatement{},
		),
	})
	lines := strings.Count(h.out.String(), "\n")
	assert.Equal(t, 9, lines, "the enclosing ugh shaves one iteration off")
}

func TestHopefullyRewardsEarlyIterations(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "run", ast.Num(1), 30))
	h.exec(t, &ast.HopefullyLoop{
		Condition: ast.ID("run"),
		Body:      ast.Blk(ast.Assign("run", ast.Num(0))),
	})
	assert.Equal(t, 102.0, h.sp(), "one graceful iteration: bonus plus scope entry")
}

func TestAgainLoopRunsUntilEnough(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.AgainLoop{
		Body: ast.Blk(ast.Print(ast.Word("spin")), &ast.EnoughStatement{}),
	})
	assert.Equal(t, "spin\n", h.out.String())
	assert.Equal(t, 101.0, h.sp())
}

//-----------------------------------------------------------------------------
// Gambling
//-----------------------------------------------------------------------------

func TestBetWinPaysAndBlesses(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "luck", ast.Num(1), 30))
	h.exec(t, &ast.BetBlock{
		Condition: ast.ID("luck"), Reward: ast.Num(10), Risk: ast.Num(5),
		Body: ast.Blk(ast.Print(ast.Word("won"))),
	})
	assert.Equal(t, "won\n", h.out.String())
	assert.Equal(t, 111.0, h.sp(), "reward plus the body's scope entry")
	assert.True(t, h.entity(t, "luck").HasTrait(runtime.TraitLucky))
}

func TestRepeatedLossesMarkTheVariableUnlucky(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "dud", ast.Num(0), 30))
	bet := func() ast.Statement {
		return &ast.BetBlock{
			Condition: ast.ID("dud"), Reward: ast.Num(10), Risk: ast.Num(5),
			Body: ast.Blk(),
		}
	}
	h.exec(t, bet(), bet(), bet())
	assert.Equal(t, 85.0, h.sp())
	assert.True(t, h.entity(t, "dud").HasTrait(runtime.TraitUnlucky))
}

func TestInsaneBetsAlwaysFavorTheHouse(t *testing.T) {
	h := newHarness(t)
	h.i.ctx.Ledger.ForceSP(-3, "test")
	h.exec(t, &ast.BetBlock{
		Condition: ast.Yep(), Reward: ast.Num(10), Risk: ast.Num(5),
		Body: ast.Blk(ast.Print(ast.Word("won"))),
	})
	assert.Empty(t, h.out.String())
	assert.Equal(t, -8.0, h.sp(), "a sure thing loses while insane")
}

func TestJackpotHitsEveryHundredth(t *testing.T) {
	h := newHarness(t)
	node := &ast.JackpotBlock{
		Condition: ast.Yep(), Body: ast.Blk(ast.Print(ast.Word("win"))), Line: 7,
	}
	for n := 0; n < 100; n++ {
		h.exec(t, node)
	}
	assert.Equal(t, 1, strings.Count(h.out.String(), "win"))
	assert.Equal(t, 151.0, h.sp(), "the payout plus one scope entry")
}

//-----------------------------------------------------------------------------
// Prayer and recovery
//-----------------------------------------------------------------------------

func TestPrayForNothing(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.PrayStatement{Prayer: "nothing"})
	assert.Equal(t, 101.0, h.sp(), "asking for nothing is rewarded with something")
}

func TestPrayForMercyHalvesPenalties(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		&ast.PrayStatement{Prayer: "mercy"},
		&ast.OopsStatement{Message: "minor"},
	)
	assert.Equal(t, 99.0, h.sp())
}

func TestPrayForChaos(t *testing.T) {
	h := newHarness(t)
	h.exec(t, &ast.PrayStatement{Prayer: "chaos"})
	assert.Equal(t, 0.0, h.sp())
	assert.True(t, h.i.ctx.Ledger.Insane())
}

func TestRecoveryNeedsACalmScope(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "grump", ast.Num(1), 30))
	h.entity(t, "grump").Mood = runtime.MoodAngry
	h.i.ctx.Ledger.ForceSP(0, "test")

	h.exec(t, &ast.RecoverStatement{})
	assert.Contains(t, h.out.String(), "no you're not")
	assert.True(t, h.i.ctx.Ledger.Insane())

	h.entity(t, "grump").Mood = runtime.MoodNeutral
	h.exec(t, &ast.RecoverStatement{})
	assert.Equal(t, 50.0, h.sp())
	require.False(t, h.i.ctx.Ledger.Insane())
}

func TestInsanitySwapsBondedValues(t *testing.T) {
	h := newHarness(t)
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "alpha", ast.Num(1), 1),
		ast.DeclAt(ast.DeclMaybe, "beta", ast.Num(2), 2),
	)
	h.i.ctx.Ledger.ForceSP(-1, "test")

	for n := 0; n < 20; n++ {
		h.exec(t, ast.Expr(ast.Word("noop")))
	}
	assert.Contains(t, h.out.String(), "[insanity]")
	assert.Equal(t, runtime.NumberValue{Val: 2}, h.entity(t, "alpha").Value)
	assert.Equal(t, runtime.NumberValue{Val: 1}, h.entity(t, "beta").Value)
}
