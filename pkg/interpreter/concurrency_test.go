package interpreter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func TestVibeAndChill(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "task", &ast.VibeExpression{
		Body: ast.Blk(ast.Expr(ast.Bin("+", ast.Num(3), ast.Num(4)))),
	}, 30))
	v := h.exec(t, ast.Expr(&ast.ChillExpression{Task: ast.ID("task")}))
	assert.Equal(t, 7.0, num(t, v))
}

func TestVibeReturnsThroughChill(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "task", &ast.VibeExpression{
		Body: ast.Blk(ast.Ret(ast.Num(5))),
	}, 30))
	v := h.exec(t, ast.Expr(&ast.ChillExpression{Task: ast.ID("task")}))
	assert.Equal(t, 5.0, num(t, v))
}

func TestVibeFailurePropagatesThroughChill(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclMaybe, "task", &ast.VibeExpression{
		Body: ast.Blk(ast.Expr(ast.Bin("/", ast.Num(1), ast.Num(0)))),
	}, 30))
	err := h.execErr(t, ast.Expr(&ast.ChillExpression{Task: ast.ID("task")}))
	assert.Contains(t, err.Error(), "division by zero")
}

func TestChillOnANonTaskHandsTheValueBack(t *testing.T) {
	h := newHarness(t)
	v := h.exec(t, ast.Expr(&ast.ChillExpression{Task: ast.Num(9)}))
	assert.Equal(t, 9.0, num(t, v))
}

func TestScreamWritesAreSerialized(t *testing.T) {
	h := newHarness(t)
	h.exec(t, ast.DeclAt(ast.DeclScream, "shared", ast.Num(0), 30))
	h.exec(t,
		ast.DeclAt(ast.DeclMaybe, "one", &ast.VibeExpression{
			Body: ast.Blk(ast.Assign("shared", ast.Num(1))),
		}, 60),
		ast.DeclAt(ast.DeclMaybe, "two", &ast.VibeExpression{
			Body: ast.Blk(ast.Assign("shared", ast.Num(2))),
		}, 90),
	)
	h.exec(t,
		ast.Expr(&ast.ChillExpression{Task: ast.ID("one")}),
		ast.Expr(&ast.ChillExpression{Task: ast.ID("two")}),
	)

	e := h.entity(t, "shared")
	assert.Len(t, e.History, 3, "both writes landed, in some order")
	final := num(t, e.Value)
	assert.True(t, final == 1 || final == 2)
}

func TestMoodLockRunsItsBody(t *testing.T) {
	h := newHarness(t)
	block := &ast.MoodLockBlock{Name: "door", Body: ast.Blk(ast.Print(ast.Word("in")))}
	h.exec(t, block, block)
	assert.Equal(t, "in\nin\n", h.out.String())
	assert.Equal(t, 2, h.i.lockFor("door").acquires)
}

func TestMoodLockDegradation(t *testing.T) {
	cfg := runtime.DefaultConfig()
	l := &moodLock{}

	assert.Equal(t, 1, l.noteAcquire(1, cfg.LockIdleTicks))
	assert.Equal(t, 2, l.noteAcquire(2, cfg.LockIdleTicks))

	l.noteHold(60*time.Millisecond, cfg)
	require.True(t, l.isResentful(), "holds past 50ms breed resentment")

	// A long idle stretch cools the lock back down.
	assert.Equal(t, 1, l.noteAcquire(2+cfg.LockIdleTicks, cfg.LockIdleTicks))
	assert.False(t, l.isResentful())
}

func TestResentfulLockLetsOneSlip(t *testing.T) {
	h := newHarnessRand(t, &runtime.SequenceRand{Seq: []float64{0.0}})
	l := h.i.lockFor("door")
	l.stateMu.Lock()
	l.resentful = true
	l.stateMu.Unlock()

	h.exec(t, &ast.MoodLockBlock{Name: "door", Body: ast.Blk(ast.Print(ast.Word("in")))})
	assert.Contains(t, h.out.String(), `lock "door" is resentful and let this one slip`)
	assert.Contains(t, h.out.String(), "in\n", "the body still runs, just unguarded")
}
