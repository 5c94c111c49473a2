package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/interpreter"
	"sanity/engine-go/pkg/runtime"
)

func newEngine(t *testing.T) (*interpreter.Interpreter, *bytes.Buffer) {
	t.Helper()
	ctx := runtime.NewContext(runtime.DefaultConfig(), &runtime.SequenceRand{Seq: []float64{0.99}})
	out := &bytes.Buffer{}
	return interpreter.New(ctx, interpreter.WithOutput(out)), out
}

func TestDreamsSurviveAcrossRuns(t *testing.T) {
	src := filepath.Join(t.TempDir(), "prog.san")

	// First run plants the dream.
	i1, _ := newEngine(t)
	require.NoError(t, Restore(i1, src))
	_, err := i1.EvaluateProgram(ast.Prog(
		ast.Decl(ast.DeclDream, "wish", ast.Num(7)),
	))
	require.NoError(t, err)
	require.NoError(t, Persist(i1, src))

	// The second run wakes up holding it, initializer be damned.
	i2, out := newEngine(t)
	require.NoError(t, Restore(i2, src))
	assert.Equal(t, runtime.NumberValue{Val: 7}, i2.Dreams["wish"])

	_, err = i2.EvaluateProgram(ast.Prog(
		ast.Decl(ast.DeclDream, "wish", ast.Num(0)),
		ast.Print(ast.ID("wish")),
	))
	require.NoError(t, err)
	assert.Equal(t, "7\n", out.String())
	assert.Equal(t, 105.0, i2.Context().Ledger.SP(), "a fulfilled dream pays 5")
}

func TestRestoreFlagsDoctoredSnapshots(t *testing.T) {
	src := filepath.Join(t.TempDir(), "prog.san")

	i1, _ := newEngine(t)
	_, err := i1.EvaluateProgram(ast.Prog(
		ast.Decl(ast.DeclDream, "wish", ast.Num(7)),
	))
	require.NoError(t, err)
	require.NoError(t, Persist(i1, src))

	raw, err := os.ReadFile(DreamPath(src))
	require.NoError(t, err)
	doctored := strings.Replace(string(raw), "value: 7", "value: 666", 1)
	require.NoError(t, os.WriteFile(DreamPath(src), []byte(doctored), 0o644))

	i2, out := newEngine(t)
	require.NoError(t, Restore(i2, src))
	require.True(t, i2.TamperedDreams["wish"])

	_, err = i2.EvaluateProgram(ast.Prog(
		ast.Decl(ast.DeclDream, "wish", ast.Num(0)),
		ast.Print(ast.ID("wish")),
	))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "messing with")
	assert.Contains(t, out.String(), "666")
	assert.Equal(t, 100.0, i2.Context().Ledger.SP(),
		"the fulfillment bonus and the tamper fine cancel out")
}
