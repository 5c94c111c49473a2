package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanity/engine-go/pkg/runtime"
)

func TestDreamPath(t *testing.T) {
	assert.Equal(t, "prog.san.dream", DreamPath("prog.san"))
}

func TestDreamsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.san.dream")
	in := map[string]runtime.Value{
		"count": runtime.NumberValue{Val: 3.5},
		"name":  runtime.WordValue{Val: "pat"},
		"flag":  runtime.YepValue{},
		"items": &runtime.ListValue{Elements: []runtime.Value{
			runtime.NumberValue{Val: 1}, runtime.WordValue{Val: "two"},
		}},
		"rec": &runtime.BlobValue{Fields: map[string]runtime.Value{
			"ok": runtime.NopeValue{},
		}},
	}
	require.NoError(t, SaveDreams(path, in))

	values, tampered, err := LoadDreams(path)
	require.NoError(t, err)
	assert.Empty(t, tampered, "an untouched snapshot raises no flags")
	assert.Equal(t, in["count"], values["count"])
	assert.Equal(t, in["name"], values["name"])
	assert.Equal(t, in["flag"], values["flag"])
	assert.Equal(t, in["items"], values["items"])
	assert.Equal(t, in["rec"], values["rec"])
}

func TestHandEditsTripTheChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.san.dream")
	require.NoError(t, SaveDreams(path, map[string]runtime.Value{
		"edited": runtime.NumberValue{Val: 9},
		"honest": runtime.WordValue{Val: "ok"},
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doctored := strings.Replace(string(raw), "value: 9", "value: 666", 1)
	require.NotEqual(t, string(raw), doctored, "the fixture must actually change")
	require.NoError(t, os.WriteFile(path, []byte(doctored), 0o644))

	values, tampered, err := LoadDreams(path)
	require.NoError(t, err)
	assert.True(t, tampered["edited"])
	assert.False(t, tampered["honest"])
	assert.Equal(t, runtime.NumberValue{Val: 666}, values["edited"],
		"the edited value still loads, it just carries the flag")
}

func TestMissingSnapshotIsAColdStart(t *testing.T) {
	values, tampered, err := LoadDreams(filepath.Join(t.TempDir(), "none.dream"))
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Empty(t, tampered)
}

func TestGarbageSnapshotFailsToParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dream")
	require.NoError(t, os.WriteFile(path, []byte(":: not yaml {{{"), 0o644))
	_, _, err := LoadDreams(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestUnknownTopLevelFieldIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.dream")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o644))
	_, _, err := LoadDreams(path)
	require.Error(t, err)
}

func TestSaveSkipsEmptySnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dream")
	require.NoError(t, SaveDreams(path, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEncodeDreamFlattensTheUnsleepable(t *testing.T) {
	kind, val := encodeDream(&runtime.UncertainValue{Current: runtime.NumberValue{Val: 4}})
	assert.Equal(t, "number", kind)
	assert.Equal(t, 4.0, val)

	kind, _ = encodeDream(&runtime.FunctionValue{})
	assert.Equal(t, "void", kind, "functions do not survive sleep")
}
