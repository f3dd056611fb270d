package loader

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_FromDOT(t *testing.T) {
	g, err := ParseDOT([]byte(`digraph G {
0 [label="0 0 sec"]
1 [label="1 12 sec"]
crash [label="crash 41 sec" style="filled" color="red"]
0 -> 1 -> crash
}`))
	require.NoError(t, err)
	g.Target = "Crash: crash"
	g.Visits["0"] = 3

	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "campaign")

	require.NoError(t, Write(out, g))

	loaded, err := Load(context.Background(), DirSource(out))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "Crash: crash"}, loaded.Names())
	assert.Equal(t, g.Edges, loaded.Edges)
	assert.Equal(t, "Crash: crash", loaded.Target)
	assert.Equal(t, map[string]int{"0": 3}, loaded.Visits)

	crash, ok := loaded.Get("Crash: crash")
	require.True(t, ok)
	assert.Equal(t, int64(41), crash.FoundTime)
	assert.Equal(t, []string{"1"}, crash.Parents)
}
