package keymap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/keymap/internal/metrics"
	"github.com/psantana5/keymap/pkg/util"
)

type testEnv struct {
	it     *Interpreter
	out    *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(store Store) *testEnv {
	var out, stderr bytes.Buffer
	return &testEnv{
		it: &Interpreter{
			Store:   store,
			Out:     &out,
			Info:    util.NewInfo("/usr/bin/keymap", util.WithStderr(&stderr)),
			Metrics: metrics.New(),
		},
		out:    &out,
		stderr: &stderr,
	}
}

func TestProcess(t *testing.T) {
	env := newTestEnv(NewMemoryStore())
	input := strings.Join([]string{
		"# fruit",
		"apple = red",
		"banana = yellow",
		"cherry = red",
		"",
		"apple",
		"grape",
		"= red",
		"banana =",
		"=",
	}, "\n")

	require.NoError(t, env.it.Process(context.Background(), "fruit.txt", strings.NewReader(input)))

	want := strings.Join([]string{
		"fruit.txt: 1: # fruit",
		"fruit.txt: 2: apple = red",
		"apple = red",
		"fruit.txt: 3: banana = yellow",
		"banana = yellow",
		"fruit.txt: 4: cherry = red",
		"cherry = red",
		"fruit.txt: 5: ",
		"fruit.txt: 6: apple",
		"apple = red",
		"fruit.txt: 7: grape",
		"grape: key not found",
		"fruit.txt: 8: = red",
		"apple = red",
		"cherry = red",
		"fruit.txt: 9: banana =",
		"fruit.txt: 10: =",
		"apple = red",
		"cherry = red",
		"",
	}, "\n")
	assert.Equal(t, want, env.out.String())
	assert.Empty(t, env.stderr.String())
	assert.Equal(t, util.ExitSuccess, env.it.Info.ExitStatus())

	var metricsOut bytes.Buffer
	require.NoError(t, env.it.Metrics.WriteText(&metricsOut))
	assert.Contains(t, metricsOut.String(), `keymap_lines_total{kind="set"} 3`)
	assert.Contains(t, metricsOut.String(), "keymap_store_keys 2")
}

func TestRunReportsMissingFileAndContinues(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("k = v\n"), 0644))
	missing := filepath.Join(dir, "missing.txt")

	env := newTestEnv(NewMemoryStore())
	require.NoError(t, env.it.Run(context.Background(), []string{missing, good}))

	assert.Equal(t, "keymap: "+missing+": no such file or directory\n", env.stderr.String())
	assert.Equal(t, good+": 1: k = v\nk = v\n", env.out.String())
	assert.Equal(t, util.ExitFailure, env.it.Info.ExitStatus())
}

func TestRunReadsStdin(t *testing.T) {
	env := newTestEnv(NewMemoryStore())
	env.it.In = strings.NewReader("x = 1\n")

	require.NoError(t, env.it.Run(context.Background(), nil))
	assert.Equal(t, "-: 1: x = 1\nx = 1\n", env.out.String())
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Set(string, string) error {
	return errors.New("disk full")
}

func TestRunComplainsOnStoreFailure(t *testing.T) {
	env := newTestEnv(failingStore{NewMemoryStore()})
	env.it.In = strings.NewReader("a = b\nc = d\n")

	require.NoError(t, env.it.Run(context.Background(), []string{StdinName}))
	assert.Equal(t, "keymap: -: 1: disk full\n", env.stderr.String())
	assert.Equal(t, "-: 1: a = b\n", env.out.String())
	assert.Equal(t, util.ExitFailure, env.it.Info.ExitStatus())
}

func TestRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(NewMemoryStore())
	env.it.In = strings.NewReader("a = b\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := env.it.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, env.out.String())
}
