package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/inr100/offsync/internal/testutil"
)

func init() {
	color.NoColor = true
}

// testEnv is a CLI environment with a scripted backend and a temp database.
type testEnv struct {
	db     string
	api    *testutil.ScriptedAPI
	prober *testutil.StaticProber
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		db:     filepath.Join(t.TempDir(), "offsync.db"),
		api:    testutil.NewScriptedAPI(),
		prober: testutil.NewStaticProber(true),
	}
}

// execute runs the root command with args against env and returns stdout.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.executeContext(t, context.Background(), args...)
}

func (e *testEnv) executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{API: e.api, Prober: e.prober}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db}, args...))

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (e *testEnv) mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.execute(t, args...)
	require.NoError(t, err, "output: %s", out)
	return out
}
