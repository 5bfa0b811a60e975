package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/worktime/internal/cli"
	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/worklog"
)

var cmdTestNow = time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC)

type stubGateway struct {
	mu       sync.Mutex
	consumed map[int64]decimal.Decimal
	failOn   int64
	calls    int
}

func newStubGateway() *stubGateway {
	return &stubGateway{consumed: map[int64]decimal.Decimal{}}
}

func (g *stubGateway) Complete(_ context.Context, req reconcile.CompletionRequest) (reconcile.CompletionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if req.TaskID == g.failOn {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: task %d rejected", reconcile.ErrGateway, req.TaskID)
	}
	g.consumed[req.TaskID] = g.consumed[req.TaskID].Add(req.HoursConsumed)
	return reconcile.CompletionResponse{CumulativeConsumed: g.consumed[req.TaskID], Status: worklog.StatusDoing}, nil
}

// testDeps writes a UTC config with a temporary data directory and installs
// deps that capture output. Exit is a no-op; tests that care replace it.
func testDeps(t *testing.T) (*Deps, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.ConfigFile)
	body := fmt.Sprintf("timezone = \"UTC\"\ndata_dir = '%s'\n\n[schedule]\nenabled = false\n", dir)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0644))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	d := &Deps{
		Stdout:     stdout,
		Stderr:     stderr,
		Stdin:      strings.NewReader(""),
		Exit:       func(code int) {},
		ConfigPath: func() (string, error) { return configPath, nil },
		Now:        func() time.Time { return cmdTestNow },
		Styles:     cli.PlainStyles(),
	}
	SetDeps(d)
	t.Cleanup(ResetDeps)
	return d, stdout, stderr
}

// captureExit records the last exit code passed to d.Exit.
func captureExit(d *Deps) *int {
	code := -1
	d.Exit = func(c int) { code = c }
	return &code
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2024-03-04")
	assert.Equal(t, "1.2.3", rootCmd.Version)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"hours", "plan", "run", "punch", "task", "history", "restore", "config", "serve", "completion"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestFail_WritesErrorBlock(t *testing.T) {
	d, _, stderr := testDeps(t)
	code := captureExit(d)

	fail("Something broke", fmt.Errorf("boom"), "Try again")

	assert.Equal(t, 1, *code)
	assert.Equal(t, "Error: Something broke\nDetails: boom\nHint: Try again\n", stderr.String())
}

func TestLoadConfig_PathError(t *testing.T) {
	d, _, stderr := testDeps(t)
	code := captureExit(d)
	d.ConfigPath = func() (string, error) { return "", fmt.Errorf("no home") }

	_, _, ok := loadConfig()

	assert.False(t, ok)
	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "Failed to determine config file location")
}

func TestLoadConfig_Invalid(t *testing.T) {
	d, _, stderr := testDeps(t)
	code := captureExit(d)
	path, err := d.ConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("timezone = \"Nowhere/City\"\n"), 0644))

	_, _, ok := loadConfig()

	assert.False(t, ok)
	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "Failed to load configuration")
}

func TestResolveDay(t *testing.T) {
	d, _, stderr := testDeps(t)
	code := captureExit(d)

	day, ok := resolveDay("yesterday", time.UTC)
	require.True(t, ok)
	assert.True(t, day.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)))

	_, ok = resolveDay("2024-03", time.UTC)
	assert.False(t, ok)
	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "missing day")
}
