package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seedDay(t *testing.T) {
	t.Helper()
	punchTestDay(t)
	addTask([]string{"1", "2h", "first"}, "2024-03-04")
	addTask([]string{"2", "5h", "second"}, "2024-03-04")
}

func TestShowPlan(t *testing.T) {
	d, stdout, _ := testDeps(t)
	gw := newStubGateway()
	d.Gateway = gw
	seedDay(t)
	stdout.Reset()

	showPlan("2024-03-04")

	out := stdout.String()
	assert.Contains(t, out, "Allocation for Mon, Mar 4, 2024")
	assert.Contains(t, out, "08:30-10:30")
	assert.Contains(t, out, "10:30-16:30")
	assert.Contains(t, out, "Total: 7h")
	assert.Zero(t, gw.calls)
}

func TestRunAllocation(t *testing.T) {
	d, stdout, stderr := testDeps(t)
	gw := newStubGateway()
	d.Gateway = gw
	code := captureExit(d)
	seedDay(t)
	stdout.Reset()

	runAllocation("2024-03-04")

	assert.Equal(t, -1, *code, stderr.String())
	assert.Contains(t, stdout.String(), "Registered 7h across 2 tasks")
	assert.Equal(t, 2, gw.calls)

	stdout.Reset()
	listTasks("2024-03-04", false)
	assert.Contains(t, stdout.String(), "2h / 2h")
	assert.Contains(t, stdout.String(), "5h / 5h")

	stdout.Reset()
	showPlan("2024-03-04")
	assert.Contains(t, stdout.String(), "Nothing to allocate")
}

func TestRunAllocation_GatewayFailure(t *testing.T) {
	d, stdout, stderr := testDeps(t)
	gw := newStubGateway()
	gw.failOn = 2
	d.Gateway = gw
	code := captureExit(d)
	seedDay(t)
	stdout.Reset()

	runAllocation("2024-03-04")

	assert.Equal(t, 1, *code)
	assert.Contains(t, stdout.String(), "Registered 2h across 1 task")
	assert.Contains(t, stdout.String(), "Stopped at task #2")
	assert.Contains(t, stderr.String(), "Allocation run did not complete")
}

func TestRunAllocation_NoGateway(t *testing.T) {
	d, stdout, stderr := testDeps(t)
	code := captureExit(d)
	seedDay(t)
	stdout.Reset()

	runAllocation("2024-03-04")

	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "No gateway configured")
	assert.Empty(t, stdout.String())
}

func TestShowHistory(t *testing.T) {
	d, stdout, _ := testDeps(t)
	d.Gateway = newStubGateway()
	seedDay(t)
	runAllocation("2024-03-04")
	stdout.Reset()

	showHistory(10)

	assert.Contains(t, stdout.String(), "2024-03-04")
	assert.Contains(t, stdout.String(), "done")
	assert.Contains(t, stdout.String(), "2 tasks, 7h")
}

func TestShowHistory_Empty(t *testing.T) {
	d, stdout, stderr := testDeps(t)

	showHistory(0)
	assert.Equal(t, "No runs recorded\n", stdout.String())

	code := captureExit(d)
	showHistory(-1)
	assert.Equal(t, 1, *code)
	assert.Contains(t, stderr.String(), "Invalid limit -1")
}
