package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/worklog"
)

type fakeGateway struct {
	calls  []CompletionRequest
	failOn int64
	status worklog.TaskStatus
}

func (g *fakeGateway) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	g.calls = append(g.calls, req)
	if req.TaskID == g.failOn {
		return CompletionResponse{}, errors.New("503 service unavailable")
	}
	return CompletionResponse{
		CumulativeConsumed: req.HoursConsumed.Add(decimal.NewFromInt(1)),
		Status:             g.status,
	}, nil
}

type fakeLedger struct {
	applied []worklog.ReconciliationResult
	err     error
}

func (l *fakeLedger) ApplyReconciliation(_ context.Context, _ string, _ worklog.TaskAllocation, result worklog.ReconciliationResult) error {
	if l.err != nil {
		return l.err
	}
	l.applied = append(l.applied, result)
	return nil
}

type fakeNotifier struct {
	sent []notify.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func allocations() []worklog.TaskAllocation {
	start := time.Date(2024, time.March, 18, 8, 30, 0, 0, time.UTC)
	return []worklog.TaskAllocation{
		{TaskID: 1, StartTime: start, EndTime: start.Add(2 * time.Hour), HoursConsumed: decimal.NewFromInt(2)},
		{TaskID: 2, StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour), HoursConsumed: decimal.NewFromInt(1)},
		{TaskID: 3, StartTime: start.Add(3 * time.Hour), EndTime: start.Add(4 * time.Hour), HoursConsumed: decimal.NewFromInt(1)},
	}
}

func TestReconcile_AllSucceed(t *testing.T) {
	gw := &fakeGateway{status: worklog.StatusDoing}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	r := New(gw, ledger, notifier, "", zerolog.Nop())

	report, err := r.Reconcile(context.Background(), "run-1", allocations())

	require.NoError(t, err)
	assert.Equal(t, 3, report.TasksProcessed)
	assert.True(t, report.HoursRegistered.Equal(decimal.NewFromInt(4)))
	assert.False(t, report.Aborted)
	require.Len(t, ledger.applied, 3)
	assert.True(t, ledger.applied[0].CumulativeConsumed.Equal(decimal.NewFromInt(3)))
	assert.True(t, ledger.applied[0].RegisteredHoursDelta.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, worklog.StatusDoing, ledger.applied[0].NewStatus)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.KindSummary, notifier.sent[0].Kind)
	assert.Equal(t, 3, notifier.sent[0].TasksProcessed)

	assert.Contains(t, gw.calls[0].Comment, DefaultComment)
	assert.Contains(t, gw.calls[0].Comment, "run-1")
}

func TestReconcile_StopsOnGatewayFailure(t *testing.T) {
	gw := &fakeGateway{failOn: 2, status: worklog.StatusDone}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	r := New(gw, ledger, notifier, "daily sync", zerolog.Nop())

	report, err := r.Reconcile(context.Background(), "run-2", allocations())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, 1, report.TasksProcessed)
	assert.True(t, report.HoursRegistered.Equal(decimal.NewFromInt(2)))
	assert.True(t, report.Aborted)
	assert.Equal(t, int64(2), report.FailedTaskID)

	// third allocation never sent
	require.Len(t, gw.calls, 2)
	assert.Equal(t, int64(2), gw.calls[1].TaskID)
	assert.Len(t, ledger.applied, 1)

	// the successful task is still summarized
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, notifier.sent[0].TasksProcessed)
	assert.Contains(t, gw.calls[0].Comment, "daily sync")
}

func TestReconcile_FirstFailureSendsNoSummary(t *testing.T) {
	gw := &fakeGateway{failOn: 1}
	notifier := &fakeNotifier{}
	r := New(gw, &fakeLedger{}, notifier, "", zerolog.Nop())

	report, err := r.Reconcile(context.Background(), "run-3", allocations())

	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, 0, report.TasksProcessed)
	assert.True(t, report.HoursRegistered.IsZero())
	assert.Empty(t, notifier.sent)
}

func TestReconcile_LedgerFailureStops(t *testing.T) {
	gw := &fakeGateway{status: worklog.StatusDoing}
	r := New(gw, &fakeLedger{err: errors.New("disk full")}, &fakeNotifier{}, "", zerolog.Nop())

	report, err := r.Reconcile(context.Background(), "run-4", allocations())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, report.TasksProcessed)
	assert.Len(t, gw.calls, 1)
}

func TestReconcile_NoAllocations(t *testing.T) {
	notifier := &fakeNotifier{}
	r := New(&fakeGateway{}, &fakeLedger{}, notifier, "", zerolog.Nop())

	report, err := r.Reconcile(context.Background(), "run-5", nil)

	require.NoError(t, err)
	assert.Zero(t, report.TasksProcessed)
	assert.Empty(t, notifier.sent)
}
