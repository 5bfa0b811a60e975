package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/storage"
	"github.com/xolan/worktime/internal/worklog"
)

var testDay = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []reconcile.CompletionRequest
	consumed map[int64]decimal.Decimal
	failOn   int64

	entered chan struct{}
	release chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{consumed: map[int64]decimal.Decimal{}}
}

func (g *fakeGateway) Complete(_ context.Context, req reconcile.CompletionRequest) (reconcile.CompletionResponse, error) {
	if g.release != nil {
		select {
		case g.entered <- struct{}{}:
		default:
		}
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, req)
	if req.TaskID == g.failOn {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: task %d rejected", reconcile.ErrGateway, req.TaskID)
	}
	g.consumed[req.TaskID] = g.consumed[req.TaskID].Add(req.HoursConsumed)
	return reconcile.CompletionResponse{CumulativeConsumed: g.consumed[req.TaskID], Status: worklog.StatusDoing}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []notify.Kind
	for _, m := range n.sent {
		kinds = append(kinds, m.Kind)
	}
	return kinds
}

func newTestServices(t *testing.T, gw reconcile.Gateway) (*Services, *recordingNotifier) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.DataDir = dir

	notifier := &recordingNotifier{}
	svcs, err := NewServices(filepath.Join(dir, config.ConfigFile), cfg, zerolog.Nop(), Options{
		Gateway:  gw,
		Notifier: notifier,
		Now:      func() time.Time { return at(18, 30) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	return svcs, notifier
}

func punchDay(t *testing.T, svcs *Services, in, out time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := svcs.Attendance.Punch(ctx, worklog.SignIn, in)
	require.NoError(t, err)
	_, err = svcs.Attendance.Punch(ctx, worklog.SignOut, out)
	require.NoError(t, err)
}

func addTasks(t *testing.T, svcs *Services, estimates ...string) {
	t.Helper()
	for i, e := range estimates {
		_, err := svcs.Tasks.Add(context.Background(), AddTaskInput{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("task %d", i+1),
			Estimate: e,
			Day:      testDay,
		})
		require.NoError(t, err)
	}
}

func TestHoursService_Daily(t *testing.T) {
	svcs, _ := newTestServices(t, nil)
	punchDay(t, svcs, at(8, 47), at(17, 12))

	daily, err := svcs.Hours.Daily(context.Background(), at(10, 0))
	require.NoError(t, err)
	assert.True(t, daily.Date.Equal(testDay))
	assert.True(t, daily.Hours.Equal(dec("7")), "got %s", daily.Hours)

	missing, err := svcs.Hours.Daily(context.Background(), testDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, missing.Hours.IsZero())
}

func TestPlan_DoesNotReport(t *testing.T) {
	gw := newFakeGateway()
	svcs, _ := newTestServices(t, gw)
	punchDay(t, svcs, at(8, 47), at(17, 12))
	addTasks(t, svcs, "2h", "5h")

	plan, err := svcs.Allocation.Plan(context.Background(), testDay)
	require.NoError(t, err)

	assert.True(t, plan.AvailableHours.Equal(dec("7")))
	assert.True(t, plan.Budget.Equal(dec("7")))
	require.Len(t, plan.Allocations, 2)
	assert.True(t, plan.Allocations[0].EndTime.Equal(at(10, 30)))
	assert.True(t, plan.Allocations[1].StartTime.Equal(at(10, 30)))
	assert.True(t, plan.Allocations[1].EndTime.Equal(at(16, 30)), "blackout hour is skipped")
	assert.True(t, plan.Allocated().Equal(dec("7")))
	assert.Zero(t, gw.callCount())
}

func TestRunDailyAllocation_Success(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	svcs, notifier := newTestServices(t, gw)
	punchDay(t, svcs, at(8, 47), at(17, 12))
	addTasks(t, svcs, "2h", "5h")

	result, err := svcs.Allocation.RunDailyAllocation(ctx, testDay)
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "2024-03-04", result.Day)
	assert.Equal(t, 2, result.TasksProcessed)
	assert.True(t, result.HoursRegistered.Equal(dec("7")))
	assert.Equal(t, 2, gw.callCount())
	assert.Equal(t, []notify.Kind{notify.KindSummary}, notifier.kinds())

	task, err := svcs.Tasks.store.Task(ctx, 2)
	require.NoError(t, err)
	assert.True(t, task.ConsumedHours.Equal(dec("5")))
	assert.True(t, task.RegisteredHours.Equal(dec("5")))
	assert.Equal(t, worklog.StatusDoing, task.Status)

	backups, err := svcs.History.Backups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	history, err := svcs.History.Runs(0)
	require.NoError(t, err)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, storage.OutcomeDone, history.Runs[0].Outcome)
	assert.Equal(t, result.RunID, history.Runs[0].RunID)

	// A second run finds the budget spent and reports nothing.
	again, err := svcs.Allocation.RunDailyAllocation(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, StateDone, again.State)
	assert.Zero(t, again.TasksProcessed)
	assert.Empty(t, again.Plan.Allocations)
	assert.Equal(t, 2, gw.callCount())
}

// cancellingGateway cancels the caller's context once the first
// completion has been accepted.
type cancellingGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (g *cancellingGateway) Complete(ctx context.Context, req reconcile.CompletionRequest) (reconcile.CompletionResponse, error) {
	resp, err := g.fakeGateway.Complete(ctx, req)
	if err == nil {
		g.cancel()
	}
	return resp, err
}

func TestRunDailyAllocation_CallerCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw := &cancellingGateway{fakeGateway: newFakeGateway(), cancel: cancel}
	svcs, _ := newTestServices(t, gw)
	punchDay(t, svcs, at(8, 30), at(12, 0))
	addTasks(t, svcs, "2h", "2h")

	result, err := svcs.Allocation.RunDailyAllocation(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.TasksProcessed)
	assert.Equal(t, 2, gw.callCount())

	first, err := svcs.Tasks.store.Task(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, first.RegisteredHours.Equal(dec("2")), "got %s", first.RegisteredHours)
	assert.True(t, first.ConsumedHours.Equal(gw.consumed[1]), "ledger %s, gateway %s", first.ConsumedHours, gw.consumed[1])

	// Nothing is reported twice on the next run.
	_, err = svcs.Allocation.RunDailyAllocation(context.Background(), testDay)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.callCount())
	assert.True(t, gw.consumed[1].Equal(dec("2")))
}

func TestRunDailyAllocation_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.failOn = 2
	svcs, notifier := newTestServices(t, gw)
	punchDay(t, svcs, at(8, 30), at(17, 30))
	addTasks(t, svcs, "1h", "1h", "1h")

	result, err := svcs.Allocation.RunDailyAllocation(ctx, testDay)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrGateway)

	assert.Equal(t, StateAborted, result.State)
	assert.Equal(t, 1, result.TasksProcessed)
	assert.True(t, result.HoursRegistered.Equal(dec("1")))
	assert.Equal(t, int64(2), result.FailedTaskID)
	assert.Equal(t, 2, gw.callCount(), "third allocation is never sent")
	assert.Equal(t, []notify.Kind{notify.KindSummary, notify.KindAlert}, notifier.kinds())

	first, err := svcs.Tasks.store.Task(ctx, 1)
	require.NoError(t, err)
	assert.True(t, first.RegisteredHours.Equal(dec("1")), "earlier updates stay committed")

	third, err := svcs.Tasks.store.Task(ctx, 3)
	require.NoError(t, err)
	assert.True(t, third.RegisteredHours.IsZero())
	assert.Equal(t, worklog.StatusWait, third.Status)

	history, err := svcs.History.Runs(1)
	require.NoError(t, err)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, storage.OutcomeAborted, history.Runs[0].Outcome)
	assert.Equal(t, int64(2), history.Runs[0].FailedTaskID)
	assert.Contains(t, history.Runs[0].Error, "task 2 rejected")
}

func TestRunDailyAllocation_MissingPunch(t *testing.T) {
	gw := newFakeGateway()
	svcs, notifier := newTestServices(t, gw)
	_, err := svcs.Attendance.Punch(context.Background(), worklog.SignIn, at(8, 30))
	require.NoError(t, err)
	addTasks(t, svcs, "2h")

	result, err := svcs.Allocation.RunDailyAllocation(context.Background(), testDay)
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.Plan.AvailableHours.IsZero())
	assert.Empty(t, result.Plan.Allocations)
	assert.Zero(t, gw.callCount())
	assert.Empty(t, notifier.kinds())

	backups, err := svcs.History.Backups()
	require.NoError(t, err)
	assert.Empty(t, backups, "nothing to write, nothing to back up")
}

func TestRunDailyAllocation_ReversedPunches(t *testing.T) {
	gw := newFakeGateway()
	svcs, _ := newTestServices(t, gw)
	punchDay(t, svcs, at(17, 0), at(9, 0))
	addTasks(t, svcs, "2h")

	result, err := svcs.Allocation.RunDailyAllocation(context.Background(), testDay)
	require.NoError(t, err)
	assert.True(t, result.Plan.AvailableHours.IsNegative())
	assert.Empty(t, result.Plan.Allocations)
	assert.Zero(t, gw.callCount())
}

func TestRunDailyAllocation_NoGateway(t *testing.T) {
	svcs, _ := newTestServices(t, nil)

	_, err := svcs.Allocation.RunDailyAllocation(context.Background(), testDay)
	assert.ErrorIs(t, err, ErrNoGateway)
}

func TestRunDailyAllocation_Guard(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.entered = make(chan struct{}, 1)
	gw.release = make(chan struct{})
	svcs, _ := newTestServices(t, gw)
	punchDay(t, svcs, at(8, 30), at(12, 0))
	addTasks(t, svcs, "2h", "2h")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svcs.Allocation.RunDailyAllocation(ctx, testDay)
		}(i)
	}

	<-gw.entered

	// A different day cannot start while this one is reconciling.
	_, err := svcs.Allocation.RunDailyAllocation(ctx, testDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(gw.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// Whether the second caller joined the flight or ran afterwards, each
	// allocation is reported exactly once.
	assert.Equal(t, 2, gw.callCount())

	registered, err := svcs.ledger.RegisteredHours(ctx, testDay)
	require.NoError(t, err)
	assert.True(t, registered.Equal(dec("3.5")), "got %s", registered)
}

func TestServices_LedgerPath(t *testing.T) {
	svcs, _ := newTestServices(t, nil)
	assert.Equal(t, storage.LedgerFile, filepath.Base(svcs.LedgerPath()))
}
