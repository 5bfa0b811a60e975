// Package allocation distributes a day's hour budget across open tasks in
// half-hour slices.
package allocation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/worklog"
)

// DefaultDayStart is where the first slice of the day begins.
var DefaultDayStart = timeutil.Clock{Hour: 8, Minute: 30}

// exhausted is the remaining budget below which allocation stops.
var exhausted = decimal.New(1, -2)

const slice = 30 * time.Minute

// Allocator assigns half-hour slices to tasks sequentially.
type Allocator struct {
	DayStart timeutil.Clock
	Blackout timeutil.Window
}

// NewAllocator returns an Allocator starting each day at dayStart and
// skipping blackout.
func NewAllocator(dayStart timeutil.Clock, blackout timeutil.Window) *Allocator {
	return &Allocator{DayStart: dayStart, Blackout: blackout}
}

// Allocate spends availableHours minus alreadyRegistered on tasks, in order,
// starting at the configured day start on date. A budget under half an hour
// yields no allocations.
func (a *Allocator) Allocate(date time.Time, availableHours decimal.Decimal, tasks []worklog.OpenTask, alreadyRegistered decimal.Decimal) []worklog.TaskAllocation {
	budget := availableHours.Sub(alreadyRegistered)
	return a.AllocateFrom(a.DayStart.On(date), budget, tasks)
}

// AllocateFrom runs the allocation with an explicit starting cursor and budget.
//
// Each task gets slices until its remaining hours are covered or the budget
// drops under half an hour. A cursor sitting exactly on the blackout start
// jumps to the blackout end without spending budget; a cursor that lands
// inside the window at any other instant is not moved. Every visited task
// produces an allocation, including zero-hour ones once the budget is spent
// but not yet exhausted.
func (a *Allocator) AllocateFrom(start time.Time, budget decimal.Decimal, tasks []worklog.OpenTask) []worklog.TaskAllocation {
	allocations := []worklog.TaskAllocation{}
	if budget.LessThan(worklog.HalfHour) {
		return allocations
	}

	cursor := start
	for _, task := range tasks {
		allocated := decimal.Zero
		begin := cursor

		for allocated.LessThan(task.RemainingHours) && budget.GreaterThanOrEqual(worklog.HalfHour) {
			if a.Blackout.StartsAt(cursor) {
				cursor = cursor.Add(a.Blackout.Length())
				continue
			}

			allocated = allocated.Add(worklog.HalfHour)
			budget = budget.Sub(worklog.HalfHour)
			cursor = cursor.Add(slice)

			if budget.LessThan(exhausted) {
				break
			}
		}

		allocations = append(allocations, worklog.TaskAllocation{
			TaskID:        task.ID,
			StartTime:     begin,
			EndTime:       cursor,
			HoursConsumed: allocated,
		})

		if budget.LessThan(exhausted) {
			break
		}
	}

	return allocations
}
