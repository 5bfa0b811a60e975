package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xolan/worktime/internal/worklog"
)

// Order is the policy that decides which open task receives time first.
type Order string

const (
	// OrderInsertion keeps the order in which tasks were added to the ledger.
	OrderInsertion Order = "insertion"
	// OrderOldestFirst sorts by task creation time, then by insertion order.
	OrderOldestFirst Order = "oldest_first"
)

// ParseOrder validates an ordering policy name. Empty means OrderInsertion.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderInsertion:
		return OrderInsertion, nil
	case OrderOldestFirst:
		return OrderOldestFirst, nil
	}
	return "", fmt.Errorf("invalid task order %q (expected insertion or oldest_first)", s)
}

// SortTasks returns a copy of tasks arranged according to order.
// Input order is treated as insertion order and is used as the tie-break.
func SortTasks(tasks []worklog.OpenTask, order Order) []worklog.OpenTask {
	sorted := make([]worklog.OpenTask, len(tasks))
	copy(sorted, tasks)

	if order == OrderOldestFirst {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})
	}
	return sorted
}
