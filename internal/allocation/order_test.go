package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/worktime/internal/worklog"
)

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderInsertion, o)

	o, err = ParseOrder("Oldest_First")
	require.NoError(t, err)
	assert.Equal(t, OrderOldestFirst, o)

	_, err = ParseOrder("priority")
	assert.Error(t, err)
}

func TestSortTasks(t *testing.T) {
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	tasks := []worklog.OpenTask{
		{ID: 3, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base},
	}

	ids := func(ts []worklog.OpenTask) []int64 {
		var out []int64
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []int64{3, 1, 2}, ids(SortTasks(tasks, OrderInsertion)))
	assert.Equal(t, []int64{1, 2, 3}, ids(SortTasks(tasks, OrderOldestFirst)))
	assert.Equal(t, int64(3), tasks[0].ID, "input must not be reordered")
}
