package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 8, Minute: 30}, c)
	assert.Equal(t, "08:30", c.String())

	for _, bad := range []string{"", "8h30", "25:00", "12:60", "noon"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestWindow(t *testing.T) {
	day := time.Date(2024, time.March, 18, 15, 4, 5, 0, time.UTC)
	start, end := LunchBreak.On(day)

	assert.Equal(t, at(12, 0, 0), start)
	assert.Equal(t, at(13, 0, 0), end)
	assert.Equal(t, time.Hour, LunchBreak.Length())
	assert.True(t, LunchBreak.Valid())
	assert.False(t, Window{Start: Clock{Hour: 13}, End: Clock{Hour: 12}}.Valid())
	assert.Equal(t, "12:00-13:00", LunchBreak.String())
}

func TestWindow_StartsAt(t *testing.T) {
	assert.True(t, LunchBreak.StartsAt(at(12, 0, 0)))
	assert.False(t, LunchBreak.StartsAt(at(12, 30, 0)))
	assert.False(t, LunchBreak.StartsAt(at(12, 0, 1)))
	assert.False(t, LunchBreak.StartsAt(at(11, 0, 0)))
}
