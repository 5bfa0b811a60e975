package worklog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2h", "2"},
		{"30m", "0.5"},
		{"90m", "1.5"},
		{"1h30m", "1.5"},
		{"2.5", "2.5"},
		{"0.5h", "0.5"},
		{" 4H ", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHours(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseHours_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "0h", "0", "45m", "1.2", "1h10m", "1000h", "-2h"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseHours(input)
			assert.ErrorIs(t, err, ErrInvalidHours)
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Doing ")
	require.NoError(t, err)
	assert.Equal(t, StatusDoing, st)
	assert.True(t, st.Open())
	assert.False(t, StatusDone.Open())

	_, err = ParseStatus("finished")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseClockKind(t *testing.T) {
	k, err := ParseClockKind("in")
	require.NoError(t, err)
	assert.Equal(t, SignIn, k)

	k, err = ParseClockKind("OUT")
	require.NoError(t, err)
	assert.Equal(t, SignOut, k)

	_, err = ParseClockKind("lunch")
	assert.Error(t, err)
}

func TestTaskRemaining(t *testing.T) {
	task := Task{EstimateHours: decimal.NewFromInt(4), ConsumedHours: decimal.RequireFromString("1.5")}
	assert.True(t, task.Remaining().Equal(decimal.RequireFromString("2.5")))

	task.ConsumedHours = decimal.NewFromInt(6)
	assert.True(t, task.Remaining().IsZero())
}

func TestSumHours(t *testing.T) {
	allocs := []TaskAllocation{
		{HoursConsumed: decimal.NewFromInt(2)},
		{HoursConsumed: HalfHour},
		{HoursConsumed: decimal.Zero},
	}
	assert.True(t, SumHours(allocs).Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "7.5h", FormatHours(decimal.RequireFromString("7.50")))
}
