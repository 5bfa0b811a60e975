package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso", "2024-01-15", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{"european", "15/01/2024", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{"leap day", "2024-02-29", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate_Errors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"", "cannot be empty"},
		{"2024", "missing month and day"},
		{"2024-01", "missing day"},
		{"01-15", "missing year"},
		{"15/01", "missing year"},
		{"2024-01-15-01", "too many date parts"},
		{"tomorrow", "invalid date format"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input, time.UTC)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, time.March, 18, 16, 20, 0, 0, time.UTC)

	got, err := ParseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, StartOfDay(now), got)

	got, err = ParseDay("Yesterday", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDay(" 2024-03-01 ", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", DayKey(got))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(at(0, 0, 0), at(23, 59, 59)))
	assert.False(t, SameDay(at(0, 0, 0), at(0, 0, 0).AddDate(0, 0, 1)))
	assert.Equal(t, at(23, 59, 59).Add(999999999), EndOfDay(at(10, 0, 0)))
}
