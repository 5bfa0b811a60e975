// Package workhours turns a day's punch records into a net work-hour figure.
package workhours

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/worklog"
)

// Calculator computes daily work hours excluding a blackout window.
type Calculator struct {
	Blackout timeutil.Window
}

// NewCalculator returns a Calculator for the given blackout window.
func NewCalculator(blackout timeutil.Window) *Calculator {
	return &Calculator{Blackout: blackout}
}

// ComputeDailyHours returns the hours between the rounded-up sign-in and the
// rounded-down sign-out, minus their overlap with the blackout window.
// A missing sign-in or sign-out yields zero. A sign-out earlier than the
// sign-in is not rejected and produces a non-positive figure.
func (c *Calculator) ComputeDailyHours(signIn, signOut *time.Time) decimal.Decimal {
	if signIn == nil || signOut == nil {
		return decimal.Zero
	}

	in := timeutil.Round(*signIn, timeutil.Up)
	out := timeutil.Round(*signOut, timeutil.Down)

	raw := hoursBetween(in, out)

	blackStart, blackEnd := c.Blackout.On(in)
	overlapStart := latest(in, blackStart)
	overlapEnd := earliest(out, blackEnd)

	overlap := decimal.Zero
	if overlapStart.Before(overlapEnd) {
		overlap = hoursBetween(overlapStart, overlapEnd)
	}

	return raw.Sub(overlap)
}

// Daily wraps ComputeDailyHours into a DailyWorkHours for day.
func (c *Calculator) Daily(day time.Time, signIn, signOut *time.Time) worklog.DailyWorkHours {
	return worklog.DailyWorkHours{
		Date:  timeutil.StartOfDay(day),
		Hours: c.ComputeDailyHours(signIn, signOut),
	}
}

// hoursBetween is exact for minute-aligned inputs.
func hoursBetween(from, to time.Time) decimal.Decimal {
	minutes := int64(to.Sub(from) / time.Minute)
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
