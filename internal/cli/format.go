// Package cli provides the CLI presentation layer for the worktime application.
// It handles command-line output formatting.
package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/storage"
)

// FormatDuration formats minutes as a human-readable string
// Examples: "30m", "2h", "1h 30m", "-1h"
func FormatDuration(minutes int) string {
	if minutes < 0 {
		return "-" + FormatDuration(-minutes)
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// FormatHours formats decimal hours the same way as FormatDuration.
func FormatHours(h decimal.Decimal) string {
	return FormatDuration(int(h.Mul(decimal.NewFromInt(60)).Round(0).IntPart()))
}

// FormatSpan formats a start/end pair as "08:30-10:30".
func FormatSpan(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDay formats a day for headings.
func FormatDay(day time.Time) string {
	return day.Format("Mon, Jan 2, 2006")
}

// FormatCorruptionWarning formats a ParseWarning into a human-readable string
func FormatCorruptionWarning(warning storage.ParseWarning) string {
	content := warning.Content
	if len(content) > 50 {
		content = content[:47] + "..."
	}
	return fmt.Sprintf("  Line %d: %s (error: %s)", warning.LineNumber, content, warning.Error)
}

// Pluralize returns the singular or plural form of a word based on count
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
