package worklog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidHours is returned when an hour quantity cannot be used by the ledger.
var ErrInvalidHours = errors.New("invalid hours")

// combinedTimePattern matches combined duration in XhYm format (e.g., "1h30m")
var combinedTimePattern = regexp.MustCompile(`^(\d+)h(\d+)m$`)

// timePattern matches Yh (hours) or Ym (minutes)
var timePattern = regexp.MustCompile(`^(\d+)(h|m)$`)

// decimalHoursPattern matches plain decimal hours with an optional h suffix ("1.5", "2h", "0.5h")
var decimalHoursPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)h?$`)

// MaxTaskHours caps a single estimate.
const MaxTaskHours = 999

// ParseHours parses a task estimate in Xh, Xm, XhYm or decimal-hour form
// and returns it in hours. The result must be positive, at most MaxTaskHours,
// and a multiple of HalfHour.
// Valid inputs: "2h" (2), "30m" (0.5), "1h30m" (1.5), "2.5" (2.5)
func ParseHours(input string) (decimal.Decimal, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	var hours decimal.Decimal
	if m := combinedTimePattern.FindStringSubmatch(input); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		hours = minutesToHours(h*60 + mins)
	} else if m := timePattern.FindStringSubmatch(input); m != nil && m[2] == "m" {
		mins, _ := strconv.Atoi(m[1])
		hours = minutesToHours(mins)
	} else if m := decimalHoursPattern.FindStringSubmatch(input); m != nil {
		hours = decimal.RequireFromString(m[1])
	} else {
		return decimal.Zero, fmt.Errorf("%w: expected Xh, Xm, XhYm or decimal hours, got %q", ErrInvalidHours, input)
	}

	if err := ValidateHours(hours); err != nil {
		return decimal.Zero, err
	}
	return hours, nil
}

// ValidateHours checks the ledger's granularity rules for an estimate.
func ValidateHours(hours decimal.Decimal) error {
	if !hours.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidHours)
	}
	if hours.GreaterThan(decimal.NewFromInt(MaxTaskHours)) {
		return fmt.Errorf("%w: exceeds maximum of %d hours", ErrInvalidHours, MaxTaskHours)
	}
	if !hours.Mod(HalfHour).IsZero() {
		return fmt.Errorf("%w: %s is not a multiple of 0.5h", ErrInvalidHours, hours.String())
	}
	return nil
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}

// FormatHours renders hours the way the CLI and notifications show them, e.g. "7.5h".
func FormatHours(h decimal.Decimal) string {
	return h.Round(2).String() + "h"
}
