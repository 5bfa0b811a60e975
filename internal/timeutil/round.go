package timeutil

import "time"

// Direction selects how Round snaps to a half-hour boundary.
type Direction int

const (
	Up Direction = iota
	Down
	Nearest
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Nearest:
		return "nearest"
	}
	return "unknown"
}

// Round quantizes t to a 30-minute boundary in direction d.
// Seconds and sub-second components are always discarded, so rounding an
// already rounded value is a no-op.
func Round(t time.Time, d Direction) time.Time {
	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	m := t.Minute()

	switch d {
	case Up:
		switch {
		case m == 0 || m == 30:
			return hour.Add(time.Duration(m) * time.Minute)
		case m < 30:
			return hour.Add(30 * time.Minute)
		default:
			return hour.Add(time.Hour)
		}
	case Down:
		if m < 30 {
			return hour
		}
		return hour.Add(30 * time.Minute)
	default:
		switch {
		case m < 15:
			return hour
		case m < 45:
			return hour.Add(30 * time.Minute)
		default:
			return hour.Add(time.Hour)
		}
	}
}
