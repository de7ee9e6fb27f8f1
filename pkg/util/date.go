package util

import "time"

// DayKey returns the UTC calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
