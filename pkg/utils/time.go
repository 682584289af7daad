package utils

import "time"

// Record timestamps are persisted as RFC3339 strings, the format shared
// with the backup artifact wire shape.

// NowRFC3339 returns the current time in the persisted timestamp format
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// ParseRFC3339 parses a persisted timestamp string
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
