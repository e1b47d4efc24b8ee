package db

import (
	"errors"
	"time"
)

// ErrNoRows is returned when a lookup matches no run.
var ErrNoRows = errors.New("no matching run")

// timeLayout is how timestamps are stored; it sorts lexically and works
// with SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05"

var timeFormats = []string{
	timeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
