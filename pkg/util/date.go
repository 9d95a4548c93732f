package util

import "time"

// DateLayout matches the default output of date(1) in the C locale.
const DateLayout = "Mon Jan _2 15:04:05 MST 2006"

// DateString returns the current local date as printed by date(1).
func DateString() string {
	return FormatDate(time.Now())
}

// FormatDate formats t the way DateString does.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
