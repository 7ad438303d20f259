package domain

import "time"

// NextExpiry returns the expiry for a grant made at now: the same day of the
// next calendar month, clamped to that month's last day. Approving on
// January 31st yields February 29th in a leap year, not March 2nd, which is
// what naive date normalization would produce.
func NextExpiry(now time.Time) time.Time {
	year, month, day := now.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	hour, min, sec := now.Clock()
	return time.Date(year, month, day, hour, min, sec, now.Nanosecond(), now.Location())
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
