package util

import "time"

var loc = time.FixedZone("America/Los_Angeles", -8*3600)

func SetLocation(l *time.Location) {
	loc = l
}

func Location() *time.Location {
	return loc
}

func Now() time.Time {
	return time.Now().In(loc)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CalendarDaysBetween counts local midnights crossed going from a to b.
// Negative when b is before a. The local dates are compared as UTC
// midnights so DST shifts never leave a partial day.
func CalendarDaysBetween(a, b time.Time) int {
	return int(utcDate(b).Sub(utcDate(a)) / (24 * time.Hour))
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
