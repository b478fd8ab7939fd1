// Package slots maps submissions onto spreadsheet coordinates. Everything in
// here is pure: callers capture "now" once and pass it in.
package slots

import "time"

// DaysPerWeek is the number of day slots in a reporting week.
const DaysPerWeek = 7

// DayNames are the day labels, indexed by DayIndex. Day 0 starts the
// reporting week at Sunday 00:00 UTC.
var DayNames = [DaysPerWeek]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DayIndex returns the reporting-week day of t in [0,6].
func DayIndex(t time.Time) int {
	return int(t.UTC().Weekday())
}

// DayLabel returns the name of day, or "" when day is out of range.
func DayLabel(day int) string {
	if !ValidDay(day) {
		return ""
	}
	return DayNames[day]
}

// ValidDay reports whether day is a valid day index.
func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}

// WeekStart returns Sunday 00:00 UTC of the reporting week containing t.
func WeekStart(t time.Time) time.Time {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -int(u.Weekday()))
}

// NextReset returns the first weekly reset strictly after t.
func NextReset(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, DaysPerWeek)
}

// DateOfDay returns midnight UTC of the given day within t's reporting week.
func DateOfDay(t time.Time, day int) time.Time {
	return WeekStart(t).AddDate(0, 0, day)
}
