package utils

import (
	"time"
)

// EntryDateLayout is the calendar-date format of journal entry dates
const EntryDateLayout = "2006-01-02"

var newYorkLoc *time.Location

func init() {
	var err error
	newYorkLoc, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC if timezone data is missing
		// In production docker, ensure tzdata is installed
		newYorkLoc = time.UTC
	}
}

// EntryDate truncates t to its UTC calendar date
func EntryDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatEntryDate renders a journal entry date
func FormatEntryDate(t time.Time) string {
	return t.UTC().Format(EntryDateLayout)
}

// ParseEntryDate parses a journal entry date
func ParseEntryDate(s string) (time.Time, error) {
	return time.ParseInLocation(EntryDateLayout, s, time.UTC)
}

// IsForexOpen reports whether the spot FX market trades at t. The week runs
// from Sunday 17:00 to Friday 17:00 New York time.
func IsForexOpen(t time.Time) bool {
	ny := t.In(newYorkLoc)
	switch ny.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return ny.Hour() >= 17
	case time.Friday:
		return ny.Hour() < 17
	}
	return true
}

// GetLocation returns the New York *time.Location
func GetLocation() *time.Location {
	return newYorkLoc
}
