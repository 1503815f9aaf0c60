// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

var monthAbbreviations = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// FirstOfMonth truncates t to midnight on the first day of its month, keeping
// t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthAbbrev returns the three-letter English abbreviation of a month, e.g. "Mar".
func MonthAbbrev(month time.Month) string {
	return month.String()[:3]
}

// MonthFromAbbrev looks up a three-letter English month abbreviation. The
// lookup is exact: "mar" and "March" are not recognized.
func MonthFromAbbrev(abbrev string) (time.Month, bool) {
	m, ok := monthAbbreviations[abbrev]
	return m, ok
}

// TwoDigitYear returns the last two digits of a year, zero-padded.
func TwoDigitYear(year int) string {
	return fmt.Sprintf("%02d", year%100)
}

// LongLabel renders the first day of a month the way the result table shows
// it, e.g. "1 March 2024".
func LongLabel(year int, month time.Month) string {
	return fmt.Sprintf("1 %s %d", month.String(), year)
}

// TrimDate removes surrounding whitespace and quotes that form fields and
// shells tend to leave around dates.
func TrimDate(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"'`)
}
