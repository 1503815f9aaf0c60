// Package cpi defines the month, observation, rate and source types shared by
// every statistics source and by the calculator that sequences them.
package cpi

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/datetime"
)

// MonthKey identifies the first day of one calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey validates and builds a MonthKey.
func NewMonthKey(year int, month time.Month) (MonthKey, error) {
	k := MonthKey{Year: year, Month: month}
	if !k.Valid() {
		return MonthKey{}, fmt.Errorf("invalid month %04d-%02d", year, int(month))
	}
	return k, nil
}

// Normalize truncates a picked date to the month containing it. A nil date
// means "unset" and yields nil.
func Normalize(t *time.Time) *MonthKey {
	if t == nil {
		return nil
	}
	first := datetime.FirstOfMonth(*t)
	return &MonthKey{Year: first.Year(), Month: first.Month()}
}

// ParseMonthKey accepts YYYY-MM, YYYY-MM-DD and RFC 3339 timestamps. An empty
// value means "unset" and yields nil without error.
func ParseMonthKey(value string) (*MonthKey, error) {
	trimmed := datetime.TrimDate(value)
	if trimmed == "" {
		return nil, nil
	}

	var key *MonthKey
	if t, err := time.Parse(constants.MonthLayout, trimmed); err == nil {
		key = Normalize(&t)
	} else if d, err := civil.ParseDate(trimmed); err == nil {
		key = &MonthKey{Year: d.Year, Month: d.Month}
	} else if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		key = Normalize(&t)
	} else {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM or YYYY-MM-DD", value)
	}

	if !key.Valid() {
		return nil, fmt.Errorf("invalid date %q: year must have four digits", value)
	}
	return key, nil
}

// Valid reports whether the month is in [1,12] and the year has four digits.
func (k MonthKey) Valid() bool {
	return k.Month >= time.January && k.Month <= time.December &&
		k.Year >= constants.MinYear && k.Year <= constants.MaxYear
}

// Time returns midnight UTC on the first day of the month.
func (k MonthKey) Time() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the month as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Label renders the month for display, e.g. "1 March 2024".
func (k MonthKey) Label() string {
	return datetime.LongLabel(k.Year, k.Month)
}

// Abbrev returns the three-letter month abbreviation, e.g. "Mar".
func (k MonthKey) Abbrev() string {
	return datetime.MonthAbbrev(k.Month)
}

// Compare returns -1, 0 or +1 depending on whether k is before, equal to or
// after other.
func (k MonthKey) Compare(other MonthKey) int {
	switch {
	case k.Year < other.Year:
		return -1
	case k.Year > other.Year:
		return 1
	case k.Month < other.Month:
		return -1
	case k.Month > other.Month:
		return 1
	}
	return 0
}

// Before reports whether k is strictly before other.
func (k MonthKey) Before(other MonthKey) bool { return k.Compare(other) < 0 }

// After reports whether k is strictly after other.
func (k MonthKey) After(other MonthKey) bool { return k.Compare(other) > 0 }

// MarshalText implements encoding.TextMarshaler.
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MonthKey) UnmarshalText(text []byte) error {
	parsed, err := ParseMonthKey(string(text))
	if err != nil {
		return err
	}
	if parsed == nil {
		return fmt.Errorf("empty month")
	}
	*k = *parsed
	return nil
}
