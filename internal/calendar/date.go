// Package calendar provides calendar dates, month grids, preset ranges and
// the sources presets are loaded from.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day with no time component.
// Month is zero based (0 = January, 11 = December).
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate returns the date for the given year, zero based month and day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m) - 1, Day: d}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns local midnight of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month+1), d.Day, 0, 0, 0, 0, time.Local)
}

// Normalize resolves out of range month and day values the way calendar
// arithmetic does, e.g. day 0 is the last day of the previous month.
func (d Date) Normalize() Date {
	return FromTime(time.Date(d.Year, time.Month(d.Month+1), d.Day, 12, 0, 0, 0, time.UTC))
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Year: d.Year, Month: d.Month, Day: d.Day + n}.Normalize()
}

// Weekday returns the day of the week, 0 = Sunday.
func (d Date) Weekday() int {
	return int(time.Date(d.Year, time.Month(d.Month+1), d.Day, 12, 0, 0, 0, time.UTC).Weekday())
}

// Compare returns -1, 0 or +1 depending on whether a is before, equal to
// or after b.
func Compare(a, b Date) int {
	switch {
	case a.Year != b.Year:
		return cmpInt(a.Year, b.Year)
	case a.Month != b.Month:
		return cmpInt(a.Month, b.Month)
	default:
		return cmpInt(a.Day, b.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether d is chronologically before other.
func (d Date) Before(other Date) bool {
	return Compare(d, other) < 0
}

// After reports whether d is chronologically after other.
func (d Date) After(other Date) bool {
	return Compare(d, other) > 0
}

// Between reports whether d lies strictly between a and b, in either order.
func (d Date) Between(a, b Date) bool {
	if b.Before(a) {
		a, b = b, a
	}
	return d.After(a) && d.Before(b)
}

// String returns the date as YYYY-MM-DD with a one based month.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month+1, d.Day)
}

// ParseKey parses a date in the YYYY-MM-DD form produced by String.
// Month and day are range checked against the calendar.
func ParseKey(key string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", key)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", key, err)
		}
		n[i] = v
	}
	year, month, day := n[0], n[1]-1, n[2]
	if month < 0 || month > 11 {
		return Date{}, fmt.Errorf("invalid month in %q", key)
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("invalid day in %q", key)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}
