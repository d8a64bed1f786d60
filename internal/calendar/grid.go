package calendar

import "time"

// Cell is a single slot in a month grid. Padding slots before the first
// and after the last day of the month are disabled and have Day == 0.
type Cell struct {
	Day      int
	Disabled bool
}

// Grid is the layout of a month as rows of seven cells, Sunday first.
type Grid struct {
	Year               int
	Month              int
	DaysInMonth        int
	FirstWeekdayOffset int
	Rows               [][7]Cell
}

// DaysInMonth returns the number of days in the zero based month of year.
func DaysInMonth(year, month int) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, time.Month(month+2), 0, 12, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset returns the weekday (0 = Sunday) of the first day of
// the month.
func FirstWeekdayOffset(year, month int) int {
	return int(time.Date(year, time.Month(month+1), 1, 12, 0, 0, 0, time.UTC).Weekday())
}

// ComputeGrid lays out the given month. The month must already be in the
// range 0-11; it is not validated.
func ComputeGrid(year, month int) Grid {
	days := DaysInMonth(year, month)
	offset := FirstWeekdayOffset(year, month)
	nrows := (days + offset + 6) / 7

	g := Grid{
		Year:               year,
		Month:              month,
		DaysInMonth:        days,
		FirstWeekdayOffset: offset,
		Rows:               make([][7]Cell, nrows),
	}
	for r := range nrows {
		for c := range 7 {
			day := r*7 + c - offset + 1
			if day < 1 || day > days {
				g.Rows[r][c] = Cell{Disabled: true}
				continue
			}
			g.Rows[r][c] = Cell{Day: day}
		}
	}
	return g
}

// Date returns the date of a cell in the grid, false for padding cells.
func (g Grid) Date(c Cell) (Date, bool) {
	if c.Disabled || c.Day < 1 || c.Day > g.DaysInMonth {
		return Date{}, false
	}
	return Date{Year: g.Year, Month: g.Month, Day: c.Day}, true
}

// IsWeekend reports whether a grid column is Sunday or Saturday.
func IsWeekend(column int) bool {
	return column == 0 || column == 6
}
