package picker

import (
	"fmt"
	"strings"
)

// YearKind selects where the year picker window sits relative to the
// current year.
type YearKind int

const (
	// Middle centres the window on the current year.
	Middle YearKind = iota
	// Future starts the window at the current year.
	Future
	// Past ends the window just before the current year.
	Past
)

func (k YearKind) String() string {
	switch k {
	case Future:
		return "future"
	case Past:
		return "past"
	default:
		return "middle"
	}
}

// ParseYearKind parses "middle", "future" or "past". An empty string is
// Middle.
func ParseYearKind(s string) (YearKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "middle":
		return Middle, nil
	case "future":
		return Future, nil
	case "past":
		return Past, nil
	}
	return Middle, fmt.Errorf("unknown year kind %q", s)
}

// DefaultYearRange is the number of years offered when none is configured.
const DefaultYearRange = 20

// YearPolicy describes the years offered by the year panel.
type YearPolicy struct {
	Kind  YearKind
	Range int
}

// Years returns Range contiguous years positioned around current.
func (p YearPolicy) Years(current int) []int {
	n := p.Range
	if n <= 0 {
		n = DefaultYearRange
	}

	var first int
	switch p.Kind {
	case Future:
		first = current
	case Past:
		first = current - n
	default:
		// Halves round up.
		first = current - (n+1)/2
	}

	years := make([]int, n)
	for i := range years {
		years[i] = first + i
	}
	return years
}
