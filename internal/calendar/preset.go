package calendar

import (
	"context"
	"fmt"
	"iter"
)

// Range is an inclusive span of dates with Start never after End.
type Range struct {
	Start Date
	End   Date
}

// NewRange returns the range spanning a and b, whichever comes first.
func NewRange(a, b Date) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Contains reports whether d lies within the range, endpoints included.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of days in the range, endpoints included.
func (r Range) Days() int {
	return int(r.End.Time().Sub(r.Start.Time()).Hours()/24+0.5) + 1
}

// Dates yields every date in the range in order.
func (r Range) Dates() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%s - %s", r.Start, r.End)
}

// Preset is a named range offered as a one-click selection.
type Preset struct {
	// Label is the display text.
	Label string

	// Range is the span the preset selects.
	Range Range

	// Source is the name of the preset source it came from.
	Source string
}

// Source is the interface that preset sources must implement.
type Source interface {
	// Name returns the display name of this source.
	Name() string

	// Fetch retrieves presets from the source.
	Fetch(ctx context.Context) ([]Preset, error)
}
