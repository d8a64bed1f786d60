// Package selection implements the two-click date range selection state
// machine and the per-day classification used when rendering it.
package selection

import "github.com/cpuguy83/calrange/internal/calendar"

// State names the phase of a selection.
type State int

const (
	StateEmpty State = iota
	StateStartOnly
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateStartOnly:
		return "start-only"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Selection is one of Empty, StartOnly or Complete.
type Selection interface {
	State() State
}

// Empty is a selection with no dates chosen.
type Empty struct{}

// StartOnly is a selection with its first date chosen. Hover is the date
// under the pointer while the second date is being picked.
type StartOnly struct {
	Start    calendar.Date
	Hover    calendar.Date
	Hovering bool
}

// Complete is a selection with both dates chosen, in click order.
type Complete struct {
	Start calendar.Date
	End   calendar.Date
}

func (Empty) State() State     { return StateEmpty }
func (StartOnly) State() State { return StateStartOnly }
func (Complete) State() State  { return StateComplete }

// Range returns the chronologically ordered range of a complete selection.
func (c Complete) Range() calendar.Range {
	return calendar.NewRange(c.Start, c.End)
}
