package selection

import "github.com/cpuguy83/calrange/internal/calendar"

// Ordering distinguishes the two boundary dates of a selection.
type Ordering int

const (
	Lower Ordering = iota
	Higher
)

func (o Ordering) String() string {
	if o == Higher {
		return "higher"
	}
	return "lower"
}

// Kind is the selection status of a single day.
type Kind int

const (
	None Kind = iota
	Boundary
	InRange
)

func (k Kind) String() string {
	switch k {
	case Boundary:
		return "boundary"
	case InRange:
		return "in-range"
	default:
		return "none"
	}
}

// Class is the classification of a day. Ordering is only meaningful for
// Boundary.
type Class struct {
	Kind     Kind
	Ordering Ordering
}

// Selector tracks a single range selection. The zero value is an empty
// selection. It is not safe for concurrent use.
type Selector struct {
	sel Selection
}

// New returns a selector with nothing selected.
func New() *Selector {
	return &Selector{sel: Empty{}}
}

// Selection returns the current selection.
func (s *Selector) Selection() Selection {
	if s.sel == nil {
		return Empty{}
	}
	return s.sel
}

// State returns the phase of the current selection.
func (s *Selector) State() State {
	return s.Selection().State()
}

// Click records a click on d. When the click completes a range, the range is
// returned in chronological order along with true; otherwise false.
func (s *Selector) Click(d calendar.Date) (calendar.Range, bool) {
	switch sel := s.sel.(type) {
	case StartOnly:
		c := Complete{Start: sel.Start, End: d}
		s.sel = c
		return c.Range(), true
	default:
		// Empty and Complete both begin a fresh range.
		s.sel = StartOnly{Start: d}
		return calendar.Range{}, false
	}
}

// Hover records the date under the pointer. It only has an effect while the
// second date is being picked.
func (s *Selector) Hover(d calendar.Date) {
	if sel, ok := s.sel.(StartOnly); ok {
		sel.Hover = d
		sel.Hovering = true
		s.sel = sel
	}
}

// Set completes the selection with r directly.
func (s *Selector) Set(r calendar.Range) {
	s.sel = Complete{Start: r.Start, End: r.End}
}

// Reset clears the selection.
func (s *Selector) Reset() {
	s.sel = Empty{}
}

// Start returns the first clicked date, if any.
func (s *Selector) Start() (calendar.Date, bool) {
	switch sel := s.sel.(type) {
	case StartOnly:
		return sel.Start, true
	case Complete:
		return sel.Start, true
	}
	return calendar.Date{}, false
}

// End returns the second clicked date, if any.
func (s *Selector) End() (calendar.Date, bool) {
	if sel, ok := s.sel.(Complete); ok {
		return sel.End, true
	}
	return calendar.Date{}, false
}

// Hovered returns the preview date, if any.
func (s *Selector) Hovered() (calendar.Date, bool) {
	if sel, ok := s.sel.(StartOnly); ok && sel.Hovering {
		return sel.Hover, true
	}
	return calendar.Date{}, false
}

// Range returns the completed range in chronological order.
func (s *Selector) Range() (calendar.Range, bool) {
	if sel, ok := s.sel.(Complete); ok {
		return sel.Range(), true
	}
	return calendar.Range{}, false
}

// IsBoundary reports whether d is one of the selected dates.
func (s *Selector) IsBoundary(d calendar.Date) bool {
	if start, ok := s.Start(); ok && start == d {
		return true
	}
	if end, ok := s.End(); ok && end == d {
		return true
	}
	return false
}

// Ordering reports Higher if d is strictly after the first clicked date and
// Lower otherwise.
func (s *Selector) Ordering(d calendar.Date) Ordering {
	if start, ok := s.Start(); ok && d.After(start) {
		return Higher
	}
	return Lower
}

// IsInRange reports whether d lies strictly between the selected dates, or
// between the first date and the hovered date while picking the second.
func (s *Selector) IsInRange(d calendar.Date) bool {
	switch sel := s.sel.(type) {
	case Complete:
		return d.Between(sel.Start, sel.End)
	case StartOnly:
		return sel.Hovering && d.Between(sel.Start, sel.Hover)
	}
	return false
}

// Classify returns the classification of d. Boundaries take precedence over
// range membership.
func (s *Selector) Classify(d calendar.Date) Class {
	switch {
	case s.IsBoundary(d):
		return Class{Kind: Boundary, Ordering: s.Ordering(d)}
	case s.IsInRange(d):
		return Class{Kind: InRange}
	}
	return Class{Kind: None}
}
