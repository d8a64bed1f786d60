// Package ui provides UI backends for calrange (GTK popup, dmenu-style
// launchers or a terminal rendering).
package ui

import (
	"fmt"
	"slices"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/selection"
)

// UI is the interface for displaying the range picker to the user.
type UI interface {
	// Init initializes the UI. Must be called before other methods.
	Init() error

	// Show displays the picker.
	Show()

	// Hide hides the picker.
	Hide()

	// Toggle shows or hides the picker.
	Toggle()

	// Refresh redraws the picker after its state changed elsewhere
	// (tray scrolling, preset sync, notification actions).
	Refresh()

	// SetStale marks the preset list as potentially stale.
	SetStale(stale bool)
}

// Config holds UI configuration.
type Config struct {
	// Picker is the shared picker the UI renders and drives.
	Picker *picker.Shared

	// HideOnSelect closes the UI once a range is complete.
	HideOnSelect bool
}

// View is a copy of everything needed to render the picker, taken under
// the picker lock so renderers can work without holding it.
type View struct {
	Title     string
	Cursor    picker.Cursor
	Panel     picker.Panel
	PrevLabel string
	NextLabel string
	Weekdays  []string
	Months    []string
	Years     []int
	Presets   []calendar.Preset
	Rows      [][7]picker.Cell
	Today     calendar.Date

	State selection.State
	// Start is the first picked date while State is StateStartOnly.
	Start calendar.Date
	// Range is the selection while State is StateComplete.
	Range calendar.Range
}

// Snapshot copies the render state out of p.
func Snapshot(p *picker.Picker) View {
	prev, next := p.Labels()
	v := View{
		Title:     p.Title(),
		Cursor:    p.Cursor(),
		Panel:     p.Panel(),
		PrevLabel: prev,
		NextLabel: next,
		Weekdays:  slices.Clone(p.Weekdays()),
		Months:    slices.Clone(p.MonthNames()),
		Years:     p.Years(),
		Presets:   slices.Clone(p.Presets()),
		Rows:      p.Cells(),
		Today:     p.Today(),
		State:     p.State(),
	}
	switch sel := p.Selection().(type) {
	case selection.StartOnly:
		v.Start = sel.Start
	case selection.Complete:
		v.Range = sel.Range()
	}
	return v
}

// Status describes the selection in one line.
func (v View) Status() string {
	switch v.State {
	case selection.StateStartOnly:
		return fmt.Sprintf("From %s, pick an end date", v.Start)
	case selection.StateComplete:
		return FormatRange(v.Range)
	default:
		return "Pick a start date"
	}
}

// FormatRange formats a selected range for display.
func FormatRange(r calendar.Range) string {
	if r.Start == r.End {
		return fmt.Sprintf("%s • 1 day", r.Start)
	}
	return fmt.Sprintf("%s – %s • %d days", r.Start, r.End, r.Days())
}

// CellClasses returns the style classes for a cell, used as GTK CSS
// classes and by the text renderers.
func CellClasses(c picker.Cell) []string {
	if c.Blank {
		return []string{"day", "blank"}
	}

	classes := []string{"day"}
	if c.Disabled {
		classes = append(classes, "disabled")
	}
	if c.Weekend {
		classes = append(classes, "weekend")
	}
	if c.Today {
		classes = append(classes, "today")
	}
	switch c.Class.Kind {
	case selection.Boundary:
		if c.Class.Ordering == selection.Higher {
			classes = append(classes, "boundary", "boundary-higher")
		} else {
			classes = append(classes, "boundary", "boundary-lower")
		}
	case selection.InRange:
		classes = append(classes, "in-range")
	}
	return classes
}
