// Package picker is the date range picker component: it owns the displayed
// month, the active panel, the range selection and the preset list, and
// produces everything a renderer needs to draw them.
package picker

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/selection"
)

// ErrNoPreset is returned when a preset index is out of range.
var ErrNoPreset = errors.New("no such preset")

// Panel is the view the picker is showing.
type Panel int

const (
	Calendar Panel = iota
	SelectMonth
	SelectYear
	CustomRanges
)

func (p Panel) String() string {
	switch p {
	case SelectMonth:
		return "select-month"
	case SelectYear:
		return "select-year"
	case CustomRanges:
		return "custom-ranges"
	default:
		return "calendar"
	}
}

// Cursor is the displayed month. Month is zero based.
type Cursor struct {
	Year  int
	Month int
}

// Default name tables.
var (
	DefaultMonthNames = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	DefaultWeekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

const (
	DefaultPrevLabel = "‹"
	DefaultNextLabel = "›"
)

// Options configures a Picker. Zero fields take their defaults.
type Options struct {
	// MonthNames holds 12 month names, January first.
	MonthNames []string

	// WeekdayNames holds 7 weekday names, Sunday first.
	WeekdayNames []string

	// Years controls the years offered by the year panel.
	Years YearPolicy

	// Presets are the ranges offered by the custom ranges panel.
	Presets []calendar.Preset

	// Bounds optionally limits which dates can be selected.
	Bounds *calendar.Range

	// OnSelected is called once per completed selection with local
	// midnight times, earlier first.
	OnSelected func(start, end time.Time)

	// OnStateChange is called whenever the selection moves between
	// Empty, StartOnly and Complete. Like OnSelected it runs inside
	// Shared.Do when the picker is shared.
	OnStateChange func(selection.State)

	// PrevLabel and NextLabel are the month navigation control labels.
	PrevLabel string
	NextLabel string

	// Today returns the reference day. Defaults to calendar.Today.
	Today func() calendar.Date
}

func (o *Options) applyDefaults() {
	if len(o.MonthNames) != 12 {
		o.MonthNames = DefaultMonthNames
	}
	if len(o.WeekdayNames) != 7 {
		o.WeekdayNames = DefaultWeekdayNames
	}
	if o.Years.Range <= 0 {
		o.Years.Range = DefaultYearRange
	}
	if o.PrevLabel == "" {
		o.PrevLabel = DefaultPrevLabel
	}
	if o.NextLabel == "" {
		o.NextLabel = DefaultNextLabel
	}
	if o.Today == nil {
		o.Today = calendar.Today
	}
}

// Picker is a date range picker. It is not safe for concurrent use; see
// Shared.
type Picker struct {
	opts    Options
	cursor  Cursor
	panel   Panel
	sel     selection.Selector
	presets []calendar.Preset
}

// New creates a picker showing the current month.
func New(opts Options) *Picker {
	opts.applyDefaults()
	today := opts.Today()
	return &Picker{
		opts:    opts,
		cursor:  Cursor{Year: today.Year, Month: today.Month},
		presets: slices.Clone(opts.Presets),
	}
}

// Cursor returns the displayed month.
func (p *Picker) Cursor() Cursor {
	return p.cursor
}

// SetCursor displays the given month. Out of range months roll into the
// neighbouring years.
func (p *Picker) SetCursor(year, month int) {
	d := calendar.NewDate(year, month, 1).Normalize()
	p.cursor = Cursor{Year: d.Year, Month: d.Month}
}

// Panel returns the active panel.
func (p *Picker) Panel() Panel {
	return p.panel
}

// SetPanel switches to panel.
func (p *Picker) SetPanel(panel Panel) {
	p.panel = panel
}

// NextMonth advances the cursor one month.
func (p *Picker) NextMonth() {
	if p.cursor.Month == 11 {
		p.cursor = Cursor{Year: p.cursor.Year + 1, Month: 0}
		return
	}
	p.cursor.Month++
}

// PrevMonth moves the cursor back one month.
func (p *Picker) PrevMonth() {
	if p.cursor.Month == 0 {
		p.cursor = Cursor{Year: p.cursor.Year - 1, Month: 11}
		return
	}
	p.cursor.Month--
}

// SelectMonth displays month m of the current year and returns to the
// calendar panel. m is taken mod 12.
func (p *Picker) SelectMonth(m int) {
	p.cursor.Month = ((m % 12) + 12) % 12
	p.panel = Calendar
}

// SelectYear displays year y and returns to the calendar panel.
func (p *Picker) SelectYear(y int) {
	p.cursor.Year = y
	p.panel = Calendar
}

// Today returns the picker's reference day.
func (p *Picker) Today() calendar.Date {
	return p.opts.Today()
}

// Years returns the years offered by the year panel.
func (p *Picker) Years() []int {
	return p.opts.Years.Years(p.Today().Year)
}

// MonthNames returns the configured month names.
func (p *Picker) MonthNames() []string {
	return p.opts.MonthNames
}

// Weekdays returns the configured weekday names, Sunday first.
func (p *Picker) Weekdays() []string {
	return p.opts.WeekdayNames
}

// Title returns the displayed month name and year.
func (p *Picker) Title() string {
	return fmt.Sprintf("%s %d", p.opts.MonthNames[p.cursor.Month], p.cursor.Year)
}

// Labels returns the previous and next month control labels.
func (p *Picker) Labels() (prev, next string) {
	return p.opts.PrevLabel, p.opts.NextLabel
}

// Presets returns the current preset list.
func (p *Picker) Presets() []calendar.Preset {
	return p.presets
}

// SetPresets replaces the preset list.
func (p *Picker) SetPresets(presets []calendar.Preset) {
	p.presets = slices.Clone(presets)
}

// ApplyPreset selects preset i, displays its first month and returns to the
// calendar panel.
func (p *Picker) ApplyPreset(i int) error {
	if i < 0 || i >= len(p.presets) {
		return fmt.Errorf("%w: %d", ErrNoPreset, i)
	}
	r := p.presets[i].Range
	defer p.notifyState(p.sel.State())
	p.sel.Set(r)
	p.cursor = Cursor{Year: r.Start.Year, Month: r.Start.Month}
	p.panel = Calendar
	p.fire(r)
	return nil
}

// State returns the phase of the selection.
func (p *Picker) State() selection.State {
	return p.sel.State()
}

// Range returns the completed selection, if any.
func (p *Picker) Range() (calendar.Range, bool) {
	return p.sel.Range()
}

// Selection returns the selection state.
func (p *Picker) Selection() selection.Selection {
	return p.sel.Selection()
}

// Reset clears the selection.
func (p *Picker) Reset() {
	defer p.notifyState(p.sel.State())
	p.sel.Reset()
}

// Selectable reports whether d may be clicked.
func (p *Picker) Selectable(d calendar.Date) bool {
	return p.opts.Bounds == nil || p.opts.Bounds.Contains(d)
}

// Activate handles a click on d. It reports whether the click completed a
// selection.
func (p *Picker) Activate(d calendar.Date) bool {
	if !p.Selectable(d) {
		slog.Debug("Ignoring click outside bounds", "date", d)
		return false
	}
	defer p.notifyState(p.sel.State())
	r, done := p.sel.Click(d)
	if done {
		p.fire(r)
	}
	return done
}

// Hover handles the pointer entering d.
func (p *Picker) Hover(d calendar.Date) {
	if !p.Selectable(d) {
		return
	}
	p.sel.Hover(d)
}

// ActivateKey is Activate for hosts that only have the YYYY-MM-DD text of a
// cell. Malformed keys are ignored.
func (p *Picker) ActivateKey(key string) bool {
	d, err := calendar.ParseKey(key)
	if err != nil {
		slog.Debug("Ignoring click on malformed date", "key", key, "error", err)
		return false
	}
	return p.Activate(d)
}

// HoverKey is Hover for text keys. Malformed keys are ignored.
func (p *Picker) HoverKey(key string) {
	d, err := calendar.ParseKey(key)
	if err != nil {
		slog.Debug("Ignoring hover on malformed date", "key", key, "error", err)
		return
	}
	p.Hover(d)
}

// Classify returns the selection classification of d.
func (p *Picker) Classify(d calendar.Date) selection.Class {
	return p.sel.Classify(d)
}

// ClassifyKey is Classify for text keys. Malformed keys classify as None.
func (p *Picker) ClassifyKey(key string) selection.Class {
	d, err := calendar.ParseKey(key)
	if err != nil {
		slog.Debug("Classifying malformed date as none", "key", key, "error", err)
		return selection.Class{Kind: selection.None}
	}
	return p.sel.Classify(d)
}

// Grid returns the layout of the displayed month.
func (p *Picker) Grid() calendar.Grid {
	return calendar.ComputeGrid(p.cursor.Year, p.cursor.Month)
}

// Cell describes how to render one grid slot.
type Cell struct {
	Date calendar.Date
	Day  int

	// Blank is set for padding slots outside the month.
	Blank bool

	// Disabled is set for slots that cannot be clicked: padding and dates
	// outside the configured bounds.
	Disabled bool

	Weekend bool
	Today   bool
	Class   selection.Class
}

// Cells returns render descriptors for the displayed month, row by row.
func (p *Picker) Cells() [][7]Cell {
	g := p.Grid()
	today := p.Today()

	rows := make([][7]Cell, len(g.Rows))
	for r, row := range g.Rows {
		for c, gc := range row {
			cell := Cell{Weekend: calendar.IsWeekend(c)}
			d, ok := g.Date(gc)
			if !ok {
				cell.Blank = true
				cell.Disabled = true
				rows[r][c] = cell
				continue
			}
			cell.Date = d
			cell.Day = d.Day
			cell.Disabled = !p.Selectable(d)
			cell.Today = d == today
			cell.Class = p.sel.Classify(d)
			rows[r][c] = cell
		}
	}
	return rows
}

// notifyState reports a state change relative to before.
func (p *Picker) notifyState(before selection.State) {
	if now := p.sel.State(); now != before && p.opts.OnStateChange != nil {
		p.opts.OnStateChange(now)
	}
}

func (p *Picker) fire(r calendar.Range) {
	slog.Debug("Range selected", "start", r.Start, "end", r.End)
	if p.opts.OnSelected != nil {
		p.opts.OnSelected(r.Start.Time(), r.End.Time())
	}
}
