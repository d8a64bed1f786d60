package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/selection"
	"github.com/cpuguy83/calrange/internal/ui"
)

// actionKind identifies what a menu line does.
type actionKind int

const (
	actDay actionKind = iota
	actPrev
	actNext
	actPanel
	actMonth
	actYear
	actPreset
	actClear
	actCopy
	actBack
)

// action is the effect of picking a menu line.
type action struct {
	kind  actionKind
	date  calendar.Date // actDay
	panel picker.Panel  // actPanel
	index int           // actMonth, actYear (the year itself), actPreset
}

const (
	lineBack  = "← Back"
	lineClear = "✕ Clear selection"
	lineCopy  = "📋 Copy range"
)

// formatView formats the picker view as menu lines.
// Returns lines to display and a map of trimmed line -> action.
func formatView(v ui.View, stale bool) ([]string, map[string]action) {
	f := &formatter{actions: make(map[string]action)}

	status := v.Status()
	if stale {
		status = "⚠ " + status
	}
	f.separator(status)

	switch v.Panel {
	case picker.SelectMonth:
		for i, name := range v.Months {
			line := "  " + name
			if i == v.Cursor.Month {
				line = "● " + name
			}
			f.add(line, action{kind: actMonth, index: i})
		}
		f.add(lineBack, action{kind: actBack})

	case picker.SelectYear:
		for _, year := range v.Years {
			line := "  " + strconv.Itoa(year)
			if year == v.Cursor.Year {
				line = "● " + strconv.Itoa(year)
			}
			f.add(line, action{kind: actYear, index: year})
		}
		f.add(lineBack, action{kind: actBack})

	case picker.CustomRanges:
		if len(v.Presets) == 0 {
			f.separator("No presets configured")
		}
		for i, p := range v.Presets {
			f.add(formatPresetLine(p), action{kind: actPreset, index: i})
		}
		f.add(lineBack, action{kind: actBack})

	default:
		f.add(fmt.Sprintf("%s Previous month", v.PrevLabel), action{kind: actPrev})
		f.add(fmt.Sprintf("%s Next month", v.NextLabel), action{kind: actNext})
		f.add("📅 Choose month", action{kind: actPanel, panel: picker.SelectMonth})
		f.add("📅 Choose year", action{kind: actPanel, panel: picker.SelectYear})
		f.add("★ Presets", action{kind: actPanel, panel: picker.CustomRanges})
		if v.State != selection.StateEmpty {
			f.add(lineClear, action{kind: actClear})
		}
		if v.State == selection.StateComplete {
			f.add(lineCopy, action{kind: actCopy})
		}

		f.separator(v.Title)
		for _, row := range v.Rows {
			for _, cell := range row {
				if cell.Blank || cell.Disabled {
					continue
				}
				f.add(formatDayLine(v, cell), action{kind: actDay, date: cell.Date})
			}
		}
	}

	return f.lines, f.actions
}

type formatter struct {
	lines   []string
	actions map[string]action
}

func (f *formatter) add(line string, a action) {
	f.lines = append(f.lines, line)
	// Store with trimmed key since dmenu may strip leading whitespace
	f.actions[strings.TrimSpace(line)] = a
}

func (f *formatter) separator(text string) {
	f.lines = append(f.lines, fmt.Sprintf("━━━━ %s ━━━━", text))
}

// formatDayLine formats a single day, marked by its selection class.
func formatDayLine(v ui.View, cell picker.Cell) string {
	var marker string
	switch cell.Class.Kind {
	case selection.Boundary:
		if cell.Class.Ordering == selection.Higher {
			marker = "◀ "
		} else {
			marker = "▶ "
		}
	case selection.InRange:
		marker = "• "
	default:
		marker = "  "
	}

	weekday := v.Weekdays[cell.Date.Weekday()]
	line := fmt.Sprintf("%s%s %02d %s", marker, weekday, cell.Day, v.Months[cell.Date.Month])
	if cell.Today {
		line += " (today)"
	}
	return line
}

// formatPresetLine formats a preset for the preset list.
func formatPresetLine(p calendar.Preset) string {
	line := fmt.Sprintf("  %s (%s)", p.Label, ui.FormatRange(p.Range))
	if p.Source != "" {
		line += " [" + p.Source + "]"
	}
	return line
}

// isSeparator returns true if the line is a visual separator (not selectable).
func isSeparator(line string) bool {
	return strings.HasPrefix(line, "━━━━") || line == ""
}

// rangeText is the clipboard form of a range.
func rangeText(r calendar.Range) string {
	return r.Start.String() + "/" + r.End.String()
}
