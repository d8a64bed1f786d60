// Package term renders the range picker in a terminal.
package term

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/selection"
	"github.com/cpuguy83/calrange/internal/ui"
)

const cellWidth = 5

var (
	primary   = lipgloss.Color("#7D56F4")
	secondary = lipgloss.Color("#F25D94")
	muted     = lipgloss.Color("#6C6C6C")
	band      = lipgloss.Color("#3C3470")
	warning   = lipgloss.Color("#E5C07B")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	navStyle     = lipgloss.NewStyle().Foreground(muted)
	headerStyle  = lipgloss.NewStyle().Foreground(muted).Width(cellWidth).Align(lipgloss.Center)
	dayStyle     = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	weekendStyle = dayStyle.Foreground(secondary)
	todayStyle   = dayStyle.Bold(true).Underline(true)
	offStyle     = dayStyle.Foreground(muted).Faint(true)
	rangeStyle   = dayStyle.Background(band)
	edgeStyle    = dayStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(primary)
	focusStyle   = lipgloss.NewStyle().Reverse(true)
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary)
	statusStyle  = lipgloss.NewStyle().Bold(true)
	staleStyle   = lipgloss.NewStyle().Foreground(warning)
	helpStyle    = lipgloss.NewStyle().Foreground(muted)
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(secondary)
)

// Focus is the keyboard position within the current panel.
type Focus struct {
	Day  calendar.Date // calendar panel
	Item int           // list panels
}

// Render draws a picker view. Selection boundaries are bracketed and days
// inside the range are dotted so the output stays readable without colour.
func Render(v ui.View, f Focus, stale bool) string {
	var b strings.Builder

	switch v.Panel {
	case picker.SelectMonth:
		b.WriteString(titleStyle.Render("Choose month"))
		b.WriteString("\n\n")
		for i, name := range v.Months {
			b.WriteString(listItem(name, i == f.Item, i == v.Cursor.Month))
		}
	case picker.SelectYear:
		b.WriteString(titleStyle.Render("Choose year"))
		b.WriteString("\n\n")
		for i, year := range v.Years {
			b.WriteString(listItem(strconv.Itoa(year), i == f.Item, year == v.Cursor.Year))
		}
	case picker.CustomRanges:
		b.WriteString(titleStyle.Render("Presets"))
		b.WriteString("\n\n")
		if len(v.Presets) == 0 {
			b.WriteString(itemStyle.Inherit(navStyle).Italic(true).Render("No presets configured"))
			b.WriteString("\n")
		}
		for i, p := range v.Presets {
			text := fmt.Sprintf("%s (%s)", p.Label, ui.FormatRange(p.Range))
			if p.Source != "" {
				text += " [" + p.Source + "]"
			}
			b.WriteString(listItem(text, i == f.Item, false))
		}
	default:
		b.WriteString(navStyle.Render(v.PrevLabel))
		b.WriteString(titleStyle.Render(v.Title))
		b.WriteString(navStyle.Render(v.NextLabel))
		b.WriteString("\n\n")
		for _, name := range v.Weekdays {
			b.WriteString(headerStyle.Render(name))
		}
		b.WriteString("\n")
		b.WriteString(renderGrid(v, f.Day))
	}

	b.WriteString("\n")
	if stale {
		b.WriteString(staleStyle.Render("⚠ presets may be out of date"))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(v.Status()))
	b.WriteString("\n")
	b.WriteString(helpBar(v.Panel))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func renderGrid(v ui.View, focus calendar.Date) string {
	var b strings.Builder
	for _, row := range v.Rows {
		for _, cell := range row {
			if cell.Blank {
				b.WriteString(dayStyle.Render(""))
				continue
			}
			s := cellStyle(cell).Render(cellText(cell))
			if cell.Date == focus {
				s = focusStyle.Render(s)
			}
			b.WriteString(s)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellText(c picker.Cell) string {
	switch c.Class.Kind {
	case selection.Boundary:
		return fmt.Sprintf("[%2d]", c.Day)
	case selection.InRange:
		return fmt.Sprintf("·%2d·", c.Day)
	default:
		return fmt.Sprintf(" %2d ", c.Day)
	}
}

func cellStyle(c picker.Cell) lipgloss.Style {
	switch {
	case c.Class.Kind == selection.Boundary:
		return edgeStyle
	case c.Class.Kind == selection.InRange:
		return rangeStyle
	case c.Disabled:
		return offStyle
	case c.Today:
		return todayStyle
	case c.Weekend:
		return weekendStyle
	default:
		return dayStyle
	}
}

func listItem(text string, focused, current bool) string {
	prefix := "  "
	if focused {
		prefix = "▸ "
	}
	style := itemStyle
	if focused {
		style = itemStyle.Inherit(cursorStyle)
	}
	if current {
		text += " ●"
	}
	return style.Render(prefix+text) + "\n"
}

func helpBar(panel picker.Panel) string {
	var keys [][2]string
	switch panel {
	case picker.Calendar:
		keys = [][2]string{
			{"←→↑↓", "move"},
			{"enter", "pick"},
			{"n/p", "month"},
			{"m", "months"},
			{"y", "years"},
			{"r", "presets"},
			{"t", "today"},
			{"c", "clear"},
			{"q", "quit"},
		}
	default:
		keys = [][2]string{
			{"↑↓", "move"},
			{"enter", "choose"},
			{"esc", "back"},
		}
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, keyStyle.Render(k[0])+" "+k[1])
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}
