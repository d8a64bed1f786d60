package term

import (
	"log/slog"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/ui"
)

// refreshMsg asks the model to redraw after the picker changed elsewhere.
type refreshMsg struct{}

// staleMsg updates the stale-presets marker.
type staleMsg bool

// Model is the bubbletea model driving a shared picker from the keyboard.
// Moving the focus hovers the focused day, so a started range previews
// the way it does under a mouse pointer.
type Model struct {
	shared       *picker.Shared
	quitOnSelect bool

	view  ui.View
	focus Focus
	stale bool
}

// NewModel creates a model over the shared picker. The focus starts on
// today when today is in the displayed month.
func NewModel(shared *picker.Shared, quitOnSelect bool) *Model {
	m := &Model{shared: shared, quitOnSelect: quitOnSelect}
	shared.Do(func(p *picker.Picker) {
		c := p.Cursor()
		today := p.Today()
		if today.Year == c.Year && today.Month == c.Month {
			m.focus.Day = today
		} else {
			m.focus.Day = calendar.NewDate(c.Year, c.Month, 1)
		}
		m.view = ui.Snapshot(p)
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.snapshot()
		return m, nil
	case staleMsg:
		m.stale = bool(msg)
		return m, nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.view.Panel == picker.Calendar {
			cmd = m.calendarKey(msg.String())
		} else {
			cmd = m.listKey(msg.String())
		}
		m.snapshot()
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	return Render(m.view, m.focus, m.stale)
}

// Focus returns the keyboard focus.
func (m *Model) Focus() Focus {
	return m.focus
}

func (m *Model) snapshot() {
	m.shared.Do(func(p *picker.Picker) {
		m.view = ui.Snapshot(p)
		c := p.Cursor()
		if p.Panel() == picker.Calendar && (m.focus.Day.Year != c.Year || m.focus.Day.Month != c.Month) {
			m.focus.Day = clampDay(c, m.focus.Day.Day)
		}
	})
}

func (m *Model) calendarKey(key string) tea.Cmd {
	var cmd tea.Cmd
	m.shared.Do(func(p *picker.Picker) {
		switch key {
		case "left", "h":
			m.move(p, -1)
		case "right", "l":
			m.move(p, 1)
		case "up", "k":
			m.move(p, -7)
		case "down", "j":
			m.move(p, 7)
		case "n", "pgdown":
			p.NextMonth()
		case "p", "pgup":
			p.PrevMonth()
		case "enter", " ":
			if p.Activate(m.focus.Day) && m.quitOnSelect {
				cmd = tea.Quit
			}
		case "m":
			p.SetPanel(picker.SelectMonth)
			m.focus.Item = p.Cursor().Month
		case "y":
			p.SetPanel(picker.SelectYear)
			m.focus.Item = max(slices.Index(p.Years(), p.Cursor().Year), 0)
		case "r":
			p.SetPanel(picker.CustomRanges)
			m.focus.Item = 0
		case "t":
			today := p.Today()
			p.SetCursor(today.Year, today.Month)
			m.focus.Day = today
			p.Hover(today)
		case "c", "backspace":
			p.Reset()
		case "q", "esc", "ctrl+c":
			cmd = tea.Quit
		}
	})
	return cmd
}

// move shifts the focus by n days, following it into adjacent months.
func (m *Model) move(p *picker.Picker, n int) {
	d := m.focus.Day.AddDays(n)
	if c := p.Cursor(); d.Year != c.Year || d.Month != c.Month {
		p.SetCursor(d.Year, d.Month)
	}
	m.focus.Day = d
	p.Hover(d)
}

func (m *Model) listKey(key string) tea.Cmd {
	var cmd tea.Cmd
	m.shared.Do(func(p *picker.Picker) {
		n := m.listLen(p)
		switch key {
		case "up", "k":
			if n > 0 {
				m.focus.Item = (m.focus.Item + n - 1) % n
			}
		case "down", "j":
			if n > 0 {
				m.focus.Item = (m.focus.Item + 1) % n
			}
		case "enter", " ":
			cmd = m.choose(p)
		case "esc", "q", "backspace":
			p.SetPanel(picker.Calendar)
		case "ctrl+c":
			cmd = tea.Quit
		}
	})
	return cmd
}

func (m *Model) listLen(p *picker.Picker) int {
	switch p.Panel() {
	case picker.SelectMonth:
		return len(p.MonthNames())
	case picker.SelectYear:
		return len(p.Years())
	case picker.CustomRanges:
		return len(p.Presets())
	}
	return 0
}

func (m *Model) choose(p *picker.Picker) tea.Cmd {
	switch p.Panel() {
	case picker.SelectMonth:
		p.SelectMonth(m.focus.Item)
	case picker.SelectYear:
		years := p.Years()
		if m.focus.Item < len(years) {
			p.SelectYear(years[m.focus.Item])
		}
	case picker.CustomRanges:
		if err := p.ApplyPreset(m.focus.Item); err != nil {
			slog.Debug("no preset to apply", "error", err)
			return nil
		}
		if r, ok := p.Range(); ok {
			m.focus.Day = r.Start
		}
		if m.quitOnSelect {
			return tea.Quit
		}
	}
	return nil
}

// clampDay returns the given day of the cursor month, clamped to its length.
func clampDay(c picker.Cursor, day int) calendar.Date {
	return calendar.NewDate(c.Year, c.Month, min(day, calendar.DaysInMonth(c.Year, c.Month)))
}
