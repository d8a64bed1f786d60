package term

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/selection"
	"github.com/cpuguy83/calrange/internal/ui"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newShared(presets ...calendar.Preset) *picker.Shared {
	return picker.NewShared(picker.New(picker.Options{
		Today:   func() calendar.Date { return calendar.NewDate(2026, 1, 17) },
		Presets: presets,
	}))
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRender(t *testing.T) {
	s := newShared()
	var v ui.View
	s.Do(func(p *picker.Picker) {
		p.Activate(calendar.NewDate(2026, 1, 12))
		p.Activate(calendar.NewDate(2026, 1, 10))
		v = ui.Snapshot(p)
	})

	out := Render(v, Focus{Day: calendar.NewDate(2026, 1, 17)}, false)
	for _, want := range []string{
		"February 2026",
		"Sun", "Sat",
		"[10]", "·11·", "[12]",
		"2026-02-10 – 2026-02-12 • 3 days",
		"enter pick",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "out of date") {
		t.Error("stale marker shown for fresh presets")
	}

	out = Render(v, Focus{}, true)
	if !strings.Contains(out, "⚠ presets may be out of date") {
		t.Errorf("stale marker missing:\n%s", out)
	}
}

func TestRenderPanels(t *testing.T) {
	s := newShared(calendar.Preset{
		Label: "Trip",
		Range: calendar.NewRange(calendar.NewDate(2026, 5, 1), calendar.NewDate(2026, 5, 3)),
	})

	tests := []struct {
		panel picker.Panel
		item  int
		want  []string
	}{
		{picker.SelectMonth, 3, []string{"Choose month", "▸ April", "February ●"}},
		{picker.SelectYear, 0, []string{"Choose year", "▸ 2016", "2026 ●", "2035"}},
		{picker.CustomRanges, 0, []string{"Presets", "▸ Trip (2026-06-01 – 2026-06-03 • 3 days)", "esc back"}},
	}
	for _, tt := range tests {
		t.Run(tt.panel.String(), func(t *testing.T) {
			var v ui.View
			s.Do(func(p *picker.Picker) {
				p.SetPanel(tt.panel)
				v = ui.Snapshot(p)
			})
			out := Render(v, Focus{Item: tt.item}, false)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestModelSelectsAcrossMonths(t *testing.T) {
	s := newShared()
	m := NewModel(s, true)

	if got := m.Focus().Day; got != calendar.NewDate(2026, 1, 17) {
		t.Fatalf("initial focus %v", got)
	}

	for _, msg := range []tea.Msg{key(tea.KeyRight), key(tea.KeyEnter), key(tea.KeyDown)} {
		if _, cmd := m.Update(msg); cmd != nil {
			t.Fatalf("unexpected command after %v", msg)
		}
	}
	if got := m.view.Status(); got != "From 2026-02-18, pick an end date" {
		t.Errorf("status %q", got)
	}
	s.Do(func(p *picker.Picker) {
		if c := p.Classify(calendar.NewDate(2026, 1, 21)); c.Kind != selection.InRange {
			t.Errorf("day before the hovered one classified %+v", c)
		}
	})

	m.Update(key(tea.KeyDown))
	if got := m.Focus().Day; got != calendar.NewDate(2026, 2, 4) {
		t.Fatalf("focus %v", got)
	}
	if m.view.Title != "March 2026" {
		t.Errorf("title %q", m.view.Title)
	}

	_, cmd := m.Update(key(tea.KeySpace))
	if cmd == nil {
		t.Fatal("completing a range did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not quit")
	}
	s.Do(func(p *picker.Picker) {
		r, ok := p.Range()
		if !ok || r != calendar.NewRange(calendar.NewDate(2026, 1, 18), calendar.NewDate(2026, 2, 4)) {
			t.Errorf("range %v %v", r, ok)
		}
	})
}

func TestModelLists(t *testing.T) {
	s := newShared()
	m := NewModel(s, false)

	m.Update(runes("y"))
	if m.view.Panel != picker.SelectYear || m.Focus().Item != 10 {
		t.Fatalf("panel %v item %d", m.view.Panel, m.Focus().Item)
	}
	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyEnter))
	if m.view.Panel != picker.Calendar || m.view.Cursor != (picker.Cursor{Year: 2027, Month: 1}) {
		t.Fatalf("panel %v cursor %+v", m.view.Panel, m.view.Cursor)
	}
	if got := m.Focus().Day; got != calendar.NewDate(2027, 1, 17) {
		t.Errorf("focus %v", got)
	}

	m.Update(runes("m"))
	m.Update(key(tea.KeyUp))
	m.Update(key(tea.KeyUp))
	m.Update(key(tea.KeyEnter))
	if m.view.Cursor != (picker.Cursor{Year: 2027, Month: 11}) {
		t.Errorf("cursor %+v", m.view.Cursor)
	}

	m.Update(runes("r"))
	m.Update(key(tea.KeyEnter))
	if m.view.Panel != picker.CustomRanges {
		t.Error("empty preset list left the panel")
	}
	m.Update(key(tea.KeyEsc))
	if m.view.Panel != picker.Calendar {
		t.Error("esc did not return to the calendar")
	}
}

func TestModelPresetAndRefresh(t *testing.T) {
	trip := calendar.NewRange(calendar.NewDate(2026, 5, 1), calendar.NewDate(2026, 5, 3))
	s := newShared(calendar.Preset{Label: "Trip", Range: trip})
	m := NewModel(s, false)

	m.Update(runes("r"))
	if _, cmd := m.Update(key(tea.KeyEnter)); cmd != nil {
		t.Error("preset quit without quitOnSelect")
	}
	if m.view.State != selection.StateComplete || m.view.Range != trip {
		t.Errorf("state %v range %v", m.view.State, m.view.Range)
	}
	if m.Focus().Day != trip.Start {
		t.Errorf("focus %v", m.Focus().Day)
	}

	s.Do(func(p *picker.Picker) {
		p.Reset()
		p.NextMonth()
	})
	m.Update(refreshMsg{})
	if m.view.Title != "July 2026" || m.view.State != selection.StateEmpty {
		t.Errorf("title %q state %v", m.view.Title, m.view.State)
	}
	if got := m.Focus().Day; got != calendar.NewDate(2026, 6, 1) {
		t.Errorf("focus %v", got)
	}

	m.Update(staleMsg(true))
	if !strings.Contains(m.View(), "out of date") {
		t.Error("stale marker missing")
	}
}
