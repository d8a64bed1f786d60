package picker

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/selection"
)

type selectedCall struct {
	start, end time.Time
}

func newTestPicker(t *testing.T, opts Options) (*Picker, *[]selectedCall) {
	t.Helper()
	var calls []selectedCall
	opts.OnSelected = func(start, end time.Time) {
		calls = append(calls, selectedCall{start, end})
	}
	if opts.Today == nil {
		opts.Today = func() calendar.Date { return calendar.NewDate(2023, 0, 15) }
	}
	return New(opts), &calls
}

func TestNavigationWraparound(t *testing.T) {
	tests := []struct {
		name  string
		start Cursor
		next  bool
		want  Cursor
	}{
		{"next mid-year", Cursor{2023, 5}, true, Cursor{2023, 6}},
		{"next december", Cursor{2023, 11}, true, Cursor{2024, 0}},
		{"prev mid-year", Cursor{2023, 5}, false, Cursor{2023, 4}},
		{"prev january", Cursor{2023, 0}, false, Cursor{2022, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPicker(t, Options{})
			p.SetCursor(tt.start.Year, tt.start.Month)
			if tt.next {
				p.NextMonth()
			} else {
				p.PrevMonth()
			}
			if got := p.Cursor(); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNavigationRoundTrip(t *testing.T) {
	p, _ := newTestPicker(t, Options{})
	start := p.Cursor()
	for range 30 {
		p.NextMonth()
	}
	if got := p.Cursor(); got != (Cursor{2025, 6}) {
		t.Errorf("after 30 months got %+v", got)
	}
	for range 30 {
		p.PrevMonth()
	}
	if got := p.Cursor(); got != start {
		t.Errorf("round trip ended at %+v, want %+v", got, start)
	}
}

func TestNewShowsTodaysMonth(t *testing.T) {
	p, _ := newTestPicker(t, Options{})
	if got := p.Cursor(); got != (Cursor{2023, 0}) {
		t.Errorf("got %+v", got)
	}
	if p.Panel() != Calendar {
		t.Errorf("expected calendar panel, got %v", p.Panel())
	}
	if p.State() != selection.StateEmpty {
		t.Errorf("expected empty selection, got %v", p.State())
	}
}

func TestSelectMonthAndYear(t *testing.T) {
	p, _ := newTestPicker(t, Options{})

	p.SetPanel(SelectMonth)
	p.SelectMonth(7)
	if p.Panel() != Calendar {
		t.Errorf("SelectMonth did not return to the calendar, panel %v", p.Panel())
	}
	if got := p.Cursor(); got != (Cursor{2023, 7}) {
		t.Errorf("got %+v", got)
	}

	p.SelectMonth(14)
	if got := p.Cursor().Month; got != 2 {
		t.Errorf("month 14 normalised to %d, want 2", got)
	}
	p.SelectMonth(-1)
	if got := p.Cursor().Month; got != 11 {
		t.Errorf("month -1 normalised to %d, want 11", got)
	}

	p.SetPanel(SelectYear)
	p.SelectYear(1999)
	if p.Panel() != Calendar {
		t.Errorf("SelectYear did not return to the calendar, panel %v", p.Panel())
	}
	if got := p.Cursor(); got != (Cursor{1999, 11}) {
		t.Errorf("got %+v", got)
	}
}

func TestTitleAndWeekdays(t *testing.T) {
	p, _ := newTestPicker(t, Options{})
	if got := p.Title(); got != "January 2023" {
		t.Errorf("Title() = %q", got)
	}
	if got := p.Weekdays(); len(got) != 7 || got[0] != "Sun" {
		t.Errorf("Weekdays() = %v", got)
	}
	prev, next := p.Labels()
	if prev != DefaultPrevLabel || next != DefaultNextLabel {
		t.Errorf("Labels() = %q, %q", prev, next)
	}

	months := []string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"}
	p, _ = newTestPicker(t, Options{
		MonthNames:   months,
		WeekdayNames: []string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
		PrevLabel:    "<",
		NextLabel:    ">",
	})
	p.SelectMonth(2)
	if got := p.Title(); got != "Mär 2023" {
		t.Errorf("Title() = %q", got)
	}
	if got := p.Weekdays()[1]; got != "Mo" {
		t.Errorf("Weekdays()[1] = %q", got)
	}
	if prev, next := p.Labels(); prev != "<" || next != ">" {
		t.Errorf("Labels() = %q, %q", prev, next)
	}

	// A short table falls back to the defaults.
	p, _ = newTestPicker(t, Options{MonthNames: months[:3]})
	if got := p.Title(); got != "January 2023" {
		t.Errorf("Title() = %q", got)
	}
}

func TestActivateFiresOncePerCompletion(t *testing.T) {
	p, calls := newTestPicker(t, Options{})

	if p.Activate(calendar.NewDate(2023, 0, 20)) {
		t.Fatal("first click reported completion")
	}
	p.Hover(calendar.NewDate(2023, 0, 10))
	if len(*calls) != 0 {
		t.Fatalf("callback fired before completion: %v", *calls)
	}

	if !p.Activate(calendar.NewDate(2023, 0, 10)) {
		t.Fatal("second click did not complete")
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(*calls))
	}
	c := (*calls)[0]
	if !c.start.Equal(calendar.NewDate(2023, 0, 10).Time()) || !c.end.Equal(calendar.NewDate(2023, 0, 20).Time()) {
		t.Errorf("callback got %v - %v, want chronological order", c.start, c.end)
	}

	// Starting a new selection does not fire.
	p.Activate(calendar.NewDate(2023, 0, 2))
	if len(*calls) != 1 {
		t.Errorf("callback fired on a first click")
	}
}

func TestActivateKey(t *testing.T) {
	p, calls := newTestPicker(t, Options{})

	if p.ActivateKey("not-a-date") {
		t.Error("malformed key completed a selection")
	}
	if p.State() != selection.StateEmpty {
		t.Errorf("malformed key changed state to %v", p.State())
	}

	p.ActivateKey("2023-01-05")
	p.HoverKey("2023-01-09")
	p.HoverKey("2023-99-09")
	if got := p.ClassifyKey("2023-01-07"); got.Kind != selection.InRange {
		t.Errorf("ClassifyKey in preview = %+v", got)
	}
	if !p.ActivateKey("2023-01-10") {
		t.Fatal("expected completion")
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(*calls))
	}

	tests := []struct {
		key  string
		want selection.Class
	}{
		{"2023-01-05", selection.Class{Kind: selection.Boundary, Ordering: selection.Lower}},
		{"2023-01-07", selection.Class{Kind: selection.InRange}},
		{"2023-01-10", selection.Class{Kind: selection.Boundary, Ordering: selection.Higher}},
		{"2023-01-11", selection.Class{Kind: selection.None}},
		{"garbage", selection.Class{Kind: selection.None}},
		{"2023-02-30", selection.Class{Kind: selection.None}},
	}
	for _, tt := range tests {
		if got := p.ClassifyKey(tt.key); got != tt.want {
			t.Errorf("ClassifyKey(%q) = %+v, want %+v", tt.key, got, tt.want)
		}
	}
}

func TestApplyPreset(t *testing.T) {
	presets := []calendar.Preset{
		{Label: "Last week", Range: calendar.NewRange(calendar.NewDate(2023, 0, 8), calendar.NewDate(2023, 0, 14))},
		{Label: "Summer", Range: calendar.NewRange(calendar.NewDate(2022, 5, 21), calendar.NewDate(2022, 8, 22))},
	}
	p, calls := newTestPicker(t, Options{Presets: presets})

	p.SetPanel(CustomRanges)
	if err := p.ApplyPreset(1); err != nil {
		t.Fatal(err)
	}
	if p.Panel() != Calendar {
		t.Errorf("expected calendar panel, got %v", p.Panel())
	}
	if got := p.Cursor(); got != (Cursor{2022, 5}) {
		t.Errorf("cursor at %+v, want preset start month", got)
	}
	r, ok := p.Range()
	if !ok || r != presets[1].Range {
		t.Errorf("selection %v, %v", r, ok)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(*calls))
	}

	err := p.ApplyPreset(2)
	if !errors.Is(err, ErrNoPreset) {
		t.Errorf("expected ErrNoPreset, got %v", err)
	}
	if err := p.ApplyPreset(-1); !errors.Is(err, ErrNoPreset) {
		t.Errorf("expected ErrNoPreset, got %v", err)
	}
	if len(*calls) != 1 {
		t.Errorf("failed preset fired the callback")
	}

	p.SetPresets(presets[:1])
	if err := p.ApplyPreset(1); !errors.Is(err, ErrNoPreset) {
		t.Errorf("SetPresets did not shrink the list, err %v", err)
	}
}

func TestCells(t *testing.T) {
	bounds := calendar.NewRange(calendar.NewDate(2023, 0, 1), calendar.NewDate(2023, 0, 28))
	p, _ := newTestPicker(t, Options{Bounds: &bounds})
	p.Activate(calendar.NewDate(2023, 0, 10))
	p.Activate(calendar.NewDate(2023, 0, 12))

	rows := p.Cells()
	// January 2023 starts on a Sunday and needs five rows.
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	byDay := map[int]Cell{}
	blanks := 0
	for _, row := range rows {
		for c, cell := range row {
			if cell.Weekend != calendar.IsWeekend(c) {
				t.Errorf("column %d weekend flag %v", c, cell.Weekend)
			}
			if cell.Blank {
				blanks++
				if !cell.Disabled || cell.Day != 0 {
					t.Errorf("blank cell %+v", cell)
				}
				continue
			}
			byDay[cell.Day] = cell
		}
	}
	if len(byDay) != 31 || blanks != 4 {
		t.Errorf("got %d days and %d blanks", len(byDay), blanks)
	}

	if !byDay[15].Today {
		t.Error("today not marked")
	}
	if got := byDay[10].Class; got != (selection.Class{Kind: selection.Boundary, Ordering: selection.Lower}) {
		t.Errorf("day 10 class %+v", got)
	}
	if got := byDay[11].Class.Kind; got != selection.InRange {
		t.Errorf("day 11 kind %v", got)
	}
	if got := byDay[12].Class; got != (selection.Class{Kind: selection.Boundary, Ordering: selection.Higher}) {
		t.Errorf("day 12 class %+v", got)
	}
	if !byDay[29].Disabled || byDay[28].Disabled {
		t.Error("bounds not reflected in disabled flags")
	}
	if byDay[31].Date != calendar.NewDate(2023, 0, 31) {
		t.Errorf("day 31 date %v", byDay[31].Date)
	}

	if p.Activate(calendar.NewDate(2023, 0, 30)) || p.State() != selection.StateComplete {
		t.Error("click outside bounds changed the selection")
	}
}

func TestYearPolicy(t *testing.T) {
	tests := []struct {
		policy YearPolicy
		first  int
		last   int
	}{
		{YearPolicy{Kind: Middle, Range: 20}, 2013, 2032},
		{YearPolicy{Kind: Middle, Range: 5}, 2020, 2024},
		{YearPolicy{Kind: Future, Range: 10}, 2023, 2032},
		{YearPolicy{Kind: Past, Range: 10}, 2013, 2022},
		{YearPolicy{Kind: Middle}, 2013, 2032},
	}

	for _, tt := range tests {
		t.Run(tt.policy.Kind.String(), func(t *testing.T) {
			years := tt.policy.Years(2023)
			if years[0] != tt.first || years[len(years)-1] != tt.last {
				t.Errorf("got %d..%d, want %d..%d", years[0], years[len(years)-1], tt.first, tt.last)
			}
			for i := 1; i < len(years); i++ {
				if years[i] != years[i-1]+1 {
					t.Fatalf("years not contiguous: %v", years)
				}
			}
		})
	}
}

func TestYearsUseReferenceYear(t *testing.T) {
	p, _ := newTestPicker(t, Options{Years: YearPolicy{Kind: Future, Range: 3}})
	p.SelectYear(1990)
	if got := p.Years(); !slices.Equal(got, []int{2023, 2024, 2025}) {
		t.Errorf("Years() = %v", got)
	}
}

func TestParseYearKind(t *testing.T) {
	tests := []struct {
		in      string
		want    YearKind
		wantErr bool
	}{
		{"", Middle, false},
		{"middle", Middle, false},
		{"Future", Future, false},
		{" past ", Past, false},
		{"sideways", Middle, true},
	}
	for _, tt := range tests {
		got, err := ParseYearKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseYearKind(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseYearKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShared(t *testing.T) {
	p, _ := newTestPicker(t, Options{})
	s := NewShared(p)

	var wg sync.WaitGroup
	for range 12 {
		wg.Go(func() {
			s.Do(func(p *Picker) { p.NextMonth() })
		})
	}
	wg.Wait()

	s.Do(func(p *Picker) {
		if got := p.Cursor(); got != (Cursor{2024, 0}) {
			t.Errorf("got %+v", got)
		}
	})
}

func TestStateChangeNotifications(t *testing.T) {
	var states []selection.State
	p, _ := newTestPicker(t, Options{
		OnStateChange: func(s selection.State) { states = append(states, s) },
		Presets: []calendar.Preset{
			{Label: "a", Range: calendar.NewRange(calendar.NewDate(2023, 1, 1), calendar.NewDate(2023, 1, 5))},
		},
	})

	p.Reset()
	p.Activate(calendar.NewDate(2023, 0, 3))
	p.Hover(calendar.NewDate(2023, 0, 9))
	p.Activate(calendar.NewDate(2023, 0, 9))
	if err := p.ApplyPreset(0); err != nil {
		t.Fatal(err)
	}
	p.Activate(calendar.NewDate(2023, 0, 20))
	p.Reset()

	want := []selection.State{
		selection.StateStartOnly,
		selection.StateComplete,
		selection.StateStartOnly,
		selection.StateEmpty,
	}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}
