package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseICS_MidnightMultiDay(t *testing.T) {
	// iCloud-style multi-day event encoded with full datetimes at midnight
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-multiday-allday
SUMMARY:Mid-winter break (no school)
DTSTART:20260216T000000
DTEND:20260221T000000
END:VEVENT
END:VCALENDAR`

	presets, err := ParseICS(strings.NewReader(icsData))
	if err != nil {
		t.Fatalf("ParseICS error: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	p := presets[0]
	if p.Label != "Mid-winter break (no school)" {
		t.Errorf("unexpected label: %s", p.Label)
	}
	want := NewRange(NewDate(2026, 1, 16), NewDate(2026, 1, 20))
	if p.Range != want {
		t.Errorf("got range %v, want %v", p.Range, want)
	}
}

func TestParseICS_DateOnly(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-dateonly-allday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20260217
DTEND;VALUE=DATE:20260218
END:VEVENT
END:VCALENDAR`

	presets, err := ParseICS(strings.NewReader(icsData))
	if err != nil {
		t.Fatalf("ParseICS error: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	want := NewRange(NewDate(2026, 1, 17), NewDate(2026, 1, 17))
	if presets[0].Range != want {
		t.Errorf("got range %v, want %v", presets[0].Range, want)
	}
}

func TestParseICS_TimedEvent(t *testing.T) {
	// A timed event covers the calendar days it touches
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-timed
SUMMARY:Offsite
DTSTART:20260217T100000
DTEND:20260219T110000
END:VEVENT
END:VCALENDAR`

	presets, err := ParseICS(strings.NewReader(icsData))
	if err != nil {
		t.Fatalf("ParseICS error: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	want := NewRange(NewDate(2026, 1, 17), NewDate(2026, 1, 19))
	if presets[0].Range != want {
		t.Errorf("got range %v, want %v", presets[0].Range, want)
	}
}

func TestParseICS_SkipsEventsWithoutStart(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:no-start
SUMMARY:Broken
END:VEVENT
BEGIN:VEVENT
UID:ok
SUMMARY:Fine
DTSTART;VALUE=DATE:20260301
END:VEVENT
END:VCALENDAR`

	presets, err := ParseICS(strings.NewReader(icsData))
	if err != nil {
		t.Fatalf("ParseICS error: %v", err)
	}
	if len(presets) != 1 || presets[0].Label != "Fine" {
		t.Fatalf("unexpected presets: %+v", presets)
	}
	if presets[0].Range.Start != presets[0].Range.End {
		t.Errorf("event without DTEND should cover a single day, got %v", presets[0].Range)
	}
}

func TestWriteICSRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "selection.ics")

	in := []Preset{
		{Label: "Trip", Range: NewRange(NewDate(2024, 1, 27), NewDate(2024, 2, 2)), Source: "picker"},
		{Label: "Day", Range: NewRange(NewDate(2024, 11, 31), NewDate(2024, 11, 31))},
	}
	if err := WriteICS(path, in); err != nil {
		t.Fatalf("WriteICS: %v", err)
	}

	out, err := ReadICS(path)
	if err != nil {
		t.Fatalf("ReadICS: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d presets, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Label != in[i].Label || out[i].Range != in[i].Range {
			t.Errorf("preset %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestICSSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte("BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nUID:1\r\nSUMMARY:Spring break\r\nDTSTART;VALUE=DATE:20260330\r\nDTEND;VALUE=DATE:20260404\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	src := NewICSSource("school", srv.URL, "u", "p")
	presets, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	if presets[0].Source != "school" {
		t.Errorf("expected source to be set, got %q", presets[0].Source)
	}
	want := NewRange(NewDate(2026, 2, 30), NewDate(2026, 3, 3))
	if presets[0].Range != want {
		t.Errorf("got %v, want %v", presets[0].Range, want)
	}

	bad := NewICSSource("school", srv.URL, "u", "wrong")
	if _, err := bad.Fetch(context.Background()); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}

func TestMerge(t *testing.T) {
	a := Preset{Label: "B", Range: NewRange(NewDate(2024, 0, 1), NewDate(2024, 0, 2))}
	b := Preset{Label: "A", Range: NewRange(NewDate(2024, 0, 1), NewDate(2024, 0, 3))}
	c := Preset{Label: "Earlier", Range: NewRange(NewDate(2023, 5, 1), NewDate(2023, 5, 2))}

	got := Merge([]Preset{a, b}, []Preset{c, a})
	if len(got) != 3 {
		t.Fatalf("expected duplicates to be dropped, got %d presets", len(got))
	}
	if got[0].Label != "Earlier" || got[1].Label != "A" || got[2].Label != "B" {
		t.Errorf("unexpected order: %v, %v, %v", got[0].Label, got[1].Label, got[2].Label)
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource("config", []PresetSpec{
		{Label: "Last 7 days", Relative: true, From: 7, To: 1},
		{Label: "Q1", Start: NewDate(2024, 2, 31), End: NewDate(2024, 0, 1)},
	})
	src.now = func() time.Time { return NewDate(2024, 2, 3).Time() }

	presets, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(presets))
	}

	want := NewRange(NewDate(2024, 1, 25), NewDate(2024, 2, 2))
	if presets[0].Range != want {
		t.Errorf("relative preset: got %v, want %v", presets[0].Range, want)
	}
	if presets[1].Range.Start != NewDate(2024, 0, 1) {
		t.Errorf("absolute preset not ordered: %v", presets[1].Range)
	}
	if presets[0].Source != "config" {
		t.Errorf("source not set: %q", presets[0].Source)
	}
}
