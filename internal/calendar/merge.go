package calendar

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// Merge combines presets from multiple sources into a single slice sorted
// by start date, then label. Presets with the same label and range are
// kept once.
func Merge(presetSets ...[]Preset) []Preset {
	var all []Preset
	seen := make(map[string]bool)
	for _, presets := range presetSets {
		for _, p := range presets {
			key := p.Label + "|" + p.Range.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, p)
		}
	}

	slices.SortStableFunc(all, func(a, b Preset) int {
		if c := Compare(a.Range.Start, b.Range.Start); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})

	return all
}

// WriteICS writes presets as all-day events to an ICS file atomically.
// It writes to a temp file first, then renames to the final path.
func WriteICS(path string, presets []Preset) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//CalRange//CalRange//EN")

	for _, p := range presets {
		comp := ics.NewComponent(ics.CompEvent)

		comp.Props.SetText(ics.PropUID, presetUID(p))
		comp.Props.SetText(ics.PropSummary, p.Label)

		// DTSTAMP is required by RFC 5545
		comp.Props.SetDateTime(ics.PropDateTimeStamp, time.Now())

		// All-day events use an exclusive end date.
		comp.Props.SetDate(ics.PropDateTimeStart, p.Range.Start.Time())
		comp.Props.SetDate(ics.PropDateTimeEnd, p.Range.End.AddDays(1).Time())

		if p.Source != "" {
			comp.Props.SetText("X-CALRANGE-SOURCE", p.Source)
		}

		cal.Children = append(cal.Children, comp)
	}

	var buf bytes.Buffer
	enc := ics.NewEncoder(&buf)
	if err := enc.Encode(cal); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// ReadICS reads presets from an ICS file.
func ReadICS(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ICS file: %w", err)
	}
	defer f.Close()

	return ParseICS(f)
}

func presetUID(p Preset) string {
	return fmt.Sprintf("%s_%s@calrange", p.Range.Start, p.Range.End)
}
