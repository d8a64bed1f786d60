package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// ICSSource loads presets from an ICS/iCal URL or local file. Every VEVENT
// becomes a preset labelled with its summary.
type ICSSource struct {
	name     string
	url      string
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS preset source. url may be an http(s) URL
// or a path to a local file.
func NewICSSource(name, url, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the display name of this preset source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves presets from the ICS feed.
func (s *ICSSource) Fetch(ctx context.Context) ([]Preset, error) {
	if !strings.HasPrefix(s.url, "http://") && !strings.HasPrefix(s.url, "https://") {
		f, err := os.Open(s.url)
		if err != nil {
			return nil, fmt.Errorf("open ICS file: %w", err)
		}
		defer f.Close()
		return s.parseICS(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Add basic auth if credentials provided
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}

	return s.parseICS(resp.Body)
}

func (s *ICSSource) parseICS(r io.Reader) ([]Preset, error) {
	presets, err := ParseICS(r)
	if err != nil {
		return nil, err
	}
	for i := range presets {
		presets[i].Source = s.name
	}
	return presets, nil
}

// ParseICS parses presets from an ICS reader. Events without a usable
// start date are skipped.
func ParseICS(r io.Reader) ([]Preset, error) {
	dec := ics.NewDecoder(r)

	var presets []Preset

	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			p, err := presetFromEvent(comp)
			if err != nil {
				// Skip events we can't parse
				continue
			}
			presets = append(presets, p)
		}
	}

	return presets, nil
}

// presetFromEvent converts an ICS VEVENT component to a Preset. DTEND is
// exclusive for all-day events and for timed events ending at midnight.
// Recurrence rules are ignored; only the base occurrence is used.
func presetFromEvent(comp *ics.Component) (Preset, error) {
	var p Preset

	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		p.Label = prop.Value
	}

	prop := comp.Props.Get(ics.PropDateTimeStart)
	if prop == nil {
		return p, fmt.Errorf("missing %s", ics.PropDateTimeStart)
	}
	start, err := propTime(prop)
	if err != nil {
		return p, fmt.Errorf("parse start time: %w", err)
	}

	end := start
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, err := propTime(prop)
		if err != nil {
			return p, fmt.Errorf("parse end time: %w", err)
		}
		if t.After(start) && isMidnight(t) {
			t = t.AddDate(0, 0, -1)
		}
		end = t
	}

	if p.Label == "" {
		p.Label = FromTime(start).String()
	}
	p.Range = NewRange(FromTime(start), FromTime(end))
	return p, nil
}

// propTime parses a DTSTART/DTEND property, falling back to floating and
// date-only values.
func propTime(prop *ics.Prop) (time.Time, error) {
	t, err := prop.DateTime(time.Local)
	if err == nil {
		return t, nil
	}
	// Try parsing as local datetime without timezone (floating time)
	if t, err := parseDateTime(prop.Value); err == nil {
		return t, nil
	}
	return parseDateOnly(prop.Value)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// parseDateOnly parses a date-only value (YYYYMMDD format).
func parseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// parseDateTime parses a datetime value without timezone (YYYYMMDDTHHmmss format).
// This handles "floating time" values that are neither UTC nor have a TZID.
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("20060102T150405", s, time.Local)
}

var _ Source = (*ICSSource)(nil)
