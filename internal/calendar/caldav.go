package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAVSource loads presets from the events of a CalDAV server.
type CalDAVSource struct {
	name      string
	url       string
	username  string
	password  string
	calendars []string      // Optional: specific calendars to use
	window    time.Duration // How far around today to query
}

// NewCalDAVSource creates a new CalDAV preset source.
func NewCalDAVSource(name, url, username, password string, calendars []string, window time.Duration) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       url,
		username:  username,
		password:  password,
		calendars: calendars,
		window:    window,
	}
}

// iCloudCalDAVURL is the base URL for iCloud CalDAV.
const iCloudCalDAVURL = "https://caldav.icloud.com"

// NewICloudSource creates a new iCloud preset source.
// iCloud uses CalDAV with a specific server URL.
func NewICloudSource(name, username, password string, calendars []string, window time.Duration) *CalDAVSource {
	return NewCalDAVSource(name, iCloudCalDAVURL, username, password, calendars, window)
}

// Name returns the display name of this preset source.
func (s *CalDAVSource) Name() string {
	return s.name
}

// Fetch retrieves presets from the CalDAV server.
func (s *CalDAVSource) Fetch(ctx context.Context) ([]Preset, error) {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, s.url)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var all []Preset
	for _, cal := range cals {
		if len(s.calendars) > 0 && !s.shouldUseCalendar(cal.Name) {
			continue
		}

		presets, err := s.fetchCalendarPresets(ctx, client, cal)
		if err != nil {
			// Log but continue with other calendars
			slog.Warn("failed to query calendar", "source", s.name, "calendar", cal.Name, "error", err)
			continue
		}

		all = append(all, presets...)
	}

	return all, nil
}

// shouldUseCalendar checks if a calendar was selected in the config.
func (s *CalDAVSource) shouldUseCalendar(name string) bool {
	for _, c := range s.calendars {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// fetchCalendarPresets queries a single calendar for events around today.
func (s *CalDAVSource) fetchCalendarPresets(ctx context.Context, client *caldav.Client, cal caldav.Calendar) ([]Preset, error) {
	now := time.Now()
	start := now.Add(-s.window)
	end := now.Add(s.window)

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name: "VEVENT",
				Props: []string{
					"SUMMARY",
					"DTSTART",
					"DTEND",
					"UID",
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	var presets []Preset
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		presets = append(presets, s.parseCalendarObject(obj.Data, cal.Name)...)
	}

	return presets, nil
}

// parseCalendarObject converts the events of a CalDAV object into presets.
func (s *CalDAVSource) parseCalendarObject(data *ics.Calendar, calName string) []Preset {
	var presets []Preset

	for _, comp := range data.Children {
		if comp.Name != ics.CompEvent {
			continue
		}

		p, err := presetFromEvent(comp)
		if err != nil {
			continue
		}
		p.Source = fmt.Sprintf("%s/%s", s.name, calName)
		presets = append(presets, p)
	}

	return presets
}

// basicAuthTransport adds basic auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

var _ Source = (*CalDAVSource)(nil)
