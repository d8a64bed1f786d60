package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cpuguy83/calrange/internal/auth"
)

const (
	graphCalendarEndpoint = "https://graph.microsoft.com/v1.0/me/calendarView"
	calendarReadScope     = "Calendars.Read"
)

// MS365Source loads presets from the all-day events of a Microsoft 365
// calendar (holidays, out of office blocks) through the Graph API.
type MS365Source struct {
	name     string
	window   time.Duration
	endpoint string
	client   *http.Client
	now      func() time.Time

	newProvider func(ctx context.Context) (auth.Provider, error)
	initOnce    sync.Once
	provider    auth.Provider
	initErr     error
}

// NewMS365Source creates a Microsoft 365 preset source querying window
// either side of today.
func NewMS365Source(name string, window time.Duration) *MS365Source {
	return &MS365Source{
		name:     name,
		window:   window,
		endpoint: graphCalendarEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
		newProvider: func(ctx context.Context) (auth.Provider, error) {
			return auth.NewProvider(ctx, "", []string{calendarReadScope})
		},
	}
}

// Name returns the display name of this preset source.
func (s *MS365Source) Name() string {
	return s.name
}

// Fetch retrieves presets from the user's calendar view. Authentication is
// set up on the first call.
func (s *MS365Source) Fetch(ctx context.Context) ([]Preset, error) {
	s.initOnce.Do(func() {
		s.provider, s.initErr = s.newProvider(ctx)
	})
	if s.initErr != nil {
		return nil, s.initErr
	}

	token, err := s.provider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	now := s.now()
	params := url.Values{}
	params.Set("startDateTime", now.Add(-s.window).UTC().Format(time.RFC3339))
	params.Set("endDateTime", now.Add(s.window).UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "500")
	params.Set("$select", "id,subject,start,end,isAllDay,isCancelled")

	var presets []Preset
	for reqURL := s.endpoint + "?" + params.Encode(); reqURL != ""; {
		page, next, err := s.fetchPage(ctx, token.AccessToken, reqURL)
		if err != nil {
			return nil, fmt.Errorf("fetch calendar: %w", err)
		}
		presets = append(presets, page...)
		reqURL = next
	}

	slog.Debug("fetched MS365 presets", "source", s.name, "count", len(presets))
	return presets, nil
}

// Close releases the token provider.
func (s *MS365Source) Close() error {
	if s.provider != nil {
		return s.provider.Close()
	}
	return nil
}

type graphCalendarResponse struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink,omitempty"`
}

type graphEvent struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	Start       graphDateTime `json:"start"`
	End         graphDateTime `json:"end"`
	IsAllDay    bool          `json:"isAllDay"`
	IsCancelled bool          `json:"isCancelled"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

func (s *MS365Source) fetchPage(ctx context.Context, accessToken, reqURL string) ([]Preset, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("graph API error: status %d: %s", resp.StatusCode, string(body))
	}

	var graphResp graphCalendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&graphResp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	presets := make([]Preset, 0, len(graphResp.Value))
	for _, ge := range graphResp.Value {
		if ge.IsCancelled || !ge.IsAllDay {
			continue
		}
		p, err := s.presetFromGraph(ge)
		if err != nil {
			slog.Warn("skip event conversion error", "id", ge.ID, "error", err)
			continue
		}
		presets = append(presets, p)
	}
	return presets, graphResp.NextLink, nil
}

// presetFromGraph converts an all-day Graph event. Its end is the exclusive
// midnight after the last day.
func (s *MS365Source) presetFromGraph(ge graphEvent) (Preset, error) {
	start, err := parseGraphDateTime(ge.Start)
	if err != nil {
		return Preset{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := parseGraphDateTime(ge.End)
	if err != nil {
		return Preset{}, fmt.Errorf("parse end: %w", err)
	}
	if end.After(start) {
		end = end.AddDate(0, 0, -1)
	}

	first := NewDate(start.Year(), int(start.Month())-1, start.Day())
	last := NewDate(end.Year(), int(end.Month())-1, end.Day())
	label := ge.Subject
	if label == "" {
		label = first.String()
	}
	return Preset{Label: label, Range: NewRange(first, last), Source: s.name}, nil
}

// parseGraphDateTime parses a Graph datetime such as
// "2024-01-15T00:00:00.0000000". Times are UTC as requested in the Prefer
// header; all-day events sit on UTC midnight.
func parseGraphDateTime(gdt graphDateTime) (time.Time, error) {
	for _, format := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(format, gdt.DateTime, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse datetime: %s", gdt.DateTime)
}

var _ Source = (*MS365Source)(nil)
