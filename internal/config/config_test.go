package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Days
		{"1d", 24 * time.Hour, false},
		{"14d", 14 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},

		// Weeks
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"4w", 28 * 24 * time.Hour, false},

		// Standard Go durations
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"336h", 14 * 24 * time.Hour, false},
		{"1h30m", time.Hour + 30*time.Minute, false},

		// Edge cases
		{"0d", 0, false},
		{"0w", 0, false},
		{"", 0, false},
		{"  14d  ", 14 * 24 * time.Hour, false},

		// Errors
		{"invalid", 0, true},
		{"d", 0, true},
		{"w", 0, true},
		{"14x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
locale:
  weekdays: [So, Mo, Di, Mi, Do, Fr, Sa]
years:
  kind: past
  range: 5
presets:
  - label: Last 7 days
    from: 7d
    to: 1d
  - label: Last month
    from: 4w
  - label: Q1 2024
    start: 2024-01-01
    end: "2024-03-31"
sources:
  - name: holidays
    type: ics
    url: https://example.com/holidays.ics
    filters:
      rules:
        - field: label
          contains: break
  - name: work
    type: ms365
sync:
  interval: 30m
  window: 90d
export:
  path: ~/selection.ics
ui:
  backend: menu
  menu_program: fuzzel
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("interval = %v", cfg.Sync.Interval)
	}
	if cfg.Sync.Window != 90*24*time.Hour {
		t.Errorf("window = %v", cfg.Sync.Window)
	}
	if cfg.UI.Backend != "menu" || cfg.UI.MenuProgram != "fuzzel" {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if strings.HasPrefix(cfg.Export.Path, "~") {
		t.Errorf("export path not expanded: %s", cfg.Export.Path)
	}
	if cfg.Filters.Mode != "or" {
		t.Errorf("filter mode default = %q", cfg.Filters.Mode)
	}
	if len(cfg.Sources) != 2 || len(cfg.Sources[0].Filters.Rules) != 1 || cfg.Sources[1].Type != "ms365" {
		t.Fatalf("sources = %+v", cfg.Sources)
	}

	policy := cfg.YearPolicy()
	if policy.Kind != picker.Past || policy.Range != 5 {
		t.Errorf("year policy = %+v", policy)
	}

	specs, err := cfg.PresetSpecs()
	if err != nil {
		t.Fatal(err)
	}
	want := []calendar.PresetSpec{
		{Label: "Last 7 days", Relative: true, From: 7, To: 1},
		{Label: "Last month", Relative: true, From: 28, To: 0},
		{Label: "Q1 2024", Start: calendar.NewDate(2024, 0, 1), End: calendar.NewDate(2024, 2, 31)},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec %d = %+v, want %+v", i, specs[i], want[i])
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("interval = %v", cfg.Sync.Interval)
	}
	if cfg.Sync.Window != 365*24*time.Hour {
		t.Errorf("window = %v", cfg.Sync.Window)
	}
	if cfg.UI.Backend != "auto" {
		t.Errorf("backend = %q", cfg.UI.Backend)
	}
	if p := cfg.YearPolicy(); p.Kind != picker.Middle || p.Range != picker.DefaultYearRange {
		t.Errorf("year policy = %+v", p)
	}
	if cfg.Export.Path != "" {
		t.Errorf("export enabled by default: %q", cfg.Export.Path)
	}

	if d := Default(); d.UI.Backend != "auto" || d.Sync.Interval != time.Hour {
		t.Errorf("Default() = %+v", d)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short month table", "locale:\n  months: [Jan, Feb]\n"},
		{"long weekday table", "locale:\n  weekdays: [a, b, c, d, e, f, g, h]\n"},
		{"unknown year kind", "years:\n  kind: sideways\n"},
		{"preset without bounds", "presets:\n  - label: Nothing\n"},
		{"preset without label", "presets:\n  - from: 1d\n"},
		{"preset with both forms", "presets:\n  - label: Both\n    from: 1d\n    start: 2024-01-01\n    end: 2024-01-02\n"},
		{"preset bad date", "presets:\n  - label: Bad\n    start: 2024-02-30\n    end: 2024-03-01\n"},
		{"negative duration", "presets:\n  - label: Neg\n    from: -1d\n"},
		{"bad interval", "sync:\n  interval: soon\n"},
		{"unknown source type", "sources:\n  - name: x\n    type: outlook\n    url: https://example.com\n"},
		{"missing url", "sources:\n  - name: x\n    type: ics\n"},
		{"unknown backend", "ui:\n  backend: qt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("notifications:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Notifications.Enabled {
		t.Error("notifications not enabled")
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestGetPassword(t *testing.T) {
	s := SourceConfig{Password: "direct", PasswordCmd: "echo ignored"}
	if got, err := s.GetPassword(); err != nil || got != "direct" {
		t.Errorf("GetPassword() = %q, %v", got, err)
	}

	s = SourceConfig{PasswordCmd: "echo '  from-cmd  '"}
	if got, err := s.GetPassword(); err != nil || got != "from-cmd" {
		t.Errorf("GetPassword() = %q, %v", got, err)
	}

	s = SourceConfig{}
	if got, err := s.GetPassword(); err != nil || got != "" {
		t.Errorf("GetPassword() = %q, %v", got, err)
	}
}
