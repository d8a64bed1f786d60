// Package config provides configuration loading for calrange.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"
)

// Config is the root configuration structure.
type Config struct {
	Locale        LocaleConfig       `yaml:"locale"`
	Years         YearsConfig        `yaml:"years"`
	Presets       []PresetConfig     `yaml:"presets"`
	Sources       []SourceConfig     `yaml:"sources"`
	Filters       FilterConfig       `yaml:"filters"`
	Sync          SyncConfig         `yaml:"sync"`
	Export        ExportConfig       `yaml:"export"`
	Notifications NotificationConfig `yaml:"notifications"`
	UI            UIConfig           `yaml:"ui"`
}

// LocaleConfig holds the display name tables.
type LocaleConfig struct {
	Months   []string `yaml:"months"`   // 12 names, January first
	Weekdays []string `yaml:"weekdays"` // 7 names, Sunday first
}

// YearsConfig configures the year picker window.
type YearsConfig struct {
	Kind  string `yaml:"kind"` // "middle", "future", "past"
	Range int    `yaml:"range"`
}

// PresetConfig defines a preset range, either relative to today (From/To)
// or with absolute dates (Start/End).
type PresetConfig struct {
	Label string        `yaml:"label"`
	From  time.Duration `yaml:"-"` // How far before today the range starts
	To    time.Duration `yaml:"-"` // How far before today the range ends
	Start string        `yaml:"start,omitempty"`
	End   string        `yaml:"end,omitempty"`

	relative bool
}

// SourceConfig configures a preset source.
type SourceConfig struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"` // "ics", "caldav", "icloud", "ms365"
	URL         string       `yaml:"url"`
	Username    string       `yaml:"username,omitempty"`
	Password    string       `yaml:"password,omitempty"`
	PasswordCmd string       `yaml:"password_cmd,omitempty"`
	Calendars   []string     `yaml:"calendars,omitempty"` // For CalDAV: which calendars to sync
	Filters     FilterConfig `yaml:"filters,omitempty"`   // Per-source filters (include)
}

// FilterConfig configures preset filtering.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single filter rule. At most one of Contains, Exact,
// Prefix, Suffix or Regex applies to Field; the date and length constraints
// apply to the preset's range. All conditions given must hold.
type FilterRule struct {
	Field           string `yaml:"field"`              // "label", "source", "start", "end"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`

	After   string `yaml:"after,omitempty"`    // Range starts on or after (YYYY-MM-DD)
	Before  string `yaml:"before,omitempty"`   // Range ends on or before (YYYY-MM-DD)
	MinDays int    `yaml:"min_days,omitempty"` // Inclusive length bounds
	MaxDays int    `yaml:"max_days,omitempty"`
}

// SyncConfig configures preset source refreshing.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"` // CalDAV query window either side of today
}

// ExportConfig configures the ICS export of the selected range.
type ExportConfig struct {
	Path string `yaml:"path"` // Empty disables export
}

// NotificationConfig configures desktop notifications.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled"`
}

// UIConfig configures the user interface.
type UIConfig struct {
	Backend     string   `yaml:"backend"`      // "auto", "gtk", "menu", "term"
	MenuProgram string   `yaml:"menu_program"` // For the menu backend; auto-detect if empty
	MenuArgs    []string `yaml:"menu_args"`
}

// Load reads configuration from the default location (~/.config/calrange/config.yaml).
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "calrange", "config.yaml"), nil
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses, defaults and validates configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Export.Path = expandPath(cfg.Export.Path)
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Years.Kind == "" {
		c.Years.Kind = "middle"
	}
	if c.Years.Range == 0 {
		c.Years.Range = picker.DefaultYearRange
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = time.Hour
	}
	if c.Sync.Window == 0 {
		c.Sync.Window = 365 * 24 * time.Hour
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	if c.UI.Backend == "" {
		c.UI.Backend = "auto"
	}
}

func (c *Config) validate() error {
	if n := len(c.Locale.Months); n != 0 && n != 12 {
		return fmt.Errorf("locale.months: expected 12 names, got %d", n)
	}
	if n := len(c.Locale.Weekdays); n != 0 && n != 7 {
		return fmt.Errorf("locale.weekdays: expected 7 names, got %d", n)
	}
	if _, err := picker.ParseYearKind(c.Years.Kind); err != nil {
		return fmt.Errorf("years: %w", err)
	}
	if c.Years.Range < 0 {
		return errors.New("years.range must be positive")
	}
	for i, p := range c.Presets {
		if _, err := p.Spec(); err != nil {
			return fmt.Errorf("preset %d: %w", i, err)
		}
	}
	for i, s := range c.Sources {
		switch s.Type {
		case "ics", "caldav", "icloud", "ms365":
		default:
			return fmt.Errorf("source %d (%s): unknown type %q", i, s.Name, s.Type)
		}
		if s.URL == "" && (s.Type == "ics" || s.Type == "caldav") {
			return fmt.Errorf("source %d (%s): url is required", i, s.Name)
		}
	}
	switch c.UI.Backend {
	case "auto", "gtk", "menu", "term":
	default:
		return fmt.Errorf("ui.backend: unknown backend %q", c.UI.Backend)
	}
	return nil
}

// YearPolicy returns the configured year picker policy.
func (c *Config) YearPolicy() picker.YearPolicy {
	kind, _ := picker.ParseYearKind(c.Years.Kind)
	return picker.YearPolicy{Kind: kind, Range: c.Years.Range}
}

// PresetSpecs converts the configured presets.
func (c *Config) PresetSpecs() ([]calendar.PresetSpec, error) {
	specs := make([]calendar.PresetSpec, 0, len(c.Presets))
	for i, p := range c.Presets {
		spec, err := p.Spec()
		if err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Spec converts the preset to a calendar.PresetSpec.
func (p PresetConfig) Spec() (calendar.PresetSpec, error) {
	if p.Label == "" {
		return calendar.PresetSpec{}, errors.New("label is required")
	}

	hasAbs := p.Start != "" || p.End != ""
	switch {
	case p.relative && hasAbs:
		return calendar.PresetSpec{}, fmt.Errorf("%s: use either from/to or start/end", p.Label)
	case p.relative:
		return calendar.PresetSpec{
			Label:    p.Label,
			Relative: true,
			From:     days(p.From),
			To:       days(p.To),
		}, nil
	case p.Start == "" || p.End == "":
		return calendar.PresetSpec{}, fmt.Errorf("%s: needs from/to or start/end", p.Label)
	}

	start, err := calendar.ParseKey(p.Start)
	if err != nil {
		return calendar.PresetSpec{}, fmt.Errorf("%s: start: %w", p.Label, err)
	}
	end, err := calendar.ParseKey(p.End)
	if err != nil {
		return calendar.PresetSpec{}, fmt.Errorf("%s: end: %w", p.Label, err)
	}
	return calendar.PresetSpec{Label: p.Label, Start: start, End: end}, nil
}

func days(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}
	if s.PasswordCmd == "" {
		return "", nil
	}

	// Execute the password command
	cmd := exec.Command("sh", "-c", s.PasswordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration parses a duration string, additionally accepting whole
// days ("14d") and weeks ("2w").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}

	var d time.Duration
	if unit != 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d = time.Duration(n) * unit
	} else {
		var err error
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
	}

	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (c *SyncConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Window   string `yaml:"window"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	d, err := parseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("parse interval: %w", err)
	}
	c.Interval = d

	d, err = parseDuration(raw.Window)
	if err != nil {
		return fmt.Errorf("parse window: %w", err)
	}
	c.Window = d
	return nil
}

// UnmarshalYAML implements custom unmarshaling for relative preset bounds.
func (p *PresetConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Label string `yaml:"label"`
		From  string `yaml:"from"`
		To    string `yaml:"to"`
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	p.Label = raw.Label
	p.Start = raw.Start
	p.End = raw.End
	p.relative = raw.From != "" || raw.To != ""

	d, err := parseDuration(raw.From)
	if err != nil {
		return fmt.Errorf("parse preset from: %w", err)
	}
	p.From = d

	d, err = parseDuration(raw.To)
	if err != nil {
		return fmt.Errorf("parse preset to: %w", err)
	}
	p.To = d
	return nil
}
