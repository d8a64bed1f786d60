package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/config"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/ui"
	"github.com/cpuguy83/calrange/internal/ui/term"
)

// pickerOptions builds picker options from the configuration.
func pickerOptions(cfg *config.Config) (picker.Options, error) {
	specs, err := cfg.PresetSpecs()
	if err != nil {
		return picker.Options{}, err
	}
	presets, err := calendar.NewStaticSource("config", specs).Fetch(context.Background())
	if err != nil {
		return picker.Options{}, err
	}
	return picker.Options{
		MonthNames:   cfg.Locale.Months,
		WeekdayNames: cfg.Locale.Weekdays,
		Years:        cfg.YearPolicy(),
		Presets:      presets,
	}, nil
}

// printCalendar renders one month to w. month is YYYY-MM and sel is an
// optional "from,to" pair of ISO dates; both may be empty. A nil today
// means the real date.
func printCalendar(w io.Writer, cfg *config.Config, month, sel string, today func() calendar.Date) error {
	opts, err := pickerOptions(cfg)
	if err != nil {
		return err
	}
	opts.Today = today
	p := picker.New(opts)

	if sel != "" {
		from, to, ok := strings.Cut(sel, ",")
		if !ok {
			return fmt.Errorf("select %q: expected from,to", sel)
		}
		a, err := calendar.ParseKey(strings.TrimSpace(from))
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		b, err := calendar.ParseKey(strings.TrimSpace(to))
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		p.Activate(a)
		p.Activate(b)
		p.SetCursor(a.Year, a.Month)
	}

	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("month %q: %w", month, err)
		}
		p.SetCursor(t.Year(), int(t.Month())-1)
	}

	_, err = fmt.Fprintln(w, term.Render(ui.Snapshot(p), term.Focus{}, false))
	return err
}
