package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/config"
	"github.com/cpuguy83/calrange/internal/notify"
	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/selection"
	"github.com/cpuguy83/calrange/internal/sync"
	"github.com/cpuguy83/calrange/internal/tray"
	"github.com/cpuguy83/calrange/internal/ui"
	"github.com/cpuguy83/calrange/internal/ui/menu"
	"github.com/cpuguy83/calrange/internal/ui/term"
)

const (
	idleTooltip = "No range selected"

	// notifiedMaxAge bounds how long announced ranges are remembered for
	// duplicate suppression.
	notifiedMaxAge = time.Hour
)

// App is the main calrange application.
type App struct {
	cfg      *config.Config
	shared   *picker.Shared
	ui       ui.UI
	tray     *tray.Tray
	notifier *notify.Notifier
	syncer   *sync.Syncer

	// Context for background goroutines
	ctx    context.Context
	cancel context.CancelFunc
}

// activate wires the picker, the UI backend, the tray, notifications and
// preset syncing.
func (a *App) activate(ctx context.Context, backend string) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	var err error
	a.syncer, err = sync.NewSyncer(a.cfg)
	if err != nil {
		return fmt.Errorf("create syncer: %w", err)
	}

	opts, err := pickerOptions(a.cfg)
	if err != nil {
		return fmt.Errorf("presets: %w", err)
	}
	opts.OnSelected = a.onSelected
	opts.OnStateChange = a.onStateChange
	a.shared = picker.NewShared(picker.New(opts))

	a.ui, err = a.newUI(backend)
	if err != nil {
		return err
	}
	if err := a.ui.Init(); err != nil {
		return fmt.Errorf("init ui: %w", err)
	}

	if err := a.startTray(); err != nil {
		if backend != "term" {
			return err
		}
		slog.Warn("running without tray icon", "error", err)
	}

	if a.cfg.Notifications.Enabled {
		a.notifier, err = notify.New("CalRange")
		if err != nil {
			slog.Warn("failed to initialize notifications", "error", err)
		} else if err := a.notifier.WatchActions(a.onNotificationAction); err != nil {
			slog.Warn("failed to watch notification actions", "error", err)
		}
	}

	go a.syncer.Run(a.ctx, a.onSyncComplete)

	slog.Info("calrange running",
		"backend", backend,
		"sources", a.syncer.SourceCount(),
		"sync_interval", a.syncer.Interval(),
	)
	return nil
}

func (a *App) newUI(backend string) (ui.UI, error) {
	cfg := ui.Config{Picker: a.shared, HideOnSelect: true}
	switch backend {
	case "gtk":
		return ui.NewGTK(cfg), nil
	case "menu":
		m, err := menu.New(menu.Config{
			Program: a.cfg.UI.MenuProgram,
			Args:    a.cfg.UI.MenuArgs,
			Picker:  a.shared,
		})
		if err != nil {
			return nil, fmt.Errorf("create menu ui: %w", err)
		}
		return m, nil
	case "term":
		cfg.HideOnSelect = false
		return term.New(cfg, tea.WithAltScreen()), nil
	}
	return nil, fmt.Errorf("unknown ui backend %q", backend)
}

func (a *App) startTray() error {
	var err error
	a.tray, err = tray.New()
	if err != nil {
		a.tray = nil
		return fmt.Errorf("create tray: %w", err)
	}

	a.tray.OnActivate(func() {
		slog.Debug("tray activated, toggling picker")
		a.ui.Toggle()
	})
	a.tray.OnSecondaryActivate(a.clearSelection)
	a.tray.OnScroll(func(steps int) {
		a.shared.Do(func(p *picker.Picker) {
			if steps > 0 {
				p.NextMonth()
			} else {
				p.PrevMonth()
			}
		})
		a.ui.Refresh()
	})

	if err := a.tray.Start(); err != nil {
		a.tray = nil
		return fmt.Errorf("start tray: %w", err)
	}
	return nil
}

// runTerm runs the terminal backend in the foreground.
func (a *App) runTerm() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.activate(ctx, "term"); err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}
	defer a.cleanup()

	t, ok := a.ui.(*term.Term)
	if !ok {
		return fmt.Errorf("unexpected ui %T", a.ui)
	}
	return t.Run(a.ctx)
}

// runWithoutGTK runs the menu backend until a signal arrives.
func (a *App) runWithoutGTK() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.activate(ctx, "menu"); err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}

	<-ctx.Done()
	slog.Info("received signal, shutting down")
	a.cleanup()
	return nil
}

// cleanup releases resources when the app is shutting down.
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tray != nil {
		a.tray.Stop()
	}
	if a.syncer != nil {
		if err := a.syncer.Close(); err != nil {
			slog.Warn("failed to close sources", "error", err)
		}
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
}

// onSelected runs inside the picker lock, so the slow parts are handed to
// a goroutine and nothing here calls back into the picker.
func (a *App) onSelected(start, end time.Time) {
	r := calendar.NewRange(calendar.FromTime(start), calendar.FromTime(end))
	slog.Info("range selected", "range", r, "days", r.Days())

	if a.tray != nil {
		a.tray.SetTooltip(ui.FormatRange(r))
	}
	if a.ui != nil {
		a.ui.Refresh()
	}
	go a.publish(r)
}

// publish exports and announces a selected range.
func (a *App) publish(r calendar.Range) {
	if path := a.cfg.Export.Path; path != "" {
		sel := calendar.Preset{Label: "Selection", Range: r, Source: "calrange"}
		if err := calendar.WriteICS(path, []calendar.Preset{sel}); err != nil {
			slog.Warn("failed to export selection", "path", path, "error", err)
		} else {
			slog.Debug("exported selection", "path", path)
		}
	}

	if a.notifier != nil {
		if _, err := a.notifier.Send(notify.RangeSelected(r)); err != nil {
			slog.Warn("failed to send notification", "error", err)
		}
	}
}

// onStateChange runs inside the picker lock.
func (a *App) onStateChange(s selection.State) {
	if a.tray == nil {
		return
	}
	a.tray.SetState(tray.StateFor(s))
	if s == selection.StateEmpty {
		a.tray.SetTooltip(idleTooltip)
	}
}

func (a *App) clearSelection() {
	a.shared.Do(func(p *picker.Picker) {
		p.Reset()
	})
	a.ui.Refresh()
}

func (a *App) onNotificationAction(id uint32, actionKey string) {
	slog.Debug("notification action", "id", id, "action", actionKey)
	if actionKey == notify.ActionClear {
		a.clearSelection()
	}
}

// onSyncComplete is called after each sync completes. The configured
// presets always come back, so they are applied even when remote sources
// failed.
func (a *App) onSyncComplete(presets []calendar.Preset, err error) {
	if err != nil {
		slog.Warn("sync failed", "error", err)
	}
	if a.notifier != nil {
		a.notifier.CleanupOldNotifications(notifiedMaxAge)
	}

	var state selection.State
	a.shared.Do(func(p *picker.Picker) {
		p.SetPresets(presets)
		state = p.State()
	})

	stale := err != nil
	a.ui.SetStale(stale)
	a.ui.Refresh()

	if a.tray != nil {
		if stale {
			a.tray.SetState(tray.StateStale)
		} else {
			a.tray.SetState(tray.StateFor(state))
		}
	}
}
