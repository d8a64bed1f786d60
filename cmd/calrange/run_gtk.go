//go:build !nogtk && cgo

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cpuguy83/calrange/internal/ui"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Run starts the application with the main loop of the configured backend.
func (a *App) Run() error {
	switch a.cfg.UI.Backend {
	case "term":
		return a.runTerm()
	case "menu":
		return a.runWithoutGTK()
	case "gtk":
		return a.runWithGTK()
	}
	if ui.GTKAvailable() {
		return a.runWithGTK()
	}
	return a.runWithoutGTK()
}

// runWithGTK runs the application with the GTK main loop.
func (a *App) runWithGTK() error {
	gtkApp := gtk.NewApplication("com.github.cpuguy83.calrange", gio.ApplicationFlagsNone)

	gtkApp.ConnectActivate(func() {
		// Tray apps have no window most of the time.
		gtkApp.Hold()

		if err := a.activate(context.Background(), "gtk"); err != nil {
			slog.Error("activation failed", "error", err)
			gtkApp.Quit()
		}
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("received signal, shutting down")
		if a.cancel != nil {
			a.cancel()
		}
		glib.IdleAdd(func() {
			gtkApp.Quit()
		})
	}()

	if code := gtkApp.Run(nil); code != 0 {
		return fmt.Errorf("GTK application exited with code %d", code)
	}

	a.cleanup()
	return nil
}
