// calrange is a system tray date range picker. The selected range is
// exported as an ICS event and announced with a desktop notification.
package main

import (
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cpuguy83/calrange/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/calrange/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
		printOnly  = flag.Bool("print", false, "render the calendar in the terminal and exit")
		selectFlag = flag.String("select", "", "range to select before printing (YYYY-MM-DD,YYYY-MM-DD)")
		monthFlag  = flag.String("month", "", "month to print (YYYY-MM, default: this month)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *printOnly {
		if err := printCalendar(os.Stdout, cfg, *monthFlag, *selectFlag, nil); err != nil {
			slog.Error("print failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("starting calrange",
		"backend", cfg.UI.Backend,
		"sources", len(cfg.Sources),
		"interval", cfg.Sync.Interval,
	)

	app := &App{cfg: cfg}
	if err := app.Run(); err != nil {
		slog.Error("app failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing default config file means
// defaults; a missing explicit one is an error.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no config file, using defaults")
		return config.Default(), nil
	}
	return cfg, err
}
