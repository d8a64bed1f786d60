// Package sync provides preset synchronization from multiple sources.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/config"
	"github.com/cpuguy83/calrange/internal/filter"
)

// sourceWithFilter pairs a preset source with its optional filter.
type sourceWithFilter struct {
	source calendar.Source
	filter *filter.Filter
}

// Syncer handles preset synchronization from multiple sources.
type Syncer struct {
	static   calendar.Source
	sources  []sourceWithFilter
	global   *filter.Filter
	interval time.Duration
}

// NewSyncer creates a new Syncer from configuration.
func NewSyncer(cfg *config.Config) (*Syncer, error) {
	specs, err := cfg.PresetSpecs()
	if err != nil {
		return nil, err
	}

	sources, err := createSources(cfg.Sources, cfg.Sync.Window)
	if err != nil {
		return nil, err
	}

	global, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("global filter: %w", err)
	}

	return &Syncer{
		static:   calendar.NewStaticSource("config", specs),
		sources:  sources,
		global:   global,
		interval: cfg.Sync.Interval,
	}, nil
}

// Interval returns the configured sync interval.
func (s *Syncer) Interval() time.Duration {
	return s.interval
}

// SourceCount returns the number of configured remote sources.
func (s *Syncer) SourceCount() int {
	return len(s.sources)
}

// Close releases every source that holds resources, such as the
// Microsoft 365 token provider.
func (s *Syncer) Close() error {
	var errs []error
	for _, swf := range s.sources {
		c, ok := swf.source.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", swf.source.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Sync resolves the configured presets, fetches all sources, applies
// filters, and returns the configured presets followed by the merged
// fetched ones.
func (s *Syncer) Sync(ctx context.Context) ([]calendar.Preset, error) {
	slog.Info("starting sync", "sources", len(s.sources))

	var static []calendar.Preset
	if s.static != nil {
		var err error
		static, err = s.static.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve presets: %w", err)
		}
	}

	// Fetch from all sources in parallel, applying per-source filters
	type result struct {
		presets  []calendar.Preset
		name     string
		fetched  int // count before filtering
		filtered int // count after filtering
		err      error
	}

	results := make(chan result, len(s.sources))
	var wg sync.WaitGroup

	for _, swf := range s.sources {
		wg.Go(func() {
			name := swf.source.Name()
			slog.Debug("fetching source", "name", name)

			presets, err := swf.source.Fetch(ctx)
			if err != nil {
				results <- result{name: name, err: err}
				return
			}

			fetched := len(presets)

			// Apply per-source filter (if no rules, all presets pass through)
			if swf.filter != nil {
				presets = swf.filter.Apply(presets)
			}

			results <- result{
				presets:  presets,
				name:     name,
				fetched:  fetched,
				filtered: len(presets),
			}
		})
	}

	// Close results channel when all goroutines complete
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	var sets [][]calendar.Preset
	var firstErr error
	for r := range results {
		if r.err != nil {
			slog.Warn("failed to fetch source", "name", r.name, "error", r.err)
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		slog.Info("fetched source", "name", r.name, "fetched", r.fetched, "after_filter", r.filtered)
		sets = append(sets, r.presets)
	}

	fetched := calendar.Merge(sets...)
	if s.global != nil {
		fetched = s.global.Apply(fetched)
	}

	all := append(static, fetched...)
	slog.Info("sync complete", "presets", len(all))

	// Return presets even if some sources failed (partial success).
	// Only return an error if nothing was fetched at all.
	if len(fetched) == 0 && firstErr != nil {
		return static, firstErr
	}

	return all, nil
}

// Run starts the sync loop, calling onSync after each sync completes.
// The callback receives the synced presets and any error; on error the
// presets may still hold the configured ones.
// Run blocks until the context is cancelled.
func (s *Syncer) Run(ctx context.Context, onSync func([]calendar.Preset, error)) {
	// Initial sync
	presets, err := s.Sync(ctx)
	onSync(presets, err)

	// Periodic sync
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			presets, err := s.Sync(ctx)
			onSync(presets, err)
		case <-ctx.Done():
			return
		}
	}
}

// createSources creates preset sources with their per-source filters from configuration.
func createSources(cfgs []config.SourceConfig, window time.Duration) ([]sourceWithFilter, error) {
	var sources []sourceWithFilter

	for _, cfg := range cfgs {
		password, err := cfg.GetPassword()
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		var src calendar.Source
		switch cfg.Type {
		case "ics":
			src = calendar.NewICSSource(cfg.Name, cfg.URL, cfg.Username, password)
		case "caldav":
			src = calendar.NewCalDAVSource(cfg.Name, cfg.URL, cfg.Username, password, cfg.Calendars, window)
		case "icloud":
			src = calendar.NewICloudSource(cfg.Name, cfg.Username, password, cfg.Calendars, window)
		case "ms365":
			src = calendar.NewMS365Source(cfg.Name, window)
		default:
			slog.Warn("unknown source type", "type", cfg.Type, "name", cfg.Name)
			continue
		}

		// Create per-source filter (if no rules, filter passes everything through)
		f, err := filter.New(cfg.Filters)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		sources = append(sources, sourceWithFilter{
			source: src,
			filter: f,
		})
	}

	return sources, nil
}
