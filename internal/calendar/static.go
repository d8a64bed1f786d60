package calendar

import (
	"context"
	"time"
)

// PresetSpec describes a preset either relative to today or with fixed dates.
type PresetSpec struct {
	Label string

	// Relative presets span From to To days before today.
	Relative bool
	From     int
	To       int

	// Absolute presets span Start to End.
	Start Date
	End   Date
}

// Resolve returns the preset for the given day.
func (s PresetSpec) Resolve(today Date) Preset {
	if s.Relative {
		return Preset{
			Label: s.Label,
			Range: NewRange(today.AddDays(-s.From), today.AddDays(-s.To)),
		}
	}
	return Preset{Label: s.Label, Range: NewRange(s.Start, s.End)}
}

// StaticSource serves presets defined in configuration. Relative presets
// are resolved against the current day on every fetch.
type StaticSource struct {
	name  string
	specs []PresetSpec
	now   func() time.Time
}

// NewStaticSource creates a source for the given preset specs.
func NewStaticSource(name string, specs []PresetSpec) *StaticSource {
	return &StaticSource{
		name:  name,
		specs: specs,
		now:   time.Now,
	}
}

// Name returns the display name of this source.
func (s *StaticSource) Name() string {
	return s.name
}

// Fetch resolves the configured presets.
func (s *StaticSource) Fetch(ctx context.Context) ([]Preset, error) {
	today := FromTime(s.now())
	presets := make([]Preset, 0, len(s.specs))
	for _, spec := range s.specs {
		p := spec.Resolve(today)
		p.Source = s.name
		presets = append(presets, p)
	}
	return presets, nil
}

var _ Source = (*StaticSource)(nil)
