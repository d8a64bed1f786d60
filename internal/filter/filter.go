// Package filter selects which synced presets are offered in the picker.
//
// A rule combines an optional text match on one preset field with optional
// date constraints on the preset's range. Every condition in a rule must
// hold; the filter mode decides whether one rule ("or") or all rules
// ("and") must match.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/config"
)

// Filter applies include rules to presets. A nil Filter keeps everything.
type Filter struct {
	all   bool
	rules []rule
}

// rule is a compiled config.FilterRule: a conjunction of predicates.
type rule []func(calendar.Preset) bool

// New compiles the rules of cfg.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{}
	switch cfg.Mode {
	case "", "or":
	case "and":
		f.all = true
	default:
		return nil, fmt.Errorf("unknown filter mode %q", cfg.Mode)
	}

	for i, r := range cfg.Rules {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, compiled)
	}
	return f, nil
}

func compileRule(r config.FilterRule) (rule, error) {
	var out rule

	text, err := textMatcher(r)
	if err != nil {
		return nil, err
	}
	if text != nil {
		value, err := fieldValue(r.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, func(p calendar.Preset) bool { return text(value(p)) })
	}

	if r.After != "" {
		d, err := calendar.ParseKey(r.After)
		if err != nil {
			return nil, fmt.Errorf("after: %w", err)
		}
		out = append(out, func(p calendar.Preset) bool { return !p.Range.Start.Before(d) })
	}
	if r.Before != "" {
		d, err := calendar.ParseKey(r.Before)
		if err != nil {
			return nil, fmt.Errorf("before: %w", err)
		}
		out = append(out, func(p calendar.Preset) bool { return !p.Range.End.After(d) })
	}

	if r.MinDays < 0 || r.MaxDays < 0 {
		return nil, errors.New("min_days and max_days must not be negative")
	}
	if r.MaxDays > 0 && r.MinDays > r.MaxDays {
		return nil, fmt.Errorf("min_days %d exceeds max_days %d", r.MinDays, r.MaxDays)
	}
	if r.MinDays > 0 {
		out = append(out, func(p calendar.Preset) bool { return p.Range.Days() >= r.MinDays })
	}
	if r.MaxDays > 0 {
		out = append(out, func(p calendar.Preset) bool { return p.Range.Days() <= r.MaxDays })
	}

	if len(out) == 0 {
		return nil, errors.New("rule has no condition (use contains, exact, prefix, suffix, regex, after, before, min_days or max_days)")
	}
	return out, nil
}

// textMatcher returns nil when the rule has no text pattern.
func textMatcher(r config.FilterRule) (func(string) bool, error) {
	if r.Regex != "" {
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		return re.MatchString, nil
	}

	var pattern string
	var match func(s, pattern string) bool
	switch {
	case r.Exact != "":
		pattern, match = r.Exact, func(s, p string) bool { return s == p }
	case r.Prefix != "":
		pattern, match = r.Prefix, strings.HasPrefix
	case r.Suffix != "":
		pattern, match = r.Suffix, strings.HasSuffix
	case r.Contains != "":
		pattern, match = r.Contains, strings.Contains
	default:
		return nil, nil
	}

	if !r.CaseInsensitive {
		return func(s string) bool { return match(s, pattern) }, nil
	}
	pattern = strings.ToLower(pattern)
	return func(s string) bool { return match(strings.ToLower(s), pattern) }, nil
}

func fieldValue(field string) (func(calendar.Preset) string, error) {
	switch field {
	case "", "label", "title", "summary":
		return func(p calendar.Preset) string { return p.Label }, nil
	case "source", "calendar":
		return func(p calendar.Preset) string { return p.Source }, nil
	case "start":
		return func(p calendar.Preset) string { return p.Range.Start.String() }, nil
	case "end":
		return func(p calendar.Preset) string { return p.Range.End.String() }, nil
	}
	return nil, fmt.Errorf("unknown field %q", field)
}

// Apply returns the presets that pass the filter, in their original order.
// With no rules every preset passes.
func (f *Filter) Apply(presets []calendar.Preset) []calendar.Preset {
	if f == nil || len(f.rules) == 0 {
		return presets
	}

	var filtered []calendar.Preset
	for _, p := range presets {
		if f.Match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Match reports whether p passes the filter.
func (f *Filter) Match(p calendar.Preset) bool {
	if f == nil || len(f.rules) == 0 {
		return true
	}
	for _, r := range f.rules {
		if r.match(p) != f.all {
			// "or" stops on the first hit, "and" on the first miss.
			return !f.all
		}
	}
	return f.all
}

func (r rule) match(p calendar.Preset) bool {
	for _, pred := range r {
		if !pred(p) {
			return false
		}
	}
	return true
}
