package menu

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/cpuguy83/calrange/internal/picker"
	"github.com/cpuguy83/calrange/internal/ui"
)

// errCancelled is returned by runDmenu when the user dismissed the menu.
var errCancelled = errors.New("cancelled")

// Config holds menu UI configuration.
type Config struct {
	Program string   // dmenu program to use (auto-detect if empty)
	Args    []string // extra args to pass to the program
	Picker  *picker.Shared
}

// Menu implements the ui.UI interface using dmenu-style launchers.
type Menu struct {
	cfg     Config
	program string

	mu        sync.RWMutex
	stale     bool
	isShowing bool
}

// New creates a new Menu UI backend.
func New(cfg Config) (*Menu, error) {
	program := cfg.Program
	if program == "" {
		var err error
		program, err = Detect()
		if err != nil {
			return nil, err
		}
		slog.Debug("auto-detected menu program", "program", program)
	} else {
		// Verify the specified program exists
		if _, err := exec.LookPath(program); err != nil {
			return nil, fmt.Errorf("menu program %q not found: %w", program, err)
		}
	}

	return &Menu{
		cfg:     cfg,
		program: program,
	}, nil
}

// Init initializes the menu UI.
func (m *Menu) Init() error {
	return nil // No initialization needed for dmenu
}

// Show opens the picker menu.
func (m *Menu) Show() {
	m.mu.Lock()
	if m.isShowing {
		m.mu.Unlock()
		return
	}
	m.isShowing = true
	m.mu.Unlock()

	// Run in goroutine to not block
	go func() {
		defer func() {
			m.mu.Lock()
			m.isShowing = false
			m.mu.Unlock()
		}()

		m.run()
	}()
}

// Hide closes any open menu.
func (m *Menu) Hide() {
	// dmenu closes itself when user makes a selection or presses Escape
	// Nothing to do here
}

// Toggle shows the menu if not showing, otherwise does nothing.
func (m *Menu) Toggle() {
	m.mu.RLock()
	isShowing := m.isShowing
	m.mu.RUnlock()

	if !isShowing {
		m.Show()
	}
	// Can't programmatically close dmenu, so Toggle just shows
}

// Refresh is a no-op; every menu invocation reads the current picker state.
func (m *Menu) Refresh() {}

// SetStale marks the preset list as potentially stale.
func (m *Menu) SetStale(stale bool) {
	m.mu.Lock()
	m.stale = stale
	m.mu.Unlock()
}

// run shows menus until a range is complete or the user cancels.
func (m *Menu) run() {
	for {
		var v ui.View
		m.cfg.Picker.Do(func(p *picker.Picker) {
			v = ui.Snapshot(p)
		})

		m.mu.RLock()
		stale := m.stale
		m.mu.RUnlock()

		lines, actions := formatView(v, stale)
		selected, err := m.runDmenu(lines, v.Title)
		if err != nil {
			slog.Debug("menu closed without selection", "error", err)
			return
		}

		selected = strings.TrimSpace(selected)
		if selected == "" || isSeparator(selected) {
			continue
		}

		act, ok := actions[selected]
		if !ok {
			slog.Debug("selected item not found in menu", "selected", selected)
			return
		}

		if m.apply(act) {
			return
		}
	}
}

// apply performs a menu action on the picker. It reports whether the menu
// should close.
func (m *Menu) apply(act action) bool {
	var done bool
	var copyText string

	m.cfg.Picker.Do(func(p *picker.Picker) {
		switch act.kind {
		case actDay:
			done = p.Activate(act.date)
		case actPrev:
			p.PrevMonth()
		case actNext:
			p.NextMonth()
		case actPanel:
			p.SetPanel(act.panel)
		case actMonth:
			p.SelectMonth(act.index)
		case actYear:
			p.SelectYear(act.index)
		case actPreset:
			if err := p.ApplyPreset(act.index); err != nil {
				slog.Warn("failed to apply preset", "index", act.index, "error", err)
				return
			}
			done = true
		case actClear:
			p.Reset()
		case actCopy:
			if r, ok := p.Range(); ok {
				copyText = rangeText(r)
			}
			done = true
		case actBack:
			p.SetPanel(picker.Calendar)
		}
	})

	if copyText != "" {
		copyToClipboard(copyText)
	}
	return done
}

// runDmenu runs the dmenu program with the given input lines.
// Returns the selected line or an error if the user cancelled.
func (m *Menu) runDmenu(lines []string, prompt string) (string, error) {
	args := m.buildArgs(prompt)
	cmd := exec.Command(m.program, args...)

	// Prepare input
	input := strings.Join(lines, "\n")
	cmd.Stdin = strings.NewReader(input)

	// Capture output
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running dmenu", "program", m.program, "args", args)

	if err := cmd.Run(); err != nil {
		// Exit code 1 usually means user cancelled (pressed Escape)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", errCancelled
		}
		return "", fmt.Errorf("dmenu failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}

// buildArgs builds command-line arguments for the dmenu program.
func (m *Menu) buildArgs(prompt string) []string {
	var args []string

	switch m.program {
	case "rofi":
		args = []string{"-dmenu", "-p", prompt, "-i"}
	case "wofi":
		args = []string{"--dmenu", "--prompt", prompt, "--insensitive"}
	case "fuzzel":
		args = []string{"--dmenu", "--prompt", prompt + ": "}
	case "bemenu":
		args = []string{"-p", prompt, "-i"}
	case "dmenu":
		args = []string{"-p", prompt, "-i", "-l", "20"}
	default:
		// Generic dmenu-compatible args
		args = []string{"-p", prompt}
	}

	// Add user-specified extra args
	args = append(args, m.cfg.Args...)

	return args
}

// copyToClipboard copies text to the system clipboard.
// Tries wl-copy (Wayland) first, then xclip and xsel (X11).
func copyToClipboard(text string) {
	// Try wl-copy first (Wayland)
	if path, err := exec.LookPath("wl-copy"); err == nil && path != "" {
		cmd := exec.Command("wl-copy", text)
		if err := cmd.Run(); err == nil {
			slog.Debug("copied to clipboard via wl-copy", "text", text)
			return
		}
	}

	// Fall back to xclip (X11)
	if path, err := exec.LookPath("xclip"); err == nil && path != "" {
		cmd := exec.Command("xclip", "-selection", "clipboard")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			slog.Debug("copied to clipboard via xclip", "text", text)
			return
		}
	}

	// Fall back to xsel (X11)
	if path, err := exec.LookPath("xsel"); err == nil && path != "" {
		cmd := exec.Command("xsel", "--clipboard", "--input")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			slog.Debug("copied to clipboard via xsel", "text", text)
			return
		}
	}

	slog.Debug("no clipboard tool available", "text", text)
}
