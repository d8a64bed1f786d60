package term

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cpuguy83/calrange/internal/ui"
)

// Term runs the picker as a full-screen terminal program.
type Term struct {
	model *Model
	prog  *tea.Program
}

// New creates a terminal UI over the shared picker.
func New(cfg ui.Config, opts ...tea.ProgramOption) *Term {
	model := NewModel(cfg.Picker, cfg.HideOnSelect)
	return &Term{
		model: model,
		prog:  tea.NewProgram(model, opts...),
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (t *Term) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.prog.Quit()
		case <-done:
		}
	}()

	if _, err := t.prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

// Init is a no-op; the program starts in Run.
func (t *Term) Init() error {
	return nil
}

// Show is a no-op; the terminal UI is always visible while it runs.
func (t *Term) Show() {}

// Hide is a no-op.
func (t *Term) Hide() {}

// Toggle is a no-op.
func (t *Term) Toggle() {}

// Refresh redraws the picker. It may be called from picker callbacks
// running inside Update, so the message is sent asynchronously.
func (t *Term) Refresh() {
	go t.prog.Send(refreshMsg{})
}

// SetStale marks the preset list as potentially stale.
func (t *Term) SetStale(stale bool) {
	go t.prog.Send(staleMsg(stale))
}

var _ ui.UI = (*Term)(nil)
