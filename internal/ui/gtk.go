//go:build !nogtk && cgo

package ui

// GTK wraps the Popup to implement the UI interface.
type GTK struct {
	popup *Popup
}

// NewGTK creates a new GTK UI backend.
func NewGTK(cfg Config) *GTK {
	return &GTK{
		popup: NewPopup(cfg.Picker, cfg.HideOnSelect),
	}
}

// GTKAvailable returns true if GTK is available.
// Use the 'nogtk' build tag to build without GTK support for systems
// that don't have GTK4 installed.
func GTKAvailable() bool {
	return true
}

// Init initializes the GTK UI. Must be called from the GTK main thread.
func (g *GTK) Init() error {
	g.popup.Init()
	return nil
}

// Show displays the popup.
func (g *GTK) Show() {
	g.popup.Show()
}

// Hide hides the popup.
func (g *GTK) Hide() {
	g.popup.Hide()
}

// Toggle shows or hides the popup.
func (g *GTK) Toggle() {
	g.popup.Toggle()
}

// Refresh redraws the popup.
func (g *GTK) Refresh() {
	g.popup.Refresh()
}

// SetStale marks the preset list as potentially stale.
func (g *GTK) SetStale(stale bool) {
	g.popup.SetStale(stale)
}
