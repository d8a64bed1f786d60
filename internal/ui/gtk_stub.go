//go:build nogtk || !cgo

package ui

// GTK is a stub when GTK is not available.
type GTK struct{}

// NewGTK returns nil when GTK is not available.
func NewGTK(cfg Config) *GTK {
	return nil
}

// GTKAvailable returns false when GTK is not available.
func GTKAvailable() bool {
	return false
}

// Init is a no-op stub.
func (g *GTK) Init() error {
	return nil
}

// Show is a no-op stub.
func (g *GTK) Show() {}

// Hide is a no-op stub.
func (g *GTK) Hide() {}

// Toggle is a no-op stub.
func (g *GTK) Toggle() {}

// Refresh is a no-op stub.
func (g *GTK) Refresh() {}

// SetStale is a no-op stub.
func (g *GTK) SetStale(stale bool) {}
