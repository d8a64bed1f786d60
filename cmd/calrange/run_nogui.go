//go:build nogtk || !cgo

package main

import "errors"

// Run starts the application without GTK.
func (a *App) Run() error {
	switch a.cfg.UI.Backend {
	case "gtk":
		return errors.New("gtk backend requested but calrange was built without GTK support")
	case "term":
		return a.runTerm()
	}
	return a.runWithoutGTK()
}
