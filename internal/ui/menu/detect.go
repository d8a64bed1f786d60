// Package menu drives the range picker through dmenu-style launchers, one
// launcher invocation per panel.
package menu

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Launchers in order of preference. fuzzel and wofi only run on Wayland.
var (
	waylandPrograms = []string{"fuzzel", "wofi", "rofi", "bemenu", "dmenu"}
	x11Programs     = []string{"rofi", "dmenu", "bemenu"}
)

var lookPath = exec.LookPath

// Detect finds the first installed launcher suitable for the session.
func Detect() (string, error) {
	return detect(os.Getenv)
}

func detect(getenv func(string) string) (string, error) {
	progs := x11Programs
	if getenv("WAYLAND_DISPLAY") != "" {
		progs = waylandPrograms
	}
	for _, prog := range progs {
		if _, err := lookPath(prog); err == nil {
			return prog, nil
		}
	}
	return "", fmt.Errorf("no dmenu-compatible program found (tried: %s)", strings.Join(progs, ", "))
}
