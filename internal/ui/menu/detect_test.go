package menu

import (
	"os/exec"
	"slices"
	"testing"
)

func TestDetect(t *testing.T) {
	defer func(orig func(string) (string, error)) { lookPath = orig }(lookPath)

	tests := []struct {
		name      string
		wayland   string
		installed []string
		want      string
	}{
		{"wayland prefers fuzzel", "wayland-0", []string{"rofi", "fuzzel"}, "fuzzel"},
		{"x11 skips wayland launchers", "", []string{"fuzzel", "dmenu"}, "dmenu"},
		{"x11 prefers rofi", "", []string{"dmenu", "rofi"}, "rofi"},
		{"nothing installed", "wayland-0", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookPath = func(prog string) (string, error) {
				if slices.Contains(tt.installed, prog) {
					return "/usr/bin/" + prog, nil
				}
				return "", exec.ErrNotFound
			}
			getenv := func(key string) string {
				if key == "WAYLAND_DISPLAY" {
					return tt.wayland
				}
				return ""
			}

			got, err := detect(getenv)
			if tt.want == "" {
				if err == nil {
					t.Errorf("expected an error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("detect() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
