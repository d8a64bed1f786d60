package tray

import (
	"bytes"
	"testing"

	"github.com/cpuguy83/calrange/internal/selection"
)

func TestStateFor(t *testing.T) {
	tests := []struct {
		in   selection.State
		want State
	}{
		{selection.StateEmpty, StateIdle},
		{selection.StateStartOnly, StateSelecting},
		{selection.StateComplete, StateSelected},
	}
	for _, tt := range tests {
		if got := StateFor(tt.in); got != tt.want {
			t.Errorf("StateFor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScrollSteps(t *testing.T) {
	tests := []struct {
		delta int32
		want  int
	}{
		{120, 1},
		{1, 1},
		{0, 0},
		{-1, -1},
		{-120, -1},
	}
	for _, tt := range tests {
		if got := scrollSteps(tt.delta); got != tt.want {
			t.Errorf("scrollSteps(%d) = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestIconsDiffer(t *testing.T) {
	icons := map[string][]byte{
		"idle":      iconIdlePixmap,
		"selecting": iconSelectingPixmap,
		"selected":  iconSelectedPixmap,
		"stale":     iconStalePixmap,
	}
	for name, icon := range icons {
		if len(icon) != 22*22*4 {
			t.Errorf("%s icon has %d bytes", name, len(icon))
		}
	}
	if bytes.Equal(iconIdlePixmap, iconSelectingPixmap) {
		t.Error("selecting icon matches idle icon")
	}
	if bytes.Equal(iconSelectingPixmap, iconSelectedPixmap) {
		t.Error("selected icon matches selecting icon")
	}
}

func TestPixmapFollowsState(t *testing.T) {
	tr := &Tray{}
	for _, st := range []State{StateIdle, StateSelecting, StateSelected, StateStale} {
		tr.state = st
		px := tr.getIconPixmap()
		if len(px) != 1 || px[0].Width != 22 {
			t.Fatalf("unexpected pixmap for state %d", st)
		}
	}
	tr.state = StateSelected
	if !bytes.Equal(tr.getIconPixmap()[0].Data, iconSelectedPixmap) {
		t.Error("selected state uses the wrong icon")
	}
}
