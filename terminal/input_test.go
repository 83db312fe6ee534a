package terminal

import (
	"slices"
	"testing"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Key
	}{
		{"quit", "q", []Key{KeyQuit}},
		{"ctrl-c", "\x03", []Key{KeyQuit}},
		{"lone esc", "\x1b", []Key{KeyQuit}},
		{"pause", " ", []Key{KeyPause}},
		{"redraw", "\x0c", []Key{KeyRedraw}},
		{"arrow skipped", "\x1b[A", nil},
		{"ss3 skipped", "\x1bOP", nil},
		{"sequence then key", "\x1b[1;5Cq", []Key{KeyQuit}},
		{"unbound", "xyz", nil},
		{"several", "p r", []Key{KeyPause, KeyRedraw, KeyPause}},
		{"truncated sequence", "\x1b[1;", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseKeys([]byte(tt.in)); !slices.Equal(got, tt.want) {
				t.Errorf("ParseKeys(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
