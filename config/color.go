package config

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/bw-player/terminal"
)

// ParseColor accepts "#rrggbb", "#rgb" or a color name known to tcell ("white", "navy", ...)
func ParseColor(s string) (terminal.RGB, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return terminal.RGB{}, fmt.Errorf("color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return terminal.RGB{R: r, G: g, B: b}, nil
	}

	tc := tcell.GetColor(strings.ToLower(s))
	if tc == tcell.ColorDefault {
		return terminal.RGB{}, fmt.Errorf("unknown color %q", s)
	}
	r, g, b := tc.RGB()
	if r < 0 {
		return terminal.RGB{}, fmt.Errorf("color %q has no RGB value", s)
	}
	return terminal.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// Colors resolves fg and bg, swapped when Invert is set
func (s StyleConfig) Colors() (fg, bg terminal.RGB, err error) {
	if fg, err = ParseColor(s.Fg); err != nil {
		return fg, bg, fmt.Errorf("style.fg: %w", err)
	}
	if bg, err = ParseColor(s.Bg); err != nil {
		return fg, bg, fmt.Errorf("style.bg: %w", err)
	}
	if s.Invert {
		fg, bg = bg, fg
	}
	return fg, bg, nil
}

// ColorMode resolves "auto" by inspecting the environment
func (s StyleConfig) ColorMode() terminal.ColorMode {
	switch s.Color {
	case "truecolor":
		return terminal.ColorModeTrueColor
	case "256":
		return terminal.ColorMode256
	}
	return terminal.DetectColorMode()
}
