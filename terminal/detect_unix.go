//go:build unix

package terminal

import (
	"os"
	"slices"
	"strings"

	"golang.org/x/sys/unix"
)

// Emulators that set one of these always render 24-bit color
var truecolorEnv = []string{
	"KITTY_WINDOW_ID",
	"KONSOLE_VERSION",
	"ITERM_SESSION_ID",
	"ALACRITTY_WINDOW_ID",
	"WEZTERM_PANE",
}

// TERM substrings of direct-color terminfo entries
var truecolorTerms = []string{"truecolor", "24bit", "direct"}

// DetectColorMode picks truecolor when COLORTERM, a known emulator or TERM
// says so, and 256 colors otherwise
func DetectColorMode() ColorMode {
	switch os.Getenv("COLORTERM") {
	case "truecolor", "24bit":
		return ColorModeTrueColor
	}
	if slices.ContainsFunc(truecolorEnv, func(k string) bool { return os.Getenv(k) != "" }) {
		return ColorModeTrueColor
	}
	name := strings.ToLower(os.Getenv("TERM"))
	if slices.ContainsFunc(truecolorTerms, func(s string) bool { return strings.Contains(name, s) }) {
		return ColorModeTrueColor
	}
	return ColorMode256
}

// resetTerminalMode turns echo and line editing back on through /dev/tty,
// which still reaches the terminal when stdin is redirected. Errors are ignored
func resetTerminalMode() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return
	}
	defer tty.Close()

	fd := int(tty.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return
	}
	t.Lflag |= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Iflag |= unix.ICRNL
	unix.IoctlSetTermios(fd, unix.TCSETS, t)
}
