package render

import (
	"bufio"

	"github.com/lixenwraith/bw-player/terminal"
)

// Pre-allocated sequence fragments
var (
	csi      = []byte("\x1b[")
	csiReset = []byte("\x1b[0m")

	// Single-step relative moves
	csiUp    = []byte("\x1b[A")
	csiDown  = []byte("\x1b[B")
	csiRight = []byte("\x1b[C")
	csiLeft  = []byte("\x1b[D")
)

// writeInt writes a non-negative integer without allocation
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

// writeStep writes one relative move of n cells using the given final byte.
// n == 1 uses the short form
func writeStep(w *bufio.Writer, n int, short []byte, final byte) {
	if n == 1 {
		w.Write(short)
		return
	}
	w.Write(csi)
	writeInt(w, n)
	w.WriteByte(final)
}

// writeMove writes a relative cursor move, horizontal first.
// Zero components are omitted; returns false when nothing was written
func writeMove(w *bufio.Writer, dx, dy int) bool {
	switch {
	case dx > 0:
		writeStep(w, dx, csiRight, 'C')
	case dx < 0:
		writeStep(w, -dx, csiLeft, 'D')
	}
	switch {
	case dy > 0:
		writeStep(w, dy, csiDown, 'B')
	case dy < 0:
		writeStep(w, -dy, csiUp, 'A')
	}
	return dx != 0 || dy != 0
}

// colorPrefix builds the foreground/background sequence emitted once per pass
func colorPrefix(s Style) []byte {
	var b []byte
	if s.ColorMode == terminal.ColorModeTrueColor {
		b = appendRGB(b, "\x1b[38;2;", s.Fg)
		b = appendRGB(b, "\x1b[48;2;", s.Bg)
		return b
	}
	b = appendIndex(b, "\x1b[38;5;", terminal.RGBTo256(s.Fg))
	b = appendIndex(b, "\x1b[48;5;", terminal.RGBTo256(s.Bg))
	return b
}

func appendRGB(b []byte, prefix string, c terminal.RGB) []byte {
	b = append(b, prefix...)
	b = appendUint8(b, c.R)
	b = append(b, ';')
	b = appendUint8(b, c.G)
	b = append(b, ';')
	b = appendUint8(b, c.B)
	return append(b, 'm')
}

func appendIndex(b []byte, prefix string, idx uint8) []byte {
	b = append(b, prefix...)
	b = appendUint8(b, idx)
	return append(b, 'm')
}

func appendUint8(b []byte, v uint8) []byte {
	if v >= 100 {
		b = append(b, v/100+'0')
	}
	if v >= 10 {
		b = append(b, v/10%10+'0')
	}
	return append(b, v%10+'0')
}
