package terminal

import (
	"bufio"
)

// Pre-allocated ANSI sequence fragments
var (
	csiCursorPos = []byte("\x1b[") // followed by row;colH
	csiClear     = []byte("\x1b[2J\x1b[H")
	csiSGR0      = []byte("\x1b[0m")
	csiRIS       = []byte("\x1bc") // Reset to Initial State (emergency)

	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")

	// DECAWM: Auto-Wrap Mode
	// ?7l keeps the cursor at the right edge instead of wrapping, so a full row never scrolls
	csiAutoWrapOn  = []byte("\x1b[?7h")
	csiAutoWrapOff = []byte("\x1b[?7l")
)

// writeInt writes an integer without allocation
// Optimized for terminal values (0-999 typical max)
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		w.WriteByte(byte(n/10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	if n < 1000 {
		w.WriteByte(byte(n/100) + '0')
		w.WriteByte(byte(n/10%10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	// Fallback for >999 (rare)
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

// WriteCursorPos writes an absolute cursor position sequence (0-indexed input)
func WriteCursorPos(w *bufio.Writer, x, y int) {
	w.Write(csiCursorPos)
	writeInt(w, y+1)
	w.WriteByte(';')
	writeInt(w, x+1)
	w.WriteByte('H')
}

// WriteClear resets attributes, paints the screen with bg and homes the cursor
func WriteClear(w *bufio.Writer, bg RGB, mode ColorMode) {
	w.Write(csiSGR0)
	if mode == ColorModeTrueColor {
		w.WriteString("\x1b[48;2;")
		writeInt(w, int(bg.R))
		w.WriteByte(';')
		writeInt(w, int(bg.G))
		w.WriteByte(';')
		writeInt(w, int(bg.B))
	} else {
		w.WriteString("\x1b[48;5;")
		writeInt(w, int(RGBTo256(bg)))
	}
	w.WriteByte('m')
	w.Write(csiClear)
	w.Write(csiSGR0)
}
