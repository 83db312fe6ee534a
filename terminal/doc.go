// Package terminal is the thin platform layer under the player: raw mode,
// alternate screen, cursor visibility, size and resize notification, and a
// small key reader. Output is plain ANSI written straight to the tty; no
// terminfo lookups.
//
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
