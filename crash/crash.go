// Package crash restores the terminal and reports panics from any goroutine.
package crash

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/lixenwraith/bw-player/terminal"
)

// Finisher restores a terminal it owns
type Finisher interface {
	Fini()
}

var (
	mu   sync.Mutex
	term Finisher

	// Replaced in tests
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// SetTerminal registers the terminal restored on crash; nil falls back to EmergencyReset
func SetTerminal(f Finisher) {
	mu.Lock()
	term = f
	mu.Unlock()
}

// Handle is the unified panic handler: it resets the terminal, prints the
// panic value and stack trace to stderr and exits with status 1
func Handle(r any) {
	if r == nil {
		return
	}

	mu.Lock()
	f := term
	mu.Unlock()

	if f != nil {
		f.Fini()
	} else {
		terminal.EmergencyReset(stdout)
	}

	// \r\n in case raw mode survived
	fmt.Fprintf(stderr, "\r\n\x1b[31mbw-player crashed: %v\x1b[0m\r\n", r)
	fmt.Fprintf(stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	if f, ok := stderr.(*os.File); ok {
		f.Sync()
	}

	exit(1)
}

// Go runs fn in a new goroutine with panic recovery.
// Use this instead of the go keyword so a crash restores the terminal
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Handle(r)
			}
		}()
		fn()
	}()
}
