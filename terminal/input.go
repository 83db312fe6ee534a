package terminal

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// Key is a player command decoded from raw input
type Key uint8

const (
	KeyNone   Key = iota
	KeyQuit       // q, Esc, Ctrl-C
	KeyPause      // space, p
	KeyRedraw     // Ctrl-L, r
)

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyPause:
		return "pause"
	case KeyRedraw:
		return "redraw"
	}
	return "none"
}

// ParseKeys decodes one read chunk. Escape sequences (arrows, function keys)
// are skipped; an ESC not followed by '[' or 'O' is a quit
func ParseKeys(data []byte) []Key {
	var keys []Key
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == 0x1b {
			if i+1 < len(data) && (data[i+1] == '[' || data[i+1] == 'O') {
				i = skipSequence(data, i+2)
				continue
			}
			keys = append(keys, KeyQuit)
			continue
		}
		if k := KeyOf(b); k != KeyNone {
			keys = append(keys, k)
		}
	}
	return keys
}

// skipSequence returns the index of the final byte of a CSI/SS3 body starting at i
func skipSequence(data []byte, i int) int {
	for ; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			return i
		}
	}
	return len(data) - 1
}

// KeyOf maps a single input byte to a key
func KeyOf(b byte) Key {
	switch b {
	case 'q', 'Q', 0x03, 0x04:
		return KeyQuit
	case ' ', 'p', 'P':
		return KeyPause
	case 0x0c, 'r', 'R':
		return KeyRedraw
	}
	return KeyNone
}

// inputReader turns backend reads into keys
type inputReader struct {
	backend Backend
	keys    chan Key
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

func newInputReader(backend Backend) *inputReader {
	return &inputReader{
		backend: backend,
		keys:    make(chan Key, 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (r *inputReader) start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.readLoop()
}

func (r *inputReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	select {
	case <-r.doneCh:
	case <-time.After(200 * time.Millisecond):
	}
}

func (r *inputReader) readLoop() {
	defer close(r.doneCh)

	defer func() {
		if p := recover(); p != nil {
			EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT READER CRASHED: %v\x1b[0m\r\n", p)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		data, err := r.backend.Read(r.stopCh)
		if err != nil || data == nil {
			return
		}
		for _, k := range ParseKeys(data) {
			// Drop keys the player is not keeping up with
			select {
			case r.keys <- k:
			default:
			}
		}
	}
}
