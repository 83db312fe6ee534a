package terminal

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// ErrNotTerminal is returned by Init when stdin or stdout is not a tty
var ErrNotTerminal = errors.New("not a terminal")

// ResizeEvent represents a terminal resize
type ResizeEvent struct {
	Width  int
	Height int
}

// Terminal owns the tty for the lifetime of playback.
// It is an io.Writer; writes go straight to the backend
type Terminal struct {
	backend   Backend
	colorMode ColorMode

	resizeCh chan ResizeEvent
	input    *inputReader

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a terminal using the detected color mode
func New() *Terminal {
	return newTerminal(newBackend(), DetectColorMode())
}

func newTerminal(b Backend, mode ColorMode) *Terminal {
	return &Terminal{
		backend:   b,
		colorMode: mode,
		resizeCh:  make(chan ResizeEvent, 1),
	}
}

// Init enters raw mode and the alternate screen, hides the cursor,
// disables auto-wrap and clears the screen to bg
func (t *Terminal) Init(bg RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if err := t.backend.Init(); err != nil {
		return err
	}

	t.backend.SetResizeHandler(func(w, h int) {
		ev := ResizeEvent{Width: w, Height: h}
		// Keep only the latest size pending
		select {
		case t.resizeCh <- ev:
		default:
			select {
			case <-t.resizeCh:
			default:
			}
			select {
			case t.resizeCh <- ev:
			default:
			}
		}
	})

	w := bufio.NewWriterSize(t, 256)
	w.Write(csiAltScreenEnter)
	w.Write(csiCursorHide)
	w.Write(csiAutoWrapOff)
	WriteClear(w, bg, t.colorMode)
	if err := w.Flush(); err != nil {
		t.backend.Fini()
		return err
	}

	t.input = newInputReader(t.backend)
	t.input.start()

	t.initialized = true
	return nil
}

// Fini restores the terminal. Safe to call multiple times
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}
	t.finalized = true

	if t.input != nil {
		t.input.stop()
	}

	t.backend.Write(restoreSequence())
	t.backend.Fini()
}

func restoreSequence() []byte {
	var b []byte
	b = append(b, csiSGR0...)
	b = append(b, csiAutoWrapOn...)
	b = append(b, csiCursorShow...)
	b = append(b, csiAltScreenExit...)
	return b
}

// Write implements io.Writer
func (t *Terminal) Write(p []byte) (int, error) {
	if err := t.backend.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Size returns current terminal dimensions in cells
func (t *Terminal) Size() (width, height int) {
	return t.backend.Size()
}

// ColorMode returns the color capability chosen at construction
func (t *Terminal) ColorMode() ColorMode {
	return t.colorMode
}

// ResizeChan returns channel that receives resize events
func (t *Terminal) ResizeChan() <-chan ResizeEvent {
	return t.resizeCh
}

// Keys returns the channel of decoded key presses. Nil before Init
func (t *Terminal) Keys() <-chan Key {
	if t.input == nil {
		return nil
	}
	return t.input.keys
}

var _ io.Writer = (*Terminal)(nil)
