package player

import (
	"io"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/bw-player/canvas"
	"github.com/lixenwraith/bw-player/render"
	"github.com/lixenwraith/bw-player/terminal"
)

// Display is the terminal surface an ANSISink writes to
type Display interface {
	io.Writer
	Size() (width, height int)
}

// origin returns the top-left cell for c inside a cols x rows area
func origin(c *canvas.Canvas, cols, rows int, center bool) (x, y int) {
	if !center {
		return 0, 0
	}
	cw, ch := render.CellSize(c)
	return max(0, (cols-cw)/2), max(0, (rows-ch)/2)
}

// ANSISink renders with escape sequences straight to a terminal.
// The cursor is positioned absolutely once per frame; the renderer's
// relative moves do the rest
type ANSISink struct {
	display  Display
	renderer *render.Renderer
	center   bool
}

// NewANSISink creates a sink writing to d
func NewANSISink(d Display, style render.Style, center bool) *ANSISink {
	return &ANSISink{
		display:  d,
		renderer: render.NewRenderer(d, style),
		center:   center,
	}
}

// size returns the drawable area. The last column is never written so a
// glyph at the right edge cannot trigger a wrap on terminals that ignore DECAWM
func (s *ANSISink) size() (cols, rows int) {
	w, h := s.display.Size()
	return max(0, w-1), h
}

func (s *ANSISink) Draw(mode render.Mode, prev, cur *canvas.Canvas) (render.Stats, error) {
	cols, rows := s.size()
	x, y := origin(cur, cols, rows, s.center)

	terminal.WriteCursorPos(s.renderer.Writer(), x, y)
	stats, err := s.renderer.Render(mode, prev, cur, cols-x, rows-y)
	if err != nil {
		return stats, err
	}
	return stats, s.renderer.Flush()
}

func (s *ANSISink) Clear() error {
	style := s.renderer.Style()
	terminal.WriteClear(s.renderer.Writer(), style.Bg, style.ColorMode)
	return s.renderer.Flush()
}

// ScreenSink draws into a tcell screen and turns its events into player input
type ScreenSink struct {
	screen tcell.Screen
	comp   *render.Screen
	center bool

	keys   chan terminal.Key
	resize chan terminal.ResizeEvent
	done   chan struct{}
}

// NewScreenSink wraps an initialized screen
func NewScreenSink(s tcell.Screen, style render.Style, center bool) *ScreenSink {
	return &ScreenSink{
		screen: s,
		comp:   render.NewScreen(s, style),
		center: center,
		keys:   make(chan terminal.Key, 16),
		resize: make(chan terminal.ResizeEvent, 1),
		done:   make(chan struct{}),
	}
}

func (s *ScreenSink) Draw(mode render.Mode, prev, cur *canvas.Canvas) (render.Stats, error) {
	cols, rows := s.screen.Size()
	x, y := origin(cur, cols, rows, s.center)
	cw, ch := render.Clip(cur, cols-x, rows-y)
	n := s.comp.Draw(cur, x, y, cols-x, rows-y)
	s.screen.Show()
	return render.Stats{Cols: cw, Rows: ch, Glyphs: n}, nil
}

func (s *ScreenSink) Clear() error {
	s.comp.Fill()
	s.screen.Show()
	return nil
}

// Keys returns key presses read by Listen
func (s *ScreenSink) Keys() <-chan terminal.Key {
	return s.keys
}

// Resizes returns resize events read by Listen
func (s *ScreenSink) Resizes() <-chan terminal.ResizeEvent {
	return s.resize
}

// Listen polls screen events until the screen is finalized. Call once, in its own goroutine
func (s *ScreenSink) Listen() {
	defer close(s.done)
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if k := tcellKey(ev); k != terminal.KeyNone {
				select {
				case s.keys <- k:
				default:
				}
			}
		case *tcell.EventResize:
			w, h := ev.Size()
			s.screen.Sync()
			select {
			case s.resize <- terminal.ResizeEvent{Width: w, Height: h}:
			default:
			}
		}
	}
}

// Done is closed when Listen returns
func (s *ScreenSink) Done() <-chan struct{} {
	return s.done
}

func tcellKey(ev *tcell.EventKey) terminal.Key {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return terminal.KeyQuit
	case tcell.KeyCtrlL:
		return terminal.KeyRedraw
	case tcell.KeyRune:
		if r := ev.Rune(); r < 0x80 {
			return terminal.KeyOf(byte(r))
		}
	}
	return terminal.KeyNone
}
