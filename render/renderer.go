// Package render composites monochrome canvases into sextant glyphs.
//
// Each terminal cell covers a 2x3 pixel block. Renderer writes ANSI output
// either for every cell (ModeFull) or only for cells whose pattern changed
// since the previous canvas (ModeDiff), tracking the cursor to keep
// repositioning escapes short. Screen draws the same glyphs into a tcell screen.
package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lixenwraith/bw-player/canvas"
	"github.com/lixenwraith/bw-player/terminal"
)

// Mode selects between repainting every cell and repainting changed cells
type Mode uint8

const (
	ModeFull Mode = iota
	ModeDiff
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDiff:
		return "diff"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Style holds the colors used for white and black pixels
type Style struct {
	Fg        terminal.RGB
	Bg        terminal.RGB
	ColorMode terminal.ColorMode
}

// DefaultStyle renders white pixels white on a black background
func DefaultStyle() Style {
	return Style{
		Fg:        terminal.RGB{R: 255, G: 255, B: 255},
		Bg:        terminal.RGBBlack,
		ColorMode: terminal.ColorModeTrueColor,
	}
}

// Stats counts what a render pass emitted
type Stats struct {
	Cols   int
	Rows   int
	Glyphs int
	Moves  int // relative move escapes, including row changes and the final park
}

const writerSize = 131072 // 128KB

// Renderer writes canvases as ANSI text
type Renderer struct {
	w      *bufio.Writer
	style  Style
	prefix []byte

	// Diff cursor: cell the terminal cursor sits on after the last glyph
	col int
	row int

	stats Stats
}

// NewRenderer creates a renderer writing to w.
// A *bufio.Writer is used as is; any other writer is wrapped in one
func NewRenderer(w io.Writer, style Style) *Renderer {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriterSize(w, writerSize)
	}
	r := &Renderer{w: bw}
	r.SetStyle(style)
	return r
}

// SetStyle changes the colors used by subsequent passes
func (r *Renderer) SetStyle(style Style) {
	r.style = style
	r.prefix = colorPrefix(style)
}

// Style returns the active style
func (r *Renderer) Style() Style {
	return r.style
}

// Writer exposes the buffered writer so callers can interleave their own escapes
func (r *Renderer) Writer() *bufio.Writer {
	return r.w
}

// Flush writes buffered output
func (r *Renderer) Flush() error {
	return r.w.Flush()
}

// CellSize returns the number of cell columns and rows covering a canvas
func CellSize(c *canvas.Canvas) (cols, rows int) {
	return (c.Width() + 1) / 2, (c.Height() + 2) / 3
}

// Clip returns the rendered rectangle in cells: the canvas cell size limited to the target
func Clip(c *canvas.Canvas, targetCols, targetRows int) (cols, rows int) {
	cols, rows = CellSize(c)
	return max(0, min(cols, targetCols)), max(0, min(rows, targetRows))
}

// RenderFull paints every cell of cur
func (r *Renderer) RenderFull(cur *canvas.Canvas, targetCols, targetRows int) Stats {
	s, _ := r.Render(ModeFull, nil, cur, targetCols, targetRows)
	return s
}

// RenderDiff paints the cells of cur whose pattern differs from prev
func (r *Renderer) RenderDiff(prev, cur *canvas.Canvas, targetCols, targetRows int) (Stats, error) {
	return r.Render(ModeDiff, prev, cur, targetCols, targetRows)
}

// Render writes one pass starting at the current cursor position, which is
// taken as the top-left cell. prev is only read in ModeDiff.
// In ModeDiff the cursor is left on the bottom-left cell of the rectangle
func (r *Renderer) Render(mode Mode, prev, cur *canvas.Canvas, targetCols, targetRows int) (Stats, error) {
	if mode == ModeDiff && (prev == nil || !prev.SameSize(cur)) {
		if prev == nil {
			return Stats{}, fmt.Errorf("%w: no previous canvas", canvas.ErrDimensionMismatch)
		}
		return Stats{}, fmt.Errorf("%w: previous %dx%d, current %dx%d", canvas.ErrDimensionMismatch,
			prev.Width(), prev.Height(), cur.Width(), cur.Height())
	}

	cols, rows := Clip(cur, targetCols, targetRows)
	r.stats = Stats{Cols: cols, Rows: rows}
	if cols == 0 || rows == 0 {
		return r.stats, nil
	}

	r.w.Write(r.prefix)
	switch mode {
	case ModeFull:
		r.full(cur, cols, rows)
	case ModeDiff:
		r.diff(prev, cur, cols, rows)
	default:
		return r.stats, fmt.Errorf("unknown render mode %v", mode)
	}
	r.w.Write(csiReset)

	return r.stats, nil
}

func (r *Renderer) full(cur *canvas.Canvas, cols, rows int) {
	for row := 0; row < rows; row++ {
		if row > 0 {
			r.move(-cols, 1)
		}
		for col := 0; col < cols; col++ {
			r.glyph(cellPattern(cur, col, row))
		}
	}
}

func (r *Renderer) diff(prev, cur *canvas.Canvas, cols, rows int) {
	r.col, r.row = 0, 0

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := cellPattern(cur, col, row)
			if p == cellPattern(prev, col, row) {
				continue
			}
			if col != r.col || row != r.row {
				r.move(col-r.col, row-r.row)
				r.row = row
			}
			r.glyph(p)
			r.col = col + 1
		}
	}

	// Park on the bottom-left cell so later escapes land predictably
	r.move(-r.col, rows-1-r.row)
	r.col, r.row = 0, rows-1
}

func (r *Renderer) glyph(pattern uint8) {
	r.w.Write(glyphBytes[pattern])
	r.stats.Glyphs++
}

func (r *Renderer) move(dx, dy int) {
	if writeMove(r.w, dx, dy) {
		r.stats.Moves++
	}
}

// cellPattern returns the 6-bit pattern of the cell at (col, row).
// Pixels outside the canvas count as clear
func cellPattern(c *canvas.Canvas, col, row int) uint8 {
	x, y := col*2, row*3
	var p uint8
	for bit := 0; bit < 6; bit++ {
		if c.Pixel(x+(bit&1), y+(bit>>1)) {
			p |= 1 << bit
		}
	}
	return p
}
