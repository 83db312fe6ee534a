package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/bw-player/canvas"
	"github.com/lixenwraith/bw-player/terminal"
)

// RGBToTcell converts RGB to tcell.Color
func RGBToTcell(rgb terminal.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
}

// Screen draws canvases into a tcell screen. tcell keeps its own front buffer,
// so every pass sets all cells and Show transmits only what changed
type Screen struct {
	screen tcell.Screen
	style  tcell.Style
}

// NewScreen wraps an initialized tcell screen
func NewScreen(s tcell.Screen, style Style) *Screen {
	return &Screen{
		screen: s,
		style:  tcell.StyleDefault.Foreground(RGBToTcell(style.Fg)).Background(RGBToTcell(style.Bg)),
	}
}

// Draw sets the cells of cur starting at (originX, originY), clipped to
// targetCols x targetRows, and returns the number of cells set.
// The caller decides when to Show
func (s *Screen) Draw(cur *canvas.Canvas, originX, originY, targetCols, targetRows int) int {
	cols, rows := Clip(cur, targetCols, targetRows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			s.screen.SetContent(originX+col, originY+row, Glyph(cellPattern(cur, col, row)), nil, s.style)
		}
	}
	return cols * rows
}

// Fill paints the whole screen with the background color
func (s *Screen) Fill() {
	s.screen.SetStyle(s.style)
	s.screen.Clear()
}
