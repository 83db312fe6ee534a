// Package canvas provides a packed one-bit-per-pixel monochrome frame buffer.
//
// Pixels are stored row-major (x fastest), eight per byte, most significant
// bit first: pixel i lives in byte i>>3 under mask 0x80>>(i&7).
// A set bit is white, a clear bit is black.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrDimensionMismatch reports an operation across canvases of different size
var ErrDimensionMismatch = errors.New("canvas dimension mismatch")

// Color is a pixel value
type Color bool

const (
	Black Color = false
	White Color = true
)

// Canvas is a fixed-size monochrome bitmap
type Canvas struct {
	width  int
	height int
	data   []byte
}

// New allocates an all-black canvas
func New(width, height int) *Canvas {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("canvas: negative dimensions %dx%d", width, height))
	}
	return &Canvas{
		width:  width,
		height: height,
		data:   make([]byte, ByteLen(width, height)),
	}
}

// ByteLen returns the packed buffer size for the given dimensions
func ByteLen(width, height int) int {
	return (width*height + 7) / 8
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Len returns the pixel count
func (c *Canvas) Len() int { return c.width * c.height }

// Bytes exposes the packed buffer. Callers must not modify it
func (c *Canvas) Bytes() []byte { return c.data }

// SameSize reports whether both canvases have identical dimensions
func (c *Canvas) SameSize(other *Canvas) bool {
	return c.width == other.width && c.height == other.height
}

// Pixel returns the color at (x, y). Coordinates outside the canvas read as black
func (c *Canvas) Pixel(x, y int) Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Black
	}
	return c.PixelAt(y*c.width + x)
}

// PixelAt returns the color at a row-major pixel index
func (c *Canvas) PixelAt(i int) Color {
	return c.data[i>>3]&(0x80>>(i&7)) != 0
}

// SetRun sets every pixel in [start, end) to color.
// Partial bytes at either end are masked, whole bytes in between are filled in one pass
func (c *Canvas) SetRun(start, end int, color Color) {
	c.checkRun(start, end)
	if start == end {
		return
	}

	var value byte
	if color {
		value = 0xFF
	}

	byteIdx, bitIdx := start>>3, start&7
	byteEnd, bitEnd := end>>3, end&7

	if byteIdx == byteEnd {
		mask := byte(0xFF>>bitIdx) &^ byte(0xFF>>bitEnd)
		c.data[byteIdx] = c.data[byteIdx]&^mask | value&mask
		return
	}

	if bitIdx != 0 {
		mask := byte(0xFF >> bitIdx)
		c.data[byteIdx] = c.data[byteIdx]&^mask | value&mask
		byteIdx++
	}

	if byteEnd > byteIdx {
		fill(c.data[byteIdx:byteEnd], value)
	}

	if bitEnd != 0 {
		// Low bits belong to pixels at or after end
		keep := byte(0xFF >> bitEnd)
		c.data[byteEnd] = c.data[byteEnd]&keep | value&^keep
	}
}

// InvertRun flips every pixel in [start, end)
func (c *Canvas) InvertRun(start, end int) {
	c.checkRun(start, end)
	if start == end {
		return
	}

	byteIdx, bitIdx := start>>3, start&7
	byteEnd, bitEnd := end>>3, end&7

	if byteIdx == byteEnd {
		c.data[byteIdx] ^= byte(0xFF>>bitIdx) &^ byte(0xFF>>bitEnd)
		return
	}

	if bitIdx != 0 {
		c.data[byteIdx] ^= byte(0xFF >> bitIdx)
		byteIdx++
	}

	for i := byteIdx; i < byteEnd; i++ {
		c.data[i] = ^c.data[i]
	}

	if bitEnd != 0 {
		c.data[byteEnd] ^= ^byte(0xFF >> bitEnd)
	}
}

// CopyFrom replaces the canvas content with src
func (c *Canvas) CopyFrom(src *Canvas) error {
	if !c.SameSize(src) {
		return fmt.Errorf("%w: %dx%d <- %dx%d", ErrDimensionMismatch, c.width, c.height, src.width, src.height)
	}
	copy(c.data, src.data)
	return nil
}

// Clear resets every pixel to black
func (c *Canvas) Clear() {
	clear(c.data)
}

// Equal reports whether both canvases have the same size and pixels
func (c *Canvas) Equal(other *Canvas) bool {
	return c.SameSize(other) && bytes.Equal(c.data, other.data)
}

func (c *Canvas) checkRun(start, end int) {
	if start < 0 || start > end || end > c.Len() {
		panic(fmt.Sprintf("canvas: run [%d, %d) outside %d pixels", start, end, c.Len()))
	}
}

// fill sets every byte of b to v
func fill(b []byte, v byte) {
	if v == 0 {
		clear(b)
		return
	}
	// Doubling copy lets the runtime memmove do the bulk of the work
	b[0] = v
	for filled := 1; filled < len(b); filled *= 2 {
		copy(b[filled:], b[:filled])
	}
}
