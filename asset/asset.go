// Package asset stores animations in a small binary container.
//
// Layout, big-endian:
//
//	magic "BWA1" | width u32 | height u32 | fps float64 bits u64 | count u32
//	count × ( size u32 | frame bytes[size] )
//
// Frame bytes are codec command streams, each a delta against the previous frame.
package asset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
)

const (
	Magic      = "BWA1"
	HeaderSize = 24

	// Limits guard allocation on corrupt input
	MaxDimension = 1 << 15
	MaxFrameSize = 1 << 26
	MaxFrames    = 1 << 24

	// Frame rates outside this range give a period that is either
	// meaningless or past what time.Duration holds
	MinFPS = 1.0 / 3600
	MaxFPS = 1000.0

	// frameChunk bounds each read so memory follows the bytes present
	frameChunk = 1 << 16
	// maxPrealloc caps the frame slice capacity taken from the header
	maxPrealloc = 1024
)

var (
	ErrBadMagic      = errors.New("not a bw animation")
	ErrTruncated     = errors.New("truncated animation")
	ErrInvalidHeader = errors.New("invalid animation header")
)

// Animation is a decoded container: dimensions, rate and encoded frames
type Animation struct {
	Width  int
	Height int
	FPS    float64
	Frames [][]byte
}

// FrameCount returns the number of frames
func (a *Animation) FrameCount() int {
	return len(a.Frames)
}

// Duration returns the nominal playback length in seconds
func (a *Animation) Duration() float64 {
	if a.FPS <= 0 {
		return 0
	}
	return float64(len(a.Frames)) / a.FPS
}

// Validate checks the header values
func (a *Animation) Validate() error {
	if a.Width <= 0 || a.Height <= 0 || a.Width > MaxDimension || a.Height > MaxDimension {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidHeader, a.Width, a.Height)
	}
	if !ValidFPS(a.FPS) {
		return fmt.Errorf("%w: fps %g", ErrInvalidHeader, a.FPS)
	}
	if len(a.Frames) > MaxFrames {
		return fmt.Errorf("%w: %d frames", ErrInvalidHeader, len(a.Frames))
	}
	return nil
}

// ValidFPS reports whether fps is finite and within [MinFPS, MaxFPS]
func ValidFPS(fps float64) bool {
	return fps >= MinFPS && fps <= MaxFPS
}

// Read parses a container

func Read(r io.Reader) (*Animation, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, truncated(err, "header")
	}
	if string(header[0:4]) != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, header[0:4])
	}

	a := &Animation{
		Width:  int(binary.BigEndian.Uint32(header[4:8])),
		Height: int(binary.BigEndian.Uint32(header[8:12])),
		FPS:    math.Float64frombits(binary.BigEndian.Uint64(header[12:20])),
	}
	count := binary.BigEndian.Uint32(header[20:24])
	if count > MaxFrames {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalidHeader, count)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	a.Frames = make([][]byte, 0, min(int(count), maxPrealloc))
	var size [4]byte
	for i := range int(count) {
		if _, err := io.ReadFull(r, size[:]); err != nil {
			return nil, truncated(err, fmt.Sprintf("frame %d size", i))
		}
		n := binary.BigEndian.Uint32(size[:])
		if n > MaxFrameSize {
			return nil, fmt.Errorf("%w: frame %d size %d", ErrInvalidHeader, i, n)
		}
		frame, err := readFrame(r, int(n))
		if err != nil {
			return nil, truncated(err, fmt.Sprintf("frame %d data", i))
		}
		a.Frames = append(a.Frames, frame)
	}
	return a, nil
}

// readFrame reads n bytes in chunks, growing the buffer only as data arrives
func readFrame(r io.Reader, n int) ([]byte, error) {
	frame := make([]byte, 0, min(n, frameChunk))
	for len(frame) < n {
		chunk := min(n-len(frame), frameChunk)
		frame = slices.Grow(frame, chunk)
		got, err := io.ReadFull(r, frame[len(frame):len(frame)+chunk])
		frame = frame[:len(frame)+got]
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, what)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

// Load reads a container file
func Load(path string) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// WriteTo writes the container to w
func (a *Animation) WriteTo(w io.Writer) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, HeaderSize)
	copy(header[0:4], Magic)
	binary.BigEndian.PutUint32(header[4:8], uint32(a.Width))
	binary.BigEndian.PutUint32(header[8:12], uint32(a.Height))
	binary.BigEndian.PutUint64(header[12:20], math.Float64bits(a.FPS))
	binary.BigEndian.PutUint32(header[20:24], uint32(len(a.Frames)))
	bw.Write(header)

	written := int64(HeaderSize)
	var size [4]byte
	for i, frame := range a.Frames {
		if len(frame) > MaxFrameSize {
			return written, fmt.Errorf("%w: frame %d size %d", ErrInvalidHeader, i, len(frame))
		}
		binary.BigEndian.PutUint32(size[:], uint32(len(frame)))
		bw.Write(size[:])
		bw.Write(frame)
		written += int64(4 + len(frame))
	}

	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return written, nil
}
