package codec

import (
	"fmt"

	"github.com/lixenwraith/bw-player/canvas"
)

// Decode reconstructs a frame into dst from prev and the frame's command stream.
// prev is only read. On error dst holds a partially applied frame and must not be shown.
// Pixels past the last command keep their value from prev
func Decode(dst, prev *canvas.Canvas, frame []byte) error {
	if err := dst.CopyFrom(prev); err != nil {
		return err
	}
	return Apply(dst, frame)
}

// Apply runs the command stream of frame against c in place
func Apply(c *canvas.Canvas, frame []byte) error {
	pixels := c.Len()
	cursor := 0

	for off := 0; off < len(frame); {
		cmd, n, err := DecodeCommand(frame[off:])
		if err != nil {
			return fmt.Errorf("byte %d: %w", off, err)
		}

		end := cursor + cmd.Length
		if end > pixels {
			return fmt.Errorf("%w: byte %d: %s ends at pixel %d, canvas has %d",
				ErrRunOutOfBounds, off, cmd, end, pixels)
		}

		switch cmd.Kind {
		case KindSkip:
		case KindWhite:
			c.SetRun(cursor, end, canvas.White)
		case KindBlack:
			c.SetRun(cursor, end, canvas.Black)
		case KindFlip:
			c.InvertRun(cursor, end)
		}

		cursor = end
		off += n
	}

	return nil
}

// Stats summarizes one frame's command stream
type Stats struct {
	Bytes    int
	Commands [4]int // per Kind
	Pixels   [4]int // per Kind
	Covered  int    // pixels addressed by the stream
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.Bytes += other.Bytes
	s.Covered += other.Covered
	for k := range s.Commands {
		s.Commands[k] += other.Commands[k]
		s.Pixels[k] += other.Pixels[k]
	}
}

// CommandCount returns the total number of commands
func (s Stats) CommandCount() int {
	total := 0
	for _, n := range s.Commands {
		total += n
	}
	return total
}

// Scan walks the command stream of frame for a canvas of the given pixel count
// without touching any canvas. Error rules match Decode
func Scan(frame []byte, pixels int) (Stats, error) {
	s := Stats{Bytes: len(frame)}

	for off := 0; off < len(frame); {
		cmd, n, err := DecodeCommand(frame[off:])
		if err != nil {
			return s, fmt.Errorf("byte %d: %w", off, err)
		}

		end := s.Covered + cmd.Length
		if end > pixels {
			return s, fmt.Errorf("%w: byte %d: %s ends at pixel %d, canvas has %d",
				ErrRunOutOfBounds, off, cmd, end, pixels)
		}

		s.Commands[cmd.Kind]++
		s.Pixels[cmd.Kind] += cmd.Length
		s.Covered = end
		off += n
	}

	return s, nil
}
