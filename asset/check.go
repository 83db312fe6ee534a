package asset

import (
	"fmt"

	"github.com/lixenwraith/bw-player/canvas"
	"github.com/lixenwraith/bw-player/codec"
)

// FrameError reports the first frame that failed to decode
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Check decodes every frame in order on one canvas and returns the summed
// command statistics. Decoding stops at the first failure, returned as *FrameError
func (a *Animation) Check() (codec.Stats, error) {
	var total codec.Stats
	if err := a.Validate(); err != nil {
		return total, err
	}

	c := canvas.New(a.Width, a.Height)
	for i, frame := range a.Frames {
		s, err := codec.Scan(frame, c.Len())
		if err != nil {
			return total, &FrameError{Index: i, Err: err}
		}
		if err := codec.Apply(c, frame); err != nil {
			return total, &FrameError{Index: i, Err: err}
		}
		total.Add(s)
	}
	return total, nil
}
