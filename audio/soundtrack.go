// Package audio plays an optional WAV soundtrack in step with the animation.
package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

const sampleRate = beep.SampleRate(48000)

// Soundtrack is a seekable WAV stream behind a pause control.
// It starts paused; the player unpauses it on the first frame
type Soundtrack struct {
	mu     sync.Mutex
	source beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	out    beep.Streamer

	started bool
}

// Open decodes the WAV header of path and prepares the stream at the given linear volume
func Open(path string, volume float64) (*Soundtrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	source, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var s beep.Streamer = source
	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, s)
	}
	ctrl := &beep.Ctrl{Streamer: s, Paused: true}

	return &Soundtrack{
		source: source,
		format: format,
		ctrl:   ctrl,
		out:    newVolume(ctrl, volume),
	}, nil
}

// math.Log2(0) is -Inf, so 0 volume is handled as silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Start initializes the speaker and queues the (paused) stream
func (t *Soundtrack) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("speaker: %w", err)
	}
	speaker.Play(t.out)
	t.started = true
	return nil
}

// Streamer returns the output stream, volume applied, at 48kHz
func (t *Soundtrack) Streamer() beep.Streamer {
	return t.out
}

// Format returns the format of the source file
func (t *Soundtrack) Format() beep.Format {
	return t.format
}

// Duration returns the length of the source
func (t *Soundtrack) Duration() time.Duration {
	return t.format.SampleRate.D(t.source.Len())
}

// Position returns the playback position in the source
func (t *Soundtrack) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.source.Position())
}

// SetPaused pauses or resumes output
func (t *Soundtrack) SetPaused(paused bool) {
	speaker.Lock()
	t.ctrl.Paused = paused
	speaker.Unlock()
}

// paused reports whether output is paused
func (t *Soundtrack) paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return t.ctrl.Paused
}

// Seek moves playback to d from the start of the source, clamped to its length
func (t *Soundtrack) Seek(d time.Duration) error {
	n := min(max(t.format.SampleRate.N(d), 0), t.source.Len())
	speaker.Lock()
	defer speaker.Unlock()
	return t.source.Seek(n)
}

// Close stops output and closes the source file
func (t *Soundtrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		speaker.Clear()
		t.started = false
	}
	t.SetPaused(true)
	return t.source.Close()
}
