package player

import (
	"fmt"
	"time"

	"github.com/lixenwraith/bw-player/status"
	"github.com/lixenwraith/bw-player/terminal"
)

// Mode selects how frames are painted
type Mode uint8

const (
	// ModeAuto paints the whole rectangle after a clear, a resize, a loop
	// restart or a dropped frame, and only changed cells otherwise
	ModeAuto Mode = iota
	// ModeFull paints every cell of every frame
	ModeFull
	// ModeDiff paints changed cells only, diffing against a blank canvas after a clear
	ModeDiff
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeFull:
		return "full"
	case ModeDiff:
		return "diff"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode parses "auto", "full" or "diff"
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeAuto, ModeFull, ModeDiff} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeAuto, fmt.Errorf("unknown mode %q", s)
}

// ErrorAction decides what happens when a frame fails to decode
type ErrorAction uint8

const (
	// Stop ends playback with the decode error
	Stop ErrorAction = iota
	// Skip logs the error, keeps the last good frame on screen and moves on
	Skip
)

func (a ErrorAction) String() string {
	if a == Skip {
		return "skip"
	}
	return "stop"
}

// ParseErrorAction parses "stop" or "skip"
func ParseErrorAction(s string) (ErrorAction, error) {
	switch s {
	case "stop":
		return Stop, nil
	case "skip":
		return Skip, nil
	}
	return Stop, fmt.Errorf("unknown error action %q", s)
}

// Pauser is told when playback pauses and resumes
type Pauser interface {
	SetPaused(paused bool)
}

// Seeker is rewound when a looping animation restarts
type Seeker interface {
	Seek(d time.Duration) error
}

// Options configure a Player
type Options struct {
	// FPS overrides the animation's rate when positive
	FPS     float64
	Mode    Mode
	OnError ErrorAction
	Loop    bool

	// Keys and Resize are optional event sources, read between frames
	Keys   <-chan terminal.Key
	Resize <-chan terminal.ResizeEvent

	// Audio is an optional soundtrack kept in step with playback.
	// It is unpaused on the first frame; a Seeker is rewound on loop
	Audio Pauser

	// Metrics receives live counters under "player.*" when set
	Metrics *status.Registry
}
