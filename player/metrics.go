package player

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/bw-player/status"
)

// Playback states published as player.state
const (
	statePlaying = "playing"
	statePaused  = "paused"
	stateStopped = "stopped"
)

// metrics mirrors Stats into a status registry for readers on other goroutines
type metrics struct {
	frame    *atomic.Int64
	decoded  *atomic.Int64
	rendered *atomic.Int64
	dropped  *atomic.Int64
	skipped  *atomic.Int64
	loops    *atomic.Int64
	late     *status.AtomicFloat
	state    *status.AtomicString
}

func newMetrics(r *status.Registry) *metrics {
	if r == nil {
		r = status.NewRegistry()
	}
	return &metrics{
		frame:    r.Ints.Get("player.frame"),
		decoded:  r.Ints.Get("player.decoded"),
		rendered: r.Ints.Get("player.rendered"),
		dropped:  r.Ints.Get("player.dropped"),
		skipped:  r.Ints.Get("player.skipped"),
		loops:    r.Ints.Get("player.loops"),
		late:     r.Floats.Get("player.late_ms"),
		state:    r.Strings.Get("player.state"),
	}
}

func (m *metrics) publish(s *Stats, frame int, late time.Duration) {
	m.frame.Store(int64(frame))
	m.decoded.Store(int64(s.Decoded))
	m.rendered.Store(int64(s.Rendered))
	m.dropped.Store(int64(s.Dropped))
	m.skipped.Store(int64(s.Skipped))
	m.loops.Store(int64(s.Loops))
	m.late.Store(float64(late) / float64(time.Millisecond))
}
