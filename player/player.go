// Package player drives playback: it paces frames against the monotonic
// clock, decodes each frame into a double-buffered canvas pair and hands the
// result to a Sink.
package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/bw-player/asset"
	"github.com/lixenwraith/bw-player/canvas"
	"github.com/lixenwraith/bw-player/codec"
	"github.com/lixenwraith/bw-player/render"
	"github.com/lixenwraith/bw-player/terminal"
)

// Sink displays canvases
type Sink interface {
	// Draw shows cur. In render.ModeDiff prev is what the display currently shows
	Draw(mode render.Mode, prev, cur *canvas.Canvas) (render.Stats, error)
	// Clear blanks the display
	Clear() error
}

// Stats summarizes a Run
type Stats struct {
	Decoded  int // frames decoded
	Rendered int // sink draws, redraws included; always Full + Diff
	Dropped  int // frames decoded too late to draw
	Skipped  int // frames that failed to decode under Skip
	Full     int // full passes
	Diff     int // diff passes
	Glyphs   int
	Moves    int
	Loops    int // completed restarts
	Elapsed  time.Duration
}

// Player plays one animation into one sink
type Player struct {
	anim   *asset.Animation
	sink   Sink
	opts   Options
	period time.Duration
	clock  clock

	// front is the last decoded frame, back receives the next one
	front *canvas.Canvas
	back  *canvas.Canvas
	blank *canvas.Canvas

	// shown: front is what the sink displays
	// stale: the sink shows something other than front or a blank screen
	shown bool
	stale bool
	have  bool // front holds a decoded frame

	stats   Stats
	metrics *metrics
}

// ErrInvalidFPS rejects a rate override outside [asset.MinFPS, asset.MaxFPS]
var ErrInvalidFPS = errors.New("invalid fps override")

// New validates anim and prepares the canvases
func New(anim *asset.Animation, sink Sink, opts Options) (*Player, error) {
	if err := anim.Validate(); err != nil {
		return nil, err
	}
	fps := anim.FPS
	if opts.FPS != 0 {
		if !asset.ValidFPS(opts.FPS) {
			return nil, fmt.Errorf("%w: %g", ErrInvalidFPS, opts.FPS)
		}
		fps = opts.FPS
	}
	return &Player{
		anim:    anim,
		sink:    sink,
		opts:    opts,
		period:  time.Duration(float64(time.Second) / fps),
		clock:   realClock{},
		front:   canvas.New(anim.Width, anim.Height),
		back:    canvas.New(anim.Width, anim.Height),
		blank:   canvas.New(anim.Width, anim.Height),
		metrics: newMetrics(opts.Metrics),
	}, nil
}

// Period returns the frame interval
func (p *Player) Period() time.Duration {
	return p.period
}

// errQuit ends playback without error
var errQuit = errors.New("quit")

// Run plays until the last frame (or forever with Loop), a quit key, a fatal
// error or ctx cancellation. Cancellation returns ctx.Err()
func (p *Player) Run(ctx context.Context) (Stats, error) {
	p.stats = Stats{}
	begin := p.clock.Now()
	defer func() {
		p.stats.Elapsed = p.clock.Now().Sub(begin)
		p.pauseAudio(true)
		p.metrics.state.Store(stateStopped)
	}()

	frames := p.anim.Frames
	if len(frames) == 0 {
		return p.stats, nil
	}

	if err := p.sink.Clear(); err != nil {
		return p.stats, fmt.Errorf("clear: %w", err)
	}
	log.Printf("player: %dx%d, %d frames, period %v, mode %v", p.anim.Width, p.anim.Height, len(frames), p.period, p.opts.Mode)

	start := p.clock.Now()
	p.pauseAudio(false)
	p.metrics.state.Store(statePlaying)
	for i := 0; ; i++ {
		if i == len(frames) {
			if !p.opts.Loop {
				return p.stats, nil
			}
			p.restart()
			i = 0
			start = p.clock.Now()
		}

		due := start.Add(time.Duration(float64(i) * float64(p.period)))
		shift, err := p.wait(ctx, due)
		start = start.Add(shift)
		if err != nil {
			if errors.Is(err, errQuit) {
				return p.stats, nil
			}
			return p.stats, err
		}
		due = due.Add(shift)

		if err := codec.Decode(p.back, p.front, frames[i]); err != nil {
			if errors.Is(err, canvas.ErrDimensionMismatch) || p.opts.OnError == Stop {
				return p.stats, fmt.Errorf("frame %d: %w", i, err)
			}
			log.Printf("player: skipping frame %d: %v", i, err)
			p.stats.Skipped++
			p.metrics.publish(&p.stats, i, 0)
			continue
		}
		p.stats.Decoded++
		p.front, p.back = p.back, p.front
		p.have = true

		last := i == len(frames)-1 && !p.opts.Loop
		late := p.clock.Now().Sub(due)
		if late > p.period && p.shown && !last {
			p.stats.Dropped++
			p.stale = true
			p.metrics.publish(&p.stats, i, late)
			continue
		}

		if err := p.draw(); err != nil {
			return p.stats, err
		}
		p.metrics.publish(&p.stats, i, late)
	}
}

// restart rewinds to a blank canvas for the next loop
func (p *Player) restart() {
	p.front.Clear()
	p.back.Clear()
	p.have = false
	// The display still shows the last frame
	p.stale = p.shown || p.stale
	p.stats.Loops++
	if s, ok := p.opts.Audio.(Seeker); ok {
		if err := s.Seek(0); err != nil {
			log.Printf("player: audio rewind: %v", err)
		}
	}
}

// draw shows front, choosing the cheapest pass that stays correct
func (p *Player) draw() error {
	mode, prev := render.ModeDiff, p.back
	switch {
	case p.opts.Mode == ModeFull || p.stale:
		mode, prev = render.ModeFull, nil
	case !p.shown && p.opts.Mode == ModeDiff:
		prev = p.blank
	case !p.shown:
		mode, prev = render.ModeFull, nil
	}

	s, err := p.sink.Draw(mode, prev, p.front)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	p.shown, p.stale = true, false
	p.count(mode, s)
	return nil
}

func (p *Player) count(mode render.Mode, s render.Stats) {
	p.stats.Rendered++
	if mode == render.ModeFull {
		p.stats.Full++
	} else {
		p.stats.Diff++
	}
	p.stats.Glyphs += s.Glyphs
	p.stats.Moves += s.Moves
}

// redraw clears the sink and repaints the current frame in full
func (p *Player) redraw() error {
	if err := p.sink.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	p.shown, p.stale = false, false
	if !p.have {
		return nil
	}
	s, err := p.sink.Draw(render.ModeFull, nil, p.front)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	p.shown = true
	p.count(render.ModeFull, s)
	return nil
}

// waitState tracks a pause across one wait
type waitState struct {
	paused   bool
	pausedAt time.Time
	shift    time.Duration
}

// wait blocks until due while serving keys and resizes, which take priority
// over the timer. It returns how far the schedule moved because of a pause
func (p *Player) wait(ctx context.Context, due time.Time) (time.Duration, error) {
	var st waitState

	for {
		// Pending input first
		select {
		case <-ctx.Done():
			return st.shift, ctx.Err()
		case k := <-p.opts.Keys:
			if err := p.key(k, &st); err != nil {
				return st.shift, err
			}
			continue
		case ev := <-p.opts.Resize:
			if err := p.resized(ev); err != nil {
				return st.shift, err
			}
			continue
		default:
		}

		var timer <-chan time.Time
		if !st.paused {
			now := p.clock.Now()
			if !now.Before(due.Add(st.shift)) {
				return st.shift, nil
			}
			timer = p.clock.After(due.Add(st.shift).Sub(now))
		}

		select {
		case <-ctx.Done():
			return st.shift, ctx.Err()
		case <-timer:
		case k := <-p.opts.Keys:
			if err := p.key(k, &st); err != nil {
				return st.shift, err
			}
		case ev := <-p.opts.Resize:
			if err := p.resized(ev); err != nil {
				return st.shift, err
			}
		}
	}
}

func (p *Player) key(k terminal.Key, st *waitState) error {
	switch k {
	case terminal.KeyQuit:
		return errQuit
	case terminal.KeyPause:
		if st.paused {
			st.shift += p.clock.Now().Sub(st.pausedAt)
			log.Printf("player: resumed")
		} else {
			st.pausedAt = p.clock.Now()
			log.Printf("player: paused")
		}
		st.paused = !st.paused
		p.pauseAudio(st.paused)
		if st.paused {
			p.metrics.state.Store(statePaused)
		} else {
			p.metrics.state.Store(statePlaying)
		}
	case terminal.KeyRedraw:
		return p.redraw()
	}
	return nil
}

func (p *Player) resized(ev terminal.ResizeEvent) error {
	log.Printf("player: resize %dx%d", ev.Width, ev.Height)
	return p.redraw()
}

func (p *Player) pauseAudio(paused bool) {
	if p.opts.Audio != nil {
		p.opts.Audio.SetPaused(paused)
	}
}
