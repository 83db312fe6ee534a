package player

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/bw-player/crash"
	"github.com/lixenwraith/bw-player/render"
)

// ScreenService owns a tcell screen and its ScreenSink for the tcell output path
type ScreenService struct {
	newScreen func() (tcell.Screen, error)
	screen    tcell.Screen
	sink      *ScreenSink
	style     render.Style
	center    bool
}

// NewScreenService creates a service over the default tcell screen
func NewScreenService() *ScreenService {
	return &ScreenService{newScreen: tcell.NewScreen}
}

// Name implements service.Service
func (s *ScreenService) Name() string {
	return "screen"
}

// Dependencies implements service.Service
func (s *ScreenService) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: render.Style (optional, defaults to render.DefaultStyle())
// args[1]: bool - center the animation
func (s *ScreenService) Init(args ...any) error {
	s.style = render.DefaultStyle()
	if len(args) > 0 {
		if st, ok := args[0].(render.Style); ok {
			s.style = st
		}
	}
	if len(args) > 1 {
		s.center, _ = args[1].(bool)
	}

	screen, err := s.newScreen()
	if err != nil {
		return fmt.Errorf("tcell screen: %w", err)
	}
	s.screen = screen
	return nil
}

// Start implements service.Service: takes over the terminal and starts the event listener
func (s *ScreenService) Start() error {
	if s.screen == nil {
		return fmt.Errorf("screen: start before init")
	}
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("tcell init: %w", err)
	}
	s.screen.HideCursor()
	s.sink = NewScreenSink(s.screen, s.style, s.center)
	crash.Go(s.sink.Listen)
	return nil
}

// Stop implements service.Service
func (s *ScreenService) Stop() error {
	if s.sink == nil {
		return nil
	}
	s.screen.Fini()
	select {
	case <-s.sink.Done():
	case <-time.After(time.Second):
		return fmt.Errorf("screen: event listener did not stop")
	}
	s.sink = nil
	return nil
}

// Sink returns the running sink, nil before Start
func (s *ScreenService) Sink() *ScreenSink {
	return s.sink
}

// Fini restores the terminal; lets the crash handler own the screen
func (s *ScreenService) Fini() {
	if s.screen != nil {
		s.screen.Fini()
	}
}
