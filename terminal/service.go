package terminal

import "fmt"

// Service owns the terminal for the ANSI output path
type Service struct {
	term       *Terminal
	bg         RGB
	newBackend func() Backend
}

// NewService creates a terminal service
func NewService() *Service {
	return &Service{newBackend: newBackend}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "terminal"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: ColorMode (optional, defaults to DetectColorMode())
// args[1]: RGB background painted on Start (optional, defaults to black)
func (s *Service) Init(args ...any) error {
	mode := DetectColorMode()
	s.bg = RGBBlack
	if len(args) > 0 {
		if cm, ok := args[0].(ColorMode); ok {
			mode = cm
		}
	}
	if len(args) > 1 {
		if bg, ok := args[1].(RGB); ok {
			s.bg = bg
		}
	}
	s.term = newTerminal(s.newBackend(), mode)
	return nil
}

// Start implements service.Service: raw mode, alternate screen, input reader
func (s *Service) Start() error {
	if s.term == nil {
		return fmt.Errorf("terminal: start before init")
	}
	if err := s.term.Init(s.bg); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.term != nil {
		s.term.Fini()
	}
	return nil
}

// Terminal returns the wrapped terminal, nil before Init
func (s *Service) Terminal() *Terminal {
	return s.term
}
