package audio

import (
	"fmt"
	"log"
	"sync"
)

// Service wraps an optional Soundtrack.
// A missing speaker backend disables audio instead of failing playback
type Service struct {
	mu       sync.Mutex
	track    *Soundtrack
	disabled bool
}

// NewService creates an audio service
func NewService() *Service {
	return &Service{}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "audio"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: string - WAV path, empty disables audio
// args[1]: float64 - linear volume (default 1)
// args[2]: bool - muted; the stream still runs so it stays in step
func (s *Service) Init(args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path string
	volume := 1.0
	if len(args) > 0 {
		path, _ = args[0].(string)
	}
	if len(args) > 1 {
		if v, ok := args[1].(float64); ok {
			volume = v
		}
	}
	if len(args) > 2 {
		if muted, ok := args[2].(bool); ok && muted {
			volume = 0
		}
	}

	if path == "" {
		s.disabled = true
		return nil
	}
	track, err := Open(path, volume)
	if err != nil {
		return fmt.Errorf("soundtrack: %w", err)
	}
	s.track = track
	return nil
}

// Start implements service.Service
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled || s.track == nil {
		return nil
	}
	if err := s.track.Start(); err != nil {
		log.Printf("audio: %v (continuing without audio)", err)
		s.track.Close()
		s.track = nil
		s.disabled = true
	}
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.track == nil {
		return nil
	}
	err := s.track.Close()
	s.track = nil
	return err
}

// Soundtrack returns the running soundtrack, nil when audio is disabled
func (s *Service) Soundtrack() *Soundtrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// IsDisabled returns true if no soundtrack plays
func (s *Service) IsDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}
