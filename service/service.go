// Package service runs the long-lived subsystems of the player (terminal,
// tcell screen, soundtrack) through a common lifecycle.
package service

// Service defines the lifecycle interface for infrastructure subsystems
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init(args...) - configuration registered with the service
//  3. Start() - acquire devices, launch background goroutines
//  4. [playback]
//  5. Stop() - halt goroutines, release devices
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init configures the service from the args given to Hub.Register
	Init(args ...any) error

	// Start begins service operation
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent
	Stop() error
}
