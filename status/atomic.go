package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 stored as bits. Zero value is 0.0
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Store(val float64) {
	f.bits.Store(math.Float64bits(val))
}

func (f *AtomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// AtomicString holds a short label such as a playback state.
// Zero value is the empty string
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// MaxStringLen caps stored labels
const MaxStringLen = 32

func (s *AtomicString) Store(val string) {
	if len(val) > MaxStringLen {
		val = val[:MaxStringLen]
	}
	s.ptr.Store(&val)
}

func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
