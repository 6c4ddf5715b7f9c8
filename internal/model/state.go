package model

import "sync/atomic"

// ExposureState is the public lifecycle state of the camera.
type ExposureState int32

const (
	StateIdle ExposureState = iota
	StateExposing
	StateReading
	StateDownloading
	StateError
)

func (s ExposureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExposing:
		return "exposing"
	case StateReading:
		return "reading"
	case StateDownloading:
		return "downloading"
	case StateError:
		return "error"
	}
	return "unknown"
}

// MarshalText lets the state print by name in YAML and JSON output.
func (s ExposureState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AtomicState holds an ExposureState that may be read while another
// goroutine is transitioning it.
type AtomicState struct {
	v atomic.Int32
}

// Load returns the current state.
func (a *AtomicState) Load() ExposureState {
	return ExposureState(a.v.Load())
}

// Store replaces the state unconditionally.
func (a *AtomicState) Store(s ExposureState) {
	a.v.Store(int32(s))
}

// Transition moves from one of the allowed states to next. It reports false
// and leaves the state untouched when the current state is not in from.
func (a *AtomicState) Transition(next ExposureState, from ...ExposureState) bool {
	for _, f := range from {
		if a.v.CompareAndSwap(int32(f), int32(next)) {
			return true
		}
	}
	return false
}
