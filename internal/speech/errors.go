package speech

import "errors"

// Common errors for the speech system.
var (
	// Engine errors
	ErrEngineInit         = errors.New("speech engine failed to initialize")
	ErrEngineNotAvailable = errors.New("speech engine is not available")
	ErrPlayback           = errors.New("speech playback failed")

	// Dispatcher errors
	ErrNotReady  = errors.New("dispatcher is not initialized")
	ErrClosed    = errors.New("dispatcher has been shut down")
	ErrQueueFull = errors.New("playback queue is full")
	ErrCanceled  = errors.New("playback request was canceled")

	// State errors
	ErrInvalidTransition = errors.New("invalid state transition")
)

// IsRecoverable reports whether the dispatcher can keep serving requests
// after this error. Only configuration and shutdown failures take the
// worker down; a failed synthesis or playback just fails its own request.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrEngineInit),
		errors.Is(err, ErrClosed):
		return false
	}
	return true
}
