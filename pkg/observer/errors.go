package observer

import "errors"

// Sentinel errors for observer registration and dispatch.
var (
	ErrInvalidObserver           = errors.New("invalid observer")
	ErrObserverAlreadyRegistered = errors.New("observer already registered")
	ErrObserverPanic             = errors.New("observer panic")
)
