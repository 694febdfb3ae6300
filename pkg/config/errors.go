package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidRobotLength      = errors.New("invalid robot length: must be positive")
	ErrInvalidRobotVelocity    = errors.New("invalid robot velocity: must be positive")
	ErrInvalidBehaviourCost    = errors.New("invalid behaviour cost: must be non-negative")
	ErrInvalidPhase4Timeout    = errors.New("invalid phase-4 timeout: must be non-negative")
	ErrInvalidPhase4Iterations = errors.New("invalid phase-4 max iterations: must be non-negative")
	ErrNoPhase4Budget          = errors.New("phase-4 requires a timeout or a max-iterations budget")
)
