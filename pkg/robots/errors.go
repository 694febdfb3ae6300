package robots

import "errors"

// Sentinel errors for the robots plan manager.
var (
	ErrUnknownRobot        = errors.New("robot not present in this tick's fleet snapshot")
	ErrTaskAlreadyAssigned = errors.New("task is already assigned to a different robot")
	ErrNoTaskAssigned      = errors.New("robot has no task assigned this tick")
	ErrNoEdgeAssigned      = errors.New("robot has no next edge assigned this tick")
)
