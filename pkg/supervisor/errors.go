package supervisor

import "errors"

// Sentinel errors for supervisor graph construction.
var (
	ErrUnknownSourceNode  = errors.New("reduced edge references a node not present in the source graph")
	ErrGroupInvariant     = errors.New("a non-zero group has more than one member edge set with conflicting attachment")
	ErrUnexpectedPOIShape = errors.New("POI node has neither dockWaitUndock, waitPOI nor noChanges section")
)
