package planning

import "errors"

// Sentinel errors for planning-graph routing.
var (
	ErrSameStartAndEnd = errors.New("path requested from a node to itself")
	ErrNoPath          = errors.New("no path exists between the requested nodes")
	ErrGroupOverrun    = errors.New("more than one robot occupies a non-zero-group edge")
	ErrUnknownPOI      = errors.New("poi id has no canonical node in the planning graph")
)
