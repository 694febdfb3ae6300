package sourcegraph

import "errors"

// Sentinel errors for source-graph conversion.
var (
	ErrHeterogeneousChain = errors.New("normal-node chain has mixed way types")
	ErrChainEndsAtNormal  = errors.New("normal-node chain has no continuation")
	ErrAmbiguousChain     = errors.New("normal node has more than one continuation")
	ErrInvalidConnection  = errors.New("node does not have the permitted neighbor configuration")
	ErrUnknownNode        = errors.New("edge references a node not present in the graph")
)
