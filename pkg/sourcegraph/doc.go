// Package sourcegraph implements graph data conversion: the
// first of the three tightly coupled subsystems that turn a compact
// operational graph into something the dispatcher can route over.
//
// # Overview
//
// Build runs three steps in order:
//
//  1. Edge orientation expansion — twoWay/narrowTwoWay source edges become
//     two directed orientations; oneWay edges become one.
//  2. Normal-node collapse — chains of geometric waypoint nodes are folded
//     into single ReducedEdge values carrying the ordered source-node and
//     source-edge ids they pass through.
//  3. Connection-shape validation — every POI-like node (operational POI,
//     parking, queue, waiting, departure, waiting-departure) is checked
//     against its one permitted neighbor/way-type shape.
//
// # Basic Usage
//
//	reduced, err := sourcegraph.Build(src)
//	if err != nil {
//	    // a PoisManagerError naming the offending node
//	}
//
// The reduced edges are the input to the supervisor graph builder
// (pkg/supervisor), which expands them further into the planning graph.
package sourcegraph
