// Package supervisor builds the planning graph: the second
// of the three tightly coupled subsystems, and the largest single piece of
// the dispatcher core. It takes the reduced edges and source nodes that
// pkg/sourcegraph validated and expands every POI into its sub-state-
// machine, splits intersections into in/out halves, assigns edge groups,
// and computes weights, capacities and corridor geometry.
//
// # Overview
//
// Build runs, in order:
//
//  1. Group allocation — every dockWaitUndock/waitPOI POI and every
//     parking node gets a unique positive group id; reduced edges incident
//     to one of those nodes inherit it; the remaining narrow-two-way
//     reduced edges are paired with their mirror twin under a fresh group.
//  2. POI node expansion — dock→wait→undock→end chains, wait→end chains,
//     and single noChanges nodes for parking/queue/waiting/departure/
//     waiting-departure.
//  3. Main-path edges — one GO_TO edge per reduced edge, endpoints resolved
//     to intersection halves or POI entry/end nodes.
//  4. Intersection cross-edges — full in×out cross product per
//     intersection (and per waiting-departure node, which behaves as an
//     intersection toward its attached POI).
//  5. Connected-POI tagging, weights and capacities.
//
// The result is immutable; routing in pkg/planning only ever reads it.
package supervisor
