// Package planning implements routing over the planning graph with
// contextual POI masking: the third of the three tightly
// coupled subsystems. Given a planning graph built once by pkg/supervisor,
// it answers "what is the next edge from A to B" while refusing to route
// through any POI that is neither the trip's origin nor its destination,
// and provides the per-group/per-edge occupancy accounting the dispatcher
// needs to decide whether a robot may commit to an edge.
//
// # Design note on planWeight
//
// PlanEdge carries a planWeight scratch field for implementations that
// rewrite edge weights destructively before each query. This package
// instead computes the mask as a per-query edge filter inside the
// shortest-path routine, so no query rewrites edge weights and the aliasing
// hazard of the destructive approach never arises. A Router does hold one
// piece of mutable state, its copy of edge occupancy, which ResetOccupancy
// replaces; a Router therefore serves one tick at a time and is not safe
// for concurrent use. The PlanningGraph it reads is never modified.
package planning
