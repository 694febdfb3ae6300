package planning

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/PawSmy/Supervisor/pkg/types"
)

// Router answers shortest-path and occupancy-accounting queries over a
// planning graph built once by pkg/supervisor. A Router holds its own
// mutable copy of edge occupancy (ResetOccupancy), refreshed at the start
// of every dispatch tick from the fleet snapshot; the graph's structural
// data (nodes, weights, capacities, groups) is never mutated after
// construction.
type Router struct {
	pg    types.PlanningGraph
	edges []types.PlanEdge

	// out indexes outgoing edges by start node.
	out map[string][]int
	// byEnds indexes edges by (start, end) for occupancy reset lookups.
	byEnds map[[2]string][]int
	// byGroup indexes edges by their non-zero group id.
	byGroup map[int][]int
	// poiGroup maps a POI id to the group its chain (or, for parking, its
	// approach edges) carries; groupPOI is the reverse lookup.
	poiGroup map[string]int
	groupPOI map[int]string
}

// NewRouter copies the planning graph's edges into a fresh occupancy
// scratch space and builds the adjacency indexes the router needs.
func NewRouter(pg types.PlanningGraph) *Router {
	r := &Router{
		pg:       pg,
		edges:    make([]types.PlanEdge, len(pg.Edges)),
		out:      make(map[string][]int),
		byEnds:   make(map[[2]string][]int),
		byGroup:  make(map[int][]int),
		poiGroup: make(map[string]int),
		groupPOI: make(map[int]string),
	}
	copy(r.edges, pg.Edges)
	for i, e := range r.edges {
		r.out[e.Start] = append(r.out[e.Start], i)
		key := [2]string{e.Start, e.End}
		r.byEnds[key] = append(r.byEnds[key], i)
		if e.Group != 0 {
			r.byGroup[e.Group] = append(r.byGroup[e.Group], i)
			// A POI group is carried either by a POI chain edge (DOCK/
			// WAIT/UNDOCK) or, for parking, by the tagged approach edges.
			// Narrow two-way mirror groups and plain intersection
			// cross-edges are mutual-exclusion groups but not POI groups.
			if e.Behaviour != types.EdgeGoTo {
				r.recordPOIGroup(r.poiOf(e.Start), e.Group)
			} else if e.ConnectedPOI != types.NoPOI {
				r.recordPOIGroup(e.ConnectedPOI, e.Group)
			}
		}
	}
	return r
}

func (r *Router) recordPOIGroup(poi string, group int) {
	if poi == types.NoPOI {
		return
	}
	if _, ok := r.poiGroup[poi]; !ok {
		r.poiGroup[poi] = group
		r.groupPOI[group] = poi
	}
}

// ResetOccupancy rewrites every edge's robot-occupancy list from scratch,
// using each robot's current (already-normalized) edge. Occupancy is
// rewritten from the fleet snapshot at the start of every tick; the
// router never infers occupancy from history.
func (r *Router) ResetOccupancy(robots map[string]types.Robot) {
	for i := range r.edges {
		r.edges[i].Robots = nil
	}
	ids := make([]string, 0, len(robots))
	for id := range robots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rb := robots[id]
		if rb.Edge == nil {
			continue
		}
		key := [2]string{rb.Edge[0], rb.Edge[1]}
		for _, idx := range r.byEnds[key] {
			r.edges[idx].Robots = append(r.edges[idx].Robots, id)
		}
	}
}

// Edge returns the current edge at (start, end), if any.
func (r *Router) Edge(start, end string) (types.PlanEdge, bool) {
	idxs := r.byEnds[[2]string{start, end}]
	if len(idxs) == 0 {
		return types.PlanEdge{}, false
	}
	return r.edges[idxs[0]], true
}

// POIOf returns the POI id of a node, or NoPOI if the node is unknown or
// not part of any POI.
func (r *Router) POIOf(node string) string { return r.poiOf(node) }

// GetPOIGroup returns the mutual-exclusion group carried by poi's chain
// (or, for parking, its approach edges), if poi has one.
func (r *Router) GetPOIGroup(poi string) (int, bool) {
	g, ok := r.poiGroup[poi]
	return g, ok
}

// IsPOIGroup reports whether group is carried by some POI, as opposed to a
// paired narrow-two-way mirror group or no group at all.
func (r *Router) IsPOIGroup(group int) bool {
	_, ok := r.groupPOI[group]
	return ok
}

// poiOf returns the POI id of a node, or NoPOI if the node is unknown or
// not part of any POI.
func (r *Router) poiOf(node string) string {
	if n, ok := r.pg.Nodes[node]; ok {
		return n.POIID
	}
	return types.NoPOI
}

// allowed implements blockOtherPois: an edge may be used in
// a query from start to end only if both endpoints' POI ids are in
// {NoPOI, poiOf(start), poiOf(end)}.
func (r *Router) allowed(e types.PlanEdge, startPOI, endPOI string) bool {
	if e.Weight == types.UnreachableWeight {
		return false
	}
	return poiMaskOK(r.poiOf(e.Start), startPOI, endPOI) && poiMaskOK(r.poiOf(e.End), startPOI, endPOI)
}

func poiMaskOK(poi, startPOI, endPOI string) bool {
	return poi == types.NoPOI || poi == startPOI || poi == endPOI
}

// GetPath returns the shortest sequence of edges from start to end,
// masking out every edge that touches a POI unrelated to this trip's
// origin or destination. Fails if start == end, or if no
// path exists.
func (r *Router) GetPath(start, end string) ([]types.PlanEdge, error) {
	if start == end {
		return nil, types.PlaningGraphError(fmt.Sprintf("getPath(%s, %s)", start, end), ErrSameStartAndEnd)
	}
	path, _, err := r.shortestPath(start, end)
	if err != nil {
		return nil, err
	}
	return path, nil
}

// GetPathLength returns the cumulative masked weight of the shortest path
// from start to end, or 0 if start == end.
func (r *Router) GetPathLength(start, end string) (int, error) {
	if start == end {
		return 0, nil
	}
	_, length, err := r.shortestPath(start, end)
	if err != nil {
		return 0, err
	}
	return length, nil
}

type pqItem struct {
	node string
	dist int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath runs Dijkstra's algorithm over the masked subgraph.
func (r *Router) shortestPath(start, end string) ([]types.PlanEdge, int, error) {
	startPOI, endPOI := r.poiOf(start), r.poiOf(end)

	dist := map[string]int{start: 0}
	viaEdge := map[string]int{} // node -> edge index used to reach it
	visited := map[string]bool{}

	pq := &priorityQueue{{node: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == end {
			break
		}
		for _, idx := range r.out[cur.node] {
			e := r.edges[idx]
			if !r.allowed(e, startPOI, endPOI) {
				continue
			}
			nd := cur.dist + e.Weight
			if existing, ok := dist[e.End]; !ok || nd < existing {
				dist[e.End] = nd
				viaEdge[e.End] = idx
				heap.Push(pq, pqItem{node: e.End, dist: nd})
			}
		}
	}

	if _, ok := dist[end]; !ok {
		return nil, 0, types.PlaningGraphError(fmt.Sprintf("getPath(%s, %s)", start, end), ErrNoPath)
	}

	var path []types.PlanEdge
	node := end
	for node != start {
		idx := viaEdge[node]
		e := r.edges[idx]
		path = append([]types.PlanEdge{e}, path...)
		node = e.Start
	}
	return path, dist[end], nil
}

// GetEndGoToNode returns the node a GO_TO behaviour targeting poi
// terminates at.
func (r *Router) GetEndGoToNode(poi string) (string, error) {
	n, ok := r.pg.EntryNode[poi]
	if !ok {
		return "", types.PlaningGraphError(poi, ErrUnknownPOI)
	}
	return n, nil
}

// GetEndDockingNode returns the node reached once DOCK completes at poi.
func (r *Router) GetEndDockingNode(poi string) (string, error) {
	n, ok := r.pg.WaitNode[poi]
	if !ok {
		return "", types.PlaningGraphError(poi, ErrUnknownPOI)
	}
	return n, nil
}

// GetEndWaitNode returns the node reached once WAIT (or BAT_EX) completes
// at poi: the undock node for a dockWaitUndock POI, the end node for a
// waitPOI.
func (r *Router) GetEndWaitNode(poi string) (string, error) {
	if n, ok := r.pg.UndockNode[poi]; ok {
		return n, nil
	}
	if n, ok := r.pg.EndNode[poi]; ok {
		return n, nil
	}
	return "", types.PlaningGraphError(poi, ErrUnknownPOI)
}

// GetEndUndockingNode returns the node reached once UNDOCK completes at poi.
func (r *Router) GetEndUndockingNode(poi string) (string, error) {
	n, ok := r.pg.EndNode[poi]
	if !ok {
		return "", types.PlaningGraphError(poi, ErrUnknownPOI)
	}
	return n, nil
}

// GetRobotsInGroupEdge returns the robot ids occupying edge, unioned
// across every edge in its group when the group is non-zero. Fails if the group invariant (at most one robot per non-zero
// group) is violated.
func (r *Router) GetRobotsInGroupEdge(edge types.PlanEdge) ([]string, error) {
	if edge.Group == 0 {
		return append([]string{}, edge.Robots...), nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, idx := range r.byGroup[edge.Group] {
		for _, rid := range r.edges[idx].Robots {
			if !seen[rid] {
				seen[rid] = true
				out = append(out, rid)
			}
		}
	}
	if len(out) > 1 {
		return out, types.PlaningGraphError(fmt.Sprintf("group %d", edge.Group), ErrGroupOverrun)
	}
	return out, nil
}

// GetEdgesByGroup enumerates every edge sharing the given non-zero group.
func (r *Router) GetEdgesByGroup(group int) []types.PlanEdge {
	idxs := r.byGroup[group]
	out := make([]types.PlanEdge, len(idxs))
	for i, idx := range idxs {
		out[i] = r.edges[idx]
	}
	return out
}

// GetMaxAllowedRobots returns 1 if edge belongs to a non-zero group, else
// edge.MaxRobots.
func (r *Router) GetMaxAllowedRobots(edge types.PlanEdge) int {
	if edge.Group != 0 {
		return 1
	}
	return edge.MaxRobots
}

// GetMaxAllowedRobotsUsingPois returns poiId -> capacity, derived at
// supervisor-build time from the connected-POI tags.
func (r *Router) GetMaxAllowedRobotsUsingPois() map[string]int {
	out := make(map[string]int, len(r.pg.ConnectedPOICapacity))
	for k, v := range r.pg.ConnectedPOICapacity {
		out[k] = v
	}
	return out
}

// GetPOIRole returns the semantic role of poi, or false if poi is unknown.
func (r *Router) GetPOIRole(poi string) (types.POIRole, bool) {
	role, ok := r.pg.POIRole[poi]
	return role, ok
}

// GetBasePoisEdges returns poiId -> canonical "at rest" edge, used to
// normalize a robot whose reported position is a POI id.
func (r *Router) GetBasePoisEdges() map[string][2]string {
	out := make(map[string][2]string, len(r.pg.BasePOIEdge))
	for k, v := range r.pg.BasePOIEdge {
		out[k] = v
	}
	return out
}
