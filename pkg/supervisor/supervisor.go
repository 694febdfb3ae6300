package supervisor

import (
	"fmt"
	"math"
	"sort"

	"github.com/PawSmy/Supervisor/pkg/config"
	"github.com/PawSmy/Supervisor/pkg/sourcegraph"
	"github.com/PawSmy/Supervisor/pkg/types"
)

// Build expands the reduced edges of a validated source graph into the
// immutable planning graph the dispatcher routes over.
func Build(cfg *config.Config, src types.SourceGraph, reduced []sourcegraph.ReducedEdge) (types.PlanningGraph, error) {
	b := &builder{
		cfg:                  cfg,
		src:                  src,
		nodes:                make(map[string]types.PlanNode),
		entryNode:            make(map[string]string),
		waitNode:             make(map[string]string),
		dockNode:             make(map[string]string),
		undockNode:           make(map[string]string),
		endNode:              make(map[string]string),
		basePOIEdge:          make(map[string][2]string),
		connectedPOICapacity: make(map[string]int),
		poiRole:              make(map[string]types.POIRole),
		nextGroup:            1,
		groupOf:              make(map[string]int),
		attachedPOIGroup:     make(map[string]int),
		intersectionIn:       make(map[string]map[string]string),
		intersectionOut:      make(map[string]map[string]string),
	}

	b.assignGroups()
	b.expandPOINodes()
	if err := b.buildMainPathEdges(reduced); err != nil {
		return types.PlanningGraph{}, err
	}
	b.buildIntersectionCrossEdges()
	b.computeConnectedPOICapacity()

	return types.PlanningGraph{
		Nodes:                b.nodes,
		Edges:                b.edges,
		EntryNode:            b.entryNode,
		WaitNode:             b.waitNode,
		DockNode:             b.dockNode,
		UndockNode:           b.undockNode,
		EndNode:              b.endNode,
		BasePOIEdge:          b.basePOIEdge,
		ConnectedPOICapacity: b.connectedPOICapacity,
		POIRole:              b.poiRole,
	}, nil
}

type builder struct {
	cfg *config.Config
	src types.SourceGraph

	nodes map[string]types.PlanNode
	edges []types.PlanEdge

	entryNode   map[string]string
	waitNode    map[string]string
	dockNode    map[string]string
	undockNode  map[string]string
	endNode     map[string]string
	basePOIEdge map[string][2]string

	connectedPOICapacity map[string]int
	poiRole              map[string]types.POIRole

	// nextGroup/groupOf implement step 1, group allocation. groupOf is
	// keyed by source-node id for dockWaitUndock/waitPOI/parking nodes.
	nextGroup int
	groupOf   map[string]int

	// narrowGroupOf pairs a remaining narrow-two-way reduced edge with its
	// mirror twin under a shared group id, keyed by the unordered node pair.
	narrowGroupOf map[[2]string]int

	// attachedPOIGroup records, for a waiting-departure node, the group id
	// of the operational POI it is narrowTwoWay-connected to.
	attachedPOIGroup map[string]int

	// intersectionIn/intersectionOut key an intersection-like node's
	// expanded halves by the neighbor they face: in[intersectionID][predID],
	// out[intersectionID][succID].
	intersectionIn  map[string]map[string]string
	intersectionOut map[string]map[string]string
}

func sortedNodeIDs(src types.SourceGraph) []string {
	ids := make([]string, 0, len(src.Nodes))
	for id := range src.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// assignGroups starts group allocation: every
// dockWaitUndock/waitPOI POI and every parking node gets a unique positive
// group id. Pairing of the remaining narrow-two-way edges happens lazily
// in edgeGroup, the first time such an edge is seen.
func (b *builder) assignGroups() {
	b.narrowGroupOf = make(map[[2]string]int)
	for _, id := range sortedNodeIDs(b.src) {
		n := b.src.Nodes[id]
		if n.Section.IsOperational() || n.Section.Role == types.RoleParking {
			b.groupOf[id] = b.nextGroup
			b.nextGroup++
		}
	}
}

// expandPOINodes expands POI nodes: dockWaitUndock POIs become a
// 4-node chain, waitPOI POIs a 2-node chain, and every other POI-like node
// (parking, queue, waiting, departure, waiting-departure) a single
// noChanges node.
func (b *builder) expandPOINodes() {
	for _, id := range sortedNodeIDs(b.src) {
		n := b.src.Nodes[id]
		switch n.Section.Section {
		case types.SectionDockWaitUndock:
			dock, wait, undock, end := id+"#dock", id+"#wait", id+"#undock", id+"#end"
			group := b.groupOf[id]
			b.nodes[dock] = types.PlanNode{ID: dock, SourceNode: id, Kind: types.NodeDock, POIID: n.POIID, Pos: n.Pos}
			b.nodes[wait] = types.PlanNode{ID: wait, SourceNode: id, Kind: types.NodeWait, POIID: n.POIID, Pos: n.Pos}
			b.nodes[undock] = types.PlanNode{ID: undock, SourceNode: id, Kind: types.NodeUndock, POIID: n.POIID, Pos: n.Pos}
			b.nodes[end] = types.PlanNode{ID: end, SourceNode: id, Kind: types.NodeEnd, POIID: n.POIID, Pos: n.Pos}
			b.addChainEdge(dock, wait, types.EdgeDock, b.cfg.DockCost, group)
			b.addChainEdge(wait, undock, types.EdgeWait, b.cfg.WaitCost, group)
			b.addChainEdge(undock, end, types.EdgeUndock, b.cfg.UndockCost, group)

			b.entryNode[n.POIID] = dock
			b.dockNode[n.POIID] = dock
			b.waitNode[n.POIID] = wait
			b.undockNode[n.POIID] = undock
			b.endNode[n.POIID] = end
			b.basePOIEdge[n.POIID] = [2]string{dock, dock}

		case types.SectionWaitPOI:
			wait, end := id+"#wait", id+"#end"
			group := b.groupOf[id]
			b.nodes[wait] = types.PlanNode{ID: wait, SourceNode: id, Kind: types.NodeWait, POIID: n.POIID, Pos: n.Pos}
			b.nodes[end] = types.PlanNode{ID: end, SourceNode: id, Kind: types.NodeEnd, POIID: n.POIID, Pos: n.Pos}
			b.addChainEdge(wait, end, types.EdgeWait, b.cfg.WaitCost, group)

			b.entryNode[n.POIID] = wait
			b.waitNode[n.POIID] = wait
			b.endNode[n.POIID] = end
			b.basePOIEdge[n.POIID] = [2]string{wait, wait}

		case types.SectionNoChanges:
			b.nodes[id] = types.PlanNode{ID: id, SourceNode: id, Kind: types.NodeNoChanges, POIID: n.POIID, Pos: n.Pos}
			// Waiting and departure nodes share the poiId of the operational
			// POI they serve; its dock/wait chain owns the entry node and
			// base edge, whichever order the nodes are visited in.
			if _, chained := b.waitNode[n.POIID]; n.POIID != types.NoPOI && !chained {
				b.entryNode[n.POIID] = id
				b.basePOIEdge[n.POIID] = [2]string{id, id}
			}
		}
	}
}

func (b *builder) addChainEdge(start, end string, beh types.EdgeBehaviour, cost, group int) {
	b.edges = append(b.edges, types.PlanEdge{
		ID:          start + "->" + end,
		Start:       start,
		End:         end,
		Weight:      cost,
		PlanWeight:  cost,
		Behaviour:   beh,
		Group:       group,
		MaxRobots:   1,
		Way:         types.OneWay,
		SourceNodes: []string{start, end},
	})
}

// buildMainPathEdges creates one GO_TO edge per reduced
// edge, with endpoints resolved to intersection halves (created lazily) or
// POI entry/end nodes.
func (b *builder) buildMainPathEdges(reduced []sourcegraph.ReducedEdge) error {
	for _, re := range reduced {
		startNode, ok := b.src.Nodes[re.Start]
		if !ok {
			return types.PoisManagerError(re.Start, ErrUnknownSourceNode)
		}
		endNode, ok := b.src.Nodes[re.End]
		if !ok {
			return types.PoisManagerError(re.End, ErrUnknownSourceNode)
		}
		// The node's own ID field is only guaranteed to match its map key
		// for JSON-decoded graphs; fix it up from the reduced edge's
		// endpoints so group/intersection-half lookups are always keyed
		// correctly regardless of how the SourceGraph was constructed.
		startNode.ID, endNode.ID = re.Start, re.End

		from := b.resolveOutgoing(startNode, re.End)
		to := b.resolveIncoming(endNode, re.Start)

		b.recordAttachment(startNode, endNode)
		b.recordAttachment(endNode, startNode)

		length := b.pathLength(re.Nodes)
		inactive := b.hasInactiveEdge(re.SourceEdges)

		weight := types.UnreachableWeight
		if !inactive {
			weight = intCeil(length / b.cfg.RobotVelocity)
			if weight < 1 {
				weight = 1
			}
		}

		group := b.edgeGroup(startNode, endNode, re)

		maxRobots := 1
		touchesOperational := startNode.Section.IsOperational() || endNode.Section.IsOperational()
		if len(re.Nodes) > 2 && !touchesOperational {
			maxRobots = intFloor(length / b.cfg.RobotLength)
			if maxRobots < 1 {
				maxRobots = 1
			}
		}

		connectedPOI := b.connectedPOIFor(startNode, endNode)

		id := fmt.Sprintf("%s->%s", from, to)
		for b.hasEdgeID(id) {
			id += "'"
		}

		b.edges = append(b.edges, types.PlanEdge{
			ID:           id,
			Start:        from,
			End:          to,
			Weight:       weight,
			PlanWeight:   weight,
			Behaviour:    types.EdgeGoTo,
			Group:        group,
			MaxRobots:    maxRobots,
			Way:          re.Way,
			SourceNodes:  append([]string{}, re.Nodes...),
			SourceEdges:  append([]string{}, re.SourceEdges...),
			ConnectedPOI: connectedPOI,
		})
	}
	return nil
}

func (b *builder) hasEdgeID(id string) bool {
	for _, e := range b.edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// resolveOutgoing returns the plan node a reduced edge departs from: the
// end of a POI chain, the single node of a noChanges POI, or an
// intersection_out half keyed by the successor node it faces.
func (b *builder) resolveOutgoing(n types.SourceNode, successor string) string {
	switch {
	case n.Section.Section == types.SectionDockWaitUndock || n.Section.Section == types.SectionWaitPOI:
		return b.endNode[n.POIID]
	case isIntersectionLike(n):
		return b.outHalf(n.ID, successor)
	default:
		return n.ID
	}
}

// resolveIncoming returns the plan node a reduced edge arrives at: the
// entry of a POI chain, the single node of a noChanges POI, or an
// intersection_in half keyed by the predecessor node it faces.
func (b *builder) resolveIncoming(n types.SourceNode, predecessor string) string {
	switch {
	case n.Section.Section == types.SectionDockWaitUndock:
		return b.dockNode[n.POIID]
	case n.Section.Section == types.SectionWaitPOI:
		return b.waitNode[n.POIID]
	case isIntersectionLike(n):
		return b.inHalf(n.ID, predecessor)
	default:
		return n.ID
	}
}

func isIntersectionLike(n types.SourceNode) bool {
	return n.Section.Role == types.RoleIntersection || n.Section.Role == types.RoleWaitingDeparture
}

func (b *builder) outHalf(intersectionID, successor string) string {
	if b.intersectionOut[intersectionID] == nil {
		b.intersectionOut[intersectionID] = make(map[string]string)
	}
	id, ok := b.intersectionOut[intersectionID][successor]
	if !ok {
		id = intersectionID + "#out#" + successor
		b.intersectionOut[intersectionID][successor] = id
		n := b.src.Nodes[intersectionID]
		b.nodes[id] = types.PlanNode{ID: id, SourceNode: intersectionID, Kind: types.NodeIntersectionOut, POIID: types.NoPOI, Pos: n.Pos}
	}
	return id
}

func (b *builder) inHalf(intersectionID, predecessor string) string {
	if b.intersectionIn[intersectionID] == nil {
		b.intersectionIn[intersectionID] = make(map[string]string)
	}
	id, ok := b.intersectionIn[intersectionID][predecessor]
	if !ok {
		id = intersectionID + "#in#" + predecessor
		b.intersectionIn[intersectionID][predecessor] = id
		n := b.src.Nodes[intersectionID]
		b.nodes[id] = types.PlanNode{ID: id, SourceNode: intersectionID, Kind: types.NodeIntersectionIn, POIID: types.NoPOI, Pos: n.Pos}
	}
	return id
}

// recordAttachment notes, when one side of a reduced edge is a
// waiting-departure node and the other an operational POI connected via
// narrowTwoWay, the POI's group — used by buildIntersectionCrossEdges to
// make the waiting-departure's cross-edges inherit that group.
func (b *builder) recordAttachment(side, other types.SourceNode) {
	if side.Section.Role != types.RoleWaitingDeparture {
		return
	}
	if other.Section.IsOperational() {
		if g, ok := b.groupOf[other.ID]; ok {
			b.attachedPOIGroup[side.ID] = g
		}
	}
}

// edgeGroup finishes group allocation: a main-path edge
// incident to a dockWaitUndock/waitPOI/parking node inherits that node's
// group; a remaining narrow-two-way edge is paired with its mirror twin.
func (b *builder) edgeGroup(start, end types.SourceNode, re sourcegraph.ReducedEdge) int {
	if g, ok := b.groupOf[start.ID]; ok {
		return g
	}
	if g, ok := b.groupOf[end.ID]; ok {
		return g
	}
	if re.Way != types.NarrowTwoWay {
		return 0
	}
	key := [2]string{re.Start, re.End}
	revKey := [2]string{re.End, re.Start}
	if g, ok := b.narrowGroupOf[key]; ok {
		return g
	}
	if g, ok := b.narrowGroupOf[revKey]; ok {
		b.narrowGroupOf[key] = g
		return g
	}
	g := b.nextGroup
	b.nextGroup++
	b.narrowGroupOf[key] = g
	b.narrowGroupOf[revKey] = g
	return g
}

// connectedPOIFor tags approach edges: approach edges to parking,
// queue and waiting, plus the inner approach inside waiting-departure, are
// tagged with the POI id they serve.
func (b *builder) connectedPOIFor(start, end types.SourceNode) string {
	switch end.Section.Role {
	case types.RoleParking, types.RoleQueue, types.RoleWaiting:
		return end.POIID
	}
	if start.Section.Role == types.RoleWaitingDeparture && end.Section.IsOperational() {
		return end.POIID
	}
	return types.NoPOI
}

// buildIntersectionCrossEdges connects intersection halves: for every
// intersection-like node, every (in, out) pair among its expanded halves
// gets a oneWay GO_TO edge.
func (b *builder) buildIntersectionCrossEdges() {
	ids := make([]string, 0, len(b.intersectionIn))
	for id := range b.intersectionIn {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		group := 0
		if g, ok := b.attachedPOIGroup[id]; ok {
			group = g
		}

		ins := sortedValues(b.intersectionIn[id])
		outs := sortedValues(b.intersectionOut[id])
		for _, in := range ins {
			for _, out := range outs {
				b.edges = append(b.edges, types.PlanEdge{
					ID:          in + "->" + out,
					Start:       in,
					End:         out,
					Weight:      b.cfg.IntersectionCrossCost,
					PlanWeight:  b.cfg.IntersectionCrossCost,
					Behaviour:   types.EdgeGoTo,
					Group:       group,
					MaxRobots:   1,
					Way:         types.OneWay,
					SourceNodes: []string{id},
				})
			}
		}
	}
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// computeConnectedPOICapacity implements getMaxAllowedRobotsUsingPois
//: parking => 1, queue => the approach edge's MaxRobots,
// operational POI => approach edge MaxRobots + 1 (seats at the station).
func (b *builder) computeConnectedPOICapacity() {
	approachMax := make(map[string]int)
	for _, e := range b.edges {
		if e.ConnectedPOI == types.NoPOI {
			continue
		}
		if cur, ok := approachMax[e.ConnectedPOI]; !ok || e.MaxRobots > cur {
			approachMax[e.ConnectedPOI] = e.MaxRobots
		}
	}
	for _, id := range sortedNodeIDs(b.src) {
		n := b.src.Nodes[id]
		if n.POIID == types.NoPOI {
			continue
		}
		if _, set := b.poiRole[n.POIID]; !set || n.Section.IsOperational() {
			b.poiRole[n.POIID] = n.Section.Role
		}
		switch {
		case n.Section.Role == types.RoleParking:
			b.connectedPOICapacity[n.POIID] = 1
		case n.Section.Role == types.RoleQueue:
			if m, ok := approachMax[n.POIID]; ok {
				b.connectedPOICapacity[n.POIID] = m
			} else {
				b.connectedPOICapacity[n.POIID] = 1
			}
		case n.Section.IsOperational():
			if m, ok := approachMax[n.POIID]; ok {
				b.connectedPOICapacity[n.POIID] = m + 1
			} else {
				b.connectedPOICapacity[n.POIID] = 1
			}
		}
	}
}

// pathLength sums the Euclidean distance between consecutive source-node
// positions along a reduced edge's traversed path.
func (b *builder) pathLength(nodes []string) float64 {
	if len(nodes) < 2 {
		return 0
	}
	total := 0.0
	prev := b.src.Nodes[nodes[0]].Pos
	for _, id := range nodes[1:] {
		cur := b.src.Nodes[id].Pos
		total += prev.Distance(cur)
		prev = cur
	}
	return total
}

// hasInactiveEdge reports whether any source edge contributing to a
// reduced/cross edge is inactive.
func (b *builder) hasInactiveEdge(sourceEdges []string) bool {
	for _, id := range sourceEdges {
		if e, ok := b.src.Edges[id]; ok && !e.IsActive {
			return true
		}
	}
	return false
}

func intCeil(f float64) int  { return int(math.Ceil(f)) }
func intFloor(f float64) int { return int(math.Floor(f)) }
