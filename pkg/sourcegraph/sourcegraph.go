// Package sourcegraph converts a compact operational graph (nodes with
// semantic roles, edges with direction/width class) into the reduced-edge
// form the supervisor graph builder consumes: bidirectional edges expanded
// into explicit orientations, chains of geometric waypoint nodes collapsed
// into single edges, and POI connectivity shapes validated.
package sourcegraph

import (
	"fmt"
	"sort"

	"github.com/PawSmy/Supervisor/pkg/types"
)

// ReducedEdge is a maximal directed chain between two non-normal (decision)
// nodes, with every intermediate "normal" waypoint node collapsed out.
type ReducedEdge struct {
	Start       string
	End         string
	Way         types.WayType
	Nodes       []string // ordered source-node ids, Start..End inclusive
	SourceEdges []string // source-edge ids traversed, in order
}

// directedEdge is one orientation of a source edge.
type directedEdge struct {
	SourceEdgeID string
	Start        string
	End          string
	Way          types.WayType
}

// Build runs the three conversion steps against a validated source
// graph: edge orientation expansion, normal-node collapse, and POI
// connection-shape validation. It returns the reduced edges the
// supervisor graph builder expands further.
func Build(src types.SourceGraph) ([]ReducedEdge, error) {
	directed, err := expandOrientations(src)
	if err != nil {
		return nil, err
	}
	reduced, err := collapseNormalNodes(src, directed)
	if err != nil {
		return nil, err
	}
	if err := validateConnections(src, reduced); err != nil {
		return nil, err
	}
	return reduced, nil
}

// expandOrientations emits both directions for twoWay/narrowTwoWay source
// edges and one direction for oneWay edges, retaining the source-edge id on
// every derived orientation.
func expandOrientations(src types.SourceGraph) ([]directedEdge, error) {
	out := make([]directedEdge, 0, len(src.Edges)*2)
	for id, e := range src.Edges {
		if _, ok := src.Nodes[e.Start]; !ok {
			return nil, types.PoisManagerError(id, fmt.Errorf("%w: %s", ErrUnknownNode, e.Start))
		}
		if _, ok := src.Nodes[e.End]; !ok {
			return nil, types.PoisManagerError(id, fmt.Errorf("%w: %s", ErrUnknownNode, e.End))
		}
		out = append(out, directedEdge{SourceEdgeID: id, Start: e.Start, End: e.End, Way: e.Way})
		if e.Way == types.TwoWay || e.Way == types.NarrowTwoWay {
			out = append(out, directedEdge{SourceEdgeID: id, Start: e.End, End: e.Start, Way: e.Way})
		}
	}
	return out, nil
}

// collapseNormalNodes walks every maximal directed chain that starts at a
// non-normal node, passes through zero or more "normal" waypoint nodes, and
// ends at a non-normal node, folding it into a single ReducedEdge. A chain whose way types are not homogeneous, or that terminates
// at a normal node with no single continuation, fails.
func collapseNormalNodes(src types.SourceGraph, directed []directedEdge) ([]ReducedEdge, error) {
	adjacency := make(map[string][]directedEdge)
	for _, d := range directed {
		adjacency[d.Start] = append(adjacency[d.Start], d)
	}

	isNormal := func(nodeID string) bool {
		return src.Nodes[nodeID].Section.Section == types.SectionNormal
	}

	var reduced []ReducedEdge
	for _, start := range directed {
		if isNormal(start.Start) {
			continue // only a continuation of some other chain, not a chain head
		}

		nodes := []string{start.Start}
		sourceEdges := []string{}
		way := start.Way
		cur := start

		for {
			nodes = append(nodes, cur.End)
			sourceEdges = append(sourceEdges, cur.SourceEdgeID)

			if !isNormal(cur.End) {
				break
			}

			var next *directedEdge
			for i, candidate := range adjacency[cur.End] {
				if candidate.SourceEdgeID == cur.SourceEdgeID {
					continue // don't walk straight back the way we came
				}
				if next != nil {
					return nil, types.PoisManagerError(cur.End, ErrAmbiguousChain)
				}
				next = &adjacency[cur.End][i]
			}
			if next == nil {
				return nil, types.PoisManagerError(cur.End, ErrChainEndsAtNormal)
			}
			if next.Way != way {
				return nil, types.PoisManagerError(cur.End, ErrHeterogeneousChain)
			}
			cur = *next
		}

		reduced = append(reduced, ReducedEdge{
			Start:       nodes[0],
			End:         nodes[len(nodes)-1],
			Way:         way,
			Nodes:       nodes,
			SourceEdges: sourceEdges,
		})
	}

	sort.Slice(reduced, func(i, j int) bool {
		if reduced[i].Start != reduced[j].Start {
			return reduced[i].Start < reduced[j].Start
		}
		return reduced[i].End < reduced[j].End
	})
	return reduced, nil
}

// nodeEdges indexes the reduced graph by node for connection-shape checks.
type nodeEdges struct {
	in, out []ReducedEdge
}

func index(reduced []ReducedEdge) map[string]nodeEdges {
	idx := make(map[string]nodeEdges)
	for _, e := range reduced {
		n := idx[e.End]
		n.in = append(n.in, e)
		idx[e.End] = n
		n = idx[e.Start]
		n.out = append(n.out, e)
		idx[e.Start] = n
	}
	return idx
}

// validateConnections asserts, for every semantically-typed POI-like node,
// the exact permitted in/out neighbor configuration and edge way types.
func validateConnections(src types.SourceGraph, reduced []ReducedEdge) error {
	idx := index(reduced)
	roleOf := func(nodeID string) types.POIRole { return src.Nodes[nodeID].Section.Role }

	for id, n := range src.Nodes {
		edges := idx[id]
		switch n.Section.Role {
		case types.RoleCharger, types.RoleLoad, types.RoleUnload, types.RoleLoadUnload:
			if !n.Section.IsOperational() {
				continue
			}
			if err := validateOperationalPOI(id, edges, roleOf); err != nil {
				return err
			}
		case types.RoleParking:
			if err := validateParking(id, edges); err != nil {
				return err
			}
		case types.RoleQueue:
			if err := validateQueue(id, edges); err != nil {
				return err
			}
		case types.RoleWaiting:
			if err := validateWaiting(id, edges, roleOf); err != nil {
				return err
			}
		case types.RoleDeparture:
			if err := validateDeparture(id, edges, roleOf); err != nil {
				return err
			}
		case types.RoleWaitingDeparture:
			if err := validateWaitingDeparture(id, edges, roleOf); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateOperationalPOI checks the dock/wait POI shape: in = one waiting
// (or waiting-departure), out = one departure (or the same waiting-
// departure). waiting→POI→departure is oneWay; waiting-departure↔POI is
// narrowTwoWay in both directions.
func validateOperationalPOI(id string, edges nodeEdges, roleOf func(string) types.POIRole) error {
	if len(edges.in) != 1 || len(edges.out) != 1 {
		return types.PoisManagerError(id, fmt.Errorf("%w: operational POI requires exactly one in and one out edge", ErrInvalidConnection))
	}
	in, out := edges.in[0], edges.out[0]
	inRole, outRole := roleOf(in.Start), roleOf(out.End)

	waitingDeparture := inRole == types.RoleWaitingDeparture && outRole == types.RoleWaitingDeparture && in.Start == out.End
	if waitingDeparture {
		if in.Way != types.NarrowTwoWay || out.Way != types.NarrowTwoWay {
			return types.PoisManagerError(id, fmt.Errorf("%w: waiting-departure↔POI must be narrowTwoWay", ErrInvalidConnection))
		}
		return nil
	}

	if inRole != types.RoleWaiting {
		return types.PoisManagerError(id, fmt.Errorf("%w: expected a waiting predecessor, got role %s", ErrInvalidConnection, inRole))
	}
	if outRole != types.RoleDeparture {
		return types.PoisManagerError(id, fmt.Errorf("%w: expected a departure successor, got role %s", ErrInvalidConnection, outRole))
	}
	if in.Way != types.OneWay || out.Way != types.OneWay {
		return types.PoisManagerError(id, fmt.Errorf("%w: waiting→POI→departure must be oneWay", ErrInvalidConnection))
	}
	return nil
}

// validateParking checks that a parking node has at least one in and one
// out edge and that every incident edge is narrowTwoWay. A parking spot may
// have one or several access points. The roles of its neighbours are not
// checked.
func validateParking(id string, edges nodeEdges) error {
	if len(edges.in) == 0 || len(edges.out) == 0 {
		return types.PoisManagerError(id, fmt.Errorf("%w: parking requires at least one in and one out edge", ErrInvalidConnection))
	}
	if !allWay(edges, types.NarrowTwoWay) {
		return types.PoisManagerError(id, fmt.Errorf("%w: parking must connect via narrowTwoWay", ErrInvalidConnection))
	}
	return nil
}

// validateQueue checks that a queue node has at least one in and one out
// edge and that every incident edge is oneWay. The roles of its neighbours
// are not checked.
func validateQueue(id string, edges nodeEdges) error {
	if len(edges.in) == 0 || len(edges.out) == 0 {
		return types.PoisManagerError(id, fmt.Errorf("%w: queue requires at least one in and one out edge", ErrInvalidConnection))
	}
	if !allWay(edges, types.OneWay) {
		return types.PoisManagerError(id, fmt.Errorf("%w: queue must connect via oneWay", ErrInvalidConnection))
	}
	return nil
}

// allWay reports whether every edge incident to a node has the given way type.
func allWay(edges nodeEdges, way types.WayType) bool {
	for _, e := range edges.in {
		if e.Way != way {
			return false
		}
	}
	for _, e := range edges.out {
		if e.Way != way {
			return false
		}
	}
	return true
}

// validateWaiting checks intersection→waiting→POI, both edges oneWay.
func validateWaiting(id string, edges nodeEdges, roleOf func(string) types.POIRole) error {
	if len(edges.in) != 1 || len(edges.out) != 1 {
		return types.PoisManagerError(id, fmt.Errorf("%w: waiting node requires exactly one in and one out edge", ErrInvalidConnection))
	}
	if edges.in[0].Way != types.OneWay || edges.out[0].Way != types.OneWay {
		return types.PoisManagerError(id, fmt.Errorf("%w: intersection→waiting→POI must be oneWay", ErrInvalidConnection))
	}
	if role := roleOf(edges.in[0].Start); role != types.RoleIntersection {
		return types.PoisManagerError(id, fmt.Errorf("%w: expected an intersection predecessor, got role %s", ErrInvalidConnection, role))
	}
	switch role := roleOf(edges.out[0].End); role {
	case types.RoleCharger, types.RoleLoad, types.RoleUnload, types.RoleLoadUnload:
	default:
		return types.PoisManagerError(id, fmt.Errorf("%w: expected an operational POI successor, got role %s", ErrInvalidConnection, role))
	}
	return nil
}

// validateDeparture checks POI→departure→intersection, both edges oneWay.
func validateDeparture(id string, edges nodeEdges, roleOf func(string) types.POIRole) error {
	if len(edges.in) != 1 || len(edges.out) != 1 {
		return types.PoisManagerError(id, fmt.Errorf("%w: departure node requires exactly one in and one out edge", ErrInvalidConnection))
	}
	if edges.in[0].Way != types.OneWay || edges.out[0].Way != types.OneWay {
		return types.PoisManagerError(id, fmt.Errorf("%w: POI→departure→intersection must be oneWay", ErrInvalidConnection))
	}
	switch role := roleOf(edges.in[0].Start); role {
	case types.RoleCharger, types.RoleLoad, types.RoleUnload, types.RoleLoadUnload:
	default:
		return types.PoisManagerError(id, fmt.Errorf("%w: expected an operational POI predecessor, got role %s", ErrInvalidConnection, role))
	}
	if role := roleOf(edges.out[0].End); role != types.RoleIntersection {
		return types.PoisManagerError(id, fmt.Errorf("%w: expected an intersection successor, got role %s", ErrInvalidConnection, role))
	}
	return nil
}

// validateWaitingDeparture checks that the node is connected to an
// intersection via twoWay and to a POI via narrowTwoWay.
func validateWaitingDeparture(id string, edges nodeEdges, roleOf func(string) types.POIRole) error {
	all := append(append([]ReducedEdge{}, edges.in...), edges.out...)
	var sawTwoWay, sawNarrow bool
	for _, e := range all {
		switch e.Way {
		case types.TwoWay:
			sawTwoWay = true
		case types.NarrowTwoWay:
			sawNarrow = true
		}
	}
	if !sawTwoWay || !sawNarrow {
		return types.PoisManagerError(id, fmt.Errorf("%w: waiting-departure node must connect via both twoWay (intersection) and narrowTwoWay (POI)", ErrInvalidConnection))
	}
	return nil
}
