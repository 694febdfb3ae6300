// Package types provides shared type definitions for the fleet dispatcher.
// All core data structures used across packages are defined here to avoid
// circular dependencies.
package types

import (
	"context"
	"math"
)

// ============================================================================
// Context Keys
// ============================================================================

// contextKey is used for context keys to avoid collisions.
type contextKey string

const (
	// ContextKeyTickID is the context key for the unique dispatch-tick id.
	ContextKeyTickID contextKey = "tick_id"

	// ContextKeyFleetID is the context key for the fleet/site id.
	ContextKeyFleetID contextKey = "fleet_id"
)

// GetTickID extracts the tick id from context. Returns "" if not present.
func GetTickID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyTickID).(string); ok {
		return id
	}
	return ""
}

// GetFleetID extracts the fleet id from context. Returns "" if not present.
func GetFleetID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyFleetID).(string); ok {
		return id
	}
	return ""
}

// ============================================================================
// POI sentinel
// ============================================================================

// NoPOI is the normalized sentinel for "this node/edge is not part of any
// POI". The source data may encode this as the string "0" or, in some
// producers, the bare integer 0; all ingestion paths in this module
// normalize to NoPOI so downstream comparisons never have to special-case
// the wire representation.
const NoPOI = "0"

// ============================================================================
// Way types (source-edge width/direction class)
// ============================================================================

// WayType is the direction/width class of a source edge.
type WayType int

const (
	TwoWay       WayType = 1
	NarrowTwoWay WayType = 2
	OneWay       WayType = 3
)

func (w WayType) String() string {
	switch w {
	case TwoWay:
		return "twoWay"
	case NarrowTwoWay:
		return "narrowTwoWay"
	case OneWay:
		return "oneWay"
	default:
		return "unknown"
	}
}

// ============================================================================
// POI roles and section kinds
// ============================================================================

// POIRole is the semantic base role of a POI node.
type POIRole string

const (
	RoleCharger          POIRole = "charger"
	RoleLoad             POIRole = "load"
	RoleUnload           POIRole = "unload"
	RoleLoadUnload       POIRole = "load_unload"
	RoleParking          POIRole = "parking"
	RoleQueue            POIRole = "queue"
	RoleWaiting          POIRole = "waiting"
	RoleDeparture        POIRole = "departure"
	RoleWaitingDeparture POIRole = "waiting_departure"
	RoleNormal           POIRole = "normal"
	RoleIntersection     POIRole = "intersection"
)

// SectionKind governs how the graph builder expands a POI node into the
// planning graph.
type SectionKind string

const (
	SectionDockWaitUndock SectionKind = "dock_wait_undock"
	SectionWaitPOI        SectionKind = "wait_poi"
	SectionNoChanges      SectionKind = "no_changes"
	SectionNormal         SectionKind = "normal"
	SectionIntersection   SectionKind = "intersection"
)

// NodeSection describes a source node's semantic type: either a compound
// {role, section} pair, or the bare "normal" waypoint marker.
type NodeSection struct {
	Role    POIRole
	Section SectionKind
}

// IsOperational reports whether this section is one of the two POI chain
// shapes (dock→wait→undock→end or wait→end) that carry an edge group and
// occupancy accounting.
func (n NodeSection) IsOperational() bool {
	return n.Section == SectionDockWaitUndock || n.Section == SectionWaitPOI
}

// ============================================================================
// Source graph
// ============================================================================

// Position is a 2D coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two positions.
func (p Position) Distance(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SourceNode is a node of the compact operational graph as received from
// the supervisor's backend.
type SourceNode struct {
	ID      string
	Name    string
	Pos     Position
	Section NodeSection
	POIID   string // NoPOI if this node does not belong to a POI
}

// SourceEdge is a directed edge of the compact operational graph.
type SourceEdge struct {
	ID       string
	Start    string
	End      string
	Way      WayType
	IsActive bool
}

// SourceGraph is the raw, validated input to graph expansion.
type SourceGraph struct {
	Nodes map[string]SourceNode
	Edges map[string]SourceEdge
}

// ============================================================================
// Planning graph
// ============================================================================

// NodeKind is the derived kind of a planning-graph node.
type NodeKind string

const (
	NodeDock            NodeKind = "dock"
	NodeWait            NodeKind = "wait"
	NodeUndock          NodeKind = "undock"
	NodeEnd             NodeKind = "end"
	NodeNoChanges       NodeKind = "no_changes"
	NodeIntersectionIn  NodeKind = "intersection_in"
	NodeIntersectionOut NodeKind = "intersection_out"
)

// PlanNode is a node of the expanded planning graph.
type PlanNode struct {
	ID         string
	SourceNode string
	Kind       NodeKind
	POIID      string // NoPOI if not part of a POI
	Pos        Position
}

// Behaviour label carried by a planning-graph edge.
type EdgeBehaviour string

const (
	EdgeGoTo   EdgeBehaviour = "GO_TO"
	EdgeDock   EdgeBehaviour = "DOCK"
	EdgeWait   EdgeBehaviour = "WAIT"
	EdgeUndock EdgeBehaviour = "UNDOCK"
)

// UnreachableWeight is the sentinel for "this edge cannot be traversed"
// (an edge carrying an inactive source edge; POI masking is a per-query
// filter in pkg/planning and leaves weights unchanged). It is a distinct,
// explicit value — never "a large number" — so callers can distinguish
// "expensive" from "impossible".
const UnreachableWeight = -1

// PlanEdge is an edge of the expanded planning graph: a single robot
// action (go-to, dock, wait, undock).
type PlanEdge struct {
	ID           string
	Start        string
	End          string
	Weight       int // UnreachableWeight if this edge cannot be traversed
	PlanWeight   int // scratch field; see planning package. Mirrors Weight
	Behaviour    EdgeBehaviour
	Group        int // 0 = independent; >0 = shares a mutual-exclusion quota
	MaxRobots    int
	Robots       []string // robot ids currently occupying this edge
	Way          WayType
	SourceNodes  []string // source-node ids the edge passes through
	SourceEdges  []string // source-edge ids contributing to this edge
	ConnectedPOI string   // NoPOI unless this is a queue/parking/waiting approach edge
}

// PlanningGraph is the immutable product of supervisor-graph construction.
// Besides nodes and edges it carries the POI->node lookup tables routing
// needs to translate a behaviour into its terminal planning-graph node,
// and the canonical "at rest" edge the robots plan manager uses to
// normalize a robot whose reported position is a POI id rather than a
// concrete edge.
type PlanningGraph struct {
	Nodes map[string]PlanNode
	Edges []PlanEdge

	// EntryNode is the node a GO_TO behaviour targeting this POI
	// terminates at: dock (dockWaitUndock), wait (waitPOI), or the single
	// node (noChanges POIs: parking, queue, waiting, departure,
	// waiting-departure).
	EntryNode map[string]string

	// WaitNode, DockNode, UndockNode and EndNode are only populated for
	// operational POIs (dockWaitUndock/waitPOI); DockNode/UndockNode only
	// for dockWaitUndock.
	WaitNode   map[string]string
	DockNode   map[string]string
	UndockNode map[string]string
	EndNode    map[string]string

	// BasePOIEdge is the canonical (start, end) pair substituted for a
	// robot whose fleet snapshot reports a poiId instead of a concrete
	// edge.
	BasePOIEdge map[string][2]string

	// ConnectedPOICapacity maps poiId -> the approach-edge capacity used
	// by getMaxAllowedRobotsUsingPois: parking => 1, queue
	// => the approach edge's MaxRobots, operational POI => approach edge
	// MaxRobots + 1 (seats at the station itself).
	ConnectedPOICapacity map[string]int

	// POIRole maps poiId -> semantic role, used by the dispatcher to
	// distinguish a queue (a robot idling there never counts as blocking)
	// from parking/operational POIs.
	POIRole map[string]POIRole
}

// ============================================================================
// Dispatch plan output
// ============================================================================

// Commitment is what the dispatcher decided for one robot this tick.
type Commitment struct {
	TaskID   string
	NextEdge [2]string // (startNode, endNode)
	EndBeh   bool
}

// Plan is the per-tick output: robot id -> commitment. Robots for which no
// edge could be committed this tick are absent.
type Plan map[string]Commitment
