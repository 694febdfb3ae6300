package planning

import (
	"errors"
	"testing"

	"github.com/PawSmy/Supervisor/pkg/config"
	"github.com/PawSmy/Supervisor/pkg/sourcegraph"
	"github.com/PawSmy/Supervisor/pkg/supervisor"
	"github.com/PawSmy/Supervisor/pkg/types"
)

func node(role types.POIRole, section types.SectionKind, poiID string, x, y float64) types.SourceNode {
	return types.SourceNode{Section: types.NodeSection{Role: role, Section: section}, POIID: poiID, Pos: types.Position{X: x, Y: y}}
}

// twoChargerGraph builds two independent dock/wait/undock chargers, c1 and
// c2, reachable from a shared intersection i1, with a through-road i1->i2
// that does not touch either charger.
func twoChargerGraph() types.SourceGraph {
	return types.SourceGraph{
		Nodes: map[string]types.SourceNode{
			"i1":  node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 0, 0),
			"w1":  node(types.RoleWaiting, types.SectionNoChanges, "c1", 1, 1),
			"c1":  node(types.RoleCharger, types.SectionDockWaitUndock, "c1", 2, 1),
			"d1":  node(types.RoleDeparture, types.SectionNoChanges, "c1", 3, 1),
			"w2":  node(types.RoleWaiting, types.SectionNoChanges, "c2", 1, -1),
			"c2":  node(types.RoleCharger, types.SectionDockWaitUndock, "c2", 2, -1),
			"d2":  node(types.RoleDeparture, types.SectionNoChanges, "c2", 3, -1),
			"i2":  node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 4, 0),
		},
		Edges: map[string]types.SourceEdge{
			"ei1w1": {ID: "ei1w1", Start: "i1", End: "w1", Way: types.OneWay, IsActive: true},
			"ew1c1": {ID: "ew1c1", Start: "w1", End: "c1", Way: types.OneWay, IsActive: true},
			"ec1d1": {ID: "ec1d1", Start: "c1", End: "d1", Way: types.OneWay, IsActive: true},
			"ed1i2": {ID: "ed1i2", Start: "d1", End: "i2", Way: types.OneWay, IsActive: true},
			"ei1w2": {ID: "ei1w2", Start: "i1", End: "w2", Way: types.OneWay, IsActive: true},
			"ew2c2": {ID: "ew2c2", Start: "w2", End: "c2", Way: types.OneWay, IsActive: true},
			"ec2d2": {ID: "ec2d2", Start: "c2", End: "d2", Way: types.OneWay, IsActive: true},
			"ed2i2": {ID: "ed2i2", Start: "d2", End: "i2", Way: types.OneWay, IsActive: true},
			"ei1i2": {ID: "ei1i2", Start: "i1", End: "i2", Way: types.TwoWay, IsActive: true},
		},
	}
}

func buildRouter(t *testing.T, src types.SourceGraph) *Router {
	t.Helper()
	reduced, err := sourcegraph.Build(src)
	if err != nil {
		t.Fatalf("sourcegraph.Build() error = %v", err)
	}
	pg, err := supervisor.Build(config.Default(), src, reduced)
	if err != nil {
		t.Fatalf("supervisor.Build() error = %v", err)
	}
	return NewRouter(pg)
}

func TestGetPath_SameStartEndFails(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())
	_, err := r.GetPath("i1#out#w1", "i1#out#w1")
	if err == nil {
		t.Fatal("GetPath() error = nil, want ErrSameStartAndEnd")
	}
	if !errors.Is(err, types.ErrPlaningGraphError) {
		t.Fatalf("GetPath() error = %v, want a PlaningGraphError", err)
	}
}

func TestGetPathLength_SameStartEndIsZero(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())
	length, err := r.GetPathLength("i1#out#w1", "i1#out#w1")
	if err != nil {
		t.Fatalf("GetPathLength() error = %v", err)
	}
	if length != 0 {
		t.Fatalf("GetPathLength() = %d, want 0", length)
	}
}

// TestGetPath_NeverTraversesUnrelatedPOI: a path from
// the through-road intersection i1 to charger c2's entry must never pass
// through c1's chain, even though geometrically c1 sits "in the way" of
// nothing here but is a distinct POI from the query's endpoints.
func TestGetPath_NeverTraversesUnrelatedPOI(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())

	entry, err := r.GetEndGoToNode("c2")
	if err != nil {
		t.Fatalf("GetEndGoToNode() error = %v", err)
	}

	path, err := r.GetPath("i1#out#w2", entry)
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	for _, e := range path {
		startPOI, endPOI := r.poiOf(e.Start), r.poiOf(e.End)
		for _, poi := range []string{startPOI, endPOI} {
			if poi != types.NoPOI && poi != "c2" {
				t.Fatalf("path traverses unrelated POI %s via edge %s->%s", poi, e.Start, e.End)
			}
		}
	}
}

func TestGetPath_InactiveEdgeWithNoAlternativeFails(t *testing.T) {
	src := twoChargerGraph()
	e := src.Edges["ew1c1"]
	e.IsActive = false
	src.Edges["ew1c1"] = e

	r := buildRouter(t, src)
	entry, err := r.GetEndGoToNode("c1")
	if err != nil {
		t.Fatalf("GetEndGoToNode() error = %v", err)
	}
	if _, err := r.GetPath("i1#out#w1", entry); err == nil {
		t.Fatal("GetPath() error = nil, want ErrNoPath (only approach to c1 is inactive)")
	}
}

func TestGetEndBehaviourNodes_DockChain(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())

	goTo, err := r.GetEndGoToNode("c1")
	if err != nil || goTo != "c1#dock" {
		t.Fatalf("GetEndGoToNode(c1) = (%s, %v), want c1#dock", goTo, err)
	}
	docked, err := r.GetEndDockingNode("c1")
	if err != nil || docked != "c1#wait" {
		t.Fatalf("GetEndDockingNode(c1) = (%s, %v), want c1#wait", docked, err)
	}
	waited, err := r.GetEndWaitNode("c1")
	if err != nil || waited != "c1#undock" {
		t.Fatalf("GetEndWaitNode(c1) = (%s, %v), want c1#undock", waited, err)
	}
	undocked, err := r.GetEndUndockingNode("c1")
	if err != nil || undocked != "c1#end" {
		t.Fatalf("GetEndUndockingNode(c1) = (%s, %v), want c1#end", undocked, err)
	}
}

func TestGetRobotsInGroupEdge_UnionsGroup(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())
	r.ResetOccupancy(map[string]types.Robot{
		"r1": {ID: "r1", Edge: &[2]string{"c1#dock", "c1#wait"}},
	})

	edge, ok := r.Edge("c1#wait", "c1#undock")
	if !ok {
		t.Fatal("edge c1#wait->c1#undock not found")
	}
	robots, err := r.GetRobotsInGroupEdge(edge)
	if err != nil {
		t.Fatalf("GetRobotsInGroupEdge() error = %v", err)
	}
	if len(robots) != 1 || robots[0] != "r1" {
		t.Fatalf("GetRobotsInGroupEdge() = %v, want [r1] (r1 occupies the sibling dock edge in the same group)", robots)
	}
}

func TestGetMaxAllowedRobots_NonZeroGroupIsOne(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())
	edge, ok := r.Edge("c1#dock", "c1#wait")
	if !ok {
		t.Fatal("edge c1#dock->c1#wait not found")
	}
	if edge.Group == 0 {
		t.Fatal("DOCK edge should carry the POI's non-zero group")
	}
	if got := r.GetMaxAllowedRobots(edge); got != 1 {
		t.Fatalf("GetMaxAllowedRobots() = %d, want 1", got)
	}
}

func TestGetMaxAllowedRobotsUsingPois_OperationalSeatsPlusOne(t *testing.T) {
	r := buildRouter(t, twoChargerGraph())
	caps := r.GetMaxAllowedRobotsUsingPois()
	if caps["c1"] < 2 {
		t.Fatalf("GetMaxAllowedRobotsUsingPois()[c1] = %d, want approach maxRobots + 1 (>= 2)", caps["c1"])
	}
}
