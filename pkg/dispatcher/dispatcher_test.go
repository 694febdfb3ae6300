package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PawSmy/Supervisor/pkg/config"
	"github.com/PawSmy/Supervisor/pkg/observer"
	"github.com/PawSmy/Supervisor/pkg/planning"
	"github.com/PawSmy/Supervisor/pkg/robots"
	"github.com/PawSmy/Supervisor/pkg/sourcegraph"
	"github.com/PawSmy/Supervisor/pkg/supervisor"
	"github.com/PawSmy/Supervisor/pkg/types"
)

func node(role types.POIRole, section types.SectionKind, poiID string, x, y float64) types.SourceNode {
	return types.SourceNode{Section: types.NodeSection{Role: role, Section: section}, POIID: poiID, Pos: types.Position{X: x, Y: y}}
}

// siteGraph is the shared end-to-end fixture: a west-east spine of
// intersections a-i1-i2-i3, charger c1 off i1, load station l1 off i2,
// parking p1 between i1/i2 and parking p2 between i2/i3, with a narrow
// two-way road segment between i2 and i3.
//
//	a == i1 == i2 -- i3        (==: twoWay, --: narrowTwoWay)
//	     |  \   |  \  \
//	    c1   p1 l1  p2 (via waiting/departure for c1, l1)
func siteGraph() types.SourceGraph {
	return types.SourceGraph{
		Nodes: map[string]types.SourceNode{
			"a":  node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 0, 0),
			"i1": node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 2, 0),
			"i2": node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 6, 0),
			"i3": node(types.RoleIntersection, types.SectionIntersection, types.NoPOI, 10, 0),

			"w1": node(types.RoleWaiting, types.SectionNoChanges, "c1", 2, 2),
			"c1": node(types.RoleCharger, types.SectionDockWaitUndock, "c1", 3, 2),
			"d1": node(types.RoleDeparture, types.SectionNoChanges, "c1", 4, 2),

			"w2": node(types.RoleWaiting, types.SectionNoChanges, "l1", 6, 2),
			"l1": node(types.RoleLoad, types.SectionDockWaitUndock, "l1", 7, 2),
			"d2": node(types.RoleDeparture, types.SectionNoChanges, "l1", 8, 2),

			"p":  node(types.RoleParking, types.SectionNoChanges, "p1", 3, -1),
			"p2": node(types.RoleParking, types.SectionNoChanges, "p2", 8, -1),
		},
		Edges: map[string]types.SourceEdge{
			"ea":  {ID: "ea", Start: "a", End: "i1", Way: types.TwoWay, IsActive: true},
			"e13": {ID: "e13", Start: "i1", End: "i2", Way: types.TwoWay, IsActive: true},
			"e14": {ID: "e14", Start: "i2", End: "i3", Way: types.NarrowTwoWay, IsActive: true},

			"e1": {ID: "e1", Start: "i1", End: "w1", Way: types.OneWay, IsActive: true},
			"e2": {ID: "e2", Start: "w1", End: "c1", Way: types.OneWay, IsActive: true},
			"e3": {ID: "e3", Start: "c1", End: "d1", Way: types.OneWay, IsActive: true},
			"e4": {ID: "e4", Start: "d1", End: "i2", Way: types.OneWay, IsActive: true},

			"e5": {ID: "e5", Start: "i2", End: "w2", Way: types.OneWay, IsActive: true},
			"e6": {ID: "e6", Start: "w2", End: "l1", Way: types.OneWay, IsActive: true},
			"e7": {ID: "e7", Start: "l1", End: "d2", Way: types.OneWay, IsActive: true},
			"e8": {ID: "e8", Start: "d2", End: "i3", Way: types.OneWay, IsActive: true},

			"e9":  {ID: "e9", Start: "i1", End: "p", Way: types.NarrowTwoWay, IsActive: true},
			"e10": {ID: "e10", Start: "p", End: "i2", Way: types.NarrowTwoWay, IsActive: true},
			"e11": {ID: "e11", Start: "i2", End: "p2", Way: types.NarrowTwoWay, IsActive: true},
			"e12": {ID: "e12", Start: "p2", End: "i3", Way: types.NarrowTwoWay, IsActive: true},
		},
	}
}

func buildSite(t *testing.T) types.PlanningGraph {
	t.Helper()
	src := siteGraph()
	reduced, err := sourcegraph.Build(src)
	if err != nil {
		t.Fatalf("sourcegraph.Build() error = %v", err)
	}
	pg, err := supervisor.Build(config.Default(), src, reduced)
	if err != nil {
		t.Fatalf("supervisor.Build() error = %v", err)
	}
	return pg
}

func robotAtPOI(id, poi string) types.Robot {
	return types.Robot{ID: id, POIID: poi, PlanningOn: true, Free: true}
}

func robotOnEdge(id string, edge [2]string) types.Robot {
	e := edge
	return types.Robot{ID: id, POIID: types.NoPOI, Edge: &e, PlanningOn: true, Free: true}
}

func goToTask(id, goal string, arrival int) types.Task {
	return types.Task{
		ID:                  id,
		ArrivalIndex:        arrival,
		Priority:            types.DefaultPriority,
		Status:              types.StatusToDo,
		CurrentBehaviourIdx: -1,
		Behaviours:          []types.Behaviour{{ID: id + "-b0", Kind: types.GoTo, To: goal}},
	}
}

// One robot at parking p1, one TO_DO task GO_TO -> l1. The emitted next
// edge must start at p1's base-edge end and lie on the shortest p1 -> l1
// path.
func TestGetPlanAllFreeRobots_SimpleGoTo(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	fleet := map[string]types.Robot{"r1": robotAtPOI("r1", "p1")}
	backlog := []types.Task{goToTask("t1", "l1", 0)}

	plan, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, backlog)
	if err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}
	c, ok := plan["r1"]
	if !ok {
		t.Fatalf("plan has no entry for r1: %v", plan)
	}
	if c.TaskID != "t1" {
		t.Fatalf("plan[r1].TaskID = %s, want t1", c.TaskID)
	}
	if c.NextEdge[0] != "p" {
		t.Fatalf("plan[r1].NextEdge = %v, must start at the parking base node p", c.NextEdge)
	}
	if c.NextEdge != [2]string{"p", "i2#in#p"} {
		t.Fatalf("plan[r1].NextEdge = %v, want the shortest-path first hop (p, i2#in#p)", c.NextEdge)
	}
	if c.EndBeh {
		t.Fatal("plan[r1].EndBeh = true, want false for a multi-edge GO_TO")
	}
}

// Two free robots, two tasks both targeting the one-seat
// parking p1. The closer robot wins the single candidate task; the loser
// gets nothing this tick.
func TestGetPlanAllFreeRobots_TwoRobotsOnePoiSlot(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	fleet := map[string]types.Robot{
		"r1": robotOnEdge("r1", [2]string{"a#out#i1", "i1#in#a"}),
		"r2": robotOnEdge("r2", [2]string{"i1#out#i2", "i2#in#i1"}),
	}
	backlog := []types.Task{goToTask("t1", "p1", 0), goToTask("t2", "p1", 1)}

	plan, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, backlog)
	if err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}
	c, ok := plan["r1"]
	if !ok {
		t.Fatalf("plan has no entry for r1 (the closer robot): %v", plan)
	}
	if c.TaskID != "t1" {
		t.Fatalf("plan[r1].TaskID = %s, want t1 (the older task)", c.TaskID)
	}
	if c.NextEdge[0] != "i1#in#a" {
		t.Fatalf("plan[r1].NextEdge = %v, must start at r1's current node", c.NextEdge)
	}
	if _, ok := plan["r2"]; ok {
		t.Fatalf("plan has an entry for r2, want none (p1 has one seat): %v", plan)
	}
}

// A free robot idling at load station l1 blocks a busy robot
// headed there. Phase 4 must hand the parking task to the blocking robot
// in preference to the other free robot.
func TestGetPlanAllFreeRobots_BlockingRobotPreferred(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	enRoute := types.Task{
		ID:                  "t-busy",
		RobotID:             "r2",
		ArrivalIndex:        0,
		Priority:            types.DefaultPriority,
		Status:              types.StatusInProgress,
		CurrentBehaviourIdx: 0,
		Behaviours:          []types.Behaviour{{ID: "bb0", Kind: types.GoTo, To: "l1"}},
	}
	fleet := map[string]types.Robot{
		"r1": robotAtPOI("r1", "l1"),
		"r2": robotOnEdge("r2", [2]string{"a#out#i1", "i1#in#a"}),
		"r3": robotOnEdge("r3", [2]string{"i1#out#i2", "i2#in#i1"}),
	}
	backlog := []types.Task{enRoute, goToTask("t-park", "p1", 1)}

	plan, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, backlog)
	if err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}
	if c, ok := plan["r2"]; !ok || c.TaskID != "t-busy" {
		t.Fatalf("plan[r2] = %v, want continuation of t-busy", plan["r2"])
	}
	c, ok := plan["r1"]
	if !ok {
		t.Fatalf("plan has no entry for the blocking robot r1: %v", plan)
	}
	if c.TaskID != "t-park" {
		t.Fatalf("plan[r1].TaskID = %s, want t-park (blocking robot gets the evacuating task)", c.TaskID)
	}
	if _, ok := plan["r3"]; ok {
		t.Fatalf("plan has an entry for the non-blocking free robot r3, want none: %v", plan)
	}
}

// A robot standing at c1's dock with the DOCK behaviour
// current must be told exactly the DOCK edge, flagged end-of-behaviour.
func TestGetPlanAllFreeRobots_DockChainProgression(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	chain := types.Task{
		ID:                  "t-charge",
		RobotID:             "r1",
		ArrivalIndex:        0,
		Priority:            types.DefaultPriority,
		Status:              types.StatusInProgress,
		CurrentBehaviourIdx: 1,
		Behaviours: []types.Behaviour{
			{ID: "cb0", Kind: types.GoTo, To: "c1"},
			{ID: "cb1", Kind: types.Dock},
			{ID: "cb2", Kind: types.Wait},
			{ID: "cb3", Kind: types.Undock},
		},
	}
	fleet := map[string]types.Robot{"r1": robotAtPOI("r1", "c1")}

	plan, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, []types.Task{chain})
	if err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}
	c, ok := plan["r1"]
	if !ok {
		t.Fatalf("plan has no entry for r1: %v", plan)
	}
	if c.NextEdge != [2]string{"c1#dock", "c1#wait"} {
		t.Fatalf("plan[r1].NextEdge = %v, want the DOCK edge (c1#dock, c1#wait)", c.NextEdge)
	}
	if !c.EndBeh {
		t.Fatal("plan[r1].EndBeh = false, want true (DOCK is a single-edge behaviour)")
	}
}

// The two orientations of the narrow i2--i3 road share a
// group. When one robot has reserved one orientation this tick, routing
// for another robot still offers the mirror orientation, but setTaskEdge
// must decline to commit it.
func TestSetTaskEdge_NarrowGroupExclusion(t *testing.T) {
	pg := buildSite(t)
	router := planning.NewRouter(pg)
	rm := robots.New(map[string]types.Robot{
		"r1": robotOnEdge("r1", [2]string{"i1#out#i2", "i2#in#i1"}),
		"r3": robotOnEdge("r3", [2]string{"i3#in#d2", "i3#out#i2"}),
	}, router.GetBasePoisEdges())
	router.ResetOccupancy(map[string]types.Robot{})

	east := [2]string{"i2#out#i3", "i3#in#i2"}
	west := [2]string{"i3#out#i2", "i2#in#i3"}
	eastEdge, ok := router.Edge(east[0], east[1])
	if !ok {
		t.Fatalf("edge %v not found", east)
	}
	westEdge, ok := router.Edge(west[0], west[1])
	if !ok {
		t.Fatalf("edge %v not found", west)
	}
	if eastEdge.Group == 0 || eastEdge.Group != westEdge.Group {
		t.Fatalf("narrow mirror edges must share a non-zero group, got %d and %d", eastEdge.Group, westEdge.Group)
	}

	t1 := goToTask("t1", "c1", 0)
	if err := rm.SetTask("r1", &t1); err != nil {
		t.Fatalf("SetTask(r1) error = %v", err)
	}
	if err := rm.SetNextEdge("r1", east); err != nil {
		t.Fatalf("SetNextEdge(r1) error = %v", err)
	}

	// Routing ignores occupancy: the mirror orientation is still the
	// first hop of r3's best path.
	path, err := router.GetPath("i3#out#i2", "p")
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	if path[0].Start != west[0] || path[0].End != west[1] {
		t.Fatalf("path[0] = %s->%s, want %v", path[0].Start, path[0].End, west)
	}

	t2 := goToTask("t2", "p1", 1)
	if err := rm.SetTask("r3", &t2); err != nil {
		t.Fatalf("SetTask(r3) error = %v", err)
	}
	d := New(config.Testing())
	d.setTaskEdge(context.Background(), rm, router, "r3")

	r3, _ := rm.Get("r3")
	if r3.NextEdge != nil {
		t.Fatalf("r3.NextEdge = %v, want nil (mirror orientation's group is reserved by r1)", *r3.NextEdge)
	}
}

// A robot parked at a POI other than its
// task's goal keeps the task but gets no edge while the goal is full.
func TestGetPlanAllFreeRobots_Phase2HoldsWhenGoalFull(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	enRoute := types.Task{
		ID:                  "t-move",
		RobotID:             "r1",
		ArrivalIndex:        0,
		Priority:            types.DefaultPriority,
		Status:              types.StatusInProgress,
		CurrentBehaviourIdx: 0,
		Behaviours:          []types.Behaviour{{ID: "mb0", Kind: types.GoTo, To: "p2"}},
	}
	fleet := map[string]types.Robot{
		"r1": robotAtPOI("r1", "p1"),
		"r2": robotAtPOI("r2", "p2"), // occupies the single p2 seat
	}

	plan, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, []types.Task{enRoute})
	if err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}
	if len(plan) != 0 {
		t.Fatalf("plan = %v, want empty (r1 holds position, r2 has no task)", plan)
	}
}

func TestGetPlanAllFreeRobots_Phase4Timeout(t *testing.T) {
	pg := buildSite(t)
	cfg := config.Default()
	cfg.Phase4Timeout = time.Nanosecond
	d := New(cfg)

	fleet := map[string]types.Robot{"r1": robotOnEdge("r1", [2]string{"a#out#i1", "i1#in#a"})}
	backlog := []types.Task{goToTask("t1", "l1", 0)}

	_, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, backlog)
	if err == nil {
		t.Fatal("GetPlanAllFreeRobots() error = nil, want TimeoutPlanning")
	}
	if !errors.Is(err, types.ErrTimeoutPlanning) {
		t.Fatalf("GetPlanAllFreeRobots() error = %v, want TimeoutPlanning", err)
	}
}

func TestGetPlanSelectedRobot(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())

	fleet := map[string]types.Robot{"r1": robotAtPOI("r1", "p1")}
	backlog := []types.Task{goToTask("t1", "l1", 0)}

	c, err := d.GetPlanSelectedRobot(context.Background(), pg, fleet, backlog, "r1")
	if err != nil {
		t.Fatalf("GetPlanSelectedRobot() error = %v", err)
	}
	if c == nil || c.TaskID != "t1" {
		t.Fatalf("GetPlanSelectedRobot() = %v, want r1's commitment for t1", c)
	}

	none, err := d.GetPlanSelectedRobot(context.Background(), pg, fleet, backlog, "ghost")
	if err != nil {
		t.Fatalf("GetPlanSelectedRobot(ghost) error = %v", err)
	}
	if none != nil {
		t.Fatalf("GetPlanSelectedRobot(ghost) = %v, want nil", none)
	}
}

type countingObserver struct {
	mu     sync.Mutex
	events []observer.Event
}

func (o *countingObserver) OnEvent(_ context.Context, event observer.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *countingObserver) count(eventType observer.EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestTick_EmitsObserverEvents(t *testing.T) {
	pg := buildSite(t)
	d := New(config.Testing())
	obs := &countingObserver{}
	if err := d.Observers().Register(obs); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	fleet := map[string]types.Robot{"r1": robotAtPOI("r1", "p1")}
	backlog := []types.Task{goToTask("t1", "l1", 0)}
	if _, err := d.GetPlanAllFreeRobots(context.Background(), pg, fleet, backlog); err != nil {
		t.Fatalf("GetPlanAllFreeRobots() error = %v", err)
	}

	// Notification is asynchronous; wait for the tick-end event to land.
	deadline := time.Now().Add(2 * time.Second)
	for obs.count(observer.EventTickEnd) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for tick_end event")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := obs.count(observer.EventTickStart); got != 1 {
		t.Errorf("tick_start events = %d, want 1", got)
	}
	if got := obs.count(observer.EventPhaseStart); got != 4 {
		t.Errorf("phase_start events = %d, want 4", got)
	}
	if got := obs.count(observer.EventRobotAssigned); got != 1 {
		t.Errorf("robot_assigned events = %d, want 1", got)
	}
}
