package robots

import (
	"sort"

	"github.com/PawSmy/Supervisor/pkg/types"
)

// Manager is the robots plan manager: a per-tick store,
// built fresh from the fleet snapshot, that tracks each planning-enabled
// robot's assignment and next-edge commitment as the dispatcher's four
// phases run.
type Manager struct {
	robots map[string]*types.Robot
}

// New filters robots whose planning flag is off, and normalizes every
// remaining robot's Edge: when a robot reports a poiId instead of a
// concrete edge, Edge is substituted with that POI's canonical base edge
//.
func New(fleet map[string]types.Robot, basePOIEdges map[string][2]string) *Manager {
	m := &Manager{robots: make(map[string]*types.Robot, len(fleet))}
	for _, id := range sortedRobotIDs(fleet) {
		r := fleet[id]
		if !r.PlanningOn {
			continue
		}
		if r.Edge == nil {
			if edge, ok := basePOIEdges[r.POIID]; ok {
				e := edge
				r.Edge = &e
			}
		}
		rc := r
		m.robots[id] = &rc
	}
	return m
}

func sortedRobotIDs(fleet map[string]types.Robot) []string {
	ids := make([]string, 0, len(fleet))
	for id := range fleet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) sortedIDs() []string {
	ids := make([]string, 0, len(m.robots))
	for id := range m.robots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns a copy of the robot's current per-tick state.
func (m *Manager) Get(robotID string) (types.Robot, bool) {
	r, ok := m.robots[robotID]
	if !ok {
		return types.Robot{}, false
	}
	return *r, true
}

// All returns every planning-enabled robot this tick, in a stable order.
func (m *Manager) All() []types.Robot {
	out := make([]types.Robot, 0, len(m.robots))
	for _, id := range m.sortedIDs() {
		out = append(out, *m.robots[id])
	}
	return out
}

// SetTask assigns task to robotID this tick. Fails if the robot is absent
// from this tick's snapshot, or if the task already carries a different
// non-empty robot id.
func (m *Manager) SetTask(robotID string, task *types.Task) error {
	r, ok := m.robots[robotID]
	if !ok {
		return types.TaskManagerError(robotID, ErrUnknownRobot)
	}
	if task.RobotID != "" && task.RobotID != robotID {
		return types.TaskManagerError(robotID, ErrTaskAlreadyAssigned)
	}
	r.Task = task
	return nil
}

// SetNextEdge records the edge robotID should traverse next. Fails if the
// robot has no task assigned this tick.
func (m *Manager) SetNextEdge(robotID string, edge [2]string) error {
	r, ok := m.robots[robotID]
	if !ok {
		return types.TaskManagerError(robotID, ErrUnknownRobot)
	}
	if r.Task == nil {
		return types.TaskManagerError(robotID, ErrNoTaskAssigned)
	}
	e := edge
	r.NextEdge = &e
	return nil
}

// SetEndBehEdge records whether traversing the next edge completes the
// task's current behaviour. Fails if the robot has no task or no next
// edge yet.
func (m *Manager) SetEndBehEdge(robotID string, flag bool) error {
	r, ok := m.robots[robotID]
	if !ok {
		return types.TaskManagerError(robotID, ErrUnknownRobot)
	}
	if r.Task == nil {
		return types.TaskManagerError(robotID, ErrNoTaskAssigned)
	}
	if r.NextEdge == nil {
		return types.TaskManagerError(robotID, ErrNoEdgeAssigned)
	}
	r.EndBehEdge = flag
	return nil
}

// GetFreeRobots returns robots with no task assigned this tick yet.
func (m *Manager) GetFreeRobots() []types.Robot {
	var out []types.Robot
	for _, id := range m.sortedIDs() {
		if r := m.robots[id]; r.Task == nil {
			out = append(out, *r)
		}
	}
	return out
}

// GetBusyRobots returns robots with a task assigned this tick.
func (m *Manager) GetBusyRobots() []types.Robot {
	var out []types.Robot
	for _, id := range m.sortedIDs() {
		if r := m.robots[id]; r.Task != nil {
			out = append(out, *r)
		}
	}
	return out
}

// GetRobotsIdOnGivenEdges returns the ids of robots whose current edge is
// one of edges.
func (m *Manager) GetRobotsIdOnGivenEdges(edges [][2]string) []string {
	set := edgeSet(edges)
	var out []string
	for _, id := range m.sortedIDs() {
		r := m.robots[id]
		if r.Edge != nil && set[*r.Edge] {
			out = append(out, id)
		}
	}
	return out
}

// GetRobotsIdOnFutureEdges returns the ids of robots whose committed next
// edge this tick is one of edges.
func (m *Manager) GetRobotsIdOnFutureEdges(edges [][2]string) []string {
	set := edgeSet(edges)
	var out []string
	for _, id := range m.sortedIDs() {
		r := m.robots[id]
		if r.NextEdge != nil && set[*r.NextEdge] {
			out = append(out, id)
		}
	}
	return out
}

func edgeSet(edges [][2]string) map[[2]string]bool {
	set := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		set[e] = true
	}
	return set
}

// GetCurrentRobotsGoals maps each busy robot's id to its assigned task's
// POI goal.
func (m *Manager) GetCurrentRobotsGoals() map[string]string {
	out := make(map[string]string)
	for _, id := range m.sortedIDs() {
		r := m.robots[id]
		if r.Task != nil {
			out[id] = r.Task.GetPoiGoal()
		}
	}
	return out
}

// Plan renders the final per-tick output: robots with both a
// task and a committed next edge are included; all others are absent.
func (m *Manager) Plan() types.Plan {
	plan := make(types.Plan)
	for _, id := range m.sortedIDs() {
		r := m.robots[id]
		if r.Task != nil && r.NextEdge != nil {
			plan[id] = types.Commitment{TaskID: r.Task.ID, NextEdge: *r.NextEdge, EndBeh: r.EndBehEdge}
		}
	}
	return plan
}
