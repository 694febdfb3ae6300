package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/PawSmy/Supervisor/pkg/observer"
	"github.com/PawSmy/Supervisor/pkg/planning"
	"github.com/PawSmy/Supervisor/pkg/robots"
	"github.com/PawSmy/Supervisor/pkg/types"
)

// getUndoneBehaviourNode resolves the task's current behaviour to the
// planning-graph node the robot must reach to complete it.
func getUndoneBehaviourNode(router *planning.Router, t *types.Task) (string, error) {
	poi := t.GetPoiGoal()
	switch t.GetCurrentBehaviour().Kind {
	case types.GoTo:
		return router.GetEndGoToNode(poi)
	case types.Dock:
		return router.GetEndDockingNode(poi)
	case types.Wait, types.BatEx:
		return router.GetEndWaitNode(poi)
	case types.Undock:
		return router.GetEndUndockingNode(poi)
	}
	return "", types.TaskManagerError(t.ID, fmt.Errorf("behaviour %q has no terminal node", t.GetCurrentBehaviour().Kind))
}

// computeFreeSlots returns poiId -> remaining seats, starting from the
// per-POI capacities of the planning graph and subtracting already-
// destined busy robots and already-parked free robots. excludeRobot, when
// non-empty, is left out of both subtractions so a robot's own presence
// never counts against the POI it is being routed to.
func computeFreeSlots(router *planning.Router, rm *robots.Manager, excludeRobot string) map[string]int {
	slots := router.GetMaxAllowedRobotsUsingPois()
	for robotID, goal := range rm.GetCurrentRobotsGoals() {
		if robotID == excludeRobot {
			continue
		}
		if _, tracked := slots[goal]; tracked {
			slots[goal]--
		}
	}
	for _, r := range rm.GetFreeRobots() {
		if r.ID == excludeRobot {
			continue
		}
		poi := router.POIOf(currentNode(r))
		if _, tracked := slots[poi]; tracked {
			slots[poi]--
		}
	}
	return slots
}

// setTaskEdge commits, where possible, the next edge for a robot that
// was assigned a task this tick. When the destination POI or the edge
// itself has no room, the robot keeps its task but no edge: it holds
// position and is retried next tick.
func (d *Dispatcher) setTaskEdge(ctx context.Context, rm *robots.Manager, router *planning.Router, robotID string) {
	robot, ok := rm.Get(robotID)
	if !ok || robot.Task == nil || robot.Edge == nil {
		return
	}
	task := robot.Task
	log := d.logger.WithTickID(types.GetTickID(ctx)).WithRobotID(robotID).WithTaskID(task.ID)

	startNode := robot.Edge[1]
	endNode, err := getUndoneBehaviourNode(router, task)
	if err != nil {
		log.WithError(err).Warn("no terminal node for current behaviour")
		d.notifyRobot(ctx, observer.EventRobotSkipped, robotID, task.ID, err)
		return
	}
	if startNode == endNode {
		// Already standing on the behaviour's terminal node; nothing to
		// traverse this tick.
		return
	}

	path, err := router.GetPath(startNode, endNode)
	if err != nil || len(path) == 0 {
		log.WithError(err).Warnf("no route %s -> %s", startNode, endNode)
		d.notifyRobot(ctx, observer.EventRobotSkipped, robotID, task.ID, err)
		return
	}
	next := path[0]

	if !poiAvailable(rm, router, robot, task.GetPoiGoal()) {
		log.Warnf("destination poi %s is at capacity, holding robot", task.GetPoiGoal())
		d.notifyRobot(ctx, observer.EventPoiCapacityRejected, robotID, task.ID, nil)
		return
	}
	if !edgeAvailable(rm, router, robot, next) {
		log.Warnf("edge %s -> %s is at capacity, holding robot", next.Start, next.End)
		d.notifyRobot(ctx, observer.EventRobotSkipped, robotID, task.ID, nil)
		return
	}

	if err := rm.SetNextEdge(robotID, [2]string{next.Start, next.End}); err != nil {
		log.WithError(err).Error("failed to record next edge")
		return
	}
	endBeh := task.GetCurrentBehaviour().IsSingleEdge() || len(path) == 1
	if err := rm.SetEndBehEdge(robotID, endBeh); err != nil {
		log.WithError(err).Error("failed to record end-of-behaviour flag")
		return
	}
	d.notifyRobot(ctx, observer.EventRobotAssigned, robotID, task.ID, nil)
}

// poiAvailable decides whether the destination POI can take this robot:
// the destination is usable when it has a free seat,
// when the robot is already inside the destination's chain, when the robot
// is not tying up any other POI, or when the robot is already counted
// among the destination's current users.
func poiAvailable(rm *robots.Manager, router *planning.Router, robot types.Robot, goal string) bool {
	if goal == types.NoPOI {
		return true
	}
	slots := computeFreeSlots(router, rm, robot.ID)
	free, tracked := slots[goal]
	if !tracked || free > 0 {
		return true
	}

	destGroup, hasDestGroup := router.GetPOIGroup(goal)
	curEdge, onKnownEdge := router.Edge(robot.Edge[0], robot.Edge[1])
	if hasDestGroup && onKnownEdge && curEdge.Group == destGroup {
		return true
	}
	if !onKnownEdge || !router.IsPOIGroup(curEdge.Group) {
		return true
	}
	if hasDestGroup {
		for _, e := range router.GetEdgesByGroup(destGroup) {
			for _, rid := range e.Robots {
				if rid == robot.ID {
					return true
				}
			}
		}
	}
	return false
}

// edgeAvailable decides whether the next edge can take this robot:
// current occupants, plus robots already committed to
// the edge this tick, plus (for a grouped edge) the whole group's
// occupants, excluding the robot itself, must leave room under the edge's
// quota.
func edgeAvailable(rm *robots.Manager, router *planning.Router, robot types.Robot, next types.PlanEdge) bool {
	edges := [][2]string{{next.Start, next.End}}
	if next.Group != 0 {
		edges = edges[:0]
		for _, e := range router.GetEdgesByGroup(next.Group) {
			edges = append(edges, [2]string{e.Start, e.End})
		}
	}

	conflicting := make(map[string]bool)
	for _, id := range rm.GetRobotsIdOnGivenEdges(edges) {
		conflicting[id] = true
	}
	for _, id := range rm.GetRobotsIdOnFutureEdges(edges) {
		conflicting[id] = true
	}
	delete(conflicting, robot.ID)
	return len(conflicting) < router.GetMaxAllowedRobots(next)
}

func (d *Dispatcher) notifyRobot(ctx context.Context, evType observer.EventType, robotID, taskID string, err error) {
	status := observer.StatusSuccess
	if evType != observer.EventRobotAssigned {
		status = observer.StatusFailure
	}
	d.observers.Notify(ctx, observer.Event{
		Type:      evType,
		Status:    status,
		Timestamp: time.Now(),
		TickID:    types.GetTickID(ctx),
		FleetID:   types.GetFleetID(ctx),
		RobotID:   robotID,
		Error:     err,
		Metadata:  map[string]interface{}{"task_id": taskID},
	})
}
