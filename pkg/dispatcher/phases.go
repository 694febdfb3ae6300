package dispatcher

import (
	"context"
	"time"

	"github.com/PawSmy/Supervisor/pkg/logging"
	"github.com/PawSmy/Supervisor/pkg/observer"
	"github.com/PawSmy/Supervisor/pkg/planning"
	"github.com/PawSmy/Supervisor/pkg/robots"
	"github.com/PawSmy/Supervisor/pkg/tasks"
	"github.com/PawSmy/Supervisor/pkg/types"
)

// setPlan runs the four ordered assignment phases against one tick's
// router/robots manager/tasks manager.
func (d *Dispatcher) setPlan(ctx context.Context, log *logging.Logger, router *planning.Router, rm *robots.Manager, tm *tasks.Manager) error {
	d.runPhase(ctx, log, "phase1_continue_in_place", func() { d.phase1(ctx, rm, tm, router) })
	d.runPhase(ctx, log, "phase2_continue_en_route", func() { d.phase2(ctx, rm, tm, router) })
	d.runPhase(ctx, log, "phase3_pickup_preassigned", func() { d.phase3(ctx, rm, tm, router) })

	var phase4Err error
	d.runPhase(ctx, log, "phase4_remaining", func() { phase4Err = d.phase4(ctx, rm, tm, router) })
	return phase4Err
}

func (d *Dispatcher) runPhase(ctx context.Context, log *logging.Logger, name string, fn func()) {
	tickID := types.GetTickID(ctx)
	start := time.Now()
	d.observers.Notify(ctx, observer.Event{Type: observer.EventPhaseStart, Status: observer.StatusStarted, Timestamp: start, TickID: tickID, Phase: name})
	fn()
	d.observers.Notify(ctx, observer.Event{Type: observer.EventPhaseEnd, Status: observer.StatusCompleted, Timestamp: time.Now(), TickID: tickID, Phase: name, StartTime: start, ElapsedTime: time.Since(start)})
	log.Debugf("%s complete", name)
}

// phase1 lets robots already performing a dock/wait/undock behaviour
// continue in place.
func (d *Dispatcher) phase1(ctx context.Context, rm *robots.Manager, tm *tasks.Manager, router *planning.Router) {
	var handled []string
	for _, t := range tm.All() {
		if t.RobotID == "" || t.Status == types.StatusToDo {
			continue
		}
		if t.GetCurrentBehaviour().Kind == types.GoTo {
			continue
		}
		robot, ok := rm.Get(t.RobotID)
		if !ok || robot.Task != nil || !robot.Free {
			continue
		}
		task := t
		if err := rm.SetTask(t.RobotID, &task); err != nil {
			continue
		}
		d.setTaskEdge(ctx, rm, router, t.RobotID)
		handled = append(handled, t.ID)
	}
	tm.RemoveTasksByID(handled)
}

// phase2 continues robots already en route (current behaviour GO_TO):
// they either continue toward their goal, or, if parked at a different
// POI than the goal, are assigned but only committed an edge when the
// goal POI has spare capacity.
func (d *Dispatcher) phase2(ctx context.Context, rm *robots.Manager, tm *tasks.Manager, router *planning.Router) {
	var handled []string
	for _, t := range tm.All() {
		if t.RobotID == "" || t.Status == types.StatusToDo {
			continue
		}
		if t.GetCurrentBehaviour().Kind != types.GoTo {
			continue
		}
		robot, ok := rm.Get(t.RobotID)
		if !ok || robot.Task != nil || !robot.Free {
			continue
		}

		task := t
		if err := rm.SetTask(t.RobotID, &task); err != nil {
			continue
		}
		handled = append(handled, t.ID)

		goal := t.GetPoiGoal()
		currentPOI := router.POIOf(currentNode(robot))
		if currentPOI == types.NoPOI || currentPOI == goal {
			d.setTaskEdge(ctx, rm, router, t.RobotID)
			continue
		}

		slots := computeFreeSlots(router, rm, t.RobotID)
		if goal == types.NoPOI || slots[goal] > 0 {
			d.setTaskEdge(ctx, rm, router, t.RobotID)
		}
		// Otherwise the robot stays assigned but holds its current
		// position this tick (nextTaskEdge left empty).
	}
	tm.RemoveTasksByID(handled)
}

// phase3 picks up pre-assigned new tasks: TO_DO tasks that already name
// a still-free robot.
func (d *Dispatcher) phase3(ctx context.Context, rm *robots.Manager, tm *tasks.Manager, router *planning.Router) {
	var handled []string
	for _, t := range tm.All() {
		if t.RobotID == "" || t.Status != types.StatusToDo {
			continue
		}
		robot, ok := rm.Get(t.RobotID)
		if !ok || robot.Task != nil || !robot.Free {
			continue
		}
		task := t
		if err := rm.SetTask(t.RobotID, &task); err != nil {
			continue
		}
		d.setTaskEdge(ctx, rm, router, t.RobotID)
		handled = append(handled, t.ID)
	}
	tm.RemoveTasksByID(handled)
}

// phase4 assigns the remaining unassigned, unstarted tasks to free
// robots, honoring blocking-robot priority, until a fixpoint is reached
// or the configured budget is exhausted.
func (d *Dispatcher) phase4(ctx context.Context, rm *robots.Manager, tm *tasks.Manager, router *planning.Router) error {
	start := time.Now()
	iterations := 0

	for {
		if d.cfg.Phase4Timeout > 0 {
			if time.Since(start) > d.cfg.Phase4Timeout {
				return types.TimeoutPlanning("phase4 wall-clock budget exceeded")
			}
		} else if d.cfg.Phase4MaxIterations > 0 {
			if iterations >= d.cfg.Phase4MaxIterations {
				return types.TimeoutPlanning("phase4 iteration budget exceeded")
			}
		}
		iterations++

		free := assignableRobots(rm)
		if len(free) == 0 {
			return nil
		}

		slots := computeFreeSlots(router, rm, "")
		blocking := blockingRobots(rm, router)
		candidates := candidateTasks(tm, slots)
		if len(candidates) > len(free) {
			candidates = candidates[:len(free)]
		}

		switch {
		case len(candidates) == len(free):
			d.assignGreedy(ctx, rm, tm, router, free, candidates)
			return nil
		case len(blocking) > 0 && len(candidates) >= len(blocking):
			d.assignGreedy(ctx, rm, tm, router, blocking, candidates[:len(blocking)])
		case len(free) > 0 && len(candidates) > 0:
			d.assignGreedy(ctx, rm, tm, router, free, candidates)
		default:
			if len(blocking) > 0 {
				sendFreeRobotsToParking(blocking)
			}
			return nil
		}

		// Fixpoint: an iteration that assigned nothing will assign
		// nothing next time either; only the budget check above would
		// end the loop otherwise.
		if len(assignableRobots(rm)) == len(free) {
			return nil
		}
	}
}

// assignableRobots returns this tick's unassigned robots whose previous
// behaviour step is complete, i.e. the ones a next edge may be issued to.
// Robots still traversing an edge stay in the occupancy and free-slot
// accounting but receive nothing this tick.
func assignableRobots(rm *robots.Manager) []types.Robot {
	var out []types.Robot
	for _, r := range rm.GetFreeRobots() {
		if r.Free {
			out = append(out, r)
		}
	}
	return out
}

// blockingRobots returns the free robots sitting at a non-queue POI that
// at least one busy robot's task currently targets.
func blockingRobots(rm *robots.Manager, router *planning.Router) []types.Robot {
	targets := make(map[string]bool)
	for _, poi := range rm.GetCurrentRobotsGoals() {
		targets[poi] = true
	}

	var out []types.Robot
	for _, r := range assignableRobots(rm) {
		poi := router.POIOf(currentNode(r))
		if poi == types.NoPOI || !targets[poi] {
			continue
		}
		if role, ok := router.GetPOIRole(poi); ok && role == types.RoleQueue {
			continue
		}
		out = append(out, r)
	}
	return out
}

// candidateTasks returns, in weight order, the unassigned/unstarted tasks
// whose goal POI still has spare capacity. Each picked candidate consumes
// one seat from slots, so two tasks targeting a one-seat POI yield one
// candidate, not two.
func candidateTasks(tm *tasks.Manager, slots map[string]int) []types.Task {
	var out []types.Task
	for _, t := range tm.GetAllUnassignedUnstartedTasks() {
		goal := t.GetPoiGoal()
		free, tracked := slots[goal]
		if goal == types.NoPOI || !tracked {
			out = append(out, t)
			continue
		}
		if free > 0 {
			slots[goal]--
			out = append(out, t)
		}
	}
	return out
}

// assignGreedy is the Hungarian-style greedy assignment: for each task
// in priority order, pick the pool robot with the shortest path to the
// task's goal node; ties broken by first-seen order.
func (d *Dispatcher) assignGreedy(ctx context.Context, rm *robots.Manager, tm *tasks.Manager, router *planning.Router, pool []types.Robot, candidates []types.Task) {
	available := make([]types.Robot, len(pool))
	copy(available, pool)
	var handled []string

	for _, t := range candidates {
		task := t
		// The target is the current behaviour's terminal node, not
		// necessarily the POI's GO_TO entry: an unstarted backlog task may
		// legitimately begin mid-chain at a dock/wait/undock behaviour.
		goalNode, err := getUndoneBehaviourNode(router, &task)
		if err != nil {
			continue
		}

		best := -1
		bestLength := -1
		for i, r := range available {
			start := currentNode(r)
			if start == "" || start == goalNode {
				continue
			}
			length, err := router.GetPathLength(start, goalNode)
			if err != nil {
				continue
			}
			if best == -1 || length < bestLength {
				best, bestLength = i, length
			}
		}
		if best == -1 {
			continue
		}

		robot := available[best]
		if err := rm.SetTask(robot.ID, &task); err != nil {
			continue
		}
		d.setTaskEdge(ctx, rm, router, robot.ID)
		handled = append(handled, t.ID)
		available = append(available[:best], available[best+1:]...)
	}
	tm.RemoveTasksByID(handled)
}

// sendFreeRobotsToParking and sendBusyRobotsToParking are reserved hooks
// for future evacuation-task generation. Their call-sites are kept;
// what tasks to generate is a pending product decision, so they do
// nothing yet.
func sendFreeRobotsToParking(_ []types.Robot) {}
func sendBusyRobotsToParking(_ []types.Robot) {}
