package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PawSmy/Supervisor/pkg/config"
	"github.com/PawSmy/Supervisor/pkg/logging"
	"github.com/PawSmy/Supervisor/pkg/observer"
	"github.com/PawSmy/Supervisor/pkg/planning"
	"github.com/PawSmy/Supervisor/pkg/priority"
	"github.com/PawSmy/Supervisor/pkg/robots"
	"github.com/PawSmy/Supervisor/pkg/tasks"
	"github.com/PawSmy/Supervisor/pkg/types"
)

// Dispatcher runs one tick at a time over a fixed planning graph. It holds
// no fleet or task state between calls; a new Router/robots.Manager/
// tasks.Manager trio is built fresh on every tick.
type Dispatcher struct {
	cfg          *config.Config
	logger       *logging.Logger
	observers    *observer.Manager
	priorityEval *priority.Evaluator
}

// New constructs a Dispatcher with a default logger and no registered
// observers. Callers register observers (including a telemetry observer
// built from pkg/telemetry) via Observers().Register.
func New(cfg *config.Config) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		logger:    logging.Default(),
		observers: observer.NewManager(),
	}
	d.observers.SetErrorHandler(func(err error) {
		d.logger.WithError(err).Warn("observer failure")
	})
	return d
}

// SetLogger overrides the default logger.
func (d *Dispatcher) SetLogger(l *logging.Logger) { d.logger = l }

// SetPriorityEvaluator installs the optional operator-supplied
// priority-weight expression. A nil evaluator (the
// default) uses the built-in maxPriority-priority weight formula.
func (d *Dispatcher) SetPriorityEvaluator(e *priority.Evaluator) { d.priorityEval = e }

// Observers returns the observer manager so callers can register
// observers (console, telemetry, or custom) before running ticks.
func (d *Dispatcher) Observers() *observer.Manager { return d.observers }

// GetPlanAllFreeRobots runs one tick against pg/fleet/taskList and returns
// the commitments for every robot an edge could be assigned to this tick
//. Robots for which no edge could be committed are absent.
func (d *Dispatcher) GetPlanAllFreeRobots(ctx context.Context, pg types.PlanningGraph, fleet map[string]types.Robot, taskList []types.Task) (types.Plan, error) {
	rm, _, err := d.tick(ctx, pg, fleet, taskList)
	if err != nil {
		return nil, err
	}
	return rm.Plan(), nil
}

// GetPlanSelectedRobot runs one tick and returns only robotID's commitment,
// or nil if no edge could be committed for it this tick.
func (d *Dispatcher) GetPlanSelectedRobot(ctx context.Context, pg types.PlanningGraph, fleet map[string]types.Robot, taskList []types.Task, robotID string) (*types.Commitment, error) {
	rm, _, err := d.tick(ctx, pg, fleet, taskList)
	if err != nil {
		return nil, err
	}
	plan := rm.Plan()
	c, ok := plan[robotID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// tick builds a fresh Router/robots.Manager/tasks.Manager, runs setPlan,
// and emits tick-level observer/log events around it.
func (d *Dispatcher) tick(ctx context.Context, pg types.PlanningGraph, fleet map[string]types.Robot, taskList []types.Task) (*robots.Manager, *tasks.Manager, error) {
	tickID := uuid.New().String()
	ctx = context.WithValue(ctx, types.ContextKeyTickID, tickID)
	fleetID := types.GetFleetID(ctx)
	log := d.logger.WithTickID(tickID)

	start := time.Now()
	d.observers.Notify(ctx, observer.Event{
		Type: observer.EventTickStart, Status: observer.StatusStarted,
		Timestamp: start, TickID: tickID, FleetID: fleetID,
	})
	log.Infof("tick start: %d robots, %d tasks", len(fleet), len(taskList))

	router := planning.NewRouter(pg)
	rm := robots.New(fleet, router.GetBasePoisEdges())
	router.ResetOccupancy(snapshot(rm))
	considered := len(rm.All())

	tm, err := tasks.New(taskList, d.priorityEval)
	if err != nil {
		d.endTick(ctx, tickID, fleetID, start, considered, err)
		return nil, nil, err
	}

	if err := d.setPlan(ctx, log, router, rm, tm); err != nil {
		d.endTick(ctx, tickID, fleetID, start, considered, err)
		return nil, nil, err
	}

	d.endTick(ctx, tickID, fleetID, start, considered, nil)
	return rm, tm, nil
}

func (d *Dispatcher) endTick(ctx context.Context, tickID, fleetID string, start time.Time, robotsConsidered int, err error) {
	status := observer.StatusSuccess
	if err != nil {
		status = observer.StatusFailure
	}
	d.logger.WithTickID(tickID).Infof("tick end: %s after %s", status, time.Since(start))
	d.observers.Notify(ctx, observer.Event{
		Type: observer.EventTickEnd, Status: status,
		Timestamp: time.Now(), TickID: tickID, FleetID: fleetID,
		StartTime: start, ElapsedTime: time.Since(start), Error: err,
		Metadata: map[string]interface{}{"robots_considered": robotsConsidered},
	})
}

func snapshot(rm *robots.Manager) map[string]types.Robot {
	all := rm.All()
	out := make(map[string]types.Robot, len(all))
	for _, r := range all {
		out[r.ID] = r
	}
	return out
}

func currentNode(r types.Robot) string {
	if r.Edge == nil {
		return ""
	}
	return r.Edge[1]
}
