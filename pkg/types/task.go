package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle status of a Task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "TO_DO"
	StatusAssign     TaskStatus = "ASSIGN"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// wire status strings differ from the internal enum (inherited from the
// backend's task-status vocabulary).
var wireStatus = map[string]TaskStatus{
	"To Do":       StatusToDo,
	"ASSIGN":      StatusAssign,
	"IN_PROGRESS": StatusInProgress,
	"COMPLETED":   StatusDone,
}

// StartTimeLayout is the expected format of Task.start_time on the wire.
const StartTimeLayout = "2006-01-02 15:04:05"

// DefaultPriority is used when the wire payload omits a priority.
const DefaultPriority = 3

// Task is an ordered sequence of behaviours plus scheduling metadata.
type Task struct {
	ID                  string
	RobotID             string // may be empty
	ArrivalTime         time.Time
	ArrivalIndex        int // position in the backlog as received; used as the sort tie-breaker
	Priority            int
	Status              TaskStatus
	CurrentBehaviourIdx int // -1 == not started; otherwise an index into Behaviours
	Behaviours          []Behaviour
}

type taskWire struct {
	ID                  *string           `json:"id"`
	Robot               *string           `json:"robot"`
	StartTime           *string           `json:"start_time"`
	CurrentBehaviourIdx *int              `json:"current_behaviour_index"`
	Status              *string           `json:"status"`
	Priority            *int              `json:"priority"`
	Behaviours          []json.RawMessage `json:"behaviours"`
}

// NewTaskFromJSON validates and constructs a Task from a single JSON
// object. arrivalIndex is the task's position in the backlog as received,
// used later as the Tasks-manager sort tie-breaker. Any behaviour failure
// is wrapped with this task's id for context.
func NewTaskFromJSON(raw json.RawMessage, arrivalIndex int) (Task, error) {
	var w taskWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Task{}, WrongTaskInputData("<unknown>", fmt.Errorf("not a structured record: %w", err))
	}
	if w.ID == nil {
		return Task{}, WrongTaskInputData("<unknown>", fmt.Errorf("missing required field: id"))
	}
	id := *w.ID

	t := Task{
		ID:                  id,
		ArrivalIndex:        arrivalIndex,
		CurrentBehaviourIdx: -1,
		Priority:            DefaultPriority,
	}
	if w.Robot != nil {
		t.RobotID = *w.Robot
	}
	if w.Priority != nil {
		t.Priority = *w.Priority
	}
	if w.StartTime != nil {
		ts, err := time.Parse(StartTimeLayout, *w.StartTime)
		if err != nil {
			return Task{}, WrongTaskInputData(id, fmt.Errorf("invalid start_time %q: %w", *w.StartTime, err))
		}
		t.ArrivalTime = ts
	}
	if w.Status == nil {
		return Task{}, WrongTaskInputData(id, fmt.Errorf("missing required field: status"))
	}
	status, ok := wireStatus[*w.Status]
	if !ok {
		return Task{}, WrongTaskInputData(id, fmt.Errorf("unknown status: %s", *w.Status))
	}
	t.Status = status

	if w.CurrentBehaviourIdx != nil {
		t.CurrentBehaviourIdx = *w.CurrentBehaviourIdx
	}

	for _, rawBeh := range w.Behaviours {
		b, err := NewBehaviourFromJSON(rawBeh)
		if err != nil {
			return Task{}, WrongTaskInputData(id, err)
		}
		t.Behaviours = append(t.Behaviours, b)
	}

	if err := t.Validate(); err != nil {
		return Task{}, WrongTaskInputData(id, err)
	}
	return t, nil
}

// Validate re-checks the cross-field invariants: the
// current-behaviour index must be in [-1, N-1], and a task whose status is
// not TO_DO must carry a robot id.
func (t Task) Validate() error {
	n := len(t.Behaviours)
	if t.CurrentBehaviourIdx < -1 || t.CurrentBehaviourIdx > n-1 {
		return fmt.Errorf("current_behaviour_index %d out of range [-1, %d]", t.CurrentBehaviourIdx, n-1)
	}
	if t.Status != StatusToDo && t.RobotID == "" {
		return fmt.Errorf("status %s requires a robot id", t.Status)
	}
	return nil
}

// GetCurrentBehaviour returns the behaviour at index max(0, CurrentBehaviourIdx).
func (t Task) GetCurrentBehaviour() Behaviour {
	idx := t.CurrentBehaviourIdx
	if idx < 0 {
		idx = 0
	}
	return t.Behaviours[idx]
}

// GetPoiGoal returns the POI id that best describes where the robot is
// headed for this task: the POI of the current behaviour if it is GO_TO,
// otherwise the POI of the most recent preceding GO_TO.
func (t Task) GetPoiGoal() string {
	cur := t.GetCurrentBehaviour()
	if cur.Kind == GoTo {
		return cur.To
	}
	idx := t.CurrentBehaviourIdx
	if idx < 0 {
		idx = 0
	}
	for i := idx; i >= 0; i-- {
		if t.Behaviours[i].Kind == GoTo {
			return t.Behaviours[i].To
		}
	}
	return NoPOI
}

// FirstGoalPOI returns the POI of the first GO_TO behaviour in the task,
// independent of progress. Recovered from the original dispatcher's
// get_task_first_goal; useful for logging/telemetry that wants to tag a
// task with its overall destination for its whole lifetime, as opposed to
// GetPoiGoal's "current leg" semantics.
func (t Task) FirstGoalPOI() string {
	for _, b := range t.Behaviours {
		if b.Kind == GoTo {
			return b.To
		}
	}
	return NoPOI
}

// FirstUndoneBehaviour returns the behaviour at CurrentBehaviourIdx, or the
// first behaviour if the task has not started. Derived purely from the
// index.
func (t Task) FirstUndoneBehaviour() Behaviour {
	return t.GetCurrentBehaviour()
}
