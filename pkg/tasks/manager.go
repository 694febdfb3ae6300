package tasks

import (
	"sort"

	"github.com/PawSmy/Supervisor/pkg/priority"
	"github.com/PawSmy/Supervisor/pkg/types"
)

// Manager holds this tick's task backlog, sorted by weight:
// descending priority, ties broken by ascending arrival
// index. Internally this is computed as weight = f(priority, maxPriority,
// arrivalIndex), then (weight asc, arrivalIndex asc); a task's original
// Priority value is never modified by sorting.
type Manager struct {
	tasks []types.Task
}

// New sorts tasks by weight. If eval is nil, the default weight formula
// (maxPriority - priority) is used; otherwise every task's weight is
// computed via the operator-supplied expression.
func New(tasks []types.Task, eval *priority.Evaluator) (*Manager, error) {
	maxPriority := 0
	for _, t := range tasks {
		if t.Priority > maxPriority {
			maxPriority = t.Priority
		}
	}

	weight := make([]float64, len(tasks))
	for i, t := range tasks {
		if eval == nil {
			weight[i] = float64(priority.DefaultWeight(t.Priority, maxPriority, t.ArrivalIndex))
			continue
		}
		w, err := eval.Weight(t.Priority, maxPriority, t.ArrivalIndex)
		if err != nil {
			return nil, types.TaskManagerError(t.ID, err)
		}
		weight[i] = w
	}

	return newSorted(tasks, weight), nil
}

func newSorted(tasks []types.Task, weight []float64) *Manager {
	type pair struct {
		task   types.Task
		weight float64
	}
	pairs := make([]pair, len(tasks))
	for i, t := range tasks {
		pairs[i] = pair{task: t, weight: weight[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].weight != pairs[j].weight {
			return pairs[i].weight < pairs[j].weight
		}
		return pairs[i].task.ArrivalIndex < pairs[j].task.ArrivalIndex
	})
	out := make([]types.Task, len(pairs))
	for i, p := range pairs {
		out[i] = p.task
	}
	return &Manager{tasks: out}
}

// All returns the full weight-ordered backlog.
func (m *Manager) All() []types.Task {
	out := make([]types.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Get returns the task with the given id, preserving its place in the
// weight-ordered backlog.
func (m *Manager) Get(id string) (types.Task, bool) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return types.Task{}, false
}

// GetAllUnassignedUnstartedTasks returns, in weight order, every task with
// no robot assigned and status TO_DO.
func (m *Manager) GetAllUnassignedUnstartedTasks() []types.Task {
	var out []types.Task
	for _, t := range m.tasks {
		if t.RobotID == "" && t.Status == types.StatusToDo {
			out = append(out, t)
		}
	}
	return out
}

// RemoveTasksByID drops every task whose id is in ids, preserving the
// relative order of the rest.
func (m *Manager) RemoveTasksByID(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.tasks[:0:0]
	for _, t := range m.tasks {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}
