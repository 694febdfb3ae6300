package tasks

import (
	"testing"

	"github.com/PawSmy/Supervisor/pkg/priority"
	"github.com/PawSmy/Supervisor/pkg/types"
)

func task(id string, priorityValue, arrivalIndex int, robotID string, status types.TaskStatus) types.Task {
	return types.Task{ID: id, Priority: priorityValue, ArrivalIndex: arrivalIndex, RobotID: robotID, Status: status, CurrentBehaviourIdx: -1}
}

// TestNew_OrdersByDescendingPriorityThenArrival: the
// backlog sorts lexicographically by (-priority, arrivalIndex).
func TestNew_OrdersByDescendingPriorityThenArrival(t *testing.T) {
	in := []types.Task{
		task("low", 1, 0, "", types.StatusToDo),
		task("high-later", 5, 2, "", types.StatusToDo),
		task("high-earlier", 5, 1, "", types.StatusToDo),
		task("mid", 3, 0, "", types.StatusToDo),
	}
	m, err := New(in, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := m.All()
	want := []string{"high-earlier", "high-later", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("All() len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("All()[%d].ID = %q, want %q (full order %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestNew_PreservesOriginalPriorityValues(t *testing.T) {
	in := []types.Task{task("t1", 7, 0, "", types.StatusToDo)}
	m, err := New(in, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, ok := m.Get("t1")
	if !ok || got.Priority != 7 {
		t.Fatalf("Get(t1).Priority = %d, ok=%v, want 7, true", got.Priority, ok)
	}
}

func TestNew_WithEvaluatorOverridesWeight(t *testing.T) {
	eval, err := priority.NewEvaluator("priority * -1.0")
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	in := []types.Task{
		task("a", 1, 0, "", types.StatusToDo),
		task("b", 9, 1, "", types.StatusToDo),
	}
	m, err := New(in, eval)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := m.All()
	if got[0].ID != "b" {
		t.Fatalf("All()[0].ID = %q, want b (higher priority -> more negative weight -> sorts first)", got[0].ID)
	}
}

func TestGetAllUnassignedUnstartedTasks(t *testing.T) {
	in := []types.Task{
		task("free", 1, 0, "", types.StatusToDo),
		task("assigned", 1, 1, "r1", types.StatusToDo),
		task("in-progress", 1, 2, "r2", types.StatusInProgress),
	}
	m, err := New(in, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := m.GetAllUnassignedUnstartedTasks()
	if len(got) != 1 || got[0].ID != "free" {
		t.Fatalf("GetAllUnassignedUnstartedTasks() = %v, want [free]", ids(got))
	}
}

func TestRemoveTasksByID(t *testing.T) {
	in := []types.Task{
		task("a", 1, 0, "", types.StatusToDo),
		task("b", 1, 1, "", types.StatusToDo),
		task("c", 1, 2, "", types.StatusToDo),
	}
	m, err := New(in, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.RemoveTasksByID([]string{"b"})
	got := m.All()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("All() after RemoveTasksByID = %v, want [a c]", ids(got))
	}
}

func ids(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
