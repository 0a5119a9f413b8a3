package team

import (
	"sync"
	"time"

	"github.com/relaylabs/agentloop/corerr"
)

// TaskStatus is the closed set of states a board task moves through.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskClaimed   TaskStatus = "claimed"
	TaskCompleted TaskStatus = "completed"
)

// Task is one unit of work on the board, optionally gated on other tasks.
type Task struct {
	ID          string
	Description string
	DependsOn   []string
	Status      TaskStatus
	ClaimedBy   string
	ClaimedAt   time.Time
	Result      string
	CompletedAt time.Time
}

// Board is the task-board invariant engine (§4.H): single-writer, mutated
// only through addTask/claim/complete, so two concurrent claims on the
// same task can never both succeed.
type Board struct {
	mu    sync.Mutex
	order []string
	tasks map[string]*Task
}

func NewBoard() *Board {
	return &Board{tasks: map[string]*Task{}}
}

// AddTask registers a task. Duplicate ids are rejected.
func (b *Board) AddTask(id, description string, dependsOn []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.tasks[id]; exists {
		return corerr.New("team", "addTask", corerr.ValidationFailed, "duplicate task id "+id, nil)
	}
	b.tasks[id] = &Task{ID: id, Description: description, DependsOn: dependsOn, Status: TaskPending}
	b.order = append(b.order, id)
	return nil
}

// Claim transitions a task from pending to claimed iff every dependency
// has completed. Returns false (no error) when the task is not claimable
// right now rather than treating that as a failure.
func (b *Board) Claim(id, member string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return false, corerr.New("team", "claim", corerr.NotFound, "unknown task "+id, nil)
	}
	if t.Status != TaskPending || !b.dependenciesMet(t) {
		return false, nil
	}
	t.Status = TaskClaimed
	t.ClaimedBy = member
	t.ClaimedAt = time.Now()
	return true, nil
}

// Complete transitions a claimed task to completed. Valid only from
// claimed; any other starting status is a validation error.
func (b *Board) Complete(id, result string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return corerr.New("team", "complete", corerr.NotFound, "unknown task "+id, nil)
	}
	if t.Status != TaskClaimed {
		return corerr.New("team", "complete", corerr.ValidationFailed, "task "+id+" is not claimed", nil)
	}
	t.Status = TaskCompleted
	t.Result = result
	t.CompletedAt = time.Now()
	return nil
}

// GetAvailable returns every pending task whose dependencies are all
// completed, in registration order.
func (b *Board) GetAvailable() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Task
	for _, id := range b.order {
		t := b.tasks[id]
		if t.Status == TaskPending && b.dependenciesMet(t) {
			out = append(out, *t)
		}
	}
	return out
}

// IsAllCompleted is true when the board is empty or every task on it has
// completed.
func (b *Board) IsAllCompleted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		if b.tasks[id].Status != TaskCompleted {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of every task, in registration order, for
// reporting/auditing; callers never get a live pointer into the board.
func (b *Board) Snapshot() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Task, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.tasks[id])
	}
	return out
}

func (b *Board) dependenciesMet(t *Task) bool {
	for _, dep := range t.DependsOn {
		d, ok := b.tasks[dep]
		if !ok || d.Status != TaskCompleted {
			return false
		}
	}
	return true
}
