// Package tasks implements a dependency-aware task queue: work items form a
// DAG, and a task becomes ready only when everything it depends on is done.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude-collective/collective/pkg/ports"
)

var (
	// ErrTaskNotFound indicates the task ID is unknown.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCycle indicates adding the task would create a dependency cycle.
	ErrCycle = errors.New("dependency cycle detected")

	// ErrNotReady indicates the task's dependencies are not all done.
	ErrNotReady = errors.New("task is not ready")

	// ErrBadTransition indicates the requested status change is not allowed
	// from the task's current status.
	ErrBadTransition = errors.New("invalid status transition")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"     // waiting on dependencies
	StatusReady      Status = "ready"       // all dependencies done
	StatusInProgress Status = "in_progress" // claimed by an agent
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked" // a dependency failed
)

// Task is one unit of work, optionally targeted at a specific agent.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AgentID   string    `json:"agent_id,omitempty"`
	DependsOn []string  `json:"depends_on,omitempty"`
	Status    Status    `json:"status"`
	Priority  int       `json:"priority,omitempty"` // higher runs first
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	DoneAt    time.Time `json:"done_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Terminal reports whether the task can no longer change state.
func (t *Task) Terminal() bool {
	return t.Status == StatusDone || t.Status == StatusFailed || t.Status == StatusBlocked
}

const queueCollection = "queue"
const queueSnapshotID = "tasks"

// Queue is an in-memory DAG queue with optional persistence through a Store.
// All methods are safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string // insertion order, for stable snapshots

	store ports.Store
	now   func() time.Time
	newID func() string
}

// Option configures the Queue.
type Option func(*Queue)

// WithStore enables persistence: every mutation snapshots the queue.
func WithStore(store ports.Store) Option {
	return func(q *Queue) {
		q.store = store
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		tasks: make(map[string]*Task),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add inserts a task. Dependencies must already exist, and the resulting
// graph must stay acyclic. The assigned ID is returned.
func (q *Queue) Add(ctx context.Context, task Task) (string, error) {
	if task.Title == "" {
		return "", errors.New("task title is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if task.ID == "" {
		task.ID = q.newID()
	}
	if _, exists := q.tasks[task.ID]; exists {
		return "", fmt.Errorf("task %q already exists", task.ID)
	}

	for _, dep := range task.DependsOn {
		if _, ok := q.tasks[dep]; !ok {
			return "", fmt.Errorf("%w: dependency %q", ErrTaskNotFound, dep)
		}
	}

	// Dependencies can only point at existing tasks, so a new node cannot
	// close a cycle unless it depends on itself.
	for _, dep := range task.DependsOn {
		if dep == task.ID {
			return "", ErrCycle
		}
	}

	task.CreatedAt = q.now().UTC()
	task.Status = q.initialStatus(&task)

	q.tasks[task.ID] = &task
	q.order = append(q.order, task.ID)

	if err := q.snapshot(ctx); err != nil {
		return "", err
	}
	return task.ID, nil
}

// Get returns a copy of the task.
func (q *Queue) Get(ctx context.Context, id string) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

// List returns copies of all tasks in insertion order.
func (q *Queue) List(ctx context.Context) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Task, 0, len(q.order))
	for _, id := range q.order {
		cp := *q.tasks[id]
		out = append(out, &cp)
	}
	return out
}

// Ready returns the tasks whose dependencies are all done, ordered by
// priority (highest first) with ID as the tie-break.
func (q *Queue) Ready(ctx context.Context) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []*Task
	for _, id := range q.order {
		task := q.tasks[id]
		if task.Status == StatusReady || (task.Status == StatusPending && q.depsDone(task)) {
			cp := *task
			cp.Status = StatusReady
			ready = append(ready, &cp)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return ready[i].ID < ready[j].ID
	})
	return ready
}

// Claim marks a ready task in progress.
func (q *Queue) Claim(ctx context.Context, id string) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.Terminal() || task.Status == StatusInProgress {
		return nil, fmt.Errorf("%w: %s is %s", ErrBadTransition, id, task.Status)
	}
	if !q.depsDone(task) {
		return nil, ErrNotReady
	}

	task.Status = StatusInProgress
	task.StartedAt = q.now().UTC()

	if err := q.snapshot(ctx); err != nil {
		return nil, err
	}
	cp := *task
	return &cp, nil
}

// Complete marks an in-progress task done, which may unblock dependents.
func (q *Queue) Complete(ctx context.Context, id string) error {
	return q.finish(ctx, id, StatusDone, "")
}

// Fail marks an in-progress task failed. Every transitive dependent becomes
// blocked: it can never run.
func (q *Queue) Fail(ctx context.Context, id string, reason string) error {
	return q.finish(ctx, id, StatusFailed, reason)
}

func (q *Queue) finish(ctx context.Context, id string, status Status, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status != StatusInProgress {
		return fmt.Errorf("%w: %s is %s", ErrBadTransition, id, task.Status)
	}

	task.Status = status
	task.DoneAt = q.now().UTC()
	task.Error = reason

	if status == StatusDone {
		q.promote()
	} else {
		q.blockDependents(id)
	}

	return q.snapshot(ctx)
}

// Snapshot persists the full queue state through the configured store.
func (q *Queue) Snapshot(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot(ctx)
}

// Restore loads the queue state saved by Snapshot. In-progress tasks revert
// to ready: the claiming process is gone.
func (q *Queue) Restore(ctx context.Context) error {
	if q.store == nil {
		return errors.New("queue has no store")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var snap snapshot
	if err := q.store.Load(ctx, queueCollection, queueSnapshotID, &snap); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil // nothing saved yet
		}
		return fmt.Errorf("failed to load queue snapshot: %w", err)
	}

	q.tasks = make(map[string]*Task, len(snap.Tasks))
	q.order = q.order[:0]
	for i := range snap.Tasks {
		task := snap.Tasks[i]
		if task.Status == StatusInProgress {
			task.Status = StatusReady
			task.StartedAt = time.Time{}
		}
		q.tasks[task.ID] = &task
		q.order = append(q.order, task.ID)
	}
	return nil
}

type snapshot struct {
	Tasks   []Task    `json:"tasks"`
	SavedAt time.Time `json:"saved_at"`
}

func (q *Queue) snapshot(ctx context.Context) error {
	if q.store == nil {
		return nil
	}

	snap := snapshot{SavedAt: q.now().UTC()}
	for _, id := range q.order {
		snap.Tasks = append(snap.Tasks, *q.tasks[id])
	}

	if err := q.store.Save(ctx, queueCollection, queueSnapshotID, snap); err != nil {
		return fmt.Errorf("failed to save queue snapshot: %w", err)
	}
	return nil
}

func (q *Queue) initialStatus(task *Task) Status {
	if q.depsDone(task) {
		return StatusReady
	}
	for _, dep := range task.DependsOn {
		if d := q.tasks[dep]; d.Status == StatusFailed || d.Status == StatusBlocked {
			return StatusBlocked
		}
	}
	return StatusPending
}

func (q *Queue) depsDone(task *Task) bool {
	for _, dep := range task.DependsOn {
		if d, ok := q.tasks[dep]; !ok || d.Status != StatusDone {
			return false
		}
	}
	return true
}

// promote flips pending tasks whose dependencies just completed to ready.
func (q *Queue) promote() {
	for _, id := range q.order {
		task := q.tasks[id]
		if task.Status == StatusPending && q.depsDone(task) {
			task.Status = StatusReady
		}
	}
}

// blockDependents marks everything transitively downstream of id blocked.
func (q *Queue) blockDependents(id string) {
	blocked := map[string]bool{id: true}
	// Insertion order is topological (dependencies precede dependents), so
	// one forward pass reaches the whole downstream set.
	for _, tid := range q.order {
		task := q.tasks[tid]
		if task.Terminal() && task.ID != id {
			continue
		}
		for _, dep := range task.DependsOn {
			if blocked[dep] {
				if task.ID != id {
					task.Status = StatusBlocked
				}
				blocked[task.ID] = true
				break
			}
		}
	}
}
