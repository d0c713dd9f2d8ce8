// Package tasks implements the in-memory registry of background tasks.
//
// Every HTTP handler that starts long-running work creates a record here and
// returns its id; the worker goroutine is the only writer for that record,
// and pollers read snapshots through the registry. State is ephemeral — it
// lives only for the duration of the server process.
package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a task id is unknown or its terminal
// state has already been delivered to a poller.
var ErrTaskNotFound = errors.New("task not found")

type Kind string

const (
	KindFetch      Kind = "fetch"
	KindTranscribe Kind = "transcribe"
	KindSearch     Kind = "search"
	KindAnalyze    Kind = "analyze"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Task is one unit of background work. Progress is a percentage in [0,100];
// it reaches 100 exactly when the status turns terminal. Subtask and
// CurrentIndex are only meaningful while a composite analyze task is inside
// a sub-stage.
type Task struct {
	ID           string `json:"task_id"`
	Kind         Kind   `json:"kind"`
	Status       Status `json:"status"`
	Progress     int    `json:"progress"`
	Message      string `json:"message"`
	Subtask      Kind   `json:"subtask_kind,omitempty"`
	CurrentIndex int    `json:"current_index"`
	Result       any    `json:"result,omitempty"`
}

// Terminal reports whether the task has finished, successfully or not.
func (t Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusError
}

// NewID builds a task id from the current unix second plus a short random
// suffix, so submissions within the same second cannot collide while the id
// stays roughly sortable by creation time.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}

// Registry is a mutex-guarded map of tasks. All operations are O(1) and
// never block on stage work; workers do their slow I/O outside the lock and
// only take it to publish progress.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Create registers a new processing task and returns its id.
func (r *Registry) Create(kind Kind, message string) string {
	id := NewID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &Task{
		ID:      id,
		Kind:    kind,
		Status:  StatusProcessing,
		Message: message,
	}
	return id
}

// Update applies fn to the task under the registry lock. It is a no-op when
// the id is absent, so a worker racing a terminal poll cannot resurrect a
// delivered record.
func (r *Registry) Update(id string, fn func(*Task)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		fn(t)
	}
}

// SetProgress publishes stage-local progress and a human-readable message.
func (r *Registry) SetProgress(id string, progress int, message string) {
	r.Update(id, func(t *Task) {
		t.Progress = progress
		t.Message = message
	})
}

// Complete marks the task successful with its result payload.
func (r *Registry) Complete(id string, result any, message string) {
	r.Update(id, func(t *Task) {
		t.Status = StatusCompleted
		t.Progress = 100
		t.Message = message
		t.Subtask = ""
		t.Result = result
	})
}

// Fail marks the task errored. The message is the raw error text — surfaced
// verbatim to the poller.
func (r *Registry) Fail(id string, message string) {
	r.Update(id, func(t *Task) {
		t.Status = StatusError
		t.Progress = 100
		t.Message = message
		t.Subtask = ""
	})
}

// Get returns a snapshot of the task without consuming it.
func (r *Registry) Get(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *t, nil
}

// Poll returns a snapshot of the task and removes it when the snapshot is
// terminal. A terminal state is therefore delivered once: the next Poll for
// the same id yields ErrTaskNotFound. Callers are expected to be the single
// poller for their task id.
func (r *Registry) Poll(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	snap := *t
	if snap.Terminal() {
		delete(r.tasks, id)
	}
	return snap, nil
}

// Remove discards a task record, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}
