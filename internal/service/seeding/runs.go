package seeding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunState is the lifecycle state of a background batch run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// Run is a pollable record of one background invocation. Callers that
// trigger an async batch get the run id back immediately and poll for the
// result instead of the work disappearing into the background.
type Run struct {
	ID         uuid.UUID    `json:"id"`
	Kind       string       `json:"kind"`
	State      RunState     `json:"state"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Result     *BatchResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Runs is an in-memory registry of background runs with bounded retention.
type Runs struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID
	max   int
}

// NewRuns creates a registry retaining up to max finished runs.
func NewRuns(max int) *Runs {
	if max <= 0 {
		max = 100
	}
	return &Runs{
		runs: make(map[uuid.UUID]*Run),
		max:  max,
	}
}

// Begin registers a new running record and returns its id.
func (r *Runs) Begin(kind string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.runs[id] = &Run{
		ID:        id,
		Kind:      kind,
		State:     RunStateRunning,
		StartedAt: time.Now().UTC(),
	}
	r.order = append(r.order, id)
	r.evictLocked()
	return id
}

// Finish records the outcome of a run. Unknown ids are ignored (the record
// may have been evicted).
func (r *Runs) Finish(id uuid.UUID, result *BatchResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Result = result
	if err != nil {
		run.State = RunStateFailed
		run.Error = err.Error()
	} else {
		run.State = RunStateCompleted
	}
}

// Get returns a copy of a run record.
func (r *Runs) Get(id uuid.UUID) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// evictLocked drops the oldest finished records beyond the retention cap.
// Running records are never evicted.
func (r *Runs) evictLocked() {
	for len(r.order) > r.max {
		idx := -1
		for i, id := range r.order {
			if run := r.runs[id]; run == nil || run.State != RunStateRunning {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		delete(r.runs, r.order[idx])
		r.order = append(r.order[:idx], r.order[idx+1:]...)
	}
}
