package seeding

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRuns_Lifecycle(t *testing.T) {
	t.Parallel()

	runs := NewRuns(10)
	id := runs.Begin("process")

	run, ok := runs.Get(id)
	if !ok {
		t.Fatal("run not found after Begin")
	}
	if run.State != RunStateRunning {
		t.Errorf("state = %s, want %s", run.State, RunStateRunning)
	}

	runs.Finish(id, &BatchResult{Processed: 3, Succeeded: 3, Reason: ReasonCompleted}, nil)

	run, ok = runs.Get(id)
	if !ok {
		t.Fatal("run not found after Finish")
	}
	if run.State != RunStateCompleted {
		t.Errorf("state = %s, want %s", run.State, RunStateCompleted)
	}
	if run.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
	if run.Result == nil || run.Result.Processed != 3 {
		t.Errorf("result = %+v, want processed 3", run.Result)
	}
}

func TestRuns_FinishWithError(t *testing.T) {
	t.Parallel()

	runs := NewRuns(10)
	id := runs.Begin("recover")
	runs.Finish(id, nil, errors.New("database gone"))

	run, _ := runs.Get(id)
	if run.State != RunStateFailed {
		t.Errorf("state = %s, want %s", run.State, RunStateFailed)
	}
	if run.Error != "database gone" {
		t.Errorf("error = %q", run.Error)
	}
}

func TestRuns_EvictsOldestFinished(t *testing.T) {
	t.Parallel()

	runs := NewRuns(2)
	first := runs.Begin("process")
	runs.Finish(first, &BatchResult{}, nil)
	second := runs.Begin("process")
	runs.Finish(second, &BatchResult{}, nil)
	third := runs.Begin("process")

	if _, ok := runs.Get(first); ok {
		t.Error("oldest finished run should be evicted")
	}
	if _, ok := runs.Get(second); !ok {
		t.Error("second run should survive")
	}
	if _, ok := runs.Get(third); !ok {
		t.Error("running record must never be evicted")
	}
}

func TestRuns_UnknownID(t *testing.T) {
	t.Parallel()

	runs := NewRuns(10)
	if _, ok := runs.Get(uuid.New()); ok {
		t.Error("unknown id should not resolve")
	}
	// Finishing an evicted/unknown run is a no-op, not a panic.
	runs.Finish(uuid.New(), nil, nil)
}
