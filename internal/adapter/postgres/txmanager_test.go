package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/deadletter"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/seedqueue"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/testhelper"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

func rowExists(t *testing.T, pool *pgxpool.Pool, table string, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("rowExists query: %v", err)
	}
	return exists
}

// enqueueAndFail inserts a queue item and drives it to failed so it is
// eligible for quarantine.
func enqueueAndFail(t *testing.T, queue *seedqueue.Repo, term string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	if _, err := queue.Enqueue(ctx, []domain.SeedQueueItem{
		{Term: term, Languages: []string{"en"}, Priority: 5},
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := queue.ClaimBatch(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("ClaimBatch: items=%d err=%v", len(claimed), err)
	}
	if err := queue.MarkFailed(ctx, claimed[0].ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	return claimed[0].ID
}

// Quarantine is the tx the recovery service runs: the DLQ insert and the
// queue delete must commit or roll back together.
func TestRunInTx_QuarantineCommits(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	queue := seedqueue.New(pool)
	dlq := deadletter.New(pool)

	queueID := enqueueAndFail(t, queue, "quarantine-commit-"+uuid.NewString()[:8])
	dlqItem := &domain.DeadLetterItem{
		Term:            "quarantine-commit",
		Languages:       []string{"en"},
		Priority:        5,
		FailureReason:   "boom",
		FailureAnalysis: domain.FailureAnalysis{ErrorType: "unknown_error", Count: 1},
		Attempts:        1,
	}

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := dlq.Create(ctx, dlqItem); err != nil {
			return err
		}
		return queue.Delete(ctx, queueID)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if rowExists(t, pool, "seed_queue", queueID) {
		t.Error("queue row should be gone after committed quarantine")
	}
	if !rowExists(t, pool, "dead_letter", dlqItem.ID) {
		t.Error("dead letter row should exist after committed quarantine")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	queue := seedqueue.New(pool)
	dlq := deadletter.New(pool)

	queueID := enqueueAndFail(t, queue, "quarantine-rollback-"+uuid.NewString()[:8])
	dlqItem := &domain.DeadLetterItem{
		Term:            "quarantine-rollback",
		Languages:       []string{"en"},
		Priority:        5,
		FailureReason:   "boom",
		FailureAnalysis: domain.FailureAnalysis{ErrorType: "unknown_error", Count: 1},
		Attempts:        1,
	}
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := dlq.Create(ctx, dlqItem); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if rowExists(t, pool, "dead_letter", dlqItem.ID) {
		t.Error("dead letter row should not exist after rollback")
	}
	if !rowExists(t, pool, "seed_queue", queueID) {
		t.Error("queue row should survive the rollback")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	dlq := deadletter.New(pool)

	dlqItem := &domain.DeadLetterItem{
		Term:            "panic-rollback-" + uuid.NewString()[:8],
		Languages:       []string{"en"},
		Priority:        5,
		FailureReason:   "boom",
		FailureAnalysis: domain.FailureAnalysis{ErrorType: "unknown_error", Count: 1},
		Attempts:        1,
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("panic value = %v, want %q", r, "test panic")
		}
		if rowExists(t, pool, "dead_letter", dlqItem.ID) {
			t.Error("dead letter row should not exist after panic rollback")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := dlq.Create(ctx, dlqItem); err != nil {
			return err
		}
		panic("test panic")
	})
}
