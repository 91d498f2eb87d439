package tokenledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/testhelper"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/tokenledger"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Each test works on its own far-apart day so they can run in parallel
// against the shared container.
func newRepo(t *testing.T) *tokenledger.Repo {
	t.Helper()
	return tokenledger.New(testhelper.SetupTestDB(t))
}

func TestRepo_RecordUsage_Accumulates(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()
	day := time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC)

	if err := repo.RecordUsage(ctx, day, 100, 1); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if err := repo.RecordUsage(ctx, day, 50, 2); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	tokens, err := repo.GetUsage(ctx, day)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if tokens != 150 {
		t.Errorf("tokens = %d, want 150", tokens)
	}

	usage, err := repo.GetDailyUsage(ctx, day, 1)
	if err != nil {
		t.Fatalf("GetDailyUsage: %v", err)
	}
	if len(usage) != 1 || usage[0].TermsGenerated != 3 {
		t.Errorf("usage = %+v, want one day with 3 terms", usage)
	}
}

func TestRepo_RecordUsage_ConcurrentIncrementsNeverLost(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()
	day := time.Date(1991, 3, 10, 0, 0, 0, 0, time.UTC)

	const workers = 10
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- repo.RecordUsage(ctx, day, 10, 1)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	tokens, err := repo.GetUsage(ctx, day)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if tokens != workers*10 {
		t.Errorf("tokens = %d, want %d", tokens, workers*10)
	}
}

func TestRepo_GetUsage_MissingDayIsZero(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)

	tokens, err := repo.GetUsage(context.Background(), time.Date(1992, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if tokens != 0 {
		t.Errorf("tokens = %d, want 0", tokens)
	}
}

func TestRepo_RecordUsage_RejectsNegative(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	day := time.Date(1993, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.RecordUsage(context.Background(), day, -5, 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRepo_GetDailyUsage_Window(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	base := time.Date(1994, 8, 10, 0, 0, 0, 0, time.UTC)
	for i, tokens := range []int{100, 200, 300} {
		day := base.AddDate(0, 0, i)
		if err := repo.RecordUsage(ctx, day, tokens, 1); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	// Two-day window ending on the middle day: the newest day falls outside.
	usage, err := repo.GetDailyUsage(ctx, base.AddDate(0, 0, 1), 2)
	if err != nil {
		t.Fatalf("GetDailyUsage: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("len(usage) = %d, want 2", len(usage))
	}
	// Newest first.
	if usage[0].TokensUsed != 200 || usage[1].TokensUsed != 100 {
		t.Errorf("usage = %+v, want [200, 100]", usage)
	}
}
