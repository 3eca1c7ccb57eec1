package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos/testutil"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
)

func TestIngestJobRepoClaimLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewIngestJobRepo(db, testutil.Logger(t))

	jobs, err := repo.Enqueue(dbc, []*types.IngestJob{
		{Kind: types.IngestJobKindIngest, DocumentID: uuid.New(), ChunkProfileID: uuid.New()},
	})
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Enqueue: err=%v len=%d", err, len(jobs))
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 5, 30*time.Second, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil || claimed.ID != jobs[0].ID {
		t.Fatalf("expected to claim the enqueued job, got %+v", claimed)
	}
	if claimed.Status != types.IngestJobStatusRunning || claimed.Attempts != 1 {
		t.Fatalf("claim should mark running with one attempt: %+v", claimed)
	}

	// While running with a fresh heartbeat nothing else is claimable.
	again, err := repo.ClaimNextRunnable(dbc, 5, 30*time.Second, 30*time.Minute)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if again != nil {
		t.Fatalf("running job with fresh heartbeat must not be reclaimed")
	}

	if err := repo.MarkFailed(dbc, claimed.ID, "embedder timeout"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	// Failed job is not runnable until the retry delay elapses.
	blocked, err := repo.ClaimNextRunnable(dbc, 5, 30*time.Second, 30*time.Minute)
	if err != nil {
		t.Fatalf("claim after fail: %v", err)
	}
	if blocked != nil {
		t.Fatalf("failed job should wait out the retry delay")
	}
	// With a zero retry delay it is immediately retryable.
	retry, err := repo.ClaimNextRunnable(dbc, 5, 0, 30*time.Minute)
	if err != nil {
		t.Fatalf("retry claim: %v", err)
	}
	if retry == nil || retry.Attempts != 2 {
		t.Fatalf("expected retry with second attempt, got %+v", retry)
	}

	if err := repo.MarkSucceeded(dbc, retry.ID); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}
	final, err := repo.GetByID(dbc, retry.ID)
	if err != nil || final == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if final.Status != types.IngestJobStatusSucceeded || final.FinishedAt == nil {
		t.Fatalf("job not finalized: %+v", final)
	}
}
